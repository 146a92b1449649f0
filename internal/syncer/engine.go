package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stundenapp/stundenapp-back/internal/store"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

// Engine keeps the lesson index fresh against the upstream import version.
// Freshness is tracked per calendar day: a day whose watermark reached the
// probed version is served from the index without touching the upstream.
type Engine struct {
	opener  untis.Opener
	lessons store.LessonStore
	marks   store.WatermarkStore

	// FetchConcurrency caps the per-class fan-out. Zero means unbounded.
	FetchConcurrency int
}

func New(opener untis.Opener, lessons store.LessonStore, marks store.WatermarkStore) *Engine {
	return &Engine{opener: opener, lessons: lessons, marks: marks}
}

// EnsureFresh brings every day in [from, to] up to the upstream's current
// import version. Fresh ranges return after a single version probe. Stale
// ranges trigger one timetable fetch per class over the contiguous stale
// span, in parallel; a single class failing is logged and skipped, and only
// holds back the watermark advance, never the whole call. Auth and store
// errors do propagate.
func (e *Engine) EnsureFresh(ctx context.Context, creds untis.Credentials, from, to time.Time) error {
	days := enumerateDays(from, to)
	if len(days) == 0 {
		return nil
	}

	session, err := e.opener.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		if err := session.Logout(context.Background()); err != nil {
			log.Println("sync: logout:", err)
		}
	}()

	version, err := session.LatestImportVersion(ctx)
	if err != nil {
		return fmt.Errorf("probe import version: %w", err)
	}

	var stale []time.Time
	for _, day := range days {
		mark, err := e.marks.Version(ctx, store.DayKey(day))
		if err != nil {
			return err
		}
		if mark < version {
			stale = append(stale, day)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	classes, err := session.Classes(ctx)
	if err != nil {
		return fmt.Errorf("fetch class list: %w", err)
	}

	// Batched span, not per-day: one fetch per class covering the earliest
	// to latest stale day.
	spanStart, spanEnd := stale[0], stale[len(stale)-1]

	g, gctx := errgroup.WithContext(ctx)
	if e.FetchConcurrency > 0 {
		g.SetLimit(e.FetchConcurrency)
	}
	var failed atomic.Int32

	for _, class := range classes {
		class := class
		g.Go(func() error {
			lessons, err := session.Timetable(gctx, class, spanStart, spanEnd)
			if errors.Is(err, untis.ErrNoResult) {
				// The documented upstream quirk: empty range, not a failure.
				return nil
			}
			if err != nil {
				log.Printf("sync: class %s (%d): %v", class.ShortName, class.ID, err)
				failed.Add(1)
				return nil
			}
			return e.lessons.UpsertLessons(gctx, lessons)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Join barrier reached. Watermarks only advance when every class in the
	// span was confirmed, and only monotonically.
	if failed.Load() > 0 {
		log.Printf("sync: %d of %d classes failed, watermarks held back", failed.Load(), len(classes))
		return nil
	}
	for _, day := range stale {
		if err := e.marks.Advance(ctx, store.DayKey(day), version); err != nil {
			return err
		}
	}
	return nil
}

func enumerateDays(from, to time.Time) []time.Time {
	start := truncateDay(from)
	end := truncateDay(to)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
