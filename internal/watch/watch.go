package watch

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/stundenapp/stundenapp-back/internal/models"
	"github.com/stundenapp/stundenapp-back/internal/notify"
	"github.com/stundenapp/stundenapp-back/internal/store"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

// window swept ahead of now on every tick
const lookaheadDays = 7

// Freshener is the sync step a tick runs before scanning for cancellations.
type Freshener interface {
	EnsureFresh(ctx context.Context, creds untis.Credentials, from, to time.Time) error
}

// Dispatcher fans a cancellation event out to the delivery channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev notify.Event)
}

// Watch is the periodic cancellation sweep. Every tick re-synchronizes a
// fixed forward-looking window with the service credentials, scans the
// watched courses for cancelled lessons in whitelisted period slots and
// dispatches one notification per lesson, ever.
type Watch struct {
	cfg     Config
	creds   untis.Credentials
	fresh   Freshener
	lessons store.LessonStore
	notices store.NoticeStore
	fanout  Dispatcher

	now  func() time.Time
	cron *cron.Cron
}

func New(cfg Config, creds untis.Credentials, fresh Freshener, lessons store.LessonStore, notices store.NoticeStore, fanout Dispatcher) *Watch {
	return &Watch{
		cfg:     cfg,
		creds:   creds,
		fresh:   fresh,
		lessons: lessons,
		notices: notices,
		fanout:  fanout,
		now:     time.Now,
	}
}

// WithClock injects a time source for tests.
func (w *Watch) WithClock(now func() time.Time) *Watch {
	w.now = now
	return w
}

// Start schedules the sweep at the configured interval.
func (w *Watch) Start() error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc("@every "+w.cfg.interval().String(), func() {
		w.Tick(context.Background())
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	log.Println("cancellation watch running every", w.cfg.interval())
	return nil
}

// Stop halts the timer. A tick already running finishes its pass.
func (w *Watch) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Tick runs one sweep. Failures of a single course never stop the sweep
// for the remaining ones; the next tick is the retry mechanism.
func (w *Watch) Tick(ctx context.Context) {
	now := w.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, lookaheadDays)

	if err := w.fresh.EnsureFresh(ctx, w.creds, from, to); err != nil {
		// Stale data is still worth scanning; per-class gaps were already
		// isolated inside the engine.
		log.Println("watch: refresh:", err)
	}

	for _, courseID := range w.cfg.watchedCourses() {
		if err := w.sweepCourse(ctx, courseID, from, to); err != nil {
			log.Printf("watch: course %d: %v", courseID, err)
		}
	}
}

func (w *Watch) sweepCourse(ctx context.Context, courseID int, from, to time.Time) error {
	q := store.Query{}.
		And(store.Or(store.Gte(store.FieldStartTime, from))).
		And(store.Or(store.Lte(store.FieldStartTime, to))).
		And(store.Or(store.Equals(store.FieldCourseNr, courseID))).
		And(store.Or(store.Equals(store.FieldStatus, models.StatusCancelled)))

	lessons, err := w.lessons.FindLessons(ctx, q)
	if err != nil {
		return err
	}

	for _, l := range lessons {
		if !w.slotAllowed(l.StartTime) {
			continue
		}
		done, err := w.notices.AlreadyNotified(ctx, l.ID)
		if err != nil {
			log.Printf("watch: notice check %d: %v", l.ID, err)
			continue
		}
		if done {
			continue
		}

		notice := models.CancellationNotice{
			LessonID:   l.ID,
			NoticeID:   uuid.NewString(),
			CourseKey:  strconv.Itoa(courseID),
			Subject:    l.DisplaySubject(),
			StartTime:  l.StartTime,
			NotifiedAt: w.now(),
		}
		if err := w.notices.MarkNotified(ctx, notice); err != nil {
			log.Printf("watch: mark notified %d: %v", l.ID, err)
			continue
		}

		w.fanout.Dispatch(ctx, notify.Event{
			CourseKey: notice.CourseKey,
			Subject:   notice.Subject,
			Start:     l.StartTime,
		})
	}
	return nil
}

func (w *Watch) slotAllowed(start time.Time) bool {
	slot := start.Format("15:04")
	for _, s := range w.cfg.Slots {
		if s == slot {
			return true
		}
	}
	return false
}
