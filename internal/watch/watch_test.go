package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
	"github.com/stundenapp/stundenapp-back/internal/notify"
	"github.com/stundenapp/stundenapp-back/internal/store"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

type fakeFreshener struct {
	calls int
	err   error
	from  time.Time
	to    time.Time
}

func (f *fakeFreshener) EnsureFresh(ctx context.Context, creds untis.Credentials, from, to time.Time) error {
	f.calls++
	f.from, f.to = from, to
	return f.err
}

type recordingDispatcher struct {
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, ev notify.Event) {
	d.events = append(d.events, ev)
}

func testConfig() Config {
	return Config{
		Interval:      "15m",
		GeneralCourse: 100,
		Courses:       []int{2267},
		Slots:         []string{"07:45", "08:35", "09:45", "10:45"},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.Local)
	}
}

func cancelledLesson(id int64, course int, start time.Time) models.Lesson {
	return models.Lesson{
		ID:        id,
		CourseNr:  course,
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
		Status:    models.StatusCancelled,
		Subject:   "Mathematik",
	}
}

func newWatch(mem *store.Memory, fresh Freshener, d Dispatcher) *Watch {
	creds := untis.Credentials{Username: "svc"}
	return New(testConfig(), creds, fresh, mem, mem, d).WithClock(fixedClock())
}

func TestTickEmitsCancellationEvents(t *testing.T) {
	mem := store.NewMemory()
	start := time.Date(2024, time.March, 11, 9, 45, 0, 0, time.Local)
	mem.UpsertLessons(context.Background(), []models.Lesson{cancelledLesson(7001, 2267, start)})

	fresh := &fakeFreshener{}
	d := &recordingDispatcher{}
	newWatch(mem, fresh, d).Tick(context.Background())

	if fresh.calls != 1 {
		t.Errorf("refresh ran %d times, want 1", fresh.calls)
	}
	wantTo := time.Date(2024, time.March, 17, 0, 0, 0, 0, time.Local)
	if !fresh.to.Equal(wantTo) {
		t.Errorf("sweep window ends %v, want %v", fresh.to, wantTo)
	}
	if len(d.events) != 1 {
		t.Fatalf("got %d events, want 1", len(d.events))
	}
	ev := d.events[0]
	if ev.CourseKey != "2267" || ev.Subject != "Mathematik" || !ev.Start.Equal(start) {
		t.Errorf("event = %+v", ev)
	}
}

func TestTickIgnoresRegularLessons(t *testing.T) {
	mem := store.NewMemory()
	start := time.Date(2024, time.March, 11, 9, 45, 0, 0, time.Local)
	regular := cancelledLesson(7001, 2267, start)
	regular.Status = models.StatusRegular
	mem.UpsertLessons(context.Background(), []models.Lesson{regular})

	d := &recordingDispatcher{}
	newWatch(mem, &fakeFreshener{}, d).Tick(context.Background())

	if len(d.events) != 0 {
		t.Errorf("regular lesson produced %d events", len(d.events))
	}
}

func TestTickSlotWhitelist(t *testing.T) {
	mem := store.NewMemory()
	// 13:15 is not a whitelisted period start (e.g. extracurricular slot)
	off := time.Date(2024, time.March, 11, 13, 15, 0, 0, time.Local)
	on := time.Date(2024, time.March, 11, 8, 35, 0, 0, time.Local)
	mem.UpsertLessons(context.Background(), []models.Lesson{
		cancelledLesson(7001, 2267, off),
		cancelledLesson(7002, 2267, on),
	})

	d := &recordingDispatcher{}
	newWatch(mem, &fakeFreshener{}, d).Tick(context.Background())

	if len(d.events) != 1 {
		t.Fatalf("got %d events, want only the whitelisted slot", len(d.events))
	}
	if !d.events[0].Start.Equal(on) {
		t.Errorf("event for wrong lesson: %+v", d.events[0])
	}
}

func TestTickSuppressesDuplicates(t *testing.T) {
	mem := store.NewMemory()
	start := time.Date(2024, time.March, 11, 9, 45, 0, 0, time.Local)
	mem.UpsertLessons(context.Background(), []models.Lesson{cancelledLesson(7001, 2267, start)})

	d := &recordingDispatcher{}
	w := newWatch(mem, &fakeFreshener{}, d)

	w.Tick(context.Background())
	w.Tick(context.Background())

	if len(d.events) != 1 {
		t.Fatalf("duplicate suppression failed: %d events across two ticks", len(d.events))
	}
}

func TestTickSurvivesRefreshFailure(t *testing.T) {
	mem := store.NewMemory()
	start := time.Date(2024, time.March, 11, 9, 45, 0, 0, time.Local)
	mem.UpsertLessons(context.Background(), []models.Lesson{cancelledLesson(7001, 2267, start)})

	d := &recordingDispatcher{}
	fresh := &fakeFreshener{err: errors.New("upstream down")}
	newWatch(mem, fresh, d).Tick(context.Background())

	// stale stored data still gets scanned
	if len(d.events) != 1 {
		t.Errorf("sweep aborted on refresh failure: %d events", len(d.events))
	}
}

func TestTickWatchesGeneralCourse(t *testing.T) {
	mem := store.NewMemory()
	start := time.Date(2024, time.March, 11, 9, 45, 0, 0, time.Local)
	mem.UpsertLessons(context.Background(), []models.Lesson{cancelledLesson(8001, 100, start)})

	d := &recordingDispatcher{}
	newWatch(mem, &fakeFreshener{}, d).Tick(context.Background())

	if len(d.events) != 1 || d.events[0].CourseKey != "100" {
		t.Fatalf("general course not swept: %+v", d.events)
	}
}
