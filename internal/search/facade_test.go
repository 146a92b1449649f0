package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
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

func seed(t *testing.T, m *store.Memory) {
	t.Helper()
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)
	lessons := []models.Lesson{
		{ID: 1, CourseNr: 2267, StartTime: day.Add(8 * time.Hour), EndTime: day.Add(9 * time.Hour),
			Status: models.StatusRegular, Subject: "Mathematik", ShortSubject: "M", Teacher: "Müller", ShortTeacher: "MUE", Room: "Raum 12", ShortRoom: "R12"},
		{ID: 2, CourseNr: 2267, StartTime: day.AddDate(0, 0, 3).Add(10 * time.Hour), EndTime: day.AddDate(0, 0, 3).Add(11 * time.Hour),
			Status: models.StatusCancelled, Subject: "Mathematik", ShortSubject: "M"},
		{ID: 3, CourseNr: 5555, StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour),
			Status: models.StatusRegular, Subject: "Physik", ShortSubject: "PH"},
		{ID: 4, CourseNr: 5555, StartTime: day.Add(11 * time.Hour), EndTime: day.Add(12 * time.Hour),
			Status: models.StatusRegular, Subject: "Sport", ShortSubject: "SPO"},
		{ID: 5, CourseNr: 2267, StartTime: day.AddDate(0, 0, 30), EndTime: day.AddDate(0, 0, 30).Add(time.Hour),
			Status: models.StatusRegular, Subject: "Mathematik", ShortSubject: "M"}, // outside any test window
	}
	if err := m.UpsertLessons(context.Background(), lessons); err != nil {
		t.Fatal(err)
	}
}

var creds = untis.Credentials{Username: "maria"}

func TestTimetableCourseWindow(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem)
	fresh := &fakeFreshener{}
	facade := New(fresh, mem)

	from := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)
	to := time.Date(2024, time.March, 8, 23, 59, 59, 0, time.Local)
	got, err := facade.Timetable(context.Background(), creds, TimetableRequest{
		From:          from,
		To:            to,
		PrimaryCourse: 2267,
		CourseTokens:  []string{"SPO"},
	})
	if err != nil {
		t.Fatalf("Timetable: %v", err)
	}

	if fresh.calls != 1 {
		t.Errorf("freshness step ran %d times, want 1", fresh.calls)
	}
	if len(got) != 3 {
		t.Fatalf("got %d lessons, want 3: %+v", len(got), got)
	}
	for i, l := range got {
		if l.StartTime.Before(from) || l.StartTime.After(to) {
			t.Errorf("lesson %d outside window: %v", l.ID, l.StartTime)
		}
		if l.CourseNr != 2267 && l.ShortSubject != "SPO" {
			t.Errorf("lesson %d matches no course criterion", l.ID)
		}
		if i > 0 && got[i].StartTime.Before(got[i-1].StartTime) {
			t.Error("results not sorted by start time ascending")
		}
	}
}

func TestTimetableSecondaryCourse(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem)
	facade := New(&fakeFreshener{}, mem)

	got, err := facade.Timetable(context.Background(), creds, TimetableRequest{
		From:            time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local),
		To:              time.Date(2024, time.March, 8, 23, 59, 59, 0, time.Local),
		PrimaryCourse:   2267,
		SecondaryCourse: 5555,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d lessons, want 4", len(got))
	}
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem)
	facade := New(&fakeFreshener{}, mem)

	from := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)
	to := time.Date(2024, time.March, 8, 23, 59, 59, 0, time.Local)

	tests := []struct {
		name    string
		text    string
		wantIDs []int64
	}{
		{"long subject", "mathematik", []int64{1}}, // cancelled id 2 excluded by default
		{"teacher short form", "mue", []int64{1}},
		{"room", "raum", []int64{1}},
		{"short subject", "ph", []int64{3}},
		{"no hit", "chemie", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := facade.Search(context.Background(), creds, SearchRequest{
				Text: tt.text,
				From: from,
				To:   to,
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d results, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("result[%d].ID = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSearchIncludeCancelled(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem)
	facade := New(&fakeFreshener{}, mem)

	got, err := facade.Search(context.Background(), creds, SearchRequest{
		Text:             "mathematik",
		From:             time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local),
		To:               time.Date(2024, time.March, 8, 23, 59, 59, 0, time.Local),
		IncludeCancelled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2 with cancelled included", len(got))
	}
}

func TestSearchDescendingOrder(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem)
	facade := New(&fakeFreshener{}, mem)

	got, err := facade.Search(context.Background(), creds, SearchRequest{
		Text:             "mathematik",
		From:             time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local),
		To:               time.Date(2024, time.March, 8, 23, 59, 59, 0, time.Local),
		IncludeCancelled: true,
		Desc:             true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].StartTime.Before(got[1].StartTime) {
		t.Fatalf("descending order broken: %+v", got)
	}
}

func TestQueriesFailWhenFreshnessFails(t *testing.T) {
	mem := store.NewMemory()
	wantErr := errors.New("upstream down")
	facade := New(&fakeFreshener{err: wantErr}, mem)

	if _, err := facade.Timetable(context.Background(), creds, TimetableRequest{}); !errors.Is(err, wantErr) {
		t.Errorf("Timetable error = %v, want freshness error", err)
	}
	if _, err := facade.Search(context.Background(), creds, SearchRequest{Text: "x"}); !errors.Is(err, wantErr) {
		t.Errorf("Search error = %v, want freshness error", err)
	}
}
