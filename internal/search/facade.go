package search

import (
	"context"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
	"github.com/stundenapp/stundenapp-back/internal/store"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

// Freshener is the sync step both query shapes run first, so results are
// never staler than the last probed import version for the window.
type Freshener interface {
	EnsureFresh(ctx context.Context, creds untis.Credentials, from, to time.Time) error
}

// Facade composes the two supported query shapes over the lesson store.
type Facade struct {
	fresh   Freshener
	lessons store.LessonStore
}

func New(fresh Freshener, lessons store.LessonStore) *Facade {
	return &Facade{fresh: fresh, lessons: lessons}
}

// TimetableRequest answers "my timetable for this window": everything in
// the primary or secondary class plus any lesson whose short subject hits
// one of the subscribed course tokens.
type TimetableRequest struct {
	From            time.Time
	To              time.Time
	PrimaryCourse   int
	SecondaryCourse int
	CourseTokens    []string
}

func (f *Facade) Timetable(ctx context.Context, creds untis.Credentials, req TimetableRequest) ([]models.Lesson, error) {
	if err := f.fresh.EnsureFresh(ctx, creds, req.From, req.To); err != nil {
		return nil, err
	}

	courses := store.Or(store.Equals(store.FieldCourseNr, req.PrimaryCourse))
	if req.SecondaryCourse != 0 {
		courses = append(courses, store.Equals(store.FieldCourseNr, req.SecondaryCourse))
	}
	for _, token := range req.CourseTokens {
		courses = append(courses, store.Match(store.FieldShortSubject, token))
	}

	q := store.Query{}.
		And(store.Or(store.Gte(store.FieldStartTime, req.From))).
		And(store.Or(store.Lte(store.FieldStartTime, req.To))).
		And(courses)
	return f.lessons.FindLessons(ctx, q)
}

// SearchRequest is the free-text shape: a time window plus a query string
// matched across subject, course, teacher and room fields, short and long.
type SearchRequest struct {
	Text             string
	From             time.Time
	To               time.Time
	IncludeCancelled bool
	Desc             bool
}

var textFields = []store.Field{
	store.FieldSubject,
	store.FieldShortSubject,
	store.FieldCourseName,
	store.FieldCourseShortName,
	store.FieldTeacher,
	store.FieldShortTeacher,
	store.FieldRoom,
	store.FieldShortRoom,
}

func (f *Facade) Search(ctx context.Context, creds untis.Credentials, req SearchRequest) ([]models.Lesson, error) {
	if err := f.fresh.EnsureFresh(ctx, creds, req.From, req.To); err != nil {
		return nil, err
	}

	var text store.Clause
	for _, field := range textFields {
		text = append(text, store.Match(field, req.Text))
	}

	q := store.Query{Desc: req.Desc}.
		And(store.Or(store.Gte(store.FieldStartTime, req.From))).
		And(store.Or(store.Lte(store.FieldEndTime, req.To))).
		And(text)
	if !req.IncludeCancelled {
		q = q.And(store.Or(store.NotEquals(store.FieldStatus, models.StatusCancelled)))
	}
	return f.lessons.FindLessons(ctx, q)
}
