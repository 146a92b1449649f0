package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
)

// Memory implements LessonStore, WatermarkStore and NoticeStore in process
// memory. It backs the engine/facade/watch tests and interprets queries with
// the exact semantics of the Postgres store.
type Memory struct {
	mu         sync.RWMutex
	lessons    map[int64]models.Lesson
	watermarks map[string]int64
	notices    map[int64]models.CancellationNotice
}

func NewMemory() *Memory {
	return &Memory{
		lessons:    make(map[int64]models.Lesson),
		watermarks: make(map[string]int64),
		notices:    make(map[int64]models.CancellationNotice),
	}
}

func (m *Memory) UpsertLessons(ctx context.Context, lessons []models.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lessons {
		m.lessons[l.ID] = l
	}
	return nil
}

func (m *Memory) FindLessons(ctx context.Context, q Query) ([]models.Lesson, error) {
	m.mu.RLock()
	var out []models.Lesson
	for _, l := range m.lessons {
		if matchesQuery(l, q) {
			out = append(out, l)
		}
	}
	m.mu.RUnlock()

	field := q.orderField()
	sort.SliceStable(out, func(i, j int) bool {
		less := compare(fieldValue(out[i], field), fieldValue(out[j], field)) < 0
		if q.Desc {
			return !less
		}
		return less
	})
	return out, nil
}

func (m *Memory) Version(ctx context.Context, day string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.watermarks[day]; ok {
		return v, nil
	}
	return models.VersionUnknown, nil
}

func (m *Memory) Advance(ctx context.Context, day string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.watermarks[day]; !ok || version > current {
		m.watermarks[day] = version
	}
	return nil
}

func (m *Memory) AlreadyNotified(ctx context.Context, lessonID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.notices[lessonID]
	return ok, nil
}

func (m *Memory) MarkNotified(ctx context.Context, notice models.CancellationNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notices[notice.LessonID]; !ok {
		m.notices[notice.LessonID] = notice
	}
	return nil
}

// Len reports the number of stored lessons.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lessons)
}

func matchesQuery(l models.Lesson, q Query) bool {
	for _, cl := range q.Clauses {
		if len(cl) == 0 {
			continue
		}
		anyHit := false
		for _, p := range cl {
			if matches(l, p) {
				anyHit = true
				break
			}
		}
		if !anyHit {
			return false
		}
	}
	return true
}

func matches(l models.Lesson, p Predicate) bool {
	have := fieldValue(l, p.Field)
	want := normalize(p.Value)
	switch p.Op {
	case OpEquals:
		return compare(have, want) == 0
	case OpNotEquals:
		return compare(have, want) != 0
	case OpGte:
		return compare(have, want) >= 0
	case OpLte:
		return compare(have, want) <= 0
	case OpMatch:
		text, ok := have.(string)
		sub, ok2 := want.(string)
		return ok && ok2 && strings.Contains(strings.ToLower(text), strings.ToLower(sub))
	}
	return false
}

func fieldValue(l models.Lesson, f Field) interface{} {
	switch f {
	case FieldStartTime:
		return l.StartTime
	case FieldEndTime:
		return l.EndTime
	case FieldStatus:
		return string(l.Status)
	case FieldCourseNr:
		return int64(l.CourseNr)
	case FieldCourseName:
		return l.CourseName
	case FieldCourseShortName:
		return l.CourseShortName
	case FieldSubject:
		return l.Subject
	case FieldShortSubject:
		return l.ShortSubject
	case FieldTeacher:
		return l.Teacher
	case FieldShortTeacher:
		return l.ShortTeacher
	case FieldRoom:
		return l.Room
	case FieldShortRoom:
		return l.ShortRoom
	}
	return nil
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case models.LessonStatus:
		return string(x)
	default:
		return v
	}
}

func compare(a, b interface{}) int {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 1
		}
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	case int64:
		y, ok := b.(int64)
		if !ok {
			return 1
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y, ok := b.(string)
		if !ok {
			return 1
		}
		return strings.Compare(x, y)
	}
	return 0
}
