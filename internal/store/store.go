package store

import (
	"context"
	"time"

	"github.com/stundenapp/stundenapp-back/internal/models"
)

// LessonStore is the queryable lesson index. Upserts are keyed by the
// upstream lesson id and become visible to queries immediately.
type LessonStore interface {
	UpsertLessons(ctx context.Context, lessons []models.Lesson) error
	FindLessons(ctx context.Context, q Query) ([]models.Lesson, error)
}

// WatermarkStore tracks the last import version applied per calendar day.
// Advance must merge with max semantics so the watermark never regresses
// under concurrent syncs.
type WatermarkStore interface {
	Version(ctx context.Context, day string) (int64, error)
	Advance(ctx context.Context, day string, version int64) error
}

// NoticeStore suppresses duplicate cancellation notifications by lesson id.
type NoticeStore interface {
	AlreadyNotified(ctx context.Context, lessonID int64) (bool, error)
	MarkNotified(ctx context.Context, notice models.CancellationNotice) error
}

// DayKey formats a timestamp as the watermark day key.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
