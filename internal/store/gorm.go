package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stundenapp/stundenapp-back/internal/models"
)

// DB implements LessonStore, WatermarkStore and NoticeStore on Postgres.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// UpsertLessons inserts or overwrites lessons by their upstream id.
// Re-upserting identical data is a no-op in effect.
func (s *DB) UpsertLessons(ctx context.Context, lessons []models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&lessons).Error
	if err != nil {
		return fmt.Errorf("upsert lessons: %w", err)
	}
	return nil
}

// FindLessons runs a composed query against the lesson table.
func (s *DB) FindLessons(ctx context.Context, q Query) ([]models.Lesson, error) {
	tx := s.db.WithContext(ctx).Model(&models.Lesson{})

	for _, cl := range q.Clauses {
		if len(cl) == 0 {
			continue
		}
		group := s.db.Where(condition(cl[0]), cl[0].Value)
		for _, p := range cl[1:] {
			group = group.Or(condition(p), p.Value)
		}
		tx = tx.Where(group)
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	tx = tx.Order(fmt.Sprintf("%s %s", q.orderField(), dir))

	var lessons []models.Lesson
	if err := tx.Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("find lessons: %w", err)
	}
	return lessons, nil
}

func condition(p Predicate) string {
	switch p.Op {
	case OpNotEquals:
		return fmt.Sprintf("%s <> ?", p.Field)
	case OpGte:
		return fmt.Sprintf("%s >= ?", p.Field)
	case OpLte:
		return fmt.Sprintf("%s <= ?", p.Field)
	case OpMatch:
		return fmt.Sprintf("%s ILIKE '%%' || ? || '%%'", p.Field)
	default:
		return fmt.Sprintf("%s = ?", p.Field)
	}
}

// Version reads the watermark of one day, VersionUnknown before first sync.
func (s *DB) Version(ctx context.Context, day string) (int64, error) {
	var wm models.ImportWatermark
	err := s.db.WithContext(ctx).Where("day = ?", day).First(&wm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VersionUnknown, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read watermark %s: %w", day, err)
	}
	return wm.Version, nil
}

// Advance raises a day's watermark to version. GREATEST keeps the merge
// monotonic when two syncs race on the same day.
func (s *DB) Advance(ctx context.Context, day string, version int64) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"version": gorm.Expr("GREATEST(import_watermarks.version, EXCLUDED.version)"),
			}),
		}).
		Create(&models.ImportWatermark{Day: day, Version: version}).Error
	if err != nil {
		return fmt.Errorf("advance watermark %s: %w", day, err)
	}
	return nil
}

// AlreadyNotified reports whether a cancellation notice for the lesson was
// recorded before.
func (s *DB) AlreadyNotified(ctx context.Context, lessonID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.CancellationNotice{}).
		Where("lesson_id = ?", lessonID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check notice %d: %w", lessonID, err)
	}
	return count > 0, nil
}

// MarkNotified records a cancellation notice. Losing a race to another
// sweep is fine, the notice is already there.
func (s *DB) MarkNotified(ctx context.Context, notice models.CancellationNotice) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&notice).Error
	if err != nil {
		return fmt.Errorf("mark notified %d: %w", notice.LessonID, err)
	}
	return nil
}
