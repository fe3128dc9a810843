package repository

import (
	"context"
	"errors"
	"time"

	"github.com/swimhub/reservation-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict means another writer bumped the course version between
// our read and our conditional update. Callers reread and retry.
var ErrVersionConflict = errors.New("course version conflict")

type CourseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Course, error)
	// TryDelta applies occupancy += delta only if the stored version still
	// equals expectedVersion, bumping the version on success. It does not
	// validate occupancy bounds; that is the caller's job against a fresh read.
	TryDelta(ctx context.Context, tx *gorm.DB, courseID uint, delta int, expectedVersion int) error
	// Upsert syncs catalog fields from the course service. Locally owned
	// capacity state (current_count, version) is never overwritten.
	Upsert(ctx context.Context, course *models.Course) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) FindByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) TryDelta(ctx context.Context, tx *gorm.DB, courseID uint, delta int, expectedVersion int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND version = ?", courseID, expectedVersion).
		UpdateColumns(map[string]any{
			"current_count": gorm.Expr("current_count + ?", delta),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *courseRepository) Upsert(ctx context.Context, course *models.Course) error {
	// Capacity state is owned here, not by the catalog: a new course always
	// starts empty no matter what the broker payload carried.
	course.CurrentCount = 0
	course.Version = 0
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "course_type", "coach_name", "start_time", "end_time",
			"capacity", "status", "updated_at",
		}),
	}).Create(course).Error
}

func (r *courseRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
