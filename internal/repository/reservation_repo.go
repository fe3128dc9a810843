package repository

import (
	"context"
	"time"

	"github.com/swimhub/reservation-service/internal/models"
	"gorm.io/gorm"
)

// ReservationFilter narrows listing queries. Nil pointers mean "any".
type ReservationFilter struct {
	MemberID *uint
	CourseID *uint
	Status   *models.ReservationStatus
	Page     int
	Size     int
}

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindActiveByMember(ctx context.Context, memberID uint) ([]models.Reservation, error)
	FindActiveByMemberAndCourse(ctx context.Context, memberID, courseID uint) (*models.Reservation, error)
	// MarkCancelled flips active -> cancelled as one conditional update and
	// reports whether a row actually changed. A false return means the
	// reservation was already cancelled or completed.
	MarkCancelled(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (bool, error)
	List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error)
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).Preload("Course").First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindActiveByMember(ctx context.Context, memberID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("member_id = ? AND status = ?", memberID, models.StatusActive).
		Order("id ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindActiveByMemberAndCourse(ctx context.Context, memberID, courseID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND course_id = ? AND status = ?", memberID, courseID, models.StatusActive).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) MarkCancelled(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(map[string]any{
			"status":       models.StatusCancelled,
			"cancelled_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *reservationRepository) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Reservation{})
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.CourseID != nil {
		q = q.Where("course_id = ?", *filter.CourseID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	size := filter.Size
	if size <= 0 {
		size = 20
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}

	var reservations []models.Reservation
	err := q.Preload("Course").
		Order("created_at DESC").
		Limit(size).
		Offset(page * size).
		Find(&reservations).Error
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

func (r *reservationRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
