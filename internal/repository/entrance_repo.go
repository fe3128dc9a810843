package repository

import (
	"context"
	"time"

	"github.com/swimhub/reservation-service/internal/models"
	"gorm.io/gorm"
)

// EntryRecordFilter narrows entry-record listings. Nil pointers mean "any".
type EntryRecordFilter struct {
	MemberID *uint
	From     *time.Time
	To       *time.Time
	Page     int
	Size     int
}

type EntranceRepository interface {
	CreateToken(ctx context.Context, token *models.EntryToken) error
	FindToken(ctx context.Context, tokenValue string) (*models.EntryToken, error)
	// MarkTokenUsed flips unused -> used as one conditional update and
	// reports whether a row actually changed, so two racing verifications
	// cannot both win.
	MarkTokenUsed(ctx context.Context, tx *gorm.DB, tokenValue string, at time.Time) (bool, error)
	CreateRecord(ctx context.Context, tx *gorm.DB, record *models.EntryRecord) error
	FindRecordByID(ctx context.Context, id uint) (*models.EntryRecord, error)
	ListRecords(ctx context.Context, filter EntryRecordFilter) ([]models.EntryRecord, int64, error)
	DeleteRecord(ctx context.Context, id uint) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type entranceRepository struct {
	db *gorm.DB
}

func NewEntranceRepository(db *gorm.DB) EntranceRepository {
	return &entranceRepository{db: db}
}

func (r *entranceRepository) CreateToken(ctx context.Context, token *models.EntryToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *entranceRepository) FindToken(ctx context.Context, tokenValue string) (*models.EntryToken, error) {
	var token models.EntryToken
	if err := r.db.WithContext(ctx).Where("token = ?", tokenValue).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *entranceRepository) MarkTokenUsed(ctx context.Context, tx *gorm.DB, tokenValue string, at time.Time) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&models.EntryToken{}).
		Where("token = ? AND used = ?", tokenValue, false).
		Updates(map[string]any{
			"used":    true,
			"used_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *entranceRepository) CreateRecord(ctx context.Context, tx *gorm.DB, record *models.EntryRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(record).Error
}

func (r *entranceRepository) FindRecordByID(ctx context.Context, id uint) (*models.EntryRecord, error) {
	var record models.EntryRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *entranceRepository) ListRecords(ctx context.Context, filter EntryRecordFilter) ([]models.EntryRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.EntryRecord{})
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}
	if filter.From != nil {
		q = q.Where("entered_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("entered_at <= ?", *filter.To)
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

	var records []models.EntryRecord
	err := q.Order("entered_at DESC").
		Limit(size).
		Offset(page * size).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *entranceRepository) DeleteRecord(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.EntryRecord{}, id).Error
}

func (r *entranceRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
