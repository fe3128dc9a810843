package database

import (
	"log"

	"github.com/swimhub/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Course{},
		&models.Member{},
		&models.Reservation{},
		&models.EntryToken{},
		&models.EntryRecord{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: at most one active reservation per (member, course)
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reservation_active
		ON reservations (course_id, member_id)
		WHERE status = 'active'
	`)

	return db
}
