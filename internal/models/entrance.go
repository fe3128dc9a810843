package models

import (
	"time"

	"gorm.io/gorm"
)

// EntryToken is a single-use entry credential. Course fields are a value
// snapshot taken at issue time; they may go stale and that is fine.
type EntryToken struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Token           string     `gorm:"uniqueIndex;not null" json:"token"`
	MemberID        uint       `gorm:"not null;index" json:"member_id"`
	MemberName      string     `json:"member_name"`
	ReservationID   *uint      `json:"reservation_id,omitempty"`
	CourseName      string     `json:"course_name,omitempty"`
	CourseStartTime *time.Time `json:"course_start_time,omitempty"`
	CoachName       string     `json:"coach_name,omitempty"`
	IssuedAt        time.Time  `gorm:"not null" json:"issued_at"`
	Used            bool       `gorm:"not null;default:false" json:"used"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EntryRecord is the append-only log of a successful token redemption.
type EntryRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	MemberID      uint           `gorm:"not null;index" json:"member_id"`
	MemberName    string         `json:"member_name"`
	Token         string         `gorm:"not null" json:"token"`
	EnteredAt     time.Time      `gorm:"not null;index" json:"entered_at"`
	VerifierID    uint           `gorm:"not null" json:"verifier_id"`
	VerifierName  string         `json:"verifier_name"`
	ReservationID *uint          `json:"reservation_id,omitempty"`
	CourseName    string         `json:"course_name,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
