package models

import "time"

type ReservationStatus string

const (
	StatusActive    ReservationStatus = "active"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

type Reservation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	MemberID    uint              `gorm:"not null;index" json:"member_id"`
	CourseID    uint              `gorm:"not null;index" json:"course_id"`
	Status      ReservationStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
