package models

import "time"

type CourseStatus string

const (
	CourseUnpublished CourseStatus = "unpublished"
	CoursePublished   CourseStatus = "published"
)

// Course is a read model synced from the catalog service. Capacity fields
// (CurrentCount, Version) are owned locally and mutated only through
// CourseRepository.TryDelta; the sync path never writes them.
type Course struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	CourseType   string       `json:"course_type"`
	CoachName    string       `json:"coach_name"`
	StartTime    time.Time    `gorm:"not null" json:"start_time"`
	EndTime      time.Time    `gorm:"not null" json:"end_time"`
	Capacity     int          `gorm:"not null" json:"capacity"`
	CurrentCount int          `gorm:"not null;default:0" json:"current_count"`
	Status       CourseStatus `gorm:"type:varchar(20);not null;default:'unpublished'" json:"status"`
	Version      int          `gorm:"not null;default:0" json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Bookable reports whether the course can accept a new reservation at t.
func (c *Course) Bookable(t time.Time) bool {
	return c.Status == CoursePublished &&
		c.CurrentCount < c.Capacity &&
		c.StartTime.After(t)
}

// Remaining is the number of free seats.
func (c *Course) Remaining() int {
	return c.Capacity - c.CurrentCount
}
