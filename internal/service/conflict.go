package service

import (
	"context"
	"time"

	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/repository"
)

// ConflictDetector finds a time overlap between a candidate window and a
// member's existing active reservations. Pure read, no side effects.
type ConflictDetector struct {
	reservations repository.ReservationRepository
}

func NewConflictDetector(reservations repository.ReservationRepository) *ConflictDetector {
	return &ConflictDetector{reservations: reservations}
}

// FindConflict returns the first active reservation whose course window
// overlaps [start, end). Windows are half-open: touching endpoints do not
// conflict. Returns nil when the member is free.
func (d *ConflictDetector) FindConflict(ctx context.Context, memberID uint, start, end time.Time) (*models.Reservation, error) {
	active, err := d.reservations.FindActiveByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	for i := range active {
		course := active[i].Course
		if course == nil {
			continue
		}
		// overlap: start < courseEnd && end > courseStart
		if start.Before(course.EndTime) && end.After(course.StartTime) {
			return &active[i], nil
		}
	}
	return nil, nil
}
