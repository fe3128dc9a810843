package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCourseNotFound         = errors.New("course not found")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrCourseNotBookable      = errors.New("course is unpublished, already started, or full")
	ErrDuplicateBooking       = errors.New("member already has an active reservation for this course")
	ErrTimeConflict           = errors.New("time conflict with an existing reservation")
	ErrStaleConflictReference = errors.New("conflicting reservation id does not match, re-run preview")
	ErrForbidden              = errors.New("not allowed to cancel another member's reservation")
	ErrInvalidState           = errors.New("reservation is already cancelled or completed")
	ErrSystemBusy             = errors.New("system busy, please retry")
)

// maxCapacityRetries bounds the optimistic-lock loop on capacity updates.
const maxCapacityRetries = 3

// ConflictCheck is the advisory result of PreviewBooking. It may be stale
// by the time ConfirmBooking runs; confirm re-validates everything.
type ConflictCheck struct {
	Course      *models.Course
	HasConflict bool
	Conflict    *models.Reservation
}

type ReservationService interface {
	PreviewBooking(ctx context.Context, memberID, courseID uint) (*ConflictCheck, error)
	ConfirmBooking(ctx context.Context, memberID, courseID uint, forceReplace bool, replaceReservationID uint) (*models.Reservation, error)
	CancelBooking(ctx context.Context, reservationID, requesterID uint, requesterIsAdmin bool) error
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]models.Reservation, int64, error)
	ActiveReservations(ctx context.Context, memberID uint) ([]models.Reservation, error)
}

type reservationService struct {
	courses      repository.CourseRepository
	reservations repository.ReservationRepository
	conflicts    *ConflictDetector
	invalidator  Invalidator
}

func NewReservationService(courses repository.CourseRepository, reservations repository.ReservationRepository, invalidator Invalidator) ReservationService {
	return &reservationService{
		courses:      courses,
		reservations: reservations,
		conflicts:    NewConflictDetector(reservations),
		invalidator:  invalidator,
	}
}

func (s *reservationService) PreviewBooking(ctx context.Context, memberID, courseID uint) (*ConflictCheck, error) {
	course, err := s.loadBookableCourse(ctx, courseID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(ctx, memberID, courseID); err != nil {
		return nil, err
	}

	conflict, err := s.conflicts.FindConflict(ctx, memberID, course.StartTime, course.EndTime)
	if err != nil {
		return nil, err
	}

	check := &ConflictCheck{Course: course}
	if conflict != nil {
		check.HasConflict = true
		check.Conflict = conflict
	}
	return check, nil
}

func (s *reservationService) ConfirmBooking(ctx context.Context, memberID, courseID uint, forceReplace bool, replaceReservationID uint) (*models.Reservation, error) {
	// Preview results may be stale; run every check again.
	course, err := s.loadBookableCourse(ctx, courseID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(ctx, memberID, courseID); err != nil {
		return nil, err
	}

	conflict, err := s.conflicts.FindConflict(ctx, memberID, course.StartTime, course.EndTime)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		if !forceReplace {
			return nil, ErrTimeConflict
		}
		if replaceReservationID != conflict.ID {
			return nil, ErrStaleConflictReference
		}
		if err := s.release(ctx, conflict.ID, conflict.CourseID); err != nil {
			return nil, err
		}
	}

	var created *models.Reservation
	for attempt := 0; attempt < maxCapacityRetries; attempt++ {
		// Fresh read each attempt: a concurrent confirm may have taken the
		// last seat since the previous version was observed.
		course, err = s.courses.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		if !course.Bookable(time.Now()) {
			return nil, ErrCourseNotBookable
		}

		version := course.Version
		err = s.reservations.Transaction(ctx, func(tx *gorm.DB) error {
			if err := s.courses.TryDelta(ctx, tx, courseID, 1, version); err != nil {
				return err
			}
			reservation := &models.Reservation{
				MemberID: memberID,
				CourseID: courseID,
				Status:   models.StatusActive,
			}
			if err := s.reservations.Create(ctx, tx, reservation); err != nil {
				return err
			}
			created = reservation
			return nil
		})
		if err == nil {
			s.invalidate(ctx, CacheKeyBookingStats, CacheKeyDashboard)
			return created, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}

	return nil, ErrSystemBusy
}

func (s *reservationService) CancelBooking(ctx context.Context, reservationID, requesterID uint, requesterIsAdmin bool) error {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}

	if reservation.MemberID != requesterID && !requesterIsAdmin {
		return ErrForbidden
	}
	if reservation.Status != models.StatusActive {
		return ErrInvalidState
	}

	if err := s.release(ctx, reservation.ID, reservation.CourseID); err != nil {
		return err
	}

	s.invalidate(ctx, CacheKeyBookingStats, CacheKeyDashboard)
	return nil
}

// release cancels a reservation and frees its seat. The status flip and the
// capacity decrement share one transaction per attempt, so the flip is the
// atomic guard against a concurrent double-cancel and a lost version race
// rolls both changes back before the retry.
func (s *reservationService) release(ctx context.Context, reservationID, courseID uint) error {
	for attempt := 0; attempt < maxCapacityRetries; attempt++ {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}

		version := course.Version
		occupancy := course.CurrentCount
		err = s.reservations.Transaction(ctx, func(tx *gorm.DB) error {
			changed, err := s.reservations.MarkCancelled(ctx, tx, reservationID, time.Now())
			if err != nil {
				return err
			}
			if !changed {
				return ErrInvalidState
			}
			// Floor at zero: never push occupancy negative even if state
			// drifted. The flip alone still records the cancellation.
			if occupancy > 0 {
				return s.courses.TryDelta(ctx, tx, courseID, -1, version)
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return ErrSystemBusy
}

func (s *reservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]models.Reservation, int64, error) {
	return s.reservations.List(ctx, filter)
}

func (s *reservationService) ActiveReservations(ctx context.Context, memberID uint) ([]models.Reservation, error) {
	return s.reservations.FindActiveByMember(ctx, memberID)
}

func (s *reservationService) loadBookableCourse(ctx context.Context, courseID uint, now time.Time) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.Bookable(now) {
		return nil, ErrCourseNotBookable
	}
	return course, nil
}

func (s *reservationService) checkDuplicate(ctx context.Context, memberID, courseID uint) error {
	_, err := s.reservations.FindActiveByMemberAndCourse(ctx, memberID, courseID)
	if err == nil {
		return ErrDuplicateBooking
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *reservationService) invalidate(ctx context.Context, keys ...string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, keys...); err != nil {
		log.Printf("cache invalidation failed for %v: %v", keys, err)
	}
}
