package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrMemberDisabled    = errors.New("member is disabled and cannot enter")
	ErrInvalidToken      = errors.New("invalid entry token")
	ErrTokenAlreadyUsed  = errors.New("entry token already used")
	ErrEntryRecordNotFnd = errors.New("entry record not found")
)

// entryLookahead is how far ahead a reservation may start and still be
// bound to a freshly issued token.
const entryLookahead = 2 * time.Hour

const courseReminderTip = "member has an upcoming course, remind them of the start time"

// CourseReminder is shown to the gate operator when a redeemed token was
// bound to an imminent reservation.
type CourseReminder struct {
	CourseName string     `json:"course_name"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	CoachName  string     `json:"coach_name,omitempty"`
	Tip        string     `json:"tip"`
}

type VerifyResult struct {
	MemberName string          `json:"member_name"`
	EnteredAt  time.Time       `json:"entered_at"`
	Reminder   *CourseReminder `json:"course_reminder,omitempty"`
}

type EntranceService interface {
	IssueToken(ctx context.Context, memberID uint) (*models.EntryToken, error)
	VerifyToken(ctx context.Context, tokenValue string, verifierID uint) (*VerifyResult, error)
	GetRecord(ctx context.Context, id uint) (*models.EntryRecord, error)
	ListRecords(ctx context.Context, filter repository.EntryRecordFilter) ([]models.EntryRecord, int64, error)
	DeleteRecord(ctx context.Context, id uint) error
}

type entranceService struct {
	entrance     repository.EntranceRepository
	members      repository.MemberRepository
	reservations ReservationService
	invalidator  Invalidator
}

func NewEntranceService(entrance repository.EntranceRepository, members repository.MemberRepository, reservations ReservationService, invalidator Invalidator) EntranceService {
	return &entranceService{
		entrance:     entrance,
		members:      members,
		reservations: reservations,
		invalidator:  invalidator,
	}
}

func (s *entranceService) IssueToken(ctx context.Context, memberID uint) (*models.EntryToken, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !member.Enabled {
		return nil, ErrMemberDisabled
	}

	now := time.Now()
	token := &models.EntryToken{
		Token:      newTokenValue(memberID, now),
		MemberID:   memberID,
		MemberName: member.DisplayName,
		IssuedAt:   now,
	}

	// Bind the reservation starting soonest within the lookahead window,
	// snapshotting course details for the gate display.
	upcoming, err := s.upcomingReservation(ctx, memberID, now)
	if err != nil {
		return nil, err
	}
	if upcoming != nil {
		id := upcoming.ID
		token.ReservationID = &id
		if course := upcoming.Course; course != nil {
			start := course.StartTime
			token.CourseName = course.Name
			token.CourseStartTime = &start
			token.CoachName = course.CoachName
		}
	}

	if err := s.entrance.CreateToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *entranceService) VerifyToken(ctx context.Context, tokenValue string, verifierID uint) (*VerifyResult, error) {
	token, err := s.entrance.FindToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if token.Used {
		return nil, ErrTokenAlreadyUsed
	}

	verifierName := ""
	if verifier, err := s.members.FindByID(ctx, verifierID); err == nil {
		verifierName = verifier.DisplayName
	}

	// Mark-used and record insert are one transaction; the conditional
	// update is the arbiter, so two racing verifications produce exactly
	// one record and one ErrTokenAlreadyUsed.
	enteredAt := time.Now()
	record := &models.EntryRecord{
		MemberID:      token.MemberID,
		MemberName:    token.MemberName,
		Token:         token.Token,
		EnteredAt:     enteredAt,
		VerifierID:    verifierID,
		VerifierName:  verifierName,
		ReservationID: token.ReservationID,
		CourseName:    token.CourseName,
	}
	err = s.entrance.Transaction(ctx, func(tx *gorm.DB) error {
		won, err := s.entrance.MarkTokenUsed(ctx, tx, tokenValue, enteredAt)
		if err != nil {
			return err
		}
		if !won {
			return ErrTokenAlreadyUsed
		}
		return s.entrance.CreateRecord(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, CacheKeyEntranceStats, CacheKeyDashboard)

	result := &VerifyResult{
		MemberName: token.MemberName,
		EnteredAt:  enteredAt,
	}
	if token.ReservationID != nil {
		result.Reminder = &CourseReminder{
			CourseName: token.CourseName,
			StartTime:  token.CourseStartTime,
			CoachName:  token.CoachName,
			Tip:        courseReminderTip,
		}
	}
	return result, nil
}

func (s *entranceService) GetRecord(ctx context.Context, id uint) (*models.EntryRecord, error) {
	record, err := s.entrance.FindRecordByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryRecordNotFnd
		}
		return nil, err
	}
	return record, nil
}

func (s *entranceService) ListRecords(ctx context.Context, filter repository.EntryRecordFilter) ([]models.EntryRecord, int64, error) {
	return s.entrance.ListRecords(ctx, filter)
}

func (s *entranceService) DeleteRecord(ctx context.Context, id uint) error {
	if _, err := s.entrance.FindRecordByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryRecordNotFnd
		}
		return err
	}
	return s.entrance.DeleteRecord(ctx, id)
}

// upcomingReservation picks the member's active reservation whose course
// starts soonest, strictly after now and within the lookahead window.
func (s *entranceService) upcomingReservation(ctx context.Context, memberID uint, now time.Time) (*models.Reservation, error) {
	active, err := s.reservations.ActiveReservations(ctx, memberID)
	if err != nil {
		return nil, err
	}

	deadline := now.Add(entryLookahead)
	var best *models.Reservation
	for i := range active {
		course := active[i].Course
		if course == nil {
			continue
		}
		if !course.StartTime.After(now) || !course.StartTime.Before(deadline) {
			continue
		}
		if best == nil || course.StartTime.Before(best.Course.StartTime) {
			best = &active[i]
		}
	}
	return best, nil
}

func newTokenValue(memberID uint, now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%d_%d", raw, now.UnixMilli(), memberID)
}

func (s *entranceService) invalidate(ctx context.Context, keys ...string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, keys...); err != nil {
		log.Printf("cache invalidation failed for %v: %v", keys, err)
	}
}
