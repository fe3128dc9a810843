package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// --- Mock MemberRepository ---

type mockMemberRepo struct {
	findByIDFn func(ctx context.Context, id uint) (*models.Member, error)
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockMemberRepo) Upsert(ctx context.Context, member *models.Member) error { return nil }

// --- Mock EntranceRepository ---

type mockEntranceRepo struct {
	tokens  map[string]*models.EntryToken
	records []*models.EntryRecord

	markUsedFn func(ctx context.Context, tx *gorm.DB, tokenValue string, at time.Time) (bool, error)
}

func newMockEntranceRepo() *mockEntranceRepo {
	return &mockEntranceRepo{tokens: map[string]*models.EntryToken{}}
}

func (m *mockEntranceRepo) CreateToken(ctx context.Context, token *models.EntryToken) error {
	token.ID = uint(len(m.tokens) + 1)
	m.tokens[token.Token] = token
	return nil
}
func (m *mockEntranceRepo) FindToken(ctx context.Context, tokenValue string) (*models.EntryToken, error) {
	t, ok := m.tokens[tokenValue]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *t
	return &copy, nil
}
func (m *mockEntranceRepo) MarkTokenUsed(ctx context.Context, tx *gorm.DB, tokenValue string, at time.Time) (bool, error) {
	if m.markUsedFn != nil {
		return m.markUsedFn(ctx, tx, tokenValue, at)
	}
	t, ok := m.tokens[tokenValue]
	if !ok || t.Used {
		return false, nil
	}
	t.Used = true
	t.UsedAt = &at
	return true, nil
}
func (m *mockEntranceRepo) CreateRecord(ctx context.Context, tx *gorm.DB, record *models.EntryRecord) error {
	record.ID = uint(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}
func (m *mockEntranceRepo) FindRecordByID(ctx context.Context, id uint) (*models.EntryRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockEntranceRepo) ListRecords(ctx context.Context, filter repository.EntryRecordFilter) ([]models.EntryRecord, int64, error) {
	out := make([]models.EntryRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}
func (m *mockEntranceRepo) DeleteRecord(ctx context.Context, id uint) error { return nil }
func (m *mockEntranceRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// --- Mock ReservationService (read path only) ---

type mockReservationSvc struct {
	activeFn func(ctx context.Context, memberID uint) ([]models.Reservation, error)
}

func (m *mockReservationSvc) PreviewBooking(ctx context.Context, memberID, courseID uint) (*ConflictCheck, error) {
	return nil, nil
}
func (m *mockReservationSvc) ConfirmBooking(ctx context.Context, memberID, courseID uint, forceReplace bool, replaceReservationID uint) (*models.Reservation, error) {
	return nil, nil
}
func (m *mockReservationSvc) CancelBooking(ctx context.Context, reservationID, requesterID uint, requesterIsAdmin bool) error {
	return nil
}
func (m *mockReservationSvc) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return nil, nil
}
func (m *mockReservationSvc) ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]models.Reservation, int64, error) {
	return nil, 0, nil
}
func (m *mockReservationSvc) ActiveReservations(ctx context.Context, memberID uint) ([]models.Reservation, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx, memberID)
	}
	return nil, nil
}

// --- Helpers ---

func enabledMember(id uint, name string) *mockMemberRepo {
	return &mockMemberRepo{
		findByIDFn: func(ctx context.Context, memberID uint) (*models.Member, error) {
			if memberID != id {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Member{ID: id, DisplayName: name, Enabled: true}, nil
		},
	}
}

func reservationStartingIn(id uint, startIn time.Duration, courseName, coachName string) models.Reservation {
	start := time.Now().Add(startIn)
	return models.Reservation{
		ID:       id,
		MemberID: 7,
		CourseID: id * 10,
		Status:   models.StatusActive,
		Course: &models.Course{
			ID:        id * 10,
			Name:      courseName,
			CoachName: coachName,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Capacity:  10,
			Status:    models.CoursePublished,
		},
	}
}

// --- IssueToken ---

func TestIssueToken_MemberNotFound(t *testing.T) {
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	_, err := svc.IssueToken(context.Background(), 99)

	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestIssueToken_MemberDisabled(t *testing.T) {
	members := &mockMemberRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Member, error) {
			return &models.Member{ID: id, DisplayName: "Mia", Enabled: false}, nil
		},
	}
	svc := NewEntranceService(newMockEntranceRepo(), members, &mockReservationSvc{}, nil)

	_, err := svc.IssueToken(context.Background(), 7)

	assert.ErrorIs(t, err, ErrMemberDisabled)
}

func TestIssueToken_NoUpcomingReservation(t *testing.T) {
	// Only reservation starts in 3h, outside the 2h lookahead: unbound token.
	reservations := &mockReservationSvc{
		activeFn: func(ctx context.Context, memberID uint) ([]models.Reservation, error) {
			return []models.Reservation{reservationStartingIn(1, 3*time.Hour, "Butterfly Clinic", "Coach Lin")}, nil
		},
	}
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), reservations, nil)

	token, err := svc.IssueToken(context.Background(), 7)

	require.NoError(t, err)
	assert.Nil(t, token.ReservationID)
	assert.Empty(t, token.CourseName)
	assert.False(t, token.Used)
	assert.Equal(t, "Mia", token.MemberName)
	assert.True(t, strings.HasSuffix(token.Token, fmt.Sprintf("_%d", 7)))
}

func TestIssueToken_BindsSoonestUpcoming(t *testing.T) {
	reservations := &mockReservationSvc{
		activeFn: func(ctx context.Context, memberID uint) ([]models.Reservation, error) {
			return []models.Reservation{
				reservationStartingIn(1, 90*time.Minute, "Butterfly Clinic", "Coach Lin"),
				reservationStartingIn(2, 45*time.Minute, "Freestyle Basics", "Coach Park"),
				reservationStartingIn(3, 5*time.Hour, "Open Water Prep", "Coach Diaz"),
			}, nil
		},
	}
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), reservations, nil)

	token, err := svc.IssueToken(context.Background(), 7)

	require.NoError(t, err)
	require.NotNil(t, token.ReservationID)
	assert.Equal(t, uint(2), *token.ReservationID)
	assert.Equal(t, "Freestyle Basics", token.CourseName)
	assert.Equal(t, "Coach Park", token.CoachName)
	require.NotNil(t, token.CourseStartTime)
}

func TestIssueToken_ValuesAreUnique(t *testing.T) {
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	first, err := svc.IssueToken(context.Background(), 7)
	require.NoError(t, err)
	second, err := svc.IssueToken(context.Background(), 7)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

// --- VerifyToken ---

func TestVerifyToken_Success(t *testing.T) {
	repo := newMockEntranceRepo()
	reservations := &mockReservationSvc{
		activeFn: func(ctx context.Context, memberID uint) ([]models.Reservation, error) {
			return []models.Reservation{reservationStartingIn(1, time.Hour, "Butterfly Clinic", "Coach Lin")}, nil
		},
	}
	svc := NewEntranceService(repo, enabledMember(7, "Mia"), reservations, nil)

	token, err := svc.IssueToken(context.Background(), 7)
	require.NoError(t, err)

	result, err := svc.VerifyToken(context.Background(), token.Token, 7)

	require.NoError(t, err)
	assert.Equal(t, "Mia", result.MemberName)
	require.NotNil(t, result.Reminder)
	assert.Equal(t, "Butterfly Clinic", result.Reminder.CourseName)
	assert.Equal(t, "Coach Lin", result.Reminder.CoachName)
	assert.NotEmpty(t, result.Reminder.Tip)

	require.Len(t, repo.records, 1)
	record := repo.records[0]
	assert.Equal(t, token.Token, record.Token)
	assert.Equal(t, uint(7), record.MemberID)
	require.NotNil(t, record.ReservationID)
	assert.Equal(t, uint(1), *record.ReservationID)

	stored := repo.tokens[token.Token]
	assert.True(t, stored.Used)
	require.NotNil(t, stored.UsedAt)
}

func TestVerifyToken_UnboundTokenHasNoReminder(t *testing.T) {
	repo := newMockEntranceRepo()
	svc := NewEntranceService(repo, enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	token, err := svc.IssueToken(context.Background(), 7)
	require.NoError(t, err)

	result, err := svc.VerifyToken(context.Background(), token.Token, 7)

	require.NoError(t, err)
	assert.Nil(t, result.Reminder)
	require.Len(t, repo.records, 1)
	assert.Nil(t, repo.records[0].ReservationID)
}

func TestVerifyToken_Invalid(t *testing.T) {
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	_, err := svc.VerifyToken(context.Background(), "no-such-token", 7)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_SecondUseFails(t *testing.T) {
	repo := newMockEntranceRepo()
	svc := NewEntranceService(repo, enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	token, err := svc.IssueToken(context.Background(), 7)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token.Token, 7)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token.Token, 7)
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	assert.Len(t, repo.records, 1)
}

func TestVerifyToken_RaceLoserGetsAlreadyUsed(t *testing.T) {
	// The token still reads unused, but the conditional update reports that
	// a concurrent verification already claimed it.
	repo := newMockEntranceRepo()
	repo.markUsedFn = func(ctx context.Context, tx *gorm.DB, tokenValue string, at time.Time) (bool, error) {
		return false, nil
	}
	svc := NewEntranceService(repo, enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	token, err := svc.IssueToken(context.Background(), 7)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token.Token, 7)

	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	assert.Empty(t, repo.records)
}

// --- Records ---

func TestGetRecord_NotFound(t *testing.T) {
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	_, err := svc.GetRecord(context.Background(), 99)

	assert.ErrorIs(t, err, ErrEntryRecordNotFnd)
}

func TestDeleteRecord_NotFound(t *testing.T) {
	svc := NewEntranceService(newMockEntranceRepo(), enabledMember(7, "Mia"), &mockReservationSvc{}, nil)

	err := svc.DeleteRecord(context.Background(), 99)

	assert.ErrorIs(t, err, ErrEntryRecordNotFnd)
}
