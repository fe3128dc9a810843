package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swimhub/reservation-service/internal/models"
)

func TestFindConflict_OverlapRules(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	held := &models.Course{
		ID:        1,
		StartTime: base,                // 10:00
		EndTime:   base.Add(time.Hour), // 11:00
	}
	reservations := &mockReservationRepo{
		findActiveFn: func(ctx context.Context, memberID uint) ([]models.Reservation, error) {
			return []models.Reservation{{ID: 11, MemberID: 7, CourseID: 1, Status: models.StatusActive, Course: held}}, nil
		},
	}
	detector := NewConflictDetector(reservations)

	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"identical window", base, base.Add(time.Hour), true},
		{"overlaps tail", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"overlaps head", base.Add(-30 * time.Minute), base.Add(30 * time.Minute), true},
		{"contains held window", base.Add(-time.Hour), base.Add(2 * time.Hour), true},
		{"inside held window", base.Add(15 * time.Minute), base.Add(45 * time.Minute), true},
		{"touches end", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"touches start", base.Add(-time.Hour), base, false},
		{"fully before", base.Add(-3 * time.Hour), base.Add(-2 * time.Hour), false},
		{"fully after", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found, err := detector.FindConflict(context.Background(), 7, tc.start, tc.end)
			require.NoError(t, err)
			if tc.conflict {
				require.NotNil(t, found)
				assert.Equal(t, uint(11), found.ID)
			} else {
				assert.Nil(t, found)
			}
		})
	}
}

func TestFindConflict_IgnoresReservationsWithoutCourse(t *testing.T) {
	reservations := &mockReservationRepo{
		findActiveFn: func(ctx context.Context, memberID uint) ([]models.Reservation, error) {
			return []models.Reservation{{ID: 11, MemberID: 7, CourseID: 1, Status: models.StatusActive}}, nil
		},
	}
	detector := NewConflictDetector(reservations)

	found, err := detector.FindConflict(context.Background(), 7, time.Now(), time.Now().Add(time.Hour))

	require.NoError(t, err)
	assert.Nil(t, found)
}
