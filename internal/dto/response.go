package dto

import (
	"time"

	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/service"
)

type CourseSummary struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	CourseType   string    `json:"course_type,omitempty"`
	CoachName    string    `json:"coach_name,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Capacity     int       `json:"capacity"`
	CurrentCount int       `json:"current_count"`
	Remaining    int       `json:"remaining"`
	Bookable     bool      `json:"bookable"`
}

type ReservationResponse struct {
	ID          uint                     `json:"id"`
	MemberID    uint                     `json:"member_id"`
	CourseID    uint                     `json:"course_id"`
	Status      models.ReservationStatus `json:"status"`
	CancelledAt *time.Time               `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	Course      *CourseSummary           `json:"course,omitempty"`
}

type ConflictCheckResponse struct {
	HasConflict     bool                 `json:"has_conflict"`
	ConflictBooking *ReservationResponse `json:"conflict_booking,omitempty"`
	RequestedCourse CourseSummary        `json:"requested_course"`
}

type EntryTokenResponse struct {
	Token           string     `json:"token"`
	MemberID        uint       `json:"member_id"`
	MemberName      string     `json:"member_name"`
	IssuedAt        time.Time  `json:"issued_at"`
	ReservationID   *uint      `json:"reservation_id,omitempty"`
	CourseName      string     `json:"course_name,omitempty"`
	CourseStartTime *time.Time `json:"course_start_time,omitempty"`
	CoachName       string     `json:"coach_name,omitempty"`
}

type EntryRecordResponse struct {
	ID            uint      `json:"id"`
	MemberID      uint      `json:"member_id"`
	MemberName    string    `json:"member_name"`
	Token         string    `json:"token"`
	EnteredAt     time.Time `json:"entered_at"`
	VerifierID    uint      `json:"verifier_id"`
	VerifierName  string    `json:"verifier_name,omitempty"`
	ReservationID *uint     `json:"reservation_id,omitempty"`
	CourseName    string    `json:"course_name,omitempty"`
}

type PagedResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToCourseSummary(c *models.Course) CourseSummary {
	return CourseSummary{
		ID:           c.ID,
		Name:         c.Name,
		CourseType:   c.CourseType,
		CoachName:    c.CoachName,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		Capacity:     c.Capacity,
		CurrentCount: c.CurrentCount,
		Remaining:    c.Remaining(),
		Bookable:     c.Bookable(time.Now()),
	}
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:          r.ID,
		MemberID:    r.MemberID,
		CourseID:    r.CourseID,
		Status:      r.Status,
		CancelledAt: r.CancelledAt,
		CreatedAt:   r.CreatedAt,
	}
	if r.Course != nil {
		summary := ToCourseSummary(r.Course)
		resp.Course = &summary
	}
	return resp
}

func ToConflictCheckResponse(check *service.ConflictCheck) ConflictCheckResponse {
	resp := ConflictCheckResponse{
		HasConflict:     check.HasConflict,
		RequestedCourse: ToCourseSummary(check.Course),
	}
	if check.Conflict != nil {
		conflict := ToReservationResponse(check.Conflict)
		resp.ConflictBooking = &conflict
	}
	return resp
}

func ToEntryTokenResponse(t *models.EntryToken) EntryTokenResponse {
	return EntryTokenResponse{
		Token:           t.Token,
		MemberID:        t.MemberID,
		MemberName:      t.MemberName,
		IssuedAt:        t.IssuedAt,
		ReservationID:   t.ReservationID,
		CourseName:      t.CourseName,
		CourseStartTime: t.CourseStartTime,
		CoachName:       t.CoachName,
	}
}

func ToEntryRecordResponse(rec *models.EntryRecord) EntryRecordResponse {
	return EntryRecordResponse{
		ID:            rec.ID,
		MemberID:      rec.MemberID,
		MemberName:    rec.MemberName,
		Token:         rec.Token,
		EnteredAt:     rec.EnteredAt,
		VerifierID:    rec.VerifierID,
		VerifierName:  rec.VerifierName,
		ReservationID: rec.ReservationID,
		CourseName:    rec.CourseName,
	}
}
