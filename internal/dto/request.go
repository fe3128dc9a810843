package dto

type PreviewBookingRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

type ConfirmBookingRequest struct {
	CourseID             uint `json:"course_id" validate:"required"`
	ForceReplace         bool `json:"force_replace"`
	ReplaceReservationID uint `json:"replace_reservation_id"`
}

type VerifyEntryRequest struct {
	Token string `json:"token" validate:"required"`
}
