package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/swimhub/reservation-service/internal/dto"
	"github.com/swimhub/reservation-service/internal/middleware"
	"github.com/swimhub/reservation-service/internal/models"
	"github.com/swimhub/reservation-service/internal/repository"
	"github.com/swimhub/reservation-service/internal/service"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

func (h *ReservationHandler) RegisterRoutes(g *echo.Group) {
	reservations := g.Group("/reservations")
	reservations.POST("/preview", h.PreviewBooking)
	reservations.POST("/confirm", h.ConfirmBooking)
	reservations.GET("/my", h.ListMyReservations)
	reservations.GET("", h.ListAllReservations, middleware.RequireAdmin)
	reservations.GET("/course/:courseId", h.ListCourseReservations, middleware.RequireAdmin)
	reservations.GET("/:id", h.GetReservation)
	reservations.DELETE("/:id", h.CancelBooking)
}

func (h *ReservationHandler) PreviewBooking(c echo.Context) error {
	var req dto.PreviewBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	check, err := h.svc.PreviewBooking(c.Request().Context(), middleware.MemberID(c), req.CourseID)
	if err != nil {
		return mapReservationError(err)
	}
	return c.JSON(http.StatusOK, dto.ToConflictCheckResponse(check))
}

func (h *ReservationHandler) ConfirmBooking(c echo.Context) error {
	var req dto.ConfirmBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.ForceReplace && req.ReplaceReservationID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "replace_reservation_id is required when force_replace is set")
	}

	reservation, err := h.svc.ConfirmBooking(
		c.Request().Context(),
		middleware.MemberID(c),
		req.CourseID,
		req.ForceReplace,
		req.ReplaceReservationID,
	)
	if err != nil {
		return mapReservationError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CancelBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	err = h.svc.CancelBooking(c.Request().Context(), uint(id), middleware.MemberID(c), middleware.IsAdmin(c))
	if err != nil {
		return mapReservationError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": true})
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	reservation, err := h.svc.GetReservation(c.Request().Context(), uint(id))
	if err != nil {
		return mapReservationError(err)
	}
	// Members can only inspect their own reservations.
	if reservation.MemberID != middleware.MemberID(c) && !middleware.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation")
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ListMyReservations(c echo.Context) error {
	memberID := middleware.MemberID(c)
	filter := reservationFilterFromQuery(c)
	filter.MemberID = &memberID
	return h.list(c, filter)
}

func (h *ReservationHandler) ListAllReservations(c echo.Context) error {
	return h.list(c, reservationFilterFromQuery(c))
}

func (h *ReservationHandler) ListCourseReservations(c echo.Context) error {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}
	filter := reservationFilterFromQuery(c)
	id := uint(courseID)
	filter.CourseID = &id
	return h.list(c, filter)
}

func (h *ReservationHandler) list(c echo.Context, filter repository.ReservationFilter) error {
	reservations, total, err := h.svc.ListReservations(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		items[i] = dto.ToReservationResponse(&reservations[i])
	}
	return c.JSON(http.StatusOK, dto.PagedResponse[dto.ReservationResponse]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.Size,
	})
}

func reservationFilterFromQuery(c echo.Context) repository.ReservationFilter {
	filter := repository.ReservationFilter{
		Page: intQuery(c, "page", 0),
		Size: intQuery(c, "size", 20),
	}
	if s := c.QueryParam("status"); s != "" {
		status := models.ReservationStatus(s)
		filter.Status = &status
	}
	if m := c.QueryParam("member_id"); m != "" {
		if v, err := strconv.ParseUint(m, 10, 64); err == nil {
			id := uint(v)
			filter.MemberID = &id
		}
	}
	return filter
}

func intQuery(c echo.Context, name string, fallback int) int {
	if s := c.QueryParam(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}

func mapReservationError(err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrReservationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCourseNotBookable),
		errors.Is(err, service.ErrInvalidState):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrTimeConflict),
		errors.Is(err, service.ErrStaleConflictReference):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSystemBusy):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
