package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/swimhub/reservation-service/internal/dto"
	"github.com/swimhub/reservation-service/internal/middleware"
	"github.com/swimhub/reservation-service/internal/repository"
	"github.com/swimhub/reservation-service/internal/service"
)

type EntranceHandler struct {
	svc service.EntranceService
}

func NewEntranceHandler(svc service.EntranceService) *EntranceHandler {
	return &EntranceHandler{svc: svc}
}

func (h *EntranceHandler) RegisterRoutes(g *echo.Group) {
	entrance := g.Group("/entrance")
	entrance.POST("/token", h.IssueToken)
	entrance.POST("/verify", h.VerifyToken, middleware.RequireAdmin)
	entrance.GET("/records/my", h.ListMyRecords)
	entrance.GET("/records", h.ListAllRecords, middleware.RequireAdmin)
	entrance.GET("/records/:id", h.GetRecord)
	entrance.DELETE("/records/:id", h.DeleteRecord, middleware.RequireAdmin)
}

func (h *EntranceHandler) IssueToken(c echo.Context) error {
	token, err := h.svc.IssueToken(c.Request().Context(), middleware.MemberID(c))
	if err != nil {
		return mapEntranceError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToEntryTokenResponse(token))
}

func (h *EntranceHandler) VerifyToken(c echo.Context) error {
	var req dto.VerifyEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.svc.VerifyToken(c.Request().Context(), req.Token, middleware.MemberID(c))
	if err != nil {
		return mapEntranceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *EntranceHandler) GetRecord(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	record, err := h.svc.GetRecord(c.Request().Context(), uint(id))
	if err != nil {
		return mapEntranceError(err)
	}
	if record.MemberID != middleware.MemberID(c) && !middleware.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "not your entry record")
	}
	return c.JSON(http.StatusOK, dto.ToEntryRecordResponse(record))
}

func (h *EntranceHandler) ListMyRecords(c echo.Context) error {
	memberID := middleware.MemberID(c)
	filter := recordFilterFromQuery(c)
	filter.MemberID = &memberID
	return h.list(c, filter)
}

func (h *EntranceHandler) ListAllRecords(c echo.Context) error {
	return h.list(c, recordFilterFromQuery(c))
}

func (h *EntranceHandler) DeleteRecord(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), uint(id)); err != nil {
		return mapEntranceError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

func (h *EntranceHandler) list(c echo.Context, filter repository.EntryRecordFilter) error {
	records, total, err := h.svc.ListRecords(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]dto.EntryRecordResponse, len(records))
	for i := range records {
		items[i] = dto.ToEntryRecordResponse(&records[i])
	}
	return c.JSON(http.StatusOK, dto.PagedResponse[dto.EntryRecordResponse]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.Size,
	})
}

func recordFilterFromQuery(c echo.Context) repository.EntryRecordFilter {
	filter := repository.EntryRecordFilter{
		Page: intQuery(c, "page", 0),
		Size: intQuery(c, "size", 20),
	}
	if s := c.QueryParam("from"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.From = &t
		}
	}
	if s := c.QueryParam("to"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.To = &t
		}
	}
	if m := c.QueryParam("member_id"); m != "" {
		if v, err := strconv.ParseUint(m, 10, 64); err == nil {
			id := uint(v)
			filter.MemberID = &id
		}
	}
	return filter
}

func mapEntranceError(err error) error {
	switch {
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrEntryRecordNotFnd):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMemberDisabled):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
