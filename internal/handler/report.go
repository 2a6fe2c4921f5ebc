package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/service"
)

// ReportHandler exposes booking aggregates and the summary email.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler wires a ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Movies returns per-movie booking aggregates (admin only).
func (h *ReportHandler) Movies(c echo.Context) error {
	stats, err := h.reports.MovieReport(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "bookings by movie", stats)
}

// Theaters returns per-theater booking aggregates (admin only).
func (h *ReportHandler) Theaters(c echo.Context) error {
	stats, err := h.reports.TheaterReport(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "bookings by theater", stats)
}

// Revenue returns a date-ranged revenue report (admin only). Dates
// are inclusive calendar days.
func (h *ReportHandler) Revenue(c echo.Context) error {
	from, err := time.Parse("2006-01-02", c.QueryParam("startDate"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("endDate"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
	}
	report, err := h.reports.Revenue(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "revenue report", report)
}

// MySummary returns the caller's booking history.
func (h *ReportHandler) MySummary(c echo.Context) error {
	userID, _ := currentUser(c)
	rows, err := h.reports.UserSummary(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "booking summary", rows)
}

// EmailSummary mails the caller their booking history.
func (h *ReportHandler) EmailSummary(c echo.Context) error {
	userID, _ := currentUser(c)
	count, err := h.reports.EmailUserSummary(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "summary email sent", echo.Map{"bookings_included": count})
}
