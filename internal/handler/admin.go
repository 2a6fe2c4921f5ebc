package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/repository"
)

// AdminHandler serves the dashboard and user administration. Every
// route requires the admin role.
type AdminHandler struct {
	users    *repository.UserRepo
	movies   *repository.MovieRepo
	theaters *repository.TheaterRepo
	bookings *repository.BookingRepo
	reports  *repository.ReportRepo
}

// NewAdminHandler wires an AdminHandler.
func NewAdminHandler(users *repository.UserRepo, movies *repository.MovieRepo, theaters *repository.TheaterRepo, bookings *repository.BookingRepo, reports *repository.ReportRepo) *AdminHandler {
	return &AdminHandler{users: users, movies: movies, theaters: theaters, bookings: bookings, reports: reports}
}

// Dashboard returns headline counts for the admin landing page.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	activeMovies, err := h.movies.CountActive(ctx)
	if err != nil {
		return fail(c, err)
	}
	activeTheaters, err := h.theaters.CountActive(ctx)
	if err != nil {
		return fail(c, err)
	}
	totalUsers, err := h.users.Count(ctx, model.RoleUser)
	if err != nil {
		return fail(c, err)
	}
	confirmed, err := h.bookings.Count(ctx, repository.BookingQuery{Status: model.BookingConfirmed})
	if err != nil {
		return fail(c, err)
	}
	cancelled, err := h.bookings.Count(ctx, repository.BookingQuery{Status: model.BookingCancelled})
	if err != nil {
		return fail(c, err)
	}
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	bookingsToday, err := h.bookings.Count(ctx, repository.BookingQuery{DateFrom: midnight})
	if err != nil {
		return fail(c, err)
	}
	revenueToday, err := h.reports.RevenueSince(ctx, midnight)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, http.StatusOK, "dashboard", echo.Map{
		"active_movies":       activeMovies,
		"active_theaters":     activeTheaters,
		"total_users":         totalUsers,
		"confirmed_bookings":  confirmed,
		"cancelled_bookings":  cancelled,
		"bookings_today":      bookingsToday,
		"revenue_today_cents": revenueToday,
	})
}

// Users lists accounts, optionally filtered by role.
func (h *AdminHandler) Users(c echo.Context) error {
	page, limit, offset := pageParams(c)
	users, total, err := h.users.List(c.Request().Context(), c.QueryParam("role"), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return respondList(c, "users", out, page, limit, total)
}

type userStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetUserStatus activates or deactivates an account. Deactivated
// users cannot log in; their existing bookings are untouched.
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid user id")
	}
	var req userStatusRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	if err := h.users.SetActive(ctx, id, *req.IsActive); err != nil {
		return fail(c, err)
	}
	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "user status updated", toUserResponse(user))
}
