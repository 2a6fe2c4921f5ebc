package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/repository"
	"github.com/moviedesk/movie-booking-api/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP. All routes
// require authentication; the admin listing additionally requires the
// admin role.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler wires a BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type paymentResponse struct {
	PaymentID     string `json:"payment_id"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type bookingResponse struct {
	ID               uint64           `json:"id"`
	Reference        string           `json:"booking_reference"`
	UserID           uint64           `json:"user_id"`
	UserName         string           `json:"user_name,omitempty"`
	MovieID          uint64           `json:"movie_id"`
	MovieName        string           `json:"movie_name"`
	TheaterID        uint64           `json:"theater_id"`
	TheaterName      string           `json:"theater_name"`
	ShowTimeID       uint64           `json:"show_time_id"`
	ScreenNumber     int              `json:"screen_number"`
	StartsAt         string           `json:"starts_at"`
	NumberOfTickets  int              `json:"number_of_tickets"`
	SeatNumbers      []int            `json:"seat_numbers"`
	TotalAmountCents uint32           `json:"total_amount_cents"`
	BookingDate      string           `json:"booking_date"`
	Status           string           `json:"status"`
	Payment          *paymentResponse `json:"payment,omitempty"`
}

func toBookingResponse(d *repository.Detail) bookingResponse {
	resp := bookingResponse{
		ID:               d.ID,
		Reference:        d.Reference,
		UserID:           d.UserID,
		UserName:         d.UserName,
		MovieID:          d.MovieID,
		MovieName:        d.MovieName,
		TheaterID:        d.TheaterID,
		TheaterName:      d.TheaterName,
		ShowTimeID:       d.ShowTimeID,
		ScreenNumber:     d.ScreenNumber,
		StartsAt:         d.StartsAt.UTC().Format(time.RFC3339),
		NumberOfTickets:  d.NumberOfTickets,
		SeatNumbers:      d.SeatNumbers,
		TotalAmountCents: d.TotalAmountCents,
		BookingDate:      d.BookingDate.UTC().Format(time.RFC3339),
		Status:           d.Status,
	}
	if d.Payment != nil {
		resp.Payment = &paymentResponse{
			PaymentID:     d.Payment.PaymentID,
			Method:        d.Payment.Method,
			TransactionID: d.Payment.TransactionID,
		}
	}
	return resp
}

// Create books seats on a showtime for the authenticated user.
func (h *BookingHandler) Create(c echo.Context) error {
	var req service.CreateBookingRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	userID, _ := currentUser(c)
	detail, err := h.bookings.CreateBooking(c.Request().Context(), userID, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "booking confirmed", toBookingResponse(detail))
}

// MyBookings lists the caller's bookings, newest first, optionally
// filtered by status.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	page, limit, offset := pageParams(c)
	userID, _ := currentUser(c)
	details, total, err := h.bookings.ListUserBookings(c.Request().Context(), userID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	out := make([]bookingResponse, 0, len(details))
	for i := range details {
		out = append(out, toBookingResponse(&details[i]))
	}
	return respondList(c, "bookings", out, page, limit, total)
}

// Cancel cancels a confirmed booking and frees its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid booking id")
	}
	userID, role := currentUser(c)
	detail, err := h.bookings.CancelBooking(c.Request().Context(), id, userID, role)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "booking cancelled", toBookingResponse(detail))
}

// Get returns one booking; users can only read their own.
func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid booking id")
	}
	userID, role := currentUser(c)
	detail, err := h.bookings.GetBooking(c.Request().Context(), id, userID, role)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "booking", toBookingResponse(detail))
}

// GetByReference looks a booking up by its reference code.
func (h *BookingHandler) GetByReference(c echo.Context) error {
	ref := c.Param("reference")
	if ref == "" {
		return respondError(c, http.StatusBadRequest, "missing booking reference")
	}
	userID, role := currentUser(c)
	detail, err := h.bookings.GetBookingByReference(c.Request().Context(), ref, userID, role)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "booking", toBookingResponse(detail))
}

// List is the admin listing across all users with filters.
func (h *BookingHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	q := repository.BookingQuery{
		UserID:    queryUint(c, "user_id"),
		MovieID:   queryUint(c, "movie_id"),
		TheaterID: queryUint(c, "theater_id"),
		Status:    c.QueryParam("status"),
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
		q.DateFrom = t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		q.DateTo = t.Add(24*time.Hour - time.Second)
	}
	details, total, err := h.bookings.ListBookings(c.Request().Context(), q, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	out := make([]bookingResponse, 0, len(details))
	for i := range details {
		out = append(out, toBookingResponse(&details[i]))
	}
	return respondList(c, "bookings", out, page, limit, total)
}
