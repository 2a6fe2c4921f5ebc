// Package service implements the business rules of the booking
// system on top of the repository layer.
package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/moviedesk/movie-booking-api/internal/repository"
)

// Error is a business-rule failure carrying the HTTP status the
// handler layer should respond with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds a service error with an explicit status.
func NewError(status int, format string, args ...interface{}) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the HTTP status for an error: service errors keep
// their own, known repository sentinels are translated, and anything
// else is a 500.
func StatusOf(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrMovieNotFound),
		errors.Is(err, repository.ErrTheaterNotFound),
		errors.Is(err, repository.ErrScreenNotFound),
		errors.Is(err, repository.ErrShowTimeNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrDuplicateShowTime):
		return http.StatusConflict
	case errors.Is(err, repository.ErrShowTimeNotBookable),
		errors.Is(err, repository.ErrInsufficientSeats):
		return http.StatusBadRequest
	}
	var conflict *repository.SeatConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict
	}
	var rangeErr *repository.SeatRangeError
	if errors.As(err, &rangeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
