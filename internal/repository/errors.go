// Package repository defines the data access layer. This file holds
// error values and types shared across repositories so that the
// service and handler layers can distinguish failure scenarios
// without inspecting driver-specific error shapes.
package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Not-found sentinels. Handlers translate these into HTTP 404.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrTheaterNotFound  = errors.New("theater not found")
	ErrScreenNotFound   = errors.New("screen not found or inactive")
	ErrShowTimeNotFound = errors.New("show time not found")
	ErrBookingNotFound  = errors.New("booking not found")
)

// ErrEmailExists is returned when registering with an email that is
// already taken. Translated into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateShowTime is returned when a showtime with the same
// movie, theater, screen and start instant already exists.
var ErrDuplicateShowTime = errors.New("show time already exists for this screen and start time")

// ErrDuplicateReference is returned when a booking insert loses the
// uniqueness race on booking_reference. Callers regenerate the
// reference and retry.
var ErrDuplicateReference = errors.New("booking reference already exists")

// ErrShowTimeNotBookable indicates the showtime is inactive or its
// start instant is not strictly in the future.
var ErrShowTimeNotBookable = errors.New("show time is not available for booking")

// ErrInsufficientSeats indicates the reservation asked for more seats
// than remain available.
var ErrInsufficientSeats = errors.New("not enough seats available")

// SeatConflictError reports a reservation that requested seats already
// present in the booked set. Seats lists the conflicting numbers so
// the client can resubmit with different ones.
type SeatConflictError struct {
	Seats []int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats %s are already booked", joinSeats(e.Seats))
}

// SeatRangeError reports seat numbers outside [1, TotalSeats].
type SeatRangeError struct {
	Seats      []int
	TotalSeats int
}

func (e *SeatRangeError) Error() string {
	return fmt.Sprintf("invalid seat numbers: %s (valid range 1-%d)", joinSeats(e.Seats), e.TotalSeats)
}

func joinSeats(seats []int) string {
	sorted := make([]int, len(seats))
	copy(sorted, seats)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, s := range sorted {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062), i.e. a violated unique constraint.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
