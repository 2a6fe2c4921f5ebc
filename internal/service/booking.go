package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/queue"
	"github.com/moviedesk/movie-booking-api/internal/repository"
	"github.com/moviedesk/movie-booking-api/internal/utils"
)

// MaxTicketsPerBooking caps a single booking at ten seats.
const MaxTicketsPerBooking = 10

// CancellationWindow is how long before the show starts a booking can
// still be cancelled.
const CancellationWindow = 2 * time.Hour

// referenceAttempts bounds reference regeneration on duplicate codes.
const referenceAttempts = 5

// SeatInventory is the seat-level view of the showtime store used by
// the booking lifecycle.
type SeatInventory interface {
	GetByID(ctx context.Context, id uint64) (*model.ShowTime, error)
	ReserveSeats(ctx context.Context, id uint64, seatNumbers []int) (*model.ShowTime, error)
	ReleaseSeats(ctx context.Context, id uint64, seatNumbers []int) (*model.ShowTime, error)
}

// BookingStore persists booking records.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetDetailByID(ctx context.Context, id uint64) (*repository.Detail, error)
	GetDetailByReference(ctx context.Context, reference string) (*repository.Detail, error)
	ListDetails(ctx context.Context, q repository.BookingQuery, limit, offset int) ([]repository.Detail, int, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	Delete(ctx context.Context, id uint64) error
}

// EventPublisher pushes booking lifecycle events to the broker.
// Publishing is best effort; the service logs failures and moves on.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// BookingService implements the booking lifecycle: seat reservation,
// booking persistence with compensating release, cancellation with the
// time-window rule, and reads.
type BookingService struct {
	inventory SeatInventory
	store     BookingStore
	events    EventPublisher
}

// NewBookingService wires a BookingService. events may be nil when no
// broker is configured.
func NewBookingService(inventory SeatInventory, store BookingStore, events EventPublisher) *BookingService {
	return &BookingService{inventory: inventory, store: store, events: events}
}

// CreateBookingRequest is the payload for booking creation.
type CreateBookingRequest struct {
	ShowTimeID      uint64 `json:"show_time_id" validate:"required"`
	NumberOfTickets int    `json:"number_of_tickets" validate:"required,min=1,max=10"`
	SeatNumbers     []int  `json:"seat_numbers" validate:"required,min=1,dive,min=1"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
	TransactionID   string `json:"transaction_id"`
}

// CreateBooking reserves the requested seats, persists a confirmed
// booking and publishes booking.confirmed. If persisting fails after
// seats were reserved, the reservation is rolled back by releasing
// the seats again.
func (s *BookingService) CreateBooking(ctx context.Context, userID uint64, req CreateBookingRequest) (*repository.Detail, error) {
	if req.NumberOfTickets < 1 || req.NumberOfTickets > MaxTicketsPerBooking {
		return nil, NewError(http.StatusBadRequest, "number of tickets must be between 1 and %d", MaxTicketsPerBooking)
	}
	if len(req.SeatNumbers) != req.NumberOfTickets {
		return nil, NewError(http.StatusBadRequest, "seat count (%d) does not match number of tickets (%d)", len(req.SeatNumbers), req.NumberOfTickets)
	}
	seats := append([]int(nil), req.SeatNumbers...)
	sort.Ints(seats)
	for i := 1; i < len(seats); i++ {
		if seats[i] == seats[i-1] {
			return nil, NewError(http.StatusBadRequest, "duplicate seat number %d in request", seats[i])
		}
	}
	if !model.PaymentMethods[req.PaymentMethod] {
		return nil, NewError(http.StatusBadRequest, "unsupported payment method %q", req.PaymentMethod)
	}

	showTime, err := s.inventory.ReserveSeats(ctx, req.ShowTimeID, seats)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:           userID,
		MovieID:          showTime.MovieID,
		TheaterID:        showTime.TheaterID,
		ShowTimeID:       showTime.ID,
		ScreenNumber:     showTime.ScreenNumber,
		StartsAt:         showTime.StartsAt,
		NumberOfTickets:  req.NumberOfTickets,
		SeatNumbers:      seats,
		TotalAmountCents: showTime.PriceCents * uint32(req.NumberOfTickets),
		BookingDate:      time.Now().UTC(),
		Status:           model.BookingConfirmed,
		Payment: &model.PaymentDetails{
			PaymentID:     "PAY-" + uuid.NewString(),
			Method:        req.PaymentMethod,
			TransactionID: req.TransactionID,
		},
	}

	if err := s.persistWithFreshReference(ctx, booking); err != nil {
		// Seats are already held; give them back before failing.
		if _, relErr := s.inventory.ReleaseSeats(ctx, req.ShowTimeID, seats); relErr != nil {
			log.Printf("booking: compensating release failed for showtime %d seats %v: %v", req.ShowTimeID, seats, relErr)
			return nil, NewError(http.StatusInternalServerError, "booking failed and seat release did not complete; showtime %d needs reconciliation", req.ShowTimeID)
		}
		return nil, err
	}

	detail, err := s.store.GetDetailByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.publishConfirmed(ctx, detail)
	return detail, nil
}

func (s *BookingService) persistWithFreshReference(ctx context.Context, b *model.Booking) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref, err := utils.NewBookingReference()
		if err != nil {
			return err
		}
		b.Reference = ref
		err = s.store.Create(ctx, b)
		if errors.Is(err, repository.ErrDuplicateReference) {
			continue
		}
		return err
	}
	return NewError(http.StatusInternalServerError, "could not generate a unique booking reference")
}

// CancelBooking marks a confirmed booking cancelled and returns its
// seats to the showtime pool. Only the owner (or an admin) may cancel,
// and only until two hours before the show starts. The status flip
// happens before the seat release so an interruption leaves a
// cancelled booking with held seats, which is reconcilable, rather
// than freed seats on a live booking.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uint64, role string) (*repository.Detail, error) {
	booking, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && role != model.RoleAdmin {
		return nil, NewError(http.StatusForbidden, "you can only cancel your own bookings")
	}
	if booking.Status == model.BookingCancelled {
		return nil, NewError(http.StatusBadRequest, "booking is already cancelled")
	}
	if time.Until(booking.StartsAt) < CancellationWindow {
		return nil, NewError(http.StatusBadRequest, "bookings can only be cancelled at least 2 hours before the show")
	}

	if err := s.store.UpdateStatus(ctx, bookingID, model.BookingCancelled); err != nil {
		return nil, err
	}
	if _, err := s.inventory.ReleaseSeats(ctx, booking.ShowTimeID, booking.SeatNumbers); err != nil {
		log.Printf("booking: seat release failed for cancelled booking %d (showtime %d): %v", bookingID, booking.ShowTimeID, err)
		return nil, NewError(http.StatusInternalServerError, "booking cancelled but seat release did not complete; showtime %d needs reconciliation", booking.ShowTimeID)
	}

	detail, err := s.store.GetDetailByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.publishCancelled(ctx, detail)
	return detail, nil
}

// GetBooking returns one booking. Non-admin callers only see their own.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID uint64, role string) (*repository.Detail, error) {
	detail, err := s.store.GetDetailByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if detail.UserID != userID && role != model.RoleAdmin {
		return nil, NewError(http.StatusForbidden, "you can only view your own bookings")
	}
	return detail, nil
}

// GetBookingByReference looks a booking up by its reference code with
// the same ownership rule as GetBooking.
func (s *BookingService) GetBookingByReference(ctx context.Context, reference string, userID uint64, role string) (*repository.Detail, error) {
	detail, err := s.store.GetDetailByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if detail.UserID != userID && role != model.RoleAdmin {
		return nil, NewError(http.StatusForbidden, "you can only view your own bookings")
	}
	return detail, nil
}

// ListUserBookings returns a user's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uint64, status string, limit, offset int) ([]repository.Detail, int, error) {
	return s.store.ListDetails(ctx, repository.BookingQuery{UserID: userID, Status: status}, limit, offset)
}

// ListBookings is the admin listing across all users.
func (s *BookingService) ListBookings(ctx context.Context, q repository.BookingQuery, limit, offset int) ([]repository.Detail, int, error) {
	return s.store.ListDetails(ctx, q, limit, offset)
}

func (s *BookingService) publishConfirmed(ctx context.Context, d *repository.Detail) {
	if s.events == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:        d.ID,
		Reference:        d.Reference,
		UserID:           d.UserID,
		MovieID:          d.MovieID,
		MovieName:        d.MovieName,
		TheaterID:        d.TheaterID,
		TheaterName:      d.TheaterName,
		ShowTimeID:       d.ShowTimeID,
		ScreenNumber:     d.ScreenNumber,
		StartsAt:         d.StartsAt.UTC().Format(time.RFC3339),
		SeatNumbers:      d.SeatNumbers,
		NumberOfTickets:  d.NumberOfTickets,
		TotalAmountCents: d.TotalAmountCents,
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.BookingConfirmed(ctx, ev); err != nil {
		log.Printf("booking: publish confirmed event failed for %s: %v", d.Reference, err)
	}
}

func (s *BookingService) publishCancelled(ctx context.Context, d *repository.Detail) {
	if s.events == nil {
		return
	}
	ev := queue.BookingCancelledEvent{
		BookingID:   d.ID,
		Reference:   d.Reference,
		UserID:      d.UserID,
		ShowTimeID:  d.ShowTimeID,
		SeatNumbers: d.SeatNumbers,
		RefundCents: d.TotalAmountCents,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.BookingCancelled(ctx, ev); err != nil {
		log.Printf("booking: publish cancelled event failed for %s: %v", d.Reference, err)
	}
}
