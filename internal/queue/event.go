// Package queue defines the broker payloads and background consumer
// for booking lifecycle events.
package queue

// BookingConfirmedEvent is published after a booking is persisted.
// It carries enough context for downstream consumers to notify or run
// analytics without touching the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64 `json:"booking_id"`
	Reference        string `json:"booking_reference"`
	UserID           uint64 `json:"user_id"`
	MovieID          uint64 `json:"movie_id"`
	MovieName        string `json:"movie_name"`
	TheaterID        uint64 `json:"theater_id"`
	TheaterName      string `json:"theater_name"`
	ShowTimeID       uint64 `json:"show_time_id"`
	ScreenNumber     int    `json:"screen_number"`
	StartsAt         string `json:"starts_at"`
	SeatNumbers      []int  `json:"seat_numbers"`
	NumberOfTickets  int    `json:"number_of_tickets"`
	TotalAmountCents uint32 `json:"total_amount_cents"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a booking is marked
// cancelled and its seats returned to the showtime pool.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	Reference   string `json:"booking_reference"`
	UserID      uint64 `json:"user_id"`
	ShowTimeID  uint64 `json:"show_time_id"`
	SeatNumbers []int  `json:"seat_numbers"`
	RefundCents uint32 `json:"refund_cents"`
	CancelledAt string `json:"cancelled_at"`
}
