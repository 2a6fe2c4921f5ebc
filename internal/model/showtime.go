package model

import "time"

// ShowTime represents a scheduled screening of a movie on a specific
// theater screen (`show_times` table). It owns the authoritative seat
// inventory for the screening: BookedSeats is the set of reserved
// seat numbers and AvailableSeats the remaining capacity.
//
// Invariant maintained by the repository at all times:
//
//	AvailableSeats + len(BookedSeats) == TotalSeats
//
// BookedSeats contains no duplicates and only values in
// [1, TotalSeats]; both are enforced by a unique key on
// (show_time_id, seat_number) plus a guarded decrement of
// available_seats inside a single transaction.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  TheaterID      – venue.
//  ScreenNumber   – screen within the venue.
//  ShowDate       – calendar date of the screening.
//  StartsAt       – exact start instant (UTC).
//  PriceCents     – ticket price in cents.
//  TotalSeats     – capacity inherited from the screen at creation.
//  AvailableSeats – seats still bookable.
//  BookedSeats    – reserved seat numbers, sorted ascending.
//  IsActive       – soft-delete flag; inactive showtimes are not bookable.
//  CreatedBy      – admin user who scheduled the showtime.
type ShowTime struct {
	ID             uint64
	MovieID        uint64
	TheaterID      uint64
	ScreenNumber   int
	ShowDate       time.Time
	StartsAt       time.Time
	PriceCents     uint32
	TotalSeats     int
	AvailableSeats int
	BookedSeats    []int
	IsActive       bool
	CreatedBy      uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
