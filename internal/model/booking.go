package model

import "time"

// Booking statuses. A booking is created as confirmed and may only
// transition confirmed -> cancelled. The pending value exists in the
// status domain but is not produced by any current flow.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingPending   = "pending"
)

// Payment method tags accepted on booking creation. No payment is
// processed; the tag and an opaque transaction id are recorded as-is.
var PaymentMethods = map[string]bool{
	"credit_card": true,
	"debit_card":  true,
	"upi":         true,
	"net_banking": true,
	"wallet":      true,
	"cash":        true,
}

// Booking records a user's reservation of specific seats for one
// showtime (`bookings` table). ScreenNumber and StartsAt are
// denormalized copies captured from the showtime at creation and are
// never re-read later; they preserve what the customer actually
// bought even if the showtime is rescheduled afterwards.
//
// Invariant: len(SeatNumbers) == NumberOfTickets and SeatNumbers has
// no duplicates.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – owner of the booking.
//  MovieID          – movie reference (non-owning).
//  TheaterID        – theater reference (non-owning).
//  ShowTimeID       – showtime reference (non-owning).
//  ScreenNumber     – screen captured at creation.
//  StartsAt         – show start instant captured at creation (UTC).
//  NumberOfTickets  – ticket count, 1..10.
//  SeatNumbers      – reserved seat numbers, one per ticket.
//  TotalAmountCents – PriceCents × NumberOfTickets at creation.
//  BookingDate      – when the booking was made.
//  Status           – confirmed | cancelled | pending.
//  Reference        – globally unique human-readable code (BK...).
//  Payment          – optional payment metadata.
type Booking struct {
	ID               uint64
	UserID           uint64
	MovieID          uint64
	TheaterID        uint64
	ShowTimeID       uint64
	ScreenNumber     int
	StartsAt         time.Time
	NumberOfTickets  int
	SeatNumbers      []int
	TotalAmountCents uint32
	BookingDate      time.Time
	Status           string
	Reference        string
	Payment          *PaymentDetails
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PaymentDetails carries the payment tag recorded alongside a
// booking. PaymentID is generated server side; Method and
// TransactionID come from the client.
type PaymentDetails struct {
	PaymentID     string
	Method        string
	TransactionID string
}
