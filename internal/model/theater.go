package model

import "time"

// Theater represents a cinema venue (`theaters` table). A theater
// owns one or more screens; showtimes reference a screen by number
// and inherit its seat capacity at creation time.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – venue name.
//  Address   – street address.
//  City      – city used for browsing filters.
//  State     – state or region.
//  Pincode   – postal code.
//  IsActive  – soft-delete flag.
//  CreatedBy – admin user who created the record.
//  Screens   – screens belonging to this theater (loaded on demand).
type Theater struct {
	ID        uint64
	Name      string
	Address   string
	City      string
	State     string
	Pincode   string
	IsActive  bool
	CreatedBy uint64
	CreatedAt time.Time
	UpdatedAt time.Time
	Screens   []Screen
}

// Screen is a numbered auditorium inside a theater
// (`theater_screens` table). TotalSeats is the authoritative
// capacity copied onto every showtime scheduled on this screen.
type Screen struct {
	ID           uint64
	TheaterID    uint64
	ScreenNumber int
	TotalSeats   int
	IsActive     bool
}
