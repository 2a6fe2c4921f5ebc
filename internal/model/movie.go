package model

import "time"

// Movie represents an entry in the movie catalog (`movies` table).
// Genres, Languages and Cast are stored as JSON arrays in the
// database and decoded by the repository. Movies are never hard
// deleted; administrative delete flips IsActive and all default read
// paths filter on it.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – movie title.
//  Description – optional synopsis.
//  Genres      – one or more genres (Action, Drama, ...).
//  Languages   – audio languages available.
//  DurationMin – running time in minutes.
//  Cast        – principal cast members.
//  Director    – director name.
//  ReleaseDate – theatrical release date.
//  PosterURL   – optional poster image URL.
//  Rating      – optional aggregate rating (0–10).
//  IsActive    – soft-delete flag.
//  CreatedBy   – admin user who created the record.
type Movie struct {
	ID          uint64
	Name        string
	Description string
	Genres      []string
	Languages   []string
	DurationMin int
	Cast        []string
	Director    string
	ReleaseDate time.Time
	PosterURL   string
	Rating      float64
	IsActive    bool
	CreatedBy   uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
