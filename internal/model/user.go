package model

import "time"

// Roles stored in the users.role column. Admins may manage movies,
// theaters and showtimes and read the reporting endpoints; regular
// users may only create and cancel their own bookings.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user as stored in the `users` table.
// Handlers define separate response types with JSON tags; this struct
// is used by the repository and service layers.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, normalized (lowercase) email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  Role         – "user" or "admin".
//  IsActive     – soft-delete flag; inactive users cannot log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models a row in the `refresh_tokens` table. Only the
// SHA-256 hash of the token is stored; the raw value is returned to
// the client once and never persisted.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
