package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/moviedesk/movie-booking-api/internal/model"
)

// BookingRepo provides persistence for bookings. Seat numbers are
// stored as a JSON array; screen_number and starts_at are the
// denormalized snapshot captured from the showtime at creation.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.user_id, b.movie_id, b.theater_id, b.show_time_id, b.screen_number,
	b.starts_at, b.number_of_tickets, b.seat_numbers, b.total_amount_cents, b.booking_date,
	b.status, b.booking_reference, b.payment_id, b.payment_method, b.transaction_id,
	b.created_at, b.updated_at`

// Create inserts a booking. The caller supplies Reference; a
// uniqueness violation on booking_reference yields
// ErrDuplicateReference so the caller can regenerate and retry.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	seats, err := json.Marshal(b.SeatNumbers)
	if err != nil {
		return err
	}
	var paymentID, method, txnID interface{}
	if b.Payment != nil {
		paymentID, method, txnID = b.Payment.PaymentID, b.Payment.Method, b.Payment.TransactionID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings
		 (user_id, movie_id, theater_id, show_time_id, screen_number, starts_at, number_of_tickets,
		  seat_numbers, total_amount_cents, booking_date, status, booking_reference,
		  payment_id, payment_method, transaction_id)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, b.MovieID, b.TheaterID, b.ShowTimeID, b.ScreenNumber,
		b.StartsAt.UTC().Format("2006-01-02 15:04:05"), b.NumberOfTickets,
		string(seats), b.TotalAmountCents,
		b.BookingDate.UTC().Format("2006-01-02 15:04:05"), b.Status, b.Reference,
		paymentID, method, txnID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a booking by primary key.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id=?`, id))
}

// GetByReference fetches a booking by its human-readable reference.
func (r *BookingRepo) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.booking_reference=?`, reference))
}

// UpdateStatus sets the booking status. The only transition the
// service performs through here is confirmed -> cancelled.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrBookingNotFound)
}

// Delete removes a booking row. Only used by the service's
// compensating rollback when seat release fails mid-creation; normal
// flows never hard-delete bookings.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrBookingNotFound)
}

// BookingQuery filters List results. Zero values mean "no filter".
type BookingQuery struct {
	UserID    uint64
	MovieID   uint64
	TheaterID uint64
	Status    string
	DateFrom  time.Time
	DateTo    time.Time
}

// Detail is a booking joined with display names of its movie, theater
// and owning user, shaped for API responses.
type Detail struct {
	model.Booking
	MovieName   string
	TheaterName string
	UserEmail   string
	UserName    string
}

const detailColumns = bookingColumns + `, m.name, t.name, u.email, CONCAT(u.first_name, ' ', u.last_name)`

const detailJoins = ` FROM bookings b
	JOIN movies m ON m.id = b.movie_id
	JOIN theaters t ON t.id = b.theater_id
	JOIN users u ON u.id = b.user_id`

// GetDetailByID returns a booking with resolved display fields.
func (r *BookingRepo) GetDetailByID(ctx context.Context, id uint64) (*Detail, error) {
	return scanDetail(r.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+detailJoins+` WHERE b.id=?`, id))
}

// GetDetailByReference returns a booking with resolved display fields
// looked up by reference code.
func (r *BookingRepo) GetDetailByReference(ctx context.Context, reference string) (*Detail, error) {
	return scanDetail(r.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+detailJoins+` WHERE b.booking_reference=?`, reference))
}

// ListDetails returns bookings matching the query, newest first, with
// the total match count for pagination.
func (r *BookingRepo) ListDetails(ctx context.Context, q BookingQuery, limit, offset int) ([]Detail, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	if q.UserID != 0 {
		conds = append(conds, "b.user_id=?")
		args = append(args, q.UserID)
	}
	if q.MovieID != 0 {
		conds = append(conds, "b.movie_id=?")
		args = append(args, q.MovieID)
	}
	if q.TheaterID != 0 {
		conds = append(conds, "b.theater_id=?")
		args = append(args, q.TheaterID)
	}
	if q.Status != "" {
		conds = append(conds, "b.status=?")
		args = append(args, q.Status)
	}
	if !q.DateFrom.IsZero() {
		conds = append(conds, "b.booking_date>=?")
		args = append(args, q.DateFrom.UTC().Format("2006-01-02 15:04:05"))
	}
	if !q.DateTo.IsZero() {
		conds = append(conds, "b.booking_date<=?")
		args = append(args, q.DateTo.UTC().Format("2006-01-02 15:04:05"))
	}
	where := ` WHERE ` + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+detailColumns+detailJoins+where+` ORDER BY b.booking_date DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	details := make([]Detail, 0)
	for rows.Next() {
		d, err := scanDetailRows(rows)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, *d)
	}
	return details, total, rows.Err()
}

// Count returns the number of bookings matching the query.
func (r *BookingRepo) Count(ctx context.Context, q BookingQuery) (int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	if q.UserID != 0 {
		conds = append(conds, "user_id=?")
		args = append(args, q.UserID)
	}
	if q.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, q.Status)
	}
	if !q.DateFrom.IsZero() {
		conds = append(conds, "booking_date>=?")
		args = append(args, q.DateFrom.UTC().Format("2006-01-02 15:04:05"))
	}
	if !q.DateTo.IsZero() {
		conds = append(conds, "booking_date<=?")
		args = append(args, q.DateTo.UTC().Format("2006-01-02 15:04:05"))
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE `+strings.Join(conds, " AND "), args...).Scan(&n)
	return n, err
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	b, _, err := scanBookingInto(row)
	return b, err
}

func scanDetail(row *sql.Row) (*Detail, error) {
	return scanDetailRows(row)
}

func scanDetailRows(row rowScanner) (*Detail, error) {
	var d Detail
	var seats string
	var paymentID, method, txnID sql.NullString
	err := row.Scan(&d.ID, &d.UserID, &d.MovieID, &d.TheaterID, &d.ShowTimeID, &d.ScreenNumber,
		&d.StartsAt, &d.NumberOfTickets, &seats, &d.TotalAmountCents, &d.BookingDate,
		&d.Status, &d.Reference, &paymentID, &method, &txnID,
		&d.CreatedAt, &d.UpdatedAt,
		&d.MovieName, &d.TheaterName, &d.UserEmail, &d.UserName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seats), &d.SeatNumbers); err != nil {
		return nil, err
	}
	d.Payment = paymentFrom(paymentID, method, txnID)
	return &d, nil
}

func scanBookingInto(row rowScanner) (*model.Booking, bool, error) {
	var b model.Booking
	var seats string
	var paymentID, method, txnID sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.MovieID, &b.TheaterID, &b.ShowTimeID, &b.ScreenNumber,
		&b.StartsAt, &b.NumberOfTickets, &seats, &b.TotalAmountCents, &b.BookingDate,
		&b.Status, &b.Reference, &paymentID, &method, &txnID,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrBookingNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(seats), &b.SeatNumbers); err != nil {
		return nil, false, err
	}
	b.Payment = paymentFrom(paymentID, method, txnID)
	return &b, true, nil
}

func paymentFrom(paymentID, method, txnID sql.NullString) *model.PaymentDetails {
	if !paymentID.Valid && !method.Valid && !txnID.Valid {
		return nil
	}
	return &model.PaymentDetails{
		PaymentID:     paymentID.String,
		Method:        method.String,
		TransactionID: txnID.String,
	}
}
