package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/moviedesk/movie-booking-api/internal/model"
)

// ReportRepo runs read-only aggregations over stored bookings. It
// carries no invariants; everything here is a projection of what the
// booking and inventory layers already persisted.
type ReportRepo struct{ db *sql.DB }

// NewReportRepo returns a ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// MovieStats summarizes confirmed bookings for one movie.
type MovieStats struct {
	MovieID           uint64 `json:"movie_id"`
	MovieName         string `json:"movie_name"`
	TotalTickets      int    `json:"total_tickets"`
	TotalRevenueCents uint64 `json:"total_revenue_cents"`
	BookingCount      int    `json:"booking_count"`
}

// TheaterStats summarizes confirmed bookings for one theater.
type TheaterStats struct {
	TheaterID         uint64 `json:"theater_id"`
	TheaterName       string `json:"theater_name"`
	TotalTickets      int    `json:"total_tickets"`
	TotalRevenueCents uint64 `json:"total_revenue_cents"`
	BookingCount      int    `json:"booking_count"`
}

// UserSummaryRow is one line of a user's booking history used for the
// summary email and the /my-summary endpoint.
type UserSummaryRow struct {
	Reference        string    `json:"booking_reference"`
	MovieName        string    `json:"movie_name"`
	TheaterName      string    `json:"theater_name"`
	StartsAt         time.Time `json:"show_time"`
	NumberOfTickets  int       `json:"number_of_tickets"`
	BookingDate      time.Time `json:"booking_date"`
	Status           string    `json:"status"`
	TotalAmountCents uint32    `json:"total_amount_cents"`
}

// ByMovie aggregates confirmed bookings per movie, busiest first.
func (r *ReportRepo) ByMovie(ctx context.Context) ([]MovieStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.movie_id, m.name,
		        COALESCE(SUM(b.number_of_tickets),0),
		        COALESCE(SUM(b.total_amount_cents),0),
		        COUNT(*)
		 FROM bookings b
		 JOIN movies m ON m.id = b.movie_id
		 WHERE b.status=?
		 GROUP BY b.movie_id, m.name
		 ORDER BY SUM(b.number_of_tickets) DESC`, model.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]MovieStats, 0)
	for rows.Next() {
		var s MovieStats
		if err := rows.Scan(&s.MovieID, &s.MovieName, &s.TotalTickets, &s.TotalRevenueCents, &s.BookingCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ByTheater aggregates confirmed bookings per theater, busiest first.
func (r *ReportRepo) ByTheater(ctx context.Context) ([]TheaterStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.theater_id, t.name,
		        COALESCE(SUM(b.number_of_tickets),0),
		        COALESCE(SUM(b.total_amount_cents),0),
		        COUNT(*)
		 FROM bookings b
		 JOIN theaters t ON t.id = b.theater_id
		 WHERE b.status=?
		 GROUP BY b.theater_id, t.name
		 ORDER BY SUM(b.number_of_tickets) DESC`, model.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]TheaterStats, 0)
	for rows.Next() {
		var s TheaterStats
		if err := rows.Scan(&s.TheaterID, &s.TheaterName, &s.TotalTickets, &s.TotalRevenueCents, &s.BookingCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// UserSummary returns a user's booking history, newest first.
func (r *ReportRepo) UserSummary(ctx context.Context, userID uint64) ([]UserSummaryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.booking_reference, m.name, t.name, b.starts_at,
		        b.number_of_tickets, b.booking_date, b.status, b.total_amount_cents
		 FROM bookings b
		 JOIN movies m ON m.id = b.movie_id
		 JOIN theaters t ON t.id = b.theater_id
		 WHERE b.user_id=?
		 ORDER BY b.booking_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summary := make([]UserSummaryRow, 0)
	for rows.Next() {
		var row UserSummaryRow
		if err := rows.Scan(&row.Reference, &row.MovieName, &row.TheaterName, &row.StartsAt,
			&row.NumberOfTickets, &row.BookingDate, &row.Status, &row.TotalAmountCents); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// RevenueTotals holds the headline numbers of a revenue report.
type RevenueTotals struct {
	TotalRevenueCents uint64 `json:"total_revenue_cents"`
	TotalBookings     int    `json:"total_bookings"`
	TotalTickets      int    `json:"total_tickets"`
}

// RevenueBetween computes totals plus per-movie and per-theater
// breakdowns for confirmed bookings made inside [from, to].
func (r *ReportRepo) RevenueBetween(ctx context.Context, from, to time.Time) (RevenueTotals, []MovieStats, []TheaterStats, error) {
	fromStr := from.UTC().Format("2006-01-02 15:04:05")
	toStr := to.UTC().Format("2006-01-02 15:04:05")

	var totals RevenueTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount_cents),0), COUNT(*), COALESCE(SUM(number_of_tickets),0)
		 FROM bookings WHERE status=? AND booking_date BETWEEN ? AND ?`,
		model.BookingConfirmed, fromStr, toStr).
		Scan(&totals.TotalRevenueCents, &totals.TotalBookings, &totals.TotalTickets)
	if err != nil {
		return totals, nil, nil, err
	}

	movieRows, err := r.db.QueryContext(ctx,
		`SELECT b.movie_id, m.name,
		        COALESCE(SUM(b.number_of_tickets),0),
		        COALESCE(SUM(b.total_amount_cents),0),
		        COUNT(*)
		 FROM bookings b JOIN movies m ON m.id = b.movie_id
		 WHERE b.status=? AND b.booking_date BETWEEN ? AND ?
		 GROUP BY b.movie_id, m.name
		 ORDER BY SUM(b.total_amount_cents) DESC`,
		model.BookingConfirmed, fromStr, toStr)
	if err != nil {
		return totals, nil, nil, err
	}
	defer movieRows.Close()
	movies := make([]MovieStats, 0)
	for movieRows.Next() {
		var s MovieStats
		if err := movieRows.Scan(&s.MovieID, &s.MovieName, &s.TotalTickets, &s.TotalRevenueCents, &s.BookingCount); err != nil {
			return totals, nil, nil, err
		}
		movies = append(movies, s)
	}
	if err := movieRows.Err(); err != nil {
		return totals, nil, nil, err
	}

	theaterRows, err := r.db.QueryContext(ctx,
		`SELECT b.theater_id, t.name,
		        COALESCE(SUM(b.number_of_tickets),0),
		        COALESCE(SUM(b.total_amount_cents),0),
		        COUNT(*)
		 FROM bookings b JOIN theaters t ON t.id = b.theater_id
		 WHERE b.status=? AND b.booking_date BETWEEN ? AND ?
		 GROUP BY b.theater_id, t.name
		 ORDER BY SUM(b.total_amount_cents) DESC`,
		model.BookingConfirmed, fromStr, toStr)
	if err != nil {
		return totals, nil, nil, err
	}
	defer theaterRows.Close()
	theaters := make([]TheaterStats, 0)
	for theaterRows.Next() {
		var s TheaterStats
		if err := theaterRows.Scan(&s.TheaterID, &s.TheaterName, &s.TotalTickets, &s.TotalRevenueCents, &s.BookingCount); err != nil {
			return totals, nil, nil, err
		}
		theaters = append(theaters, s)
	}
	return totals, movies, theaters, theaterRows.Err()
}

// RevenueSince sums confirmed-booking revenue from the given instant
// onward; used by the admin dashboard.
func (r *ReportRepo) RevenueSince(ctx context.Context, since time.Time) (uint64, error) {
	var cents uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount_cents),0) FROM bookings WHERE status=? AND booking_date>=?`,
		model.BookingConfirmed, since.UTC().Format("2006-01-02 15:04:05")).Scan(&cents)
	return cents, err
}
