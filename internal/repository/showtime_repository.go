package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/moviedesk/movie-booking-api/internal/model"
)

// ShowTimeRepo owns the seat inventory of showtimes. Reservation and
// release are the only operations that mutate the booked-seat set and
// the available-seat counter, and both run inside a single
// transaction that locks the show_times row (SELECT ... FOR UPDATE).
// The unique key on show_time_seats(show_time_id, seat_number)
// backstops the row lock: even if two reservations raced past the
// conflict check, at most one insert for a given seat can succeed.
type ShowTimeRepo struct{ db *sql.DB }

// NewShowTimeRepo returns a ShowTimeRepo bound to the given database.
func NewShowTimeRepo(db *sql.DB) *ShowTimeRepo { return &ShowTimeRepo{db: db} }

const showTimeColumns = `id, movie_id, theater_id, screen_number, show_date, starts_at,
	price_cents, total_seats, available_seats, is_active, created_by, created_at, updated_at`

// Create schedules a new showtime. TotalSeats and AvailableSeats must
// already be populated from the target screen's capacity. The unique
// key on (movie_id, theater_id, screen_number, starts_at) rejects
// duplicate schedules with ErrDuplicateShowTime.
func (r *ShowTimeRepo) Create(ctx context.Context, st *model.ShowTime) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO show_times
		 (movie_id, theater_id, screen_number, show_date, starts_at, price_cents, total_seats, available_seats, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		st.MovieID, st.TheaterID, st.ScreenNumber,
		st.ShowDate.UTC().Format("2006-01-02"),
		st.StartsAt.UTC().Format("2006-01-02 15:04:05"),
		st.PriceCents, st.TotalSeats, st.AvailableSeats, st.CreatedBy)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateShowTime
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	loaded, err := r.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	*st = *loaded
	return nil
}

// GetByID loads a showtime together with its booked seat numbers.
// It does not filter on is_active: browse endpoints apply the active
// filter in List, and the booking path must see inactive showtimes to
// report ErrShowTimeNotBookable rather than a misleading not-found.
func (r *ShowTimeRepo) GetByID(ctx context.Context, id uint64) (*model.ShowTime, error) {
	st, err := scanShowTime(r.db.QueryRowContext(ctx,
		`SELECT `+showTimeColumns+` FROM show_times WHERE id=?`, id))
	if err != nil {
		return nil, err
	}
	seats, err := r.bookedSeats(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	st.BookedSeats = seats
	return st, nil
}

// ShowTimeQuery filters List results. Zero values mean "no filter".
type ShowTimeQuery struct {
	MovieID       uint64
	TheaterID     uint64
	ShowDate      time.Time
	IncludeClosed bool // admin bypass for the is_active filter
}

// List returns showtimes matching the query ordered by start time,
// along with the total match count for pagination. Booked-seat sets
// are not loaded here; listing only needs the counters.
func (r *ShowTimeRepo) List(ctx context.Context, q ShowTimeQuery, limit, offset int) ([]model.ShowTime, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	if !q.IncludeClosed {
		conds = append(conds, "is_active=1")
	}
	if q.MovieID != 0 {
		conds = append(conds, "movie_id=?")
		args = append(args, q.MovieID)
	}
	if q.TheaterID != 0 {
		conds = append(conds, "theater_id=?")
		args = append(args, q.TheaterID)
	}
	if !q.ShowDate.IsZero() {
		conds = append(conds, "show_date=?")
		args = append(args, q.ShowDate.UTC().Format("2006-01-02"))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM show_times`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+showTimeColumns+` FROM show_times`+where+` ORDER BY starts_at LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.ShowTime, 0)
	for rows.Next() {
		st, err := scanShowTimeRows(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *st)
	}
	return out, total, rows.Err()
}

// UpdateSchedule applies an administrative change to price and/or
// start time. Seat counters are never touched here.
func (r *ShowTimeRepo) UpdateSchedule(ctx context.Context, id uint64, priceCents uint32, startsAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE show_times SET price_cents=?, starts_at=?, show_date=? WHERE id=?`,
		priceCents,
		startsAt.UTC().Format("2006-01-02 15:04:05"),
		startsAt.UTC().Format("2006-01-02"),
		id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateShowTime
		}
		return err
	}
	return requireRow(res, ErrShowTimeNotFound)
}

// Deactivate soft-deletes a showtime. Bookings referencing it remain
// intact; the showtime simply stops being bookable and disappears
// from default listings.
func (r *ShowTimeRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE show_times SET is_active=0 WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrShowTimeNotFound)
}

// ReserveSeats atomically adds seatNumbers to the booked set and
// decrements available_seats, or fails without any partial effect.
// The entire check-and-mutate sequence holds a row lock on the
// showtime, so two concurrent reservations for overlapping seats can
// never both succeed; the loser observes the winner's rows and gets a
// SeatConflictError naming the overlap.
//
// Failure modes: ErrShowTimeNotFound, ErrShowTimeNotBookable,
// SeatRangeError, SeatConflictError, ErrInsufficientSeats.
func (r *ShowTimeRepo) ReserveSeats(ctx context.Context, id uint64, seatNumbers []int) (*model.ShowTime, error) {
	if len(seatNumbers) == 0 {
		return nil, errors.New("no seats requested")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		totalSeats     int
		availableSeats int
		isActive       bool
		startsAt       time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT total_seats, available_seats, is_active, starts_at FROM show_times WHERE id=? FOR UPDATE`,
		id).Scan(&totalSeats, &availableSeats, &isActive, &startsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowTimeNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isActive || !startsAt.After(time.Now().UTC()) {
		return nil, ErrShowTimeNotBookable
	}

	var outOfRange []int
	for _, s := range seatNumbers {
		if s < 1 || s > totalSeats {
			outOfRange = append(outOfRange, s)
		}
	}
	if len(outOfRange) > 0 {
		return nil, &SeatRangeError{Seats: outOfRange, TotalSeats: totalSeats}
	}
	if len(seatNumbers) > availableSeats {
		return nil, ErrInsufficientSeats
	}

	conflicts, err := r.conflictingSeats(ctx, tx, id, seatNumbers)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &SeatConflictError{Seats: conflicts}
	}

	insert := `INSERT INTO show_time_seats (show_time_id, seat_number) VALUES `
	args := make([]interface{}, 0, len(seatNumbers)*2)
	for i, s := range seatNumbers {
		if i > 0 {
			insert += ","
		}
		insert += "(?,?)"
		args = append(args, id, s)
	}
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		if isDuplicateKey(err) {
			// Lost the uniqueness race despite the row lock; report
			// whichever seats are now taken.
			if conflicts, cerr := r.conflictingSeats(ctx, tx, id, seatNumbers); cerr == nil && len(conflicts) > 0 {
				return nil, &SeatConflictError{Seats: conflicts}
			}
			return nil, &SeatConflictError{Seats: seatNumbers}
		}
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE show_times SET available_seats = available_seats - ? WHERE id=? AND available_seats >= ?`,
		len(seatNumbers), id, len(seatNumbers))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInsufficientSeats
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, id)
}

// ReleaseSeats atomically removes seatNumbers from the booked set and
// increments available_seats by the number of rows actually removed.
// Releasing a seat that is not booked is a no-op for that seat, so
// the operation is idempotent. Only ErrShowTimeNotFound can fail it.
func (r *ShowTimeRepo) ReleaseSeats(ctx context.Context, id uint64, seatNumbers []int) (*model.ShowTime, error) {
	if len(seatNumbers) == 0 {
		return r.GetByID(ctx, id)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM show_times WHERE id=? FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowTimeNotFound
	}
	if err != nil {
		return nil, err
	}

	del := `DELETE FROM show_time_seats WHERE show_time_id=? AND seat_number IN (` + placeholders(len(seatNumbers)) + `)`
	args := make([]interface{}, 0, len(seatNumbers)+1)
	args = append(args, id)
	for _, s := range seatNumbers {
		args = append(args, s)
	}
	res, err := tx.ExecContext(ctx, del, args...)
	if err != nil {
		return nil, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE show_times SET available_seats = available_seats + ? WHERE id=?`,
			removed, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, id)
}

// conflictingSeats returns the subset of seatNumbers already present
// in the booked set, using the transaction's snapshot.
func (r *ShowTimeRepo) conflictingSeats(ctx context.Context, tx *sql.Tx, id uint64, seatNumbers []int) ([]int, error) {
	q := `SELECT seat_number FROM show_time_seats WHERE show_time_id=? AND seat_number IN (` +
		placeholders(len(seatNumbers)) + `)`
	args := make([]interface{}, 0, len(seatNumbers)+1)
	args = append(args, id)
	for _, s := range seatNumbers {
		args = append(args, s)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conflicts []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, s)
	}
	return conflicts, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *ShowTimeRepo) bookedSeats(ctx context.Context, q querier, id uint64) ([]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seat_number FROM show_time_seats WHERE show_time_id=? ORDER BY seat_number`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]int, 0)
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShowTime(row *sql.Row) (*model.ShowTime, error) {
	st, err := scanShowTimeRows(row)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func scanShowTimeRows(row rowScanner) (*model.ShowTime, error) {
	var st model.ShowTime
	err := row.Scan(&st.ID, &st.MovieID, &st.TheaterID, &st.ScreenNumber,
		&st.ShowDate, &st.StartsAt, &st.PriceCents, &st.TotalSeats,
		&st.AvailableSeats, &st.IsActive, &st.CreatedBy, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowTimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
