package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/moviedesk/movie-booking-api/internal/model"
)

// TheaterRepo provides persistence for theaters and their screens.
// A screen's total_seats is the capacity copied onto showtimes at
// scheduling time; Inventory never re-reads it afterwards.
type TheaterRepo struct{ db *sql.DB }

// NewTheaterRepo returns a TheaterRepo bound to the given database.
func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

const theaterColumns = `id, name, address, city, state, pincode, is_active, created_by, created_at, updated_at`

// Create inserts a theater and its screens in one transaction.
func (r *TheaterRepo) Create(ctx context.Context, t *model.Theater) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO theaters (name, address, city, state, pincode, created_by) VALUES (?,?,?,?,?,?)`,
		t.Name, t.Address, t.City, t.State, t.Pincode, t.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	if len(t.Screens) > 0 {
		q := `INSERT INTO theater_screens (theater_id, screen_number, total_seats) VALUES `
		args := make([]interface{}, 0, len(t.Screens)*3)
		for i, s := range t.Screens {
			if i > 0 {
				q += ","
			}
			q += "(?,?,?)"
			args = append(args, t.ID, s.ScreenNumber, s.TotalSeats)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	loaded, err := r.GetByID(ctx, t.ID, true)
	if err != nil {
		return err
	}
	*t = *loaded
	return nil
}

// GetByID fetches a theater with its screens. includeInactive
// bypasses the soft-delete filter.
func (r *TheaterRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (*model.Theater, error) {
	q := `SELECT ` + theaterColumns + ` FROM theaters WHERE id=?`
	if !includeInactive {
		q += ` AND is_active=1`
	}
	var t model.Theater
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Address, &t.City,
		&t.State, &t.Pincode, &t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTheaterNotFound
	}
	if err != nil {
		return nil, err
	}
	screens, err := r.screensFor(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Screens = screens
	return &t, nil
}

// GetScreen returns one active screen of a theater, used when
// scheduling a showtime to inherit its seat capacity.
func (r *TheaterRepo) GetScreen(ctx context.Context, theaterID uint64, screenNumber int) (*model.Screen, error) {
	var s model.Screen
	err := r.db.QueryRowContext(ctx,
		`SELECT id, theater_id, screen_number, total_seats, is_active
		 FROM theater_screens WHERE theater_id=? AND screen_number=? AND is_active=1`,
		theaterID, screenNumber).Scan(&s.ID, &s.TheaterID, &s.ScreenNumber, &s.TotalSeats, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TheaterQuery filters List results.
type TheaterQuery struct {
	Name            string
	City            string
	State           string
	IncludeInactive bool
}

// List returns theaters matching the query plus the total count.
// Screens are loaded per theater; listings are small enough that the
// N+1 does not matter here.
func (r *TheaterRepo) List(ctx context.Context, q TheaterQuery, limit, offset int) ([]model.Theater, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	if !q.IncludeInactive {
		conds = append(conds, "is_active=1")
	}
	if q.Name != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+q.Name+"%")
	}
	if q.City != "" {
		conds = append(conds, "city LIKE ?")
		args = append(args, "%"+q.City+"%")
	}
	if q.State != "" {
		conds = append(conds, "state LIKE ?")
		args = append(args, "%"+q.State+"%")
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theaters`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+theaterColumns+` FROM theaters`+where+` ORDER BY name LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	theaters := make([]model.Theater, 0)
	for rows.Next() {
		var t model.Theater
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.City, &t.State, &t.Pincode,
			&t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		theaters = append(theaters, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range theaters {
		screens, err := r.screensFor(ctx, theaters[i].ID)
		if err != nil {
			return nil, 0, err
		}
		theaters[i].Screens = screens
	}
	return theaters, total, nil
}

// Update replaces the mutable fields of a theater (screens are
// managed separately and not touched).
func (r *TheaterRepo) Update(ctx context.Context, t *model.Theater) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE theaters SET name=?, address=?, city=?, state=?, pincode=? WHERE id=?`,
		t.Name, t.Address, t.City, t.State, t.Pincode, t.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrTheaterNotFound)
}

// Deactivate soft-deletes a theater.
func (r *TheaterRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE theaters SET is_active=0 WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrTheaterNotFound)
}

// CountActive returns the number of active theaters.
func (r *TheaterRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theaters WHERE is_active=1`).Scan(&n)
	return n, err
}

func (r *TheaterRepo) screensFor(ctx context.Context, theaterID uint64) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, theater_id, screen_number, total_seats, is_active
		 FROM theater_screens WHERE theater_id=? ORDER BY screen_number`, theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	screens := make([]model.Screen, 0)
	for rows.Next() {
		var s model.Screen
		if err := rows.Scan(&s.ID, &s.TheaterID, &s.ScreenNumber, &s.TotalSeats, &s.IsActive); err != nil {
			return nil, err
		}
		screens = append(screens, s)
	}
	return screens, rows.Err()
}
