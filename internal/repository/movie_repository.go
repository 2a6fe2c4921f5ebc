package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/moviedesk/movie-booking-api/internal/model"
)

// MovieRepo provides persistence for the movie catalog. Genres,
// languages and cast are stored as JSON arrays in TEXT columns and
// (de)serialized here so the rest of the application works with
// plain string slices.
type MovieRepo struct{ db *sql.DB }

// NewMovieRepo returns a MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, name, description, genres, languages, duration_min, cast_members,
	director, release_date, poster_url, rating, is_active, created_by, created_at, updated_at`

// Create inserts a movie and populates its generated ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	genres, languages, cast, err := encodeLists(m)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies
		 (name, description, genres, languages, duration_min, cast_members, director, release_date, poster_url, rating, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		m.Name, m.Description, genres, languages, m.DurationMin, cast, m.Director,
		m.ReleaseDate.UTC().Format("2006-01-02"), m.PosterURL, m.Rating, m.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	loaded, err := r.GetByID(ctx, m.ID, true)
	if err != nil {
		return err
	}
	*m = *loaded
	return nil
}

// GetByID fetches a single movie. includeInactive bypasses the
// default soft-delete filter for administrative reads.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (*model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies WHERE id=?`
	if !includeInactive {
		q += ` AND is_active=1`
	}
	return scanMovie(r.db.QueryRowContext(ctx, q, id))
}

// MovieQuery filters List results.
type MovieQuery struct {
	Name            string
	Genre           string
	Language        string
	IncludeInactive bool
}

// List returns active movies matching the query plus a total count
// for pagination. Genre/language match uses JSON containment on the
// encoded arrays.
func (r *MovieRepo) List(ctx context.Context, q MovieQuery, limit, offset int) ([]model.Movie, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	if !q.IncludeInactive {
		conds = append(conds, "is_active=1")
	}
	if q.Name != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+q.Name+"%")
	}
	if q.Genre != "" {
		conds = append(conds, "JSON_CONTAINS(genres, JSON_QUOTE(?))")
		args = append(args, q.Genre)
	}
	if q.Language != "" {
		conds = append(conds, "JSON_CONTAINS(languages, JSON_QUOTE(?))")
		args = append(args, q.Language)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies`+where+` ORDER BY name LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		movies = append(movies, *m)
	}
	return movies, total, rows.Err()
}

// Update replaces the mutable fields of a movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	genres, languages, cast, err := encodeLists(m)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies SET name=?, description=?, genres=?, languages=?, duration_min=?,
		 cast_members=?, director=?, release_date=?, poster_url=?, rating=? WHERE id=?`,
		m.Name, m.Description, genres, languages, m.DurationMin, cast, m.Director,
		m.ReleaseDate.UTC().Format("2006-01-02"), m.PosterURL, m.Rating, m.ID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrMovieNotFound)
}

// Deactivate soft-deletes a movie; bookings and showtimes that
// reference it are untouched.
func (r *MovieRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET is_active=0 WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrMovieNotFound)
}

// CountActive returns the number of active catalog entries.
func (r *MovieRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE is_active=1`).Scan(&n)
	return n, err
}

func encodeLists(m *model.Movie) (genres, languages, cast string, err error) {
	g, err := json.Marshal(m.Genres)
	if err != nil {
		return "", "", "", err
	}
	l, err := json.Marshal(m.Languages)
	if err != nil {
		return "", "", "", err
	}
	c, err := json.Marshal(m.Cast)
	if err != nil {
		return "", "", "", err
	}
	return string(g), string(l), string(c), nil
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m                      model.Movie
		genres, languages      string
		cast                   string
		description, posterURL sql.NullString
		rating                 sql.NullFloat64
	)
	err := row.Scan(&m.ID, &m.Name, &description, &genres, &languages, &m.DurationMin,
		&cast, &m.Director, &m.ReleaseDate, &posterURL, &rating,
		&m.IsActive, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Description = description.String
	m.PosterURL = posterURL.String
	m.Rating = rating.Float64
	if err := json.Unmarshal([]byte(genres), &m.Genres); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(languages), &m.Languages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cast), &m.Cast); err != nil {
		return nil, err
	}
	return &m, nil
}
