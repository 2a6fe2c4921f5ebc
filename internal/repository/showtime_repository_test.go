package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShowTimeMock(t *testing.T) (*ShowTimeRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewShowTimeRepo(db), mock
}

func lockRow(total, available int, active bool, startsAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"total_seats", "available_seats", "is_active", "starts_at"}).
		AddRow(total, available, active, startsAt)
}

func showTimeRow(id uint64, total, available int, startsAt time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "movie_id", "theater_id", "screen_number", "show_date", "starts_at",
		"price_cents", "total_seats", "available_seats", "is_active", "created_by",
		"created_at", "updated_at",
	}).AddRow(id, 1, 1, 1, startsAt.Truncate(24*time.Hour), startsAt, 20000, total, available, true, 1, now, now)
}

const (
	lockQuery  = `SELECT total_seats, available_seats, is_active, starts_at FROM show_times WHERE id=? FOR UPDATE`
	seatsQuery = `SELECT seat_number FROM show_time_seats WHERE show_time_id=? ORDER BY seat_number`
)

func TestReserveSeatsHappyPath(t *testing.T) {
	repo, mock := newShowTimeMock(t)
	startsAt := time.Now().UTC().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 50, true, startsAt))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_number FROM show_time_seats WHERE show_time_id=? AND seat_number IN (?,?,?)`)).
		WithArgs(7, 1, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO show_time_seats (show_time_id, seat_number) VALUES (?,?),(?,?),(?,?)`)).
		WithArgs(7, 1, 7, 2, 7, 3).
		WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE show_times SET available_seats = available_seats - ? WHERE id=? AND available_seats >= ?`)).
		WithArgs(3, 7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM show_times WHERE id=?`)).
		WithArgs(7).
		WillReturnRows(showTimeRow(7, 50, 47, startsAt))
	mock.ExpectQuery(regexp.QuoteMeta(seatsQuery)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(1).AddRow(2).AddRow(3))

	st, err := repo.ReserveSeats(context.Background(), 7, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 47, st.AvailableSeats)
	assert.Equal(t, []int{1, 2, 3}, st.BookedSeats)
	assert.Equal(t, st.TotalSeats, st.AvailableSeats+len(st.BookedSeats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsReportsConflicts(t *testing.T) {
	repo, mock := newShowTimeMock(t)
	startsAt := time.Now().UTC().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 48, true, startsAt))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_number FROM show_time_seats WHERE show_time_id=? AND seat_number IN (?,?)`)).
		WithArgs(7, 2, 3).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 7, []int{2, 3})
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{2}, conflict.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsNotBookable(t *testing.T) {
	repo, mock := newShowTimeMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 50, false, time.Now().UTC().Add(48*time.Hour)))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 7, []int{1})
	assert.ErrorIs(t, err, ErrShowTimeNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRejectsStartedShow(t *testing.T) {
	repo, mock := newShowTimeMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 50, true, time.Now().UTC().Add(-time.Minute)))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 7, []int{1})
	assert.ErrorIs(t, err, ErrShowTimeNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsOutOfRange(t *testing.T) {
	repo, mock := newShowTimeMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 50, true, time.Now().UTC().Add(48*time.Hour)))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 7, []int{50, 51})
	var rangeErr *SeatRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, []int{51}, rangeErr.Seats)
	assert.Equal(t, 50, rangeErr.TotalSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsInsufficientAvailability(t *testing.T) {
	repo, mock := newShowTimeMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 2, true, time.Now().UTC().Add(48*time.Hour)))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 7, []int{10, 11, 12})
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsNotFound(t *testing.T) {
	repo, mock := newShowTimeMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"total_seats", "available_seats", "is_active", "starts_at"}))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 99, []int{1})
	assert.ErrorIs(t, err, ErrShowTimeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsIncrementsByRowsRemoved(t *testing.T) {
	repo, mock := newShowTimeMock(t)
	startsAt := time.Now().UTC().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM show_times WHERE id=? FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	// Seat 9 was never booked; only two rows actually go away.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM show_time_seats WHERE show_time_id=? AND seat_number IN (?,?,?)`)).
		WithArgs(7, 1, 2, 9).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE show_times SET available_seats = available_seats + ? WHERE id=?`)).
		WithArgs(int64(2), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM show_times WHERE id=?`)).
		WithArgs(7).
		WillReturnRows(showTimeRow(7, 50, 49, startsAt))
	mock.ExpectQuery(regexp.QuoteMeta(seatsQuery)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(3))

	st, err := repo.ReleaseSeats(context.Background(), 7, []int{1, 2, 9})
	require.NoError(t, err)
	assert.Equal(t, 49, st.AvailableSeats)
	assert.Equal(t, []int{3}, st.BookedSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsNothingToRemove(t *testing.T) {
	repo, mock := newShowTimeMock(t)
	startsAt := time.Now().UTC().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM show_times WHERE id=? FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM show_time_seats WHERE show_time_id=? AND seat_number IN (?)`)).
		WithArgs(7, 4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// No counter update when nothing was deleted.
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM show_times WHERE id=?`)).
		WithArgs(7).
		WillReturnRows(showTimeRow(7, 50, 50, startsAt))
	mock.ExpectQuery(regexp.QuoteMeta(seatsQuery)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))

	st, err := repo.ReleaseSeats(context.Background(), 7, []int{4})
	require.NoError(t, err)
	assert.Equal(t, 50, st.AvailableSeats)
	assert.Empty(t, st.BookedSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsGuardedDecrementBackstop(t *testing.T) {
	repo, mock := newShowTimeMock(t)
	startsAt := time.Now().UTC().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
		WithArgs(7).
		WillReturnRows(lockRow(50, 1, true, startsAt))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_number FROM show_time_seats WHERE show_time_id=? AND seat_number IN (?)`)).
		WithArgs(7, 5).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO show_time_seats (show_time_id, seat_number) VALUES (?,?)`)).
		WithArgs(7, 5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE show_times SET available_seats = available_seats - ? WHERE id=? AND available_seats >= ?`)).
		WithArgs(1, 7, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.ReserveSeats(context.Background(), 7, []int{5})
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsEmptyRequest(t *testing.T) {
	repo, _ := newShowTimeMock(t)
	_, err := repo.ReserveSeats(context.Background(), 7, nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrShowTimeNotFound))
}
