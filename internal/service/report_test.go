package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/repository"
)

type fakeReports struct {
	rows       []repository.UserSummaryRow
	totals     repository.RevenueTotals
	gotFrom    time.Time
	gotTo      time.Time
	revenueErr error
}

func (f *fakeReports) ByMovie(context.Context) ([]repository.MovieStats, error)     { return nil, nil }
func (f *fakeReports) ByTheater(context.Context) ([]repository.TheaterStats, error) { return nil, nil }

func (f *fakeReports) UserSummary(_ context.Context, _ uint64) ([]repository.UserSummaryRow, error) {
	return f.rows, nil
}

func (f *fakeReports) RevenueBetween(_ context.Context, from, to time.Time) (repository.RevenueTotals, []repository.MovieStats, []repository.TheaterStats, error) {
	f.gotFrom, f.gotTo = from, to
	return f.totals, nil, nil, f.revenueErr
}

type fakeUsers struct{ user model.User }

func (f *fakeUsers) GetByID(context.Context, uint64) (*model.User, error) {
	cp := f.user
	return &cp, nil
}

type fakeMailer struct {
	to, subject, body string
	err               error
	sends             int
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.sends++
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func summaryFixture() ([]repository.UserSummaryRow, *fakeUsers) {
	rows := []repository.UserSummaryRow{{
		Reference:        "BKTEST01",
		MovieName:        "Interstellar",
		TheaterName:      "Galaxy Cinema",
		StartsAt:         time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC),
		NumberOfTickets:  2,
		BookingDate:      time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Status:           model.BookingConfirmed,
		TotalAmountCents: 45000,
	}}
	users := &fakeUsers{user: model.User{ID: 42, Email: "jo@example.com", FirstName: "Jo"}}
	return rows, users
}

func TestEmailUserSummarySendsFormattedMail(t *testing.T) {
	rows, users := summaryFixture()
	mail := &fakeMailer{}
	svc := NewReportService(&fakeReports{rows: rows}, users, mail)

	n, err := svc.EmailUserSummary(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, mail.sends)
	assert.Equal(t, "jo@example.com", mail.to)
	assert.Contains(t, mail.body, "Hi Jo")
	assert.Contains(t, mail.body, "BKTEST01")
	assert.Contains(t, mail.body, "Interstellar")
	assert.Contains(t, mail.body, "450.00")
}

func TestEmailUserSummaryWithoutMailer(t *testing.T) {
	rows, users := summaryFixture()
	svc := NewReportService(&fakeReports{rows: rows}, users, nil)

	_, err := svc.EmailUserSummary(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
}

func TestEmailUserSummaryDeliveryFailure(t *testing.T) {
	rows, users := summaryFixture()
	mail := &fakeMailer{err: errors.New("smtp down")}
	svc := NewReportService(&fakeReports{rows: rows}, users, mail)

	_, err := svc.EmailUserSummary(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.True(t, strings.Contains(err.Error(), "smtp down"))
}

func TestRevenueValidatesRange(t *testing.T) {
	reports := &fakeReports{}
	svc := NewReportService(reports, nil, nil)

	from := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Revenue(context.Background(), from, to)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestRevenueIncludesFullEndDay(t *testing.T) {
	reports := &fakeReports{totals: repository.RevenueTotals{TotalRevenueCents: 90000, TotalBookings: 3, TotalTickets: 6}}
	svc := NewReportService(reports, nil, nil)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	rep, err := svc.Revenue(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, from, reports.gotFrom)
	assert.Equal(t, to.Add(24*time.Hour-time.Second), reports.gotTo)
	assert.Equal(t, uint64(90000), rep.Totals.TotalRevenueCents)
	assert.Equal(t, to, rep.To)
}
