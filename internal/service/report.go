package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/repository"
)

// ReportReader is the aggregation surface ReportService consumes.
type ReportReader interface {
	ByMovie(ctx context.Context) ([]repository.MovieStats, error)
	ByTheater(ctx context.Context) ([]repository.TheaterStats, error)
	UserSummary(ctx context.Context, userID uint64) ([]repository.UserSummaryRow, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (repository.RevenueTotals, []repository.MovieStats, []repository.TheaterStats, error)
}

// SummaryMailer delivers the booking-summary mail. Nil when SMTP is
// not configured.
type SummaryMailer interface {
	Send(to, subject, body string) error
}

// UserGetter resolves a user record, used to address summary mail.
type UserGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// ReportService assembles booking reports and mails user summaries.
type ReportService struct {
	reports ReportReader
	users   UserGetter
	mail    SummaryMailer
}

// NewReportService wires a ReportService. mail may be nil.
func NewReportService(reports ReportReader, users UserGetter, mail SummaryMailer) *ReportService {
	return &ReportService{reports: reports, users: users, mail: mail}
}

// MovieReport returns per-movie aggregates over confirmed bookings.
func (s *ReportService) MovieReport(ctx context.Context) ([]repository.MovieStats, error) {
	return s.reports.ByMovie(ctx)
}

// TheaterReport returns per-theater aggregates over confirmed bookings.
func (s *ReportService) TheaterReport(ctx context.Context) ([]repository.TheaterStats, error) {
	return s.reports.ByTheater(ctx)
}

// UserSummary returns the caller's booking history.
func (s *ReportService) UserSummary(ctx context.Context, userID uint64) ([]repository.UserSummaryRow, error) {
	return s.reports.UserSummary(ctx, userID)
}

// RevenueReport carries the totals plus breakdowns for a date range.
type RevenueReport struct {
	From      time.Time                 `json:"start_date"`
	To        time.Time                 `json:"end_date"`
	Totals    repository.RevenueTotals  `json:"totals"`
	ByMovie   []repository.MovieStats   `json:"by_movie"`
	ByTheater []repository.TheaterStats `json:"by_theater"`
}

// Revenue computes a date-ranged revenue report. from must not be
// after to; the upper bound is inclusive through end of day.
func (s *ReportService) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	if from.After(to) {
		return nil, NewError(http.StatusBadRequest, "start date must not be after end date")
	}
	end := to.Add(24*time.Hour - time.Second)
	totals, byMovie, byTheater, err := s.reports.RevenueBetween(ctx, from, end)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{From: from, To: to, Totals: totals, ByMovie: byMovie, ByTheater: byTheater}, nil
}

// EmailUserSummary mails the caller their booking history and returns
// the number of bookings included.
func (s *ReportService) EmailUserSummary(ctx context.Context, userID uint64) (int, error) {
	if s.mail == nil {
		return 0, NewError(http.StatusServiceUnavailable, "mail delivery is not configured")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	rows, err := s.reports.UserSummary(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.mail.Send(user.Email, "Your booking summary", formatSummary(user, rows)); err != nil {
		return 0, NewError(http.StatusBadGateway, "could not send summary email: %v", err)
	}
	return len(rows), nil
}

func formatSummary(user *model.User, rows []repository.UserSummaryRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nHere is your booking summary (%d bookings):\n\n", user.FirstName, len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %s at %s\n  show: %s  tickets: %d  amount: %.2f  status: %s\n\n",
			r.Reference, r.MovieName, r.TheaterName,
			r.StartsAt.UTC().Format("2006-01-02 15:04"), r.NumberOfTickets,
			float64(r.TotalAmountCents)/100, r.Status)
	}
	b.WriteString("Thank you for booking with us.\n")
	return b.String()
}
