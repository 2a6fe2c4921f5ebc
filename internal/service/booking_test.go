package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/queue"
	"github.com/moviedesk/movie-booking-api/internal/repository"
)

// fakeInventory applies the real reservation semantics in memory: it
// rejects conflicts and over-allocation under a mutex, so concurrent
// callers exercise the winner/loser behavior.
type fakeInventory struct {
	mu           sync.Mutex
	st           model.ShowTime
	releaseCalls [][]int
	releaseErr   error
}

func newFakeInventory(totalSeats int, priceCents uint32, startsAt time.Time) *fakeInventory {
	return &fakeInventory{st: model.ShowTime{
		ID:             7,
		MovieID:        3,
		TheaterID:      4,
		ScreenNumber:   2,
		ShowDate:       startsAt.Truncate(24 * time.Hour),
		StartsAt:       startsAt,
		PriceCents:     priceCents,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		IsActive:       true,
	}}
}

func (f *fakeInventory) snapshot() *model.ShowTime {
	cp := f.st
	cp.BookedSeats = append([]int(nil), f.st.BookedSeats...)
	return &cp
}

func (f *fakeInventory) GetByID(_ context.Context, id uint64) (*model.ShowTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.st.ID {
		return nil, repository.ErrShowTimeNotFound
	}
	return f.snapshot(), nil
}

func (f *fakeInventory) ReserveSeats(_ context.Context, id uint64, seats []int) (*model.ShowTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.st.ID {
		return nil, repository.ErrShowTimeNotFound
	}
	if !f.st.IsActive || !f.st.StartsAt.After(time.Now().UTC()) {
		return nil, repository.ErrShowTimeNotBookable
	}
	booked := make(map[int]bool, len(f.st.BookedSeats))
	for _, s := range f.st.BookedSeats {
		booked[s] = true
	}
	var conflicts []int
	for _, s := range seats {
		if booked[s] {
			conflicts = append(conflicts, s)
		}
	}
	if len(conflicts) > 0 {
		return nil, &repository.SeatConflictError{Seats: conflicts}
	}
	if len(seats) > f.st.AvailableSeats {
		return nil, repository.ErrInsufficientSeats
	}
	f.st.BookedSeats = append(f.st.BookedSeats, seats...)
	f.st.AvailableSeats -= len(seats)
	return f.snapshot(), nil
}

func (f *fakeInventory) ReleaseSeats(_ context.Context, id uint64, seats []int) (*model.ShowTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.st.ID {
		return nil, repository.ErrShowTimeNotFound
	}
	f.releaseCalls = append(f.releaseCalls, append([]int(nil), seats...))
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	drop := make(map[int]bool, len(seats))
	for _, s := range seats {
		drop[s] = true
	}
	kept := f.st.BookedSeats[:0]
	removed := 0
	for _, s := range f.st.BookedSeats {
		if drop[s] {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	f.st.BookedSeats = kept
	f.st.AvailableSeats += removed
	return f.snapshot(), nil
}

// fakeStore keeps bookings in a map and can inject failures.
type fakeStore struct {
	mu          sync.Mutex
	nextID      uint64
	bookings    map[uint64]*model.Booking
	createErrs  []error // popped per Create call
	createCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: map[uint64]*model.Booking{}}
}

func (f *fakeStore) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	f.nextID++
	b.ID = f.nextID
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) detail(b *model.Booking) *repository.Detail {
	return &repository.Detail{
		Booking:     *b,
		MovieName:   "Interstellar",
		TheaterName: "Galaxy Cinema",
		UserEmail:   "user@example.com",
		UserName:    "Test User",
	}
}

func (f *fakeStore) GetDetailByID(_ context.Context, id uint64) (*repository.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return f.detail(b), nil
}

func (f *fakeStore) GetDetailByReference(_ context.Context, ref string) (*repository.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Reference == ref {
			return f.detail(b), nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (f *fakeStore) ListDetails(_ context.Context, q repository.BookingQuery, limit, offset int) ([]repository.Detail, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Detail
	for _, b := range f.bookings {
		if q.UserID != 0 && b.UserID != q.UserID {
			continue
		}
		if q.Status != "" && b.Status != q.Status {
			continue
		}
		out = append(out, *f.detail(b))
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(f.bookings, id)
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	cancelled []queue.BookingCancelledEvent
}

func (f *fakeEvents) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, ev)
	return nil
}

func (f *fakeEvents) BookingCancelled(_ context.Context, ev queue.BookingCancelledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, ev)
	return nil
}

func validRequest(seats ...int) CreateBookingRequest {
	return CreateBookingRequest{
		ShowTimeID:      7,
		NumberOfTickets: len(seats),
		SeatNumbers:     seats,
		PaymentMethod:   "credit_card",
		TransactionID:   "txn-123",
	}
}

func TestCreateBookingComputesTotalAndReserves(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	events := &fakeEvents{}
	svc := NewBookingService(inv, store, events)

	detail, err := svc.CreateBooking(context.Background(), 42, validRequest(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, uint32(60000), detail.TotalAmountCents)
	assert.Equal(t, model.BookingConfirmed, detail.Status)
	assert.Equal(t, []int{1, 2, 3}, detail.SeatNumbers)
	assert.True(t, strings.HasPrefix(detail.Reference, "BK"))
	assert.Equal(t, detail.Reference, strings.ToUpper(detail.Reference))
	require.NotNil(t, detail.Payment)
	assert.Equal(t, "credit_card", detail.Payment.Method)
	assert.True(t, strings.HasPrefix(detail.Payment.PaymentID, "PAY-"))

	assert.Equal(t, 47, inv.st.AvailableSeats)
	assert.Len(t, inv.st.BookedSeats, 3)

	require.Len(t, events.confirmed, 1)
	assert.Equal(t, detail.Reference, events.confirmed[0].Reference)
	assert.Equal(t, uint32(60000), events.confirmed[0].TotalAmountCents)
}

func TestCreateBookingSeatCountMismatch(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	svc := NewBookingService(inv, newFakeStore(), nil)

	req := validRequest(1, 2, 3)
	req.NumberOfTickets = 2
	_, err := svc.CreateBooking(context.Background(), 42, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	// Nothing must be reserved when validation fails.
	assert.Equal(t, 50, inv.st.AvailableSeats)
}

func TestCreateBookingRejectsDuplicateSeats(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	svc := NewBookingService(inv, newFakeStore(), nil)

	_, err := svc.CreateBooking(context.Background(), 42, validRequest(4, 4, 5))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, 50, inv.st.AvailableSeats)
}

func TestCreateBookingRejectsTicketLimit(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	svc := NewBookingService(inv, newFakeStore(), nil)

	seats := make([]int, 11)
	for i := range seats {
		seats[i] = i + 1
	}
	_, err := svc.CreateBooking(context.Background(), 42, validRequest(seats...))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestCreateBookingRejectsUnknownPaymentMethod(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	svc := NewBookingService(inv, newFakeStore(), nil)

	req := validRequest(1)
	req.PaymentMethod = "barter"
	_, err := svc.CreateBooking(context.Background(), 42, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, 50, inv.st.AvailableSeats)
}

func TestCreateBookingCompensatesOnPersistFailure(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	store.createErrs = []error{errors.New("insert failed")}
	svc := NewBookingService(inv, store, nil)

	_, err := svc.CreateBooking(context.Background(), 42, validRequest(1, 2))
	require.Error(t, err)

	// Reserved seats must have been handed back.
	require.Len(t, inv.releaseCalls, 1)
	assert.Equal(t, []int{1, 2}, inv.releaseCalls[0])
	assert.Equal(t, 50, inv.st.AvailableSeats)
	assert.Empty(t, inv.st.BookedSeats)
}

func TestCreateBookingEscalatesFailedCompensation(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	inv.releaseErr = errors.New("release failed")
	store := newFakeStore()
	store.createErrs = []error{errors.New("insert failed")}
	svc := NewBookingService(inv, store, nil)

	_, err := svc.CreateBooking(context.Background(), 42, validRequest(1))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestCreateBookingRetriesDuplicateReference(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	store.createErrs = []error{repository.ErrDuplicateReference, nil}
	svc := NewBookingService(inv, store, nil)

	detail, err := svc.CreateBooking(context.Background(), 42, validRequest(8))
	require.NoError(t, err)
	assert.Equal(t, 2, store.createCalls)
	assert.True(t, strings.HasPrefix(detail.Reference, "BK"))
	// The retry must not re-reserve.
	assert.Equal(t, 49, inv.st.AvailableSeats)
}

func TestConcurrentOverlappingReservesSingleWinner(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	svc := NewBookingService(inv, store, nil)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateBooking(context.Background(), uint64(100+i), validRequest(10, 11))
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		var conflict *repository.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 48, inv.st.AvailableSeats)
	assert.Len(t, inv.st.BookedSeats, 2)
}

func TestCancelBookingRevertsInventory(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	events := &fakeEvents{}
	svc := NewBookingService(inv, store, events)

	detail, err := svc.CreateBooking(context.Background(), 42, validRequest(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 47, inv.st.AvailableSeats)

	cancelled, err := svc.CancelBooking(context.Background(), detail.ID, 42, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	// Full inventory revert.
	assert.Equal(t, 50, inv.st.AvailableSeats)
	assert.Empty(t, inv.st.BookedSeats)

	require.Len(t, events.cancelled, 1)
	assert.Equal(t, detail.Reference, events.cancelled[0].Reference)
	assert.Equal(t, uint32(60000), events.cancelled[0].RefundCents)
}

func TestCancelBookingWindowBoundary(t *testing.T) {
	cases := []struct {
		name     string
		until    time.Duration
		wantFail bool
	}{
		{"well before the window", 48 * time.Hour, false},
		{"just outside the window", CancellationWindow + time.Second, false},
		{"just inside the window", CancellationWindow - time.Second, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := newFakeInventory(50, 20000, time.Now().UTC().Add(tc.until))
			store := newFakeStore()
			svc := NewBookingService(inv, store, nil)

			detail, err := svc.CreateBooking(context.Background(), 42, validRequest(1))
			require.NoError(t, err)

			_, err = svc.CancelBooking(context.Background(), detail.ID, 42, model.RoleUser)
			if tc.wantFail {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, StatusOf(err))
				assert.Equal(t, 49, inv.st.AvailableSeats)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 50, inv.st.AvailableSeats)
			}
		})
	}
}

func TestCancelBookingNotOwner(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	svc := NewBookingService(inv, store, nil)

	detail, err := svc.CreateBooking(context.Background(), 42, validRequest(1))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), detail.ID, 99, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))

	// Admins may cancel on behalf of users.
	_, err = svc.CancelBooking(context.Background(), detail.ID, 99, model.RoleAdmin)
	require.NoError(t, err)
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	svc := NewBookingService(inv, store, nil)

	detail, err := svc.CreateBooking(context.Background(), 42, validRequest(1))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), detail.ID, 42, model.RoleUser)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), detail.ID, 42, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestGetBookingOwnership(t *testing.T) {
	inv := newFakeInventory(50, 20000, time.Now().UTC().Add(48*time.Hour))
	store := newFakeStore()
	svc := NewBookingService(inv, store, nil)

	detail, err := svc.CreateBooking(context.Background(), 42, validRequest(1))
	require.NoError(t, err)

	_, err = svc.GetBooking(context.Background(), detail.ID, 99, model.RoleUser)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))

	got, err := svc.GetBookingByReference(context.Background(), detail.Reference, 42, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, got.ID)
}
