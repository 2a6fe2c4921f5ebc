package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/repository"
)

// TheaterHandler serves theaters and the showtimes scheduled in them.
type TheaterHandler struct {
	theaters  *repository.TheaterRepo
	showtimes *repository.ShowTimeRepo
	movies    *repository.MovieRepo
}

// NewTheaterHandler wires a TheaterHandler.
func NewTheaterHandler(theaters *repository.TheaterRepo, showtimes *repository.ShowTimeRepo, movies *repository.MovieRepo) *TheaterHandler {
	return &TheaterHandler{theaters: theaters, showtimes: showtimes, movies: movies}
}

type screenRequest struct {
	ScreenNumber int `json:"screen_number" validate:"required,min=1,max=50"`
	TotalSeats   int `json:"total_seats" validate:"required,min=1,max=1000"`
}

type theaterRequest struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Address string          `json:"address" validate:"required,max=500"`
	City    string          `json:"city" validate:"required,max=100"`
	State   string          `json:"state" validate:"required,max=100"`
	Pincode string          `json:"pincode" validate:"required,max=20"`
	Screens []screenRequest `json:"screens" validate:"omitempty,dive"`
}

type screenResponse struct {
	ScreenNumber int  `json:"screen_number"`
	TotalSeats   int  `json:"total_seats"`
	IsActive     bool `json:"is_active"`
}

type theaterResponse struct {
	ID       uint64           `json:"id"`
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	City     string           `json:"city"`
	State    string           `json:"state"`
	Pincode  string           `json:"pincode"`
	IsActive bool             `json:"is_active"`
	Screens  []screenResponse `json:"screens"`
}

func toTheaterResponse(t *model.Theater) theaterResponse {
	screens := make([]screenResponse, 0, len(t.Screens))
	for _, s := range t.Screens {
		screens = append(screens, screenResponse{
			ScreenNumber: s.ScreenNumber,
			TotalSeats:   s.TotalSeats,
			IsActive:     s.IsActive,
		})
	}
	return theaterResponse{
		ID:       t.ID,
		Name:     t.Name,
		Address:  t.Address,
		City:     t.City,
		State:    t.State,
		Pincode:  t.Pincode,
		IsActive: t.IsActive,
		Screens:  screens,
	}
}

// List returns active theaters with optional name/city/state filters.
func (h *TheaterHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	q := repository.TheaterQuery{
		Name:  c.QueryParam("name"),
		City:  c.QueryParam("city"),
		State: c.QueryParam("state"),
	}
	theaters, total, err := h.theaters.List(c.Request().Context(), q, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	out := make([]theaterResponse, 0, len(theaters))
	for i := range theaters {
		out = append(out, toTheaterResponse(&theaters[i]))
	}
	return respondList(c, "theaters", out, page, limit, total)
}

// Get returns one active theater with its screens.
func (h *TheaterHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid theater id")
	}
	theater, err := h.theaters.GetByID(c.Request().Context(), id, false)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "theater", toTheaterResponse(theater))
}

// Create adds a theater with its screens (admin only).
func (h *TheaterHandler) Create(c echo.Context) error {
	var req theaterRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	userID, _ := currentUser(c)
	theater := &model.Theater{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		CreatedBy: userID,
	}
	for _, s := range req.Screens {
		theater.Screens = append(theater.Screens, model.Screen{
			ScreenNumber: s.ScreenNumber,
			TotalSeats:   s.TotalSeats,
		})
	}
	if err := h.theaters.Create(c.Request().Context(), theater); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "theater created", toTheaterResponse(theater))
}

// Update replaces the mutable fields of a theater (admin only).
// Screens are not modified here.
func (h *TheaterHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid theater id")
	}
	var req theaterRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	theater := &model.Theater{
		ID:      id,
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
	}
	if err := h.theaters.Update(ctx, theater); err != nil {
		return fail(c, err)
	}
	loaded, err := h.theaters.GetByID(ctx, id, true)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "theater updated", toTheaterResponse(loaded))
}

// Delete soft-deletes a theater (admin only).
func (h *TheaterHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid theater id")
	}
	if err := h.theaters.Deactivate(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "theater deleted", nil)
}

type showTimeResponse struct {
	ID             uint64 `json:"id"`
	MovieID        uint64 `json:"movie_id"`
	TheaterID      uint64 `json:"theater_id"`
	ScreenNumber   int    `json:"screen_number"`
	ShowDate       string `json:"show_date"`
	StartsAt       string `json:"starts_at"`
	PriceCents     uint32 `json:"price_cents"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	BookedSeats    []int  `json:"booked_seats,omitempty"`
	IsActive       bool   `json:"is_active"`
}

func toShowTimeResponse(st *model.ShowTime) showTimeResponse {
	return showTimeResponse{
		ID:             st.ID,
		MovieID:        st.MovieID,
		TheaterID:      st.TheaterID,
		ScreenNumber:   st.ScreenNumber,
		ShowDate:       st.ShowDate.UTC().Format("2006-01-02"),
		StartsAt:       st.StartsAt.UTC().Format(time.RFC3339),
		PriceCents:     st.PriceCents,
		TotalSeats:     st.TotalSeats,
		AvailableSeats: st.AvailableSeats,
		BookedSeats:    st.BookedSeats,
		IsActive:       st.IsActive,
	}
}

// ListShowTimes returns active showtimes filtered by movie, theater
// and date.
func (h *TheaterHandler) ListShowTimes(c echo.Context) error {
	page, limit, offset := pageParams(c)
	q := repository.ShowTimeQuery{
		MovieID:   queryUint(c, "movie_id"),
		TheaterID: queryUint(c, "theater_id"),
	}
	if d := c.QueryParam("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		q.ShowDate = day
	}
	showtimes, total, err := h.showtimes.List(c.Request().Context(), q, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	out := make([]showTimeResponse, 0, len(showtimes))
	for i := range showtimes {
		out = append(out, toShowTimeResponse(&showtimes[i]))
	}
	return respondList(c, "showtimes", out, page, limit, total)
}

// GetShowTime returns one showtime including its booked seat numbers,
// which the booking UI uses to render availability.
func (h *TheaterHandler) GetShowTime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid showtime id")
	}
	st, err := h.showtimes.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if !st.IsActive {
		return respondError(c, http.StatusNotFound, "showtime not found")
	}
	return respond(c, http.StatusOK, "showtime", toShowTimeResponse(st))
}

type showTimeRequest struct {
	MovieID      uint64 `json:"movie_id" validate:"required"`
	TheaterID    uint64 `json:"theater_id" validate:"required"`
	ScreenNumber int    `json:"screen_number" validate:"required,min=1"`
	StartsAt     string `json:"starts_at" validate:"required"`
	PriceCents   uint32 `json:"price_cents" validate:"required,min=1"`
}

// CreateShowTime schedules a screening (admin only). Seat capacity is
// inherited from the target screen at creation and never re-read.
func (h *TheaterHandler) CreateShowTime(c echo.Context) error {
	var req showTimeRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "starts_at must be RFC3339")
	}
	startsAt = startsAt.UTC()
	if !startsAt.After(time.Now().UTC()) {
		return respondError(c, http.StatusBadRequest, "starts_at must be in the future")
	}

	ctx := c.Request().Context()
	if _, err := h.movies.GetByID(ctx, req.MovieID, false); err != nil {
		return fail(c, err)
	}
	if _, err := h.theaters.GetByID(ctx, req.TheaterID, false); err != nil {
		return fail(c, err)
	}
	screen, err := h.theaters.GetScreen(ctx, req.TheaterID, req.ScreenNumber)
	if err != nil {
		return fail(c, err)
	}

	userID, _ := currentUser(c)
	st := &model.ShowTime{
		MovieID:        req.MovieID,
		TheaterID:      req.TheaterID,
		ScreenNumber:   req.ScreenNumber,
		ShowDate:       startsAt.Truncate(24 * time.Hour),
		StartsAt:       startsAt,
		PriceCents:     req.PriceCents,
		TotalSeats:     screen.TotalSeats,
		AvailableSeats: screen.TotalSeats,
		CreatedBy:      userID,
	}
	if err := h.showtimes.Create(ctx, st); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "showtime created", toShowTimeResponse(st))
}

type showTimeUpdateRequest struct {
	StartsAt   string `json:"starts_at" validate:"required"`
	PriceCents uint32 `json:"price_cents" validate:"required,min=1"`
}

// UpdateShowTime reschedules or reprices a showtime (admin only).
// Seat counters are never touched by this path.
func (h *TheaterHandler) UpdateShowTime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid showtime id")
	}
	var req showTimeUpdateRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "starts_at must be RFC3339")
	}
	ctx := c.Request().Context()
	if err := h.showtimes.UpdateSchedule(ctx, id, req.PriceCents, startsAt.UTC()); err != nil {
		return fail(c, err)
	}
	st, err := h.showtimes.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "showtime updated", toShowTimeResponse(st))
}

// DeleteShowTime soft-deletes a showtime (admin only). Existing
// bookings keep their denormalized snapshot.
func (h *TheaterHandler) DeleteShowTime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid showtime id")
	}
	if err := h.showtimes.Deactivate(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "showtime deleted", nil)
}
