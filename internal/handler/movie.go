package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/model"
	"github.com/moviedesk/movie-booking-api/internal/repository"
)

// MovieHandler serves the movie catalog. Reads are public; writes
// require the admin role (enforced in the router).
type MovieHandler struct {
	movies *repository.MovieRepo
}

// NewMovieHandler wires a MovieHandler.
func NewMovieHandler(movies *repository.MovieRepo) *MovieHandler {
	return &MovieHandler{movies: movies}
}

type movieRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Genres      []string `json:"genres" validate:"required,min=1,dive,required"`
	Languages   []string `json:"languages" validate:"required,min=1,dive,required"`
	DurationMin int      `json:"duration_min" validate:"required,min=1,max=600"`
	Cast        []string `json:"cast"`
	Director    string   `json:"director" validate:"required,max=200"`
	ReleaseDate string   `json:"release_date" validate:"required,datetime=2006-01-02"`
	PosterURL   string   `json:"poster_url" validate:"omitempty,url"`
	Rating      float64  `json:"rating" validate:"min=0,max=10"`
}

type movieResponse struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres"`
	Languages   []string `json:"languages"`
	DurationMin int      `json:"duration_min"`
	Cast        []string `json:"cast"`
	Director    string   `json:"director"`
	ReleaseDate string   `json:"release_date"`
	PosterURL   string   `json:"poster_url,omitempty"`
	Rating      float64  `json:"rating"`
	IsActive    bool     `json:"is_active"`
}

func toMovieResponse(m *model.Movie) movieResponse {
	return movieResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Genres:      m.Genres,
		Languages:   m.Languages,
		DurationMin: m.DurationMin,
		Cast:        m.Cast,
		Director:    m.Director,
		ReleaseDate: m.ReleaseDate.UTC().Format("2006-01-02"),
		PosterURL:   m.PosterURL,
		Rating:      m.Rating,
		IsActive:    m.IsActive,
	}
}

// List returns active movies with optional name/genre/language filters.
func (h *MovieHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	q := repository.MovieQuery{
		Name:     c.QueryParam("name"),
		Genre:    c.QueryParam("genre"),
		Language: c.QueryParam("language"),
	}
	movies, total, err := h.movies.List(c.Request().Context(), q, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	out := make([]movieResponse, 0, len(movies))
	for i := range movies {
		out = append(out, toMovieResponse(&movies[i]))
	}
	return respondList(c, "movies", out, page, limit, total)
}

// Get returns one active movie.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid movie id")
	}
	movie, err := h.movies.GetByID(c.Request().Context(), id, false)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "movie", toMovieResponse(movie))
}

// Create adds a catalog entry (admin only).
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	release, err := time.Parse("2006-01-02", req.ReleaseDate)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "release_date must be YYYY-MM-DD")
	}
	userID, _ := currentUser(c)
	movie := &model.Movie{
		Name:        req.Name,
		Description: req.Description,
		Genres:      req.Genres,
		Languages:   req.Languages,
		DurationMin: req.DurationMin,
		Cast:        req.Cast,
		Director:    req.Director,
		ReleaseDate: release,
		PosterURL:   req.PosterURL,
		Rating:      req.Rating,
		CreatedBy:   userID,
	}
	if err := h.movies.Create(c.Request().Context(), movie); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "movie created", toMovieResponse(movie))
}

// Update replaces the mutable fields of a movie (admin only).
func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid movie id")
	}
	var req movieRequest
	if !bindAndValidate(c, &req) {
		return nil
	}
	release, err := time.Parse("2006-01-02", req.ReleaseDate)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "release_date must be YYYY-MM-DD")
	}
	ctx := c.Request().Context()
	movie := &model.Movie{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Genres:      req.Genres,
		Languages:   req.Languages,
		DurationMin: req.DurationMin,
		Cast:        req.Cast,
		Director:    req.Director,
		ReleaseDate: release,
		PosterURL:   req.PosterURL,
		Rating:      req.Rating,
	}
	if err := h.movies.Update(ctx, movie); err != nil {
		return fail(c, err)
	}
	loaded, err := h.movies.GetByID(ctx, id, true)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "movie updated", toMovieResponse(loaded))
}

// Delete soft-deletes a movie (admin only). Existing bookings and
// showtimes keep their references.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid movie id")
	}
	if err := h.movies.Deactivate(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "movie deleted", nil)
}
