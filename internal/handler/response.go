// Package handler contains the HTTP endpoints. Every response uses a
// single envelope: {success, message?, data?, error?, errors?,
// pagination?}.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/service"
)

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondList(c echo.Context, message string, data interface{}, page, limit, total int) error {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: message,
		Data:    data,
		Pagination: &Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func respondError(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Error: msg})
}

func respondValidation(c echo.Context, fields interface{}) error {
	return c.JSON(http.StatusUnprocessableEntity, envelope{
		Success: false,
		Error:   "validation failed",
		Errors:  fields,
	})
}

// fail translates a service or repository error into the envelope.
// Internal errors are logged and masked.
func fail(c echo.Context, err error) error {
	status := service.StatusOf(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return respondError(c, status, "internal server error")
	}
	return respondError(c, status, err.Error())
}
