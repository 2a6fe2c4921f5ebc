package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports service and database liveness.
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		overall, dbStatus := "ok", "up"
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			overall, dbStatus = "degraded", "down"
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, echo.Map{
			"status":   overall,
			"database": dbStatus,
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
