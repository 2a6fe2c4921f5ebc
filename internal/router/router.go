// Package router mounts the HTTP route tree.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/moviedesk/movie-booking-api/internal/handler"
	"github.com/moviedesk/movie-booking-api/internal/middleware"
	"github.com/moviedesk/movie-booking-api/internal/model"
)

// Handlers groups everything the route tree needs. Cache is the
// response-cache middleware for public GET routes and may be nil when
// Redis is unavailable.
type Handlers struct {
	Auth    *handler.AuthHandler
	Movie   *handler.MovieHandler
	Theater *handler.TheaterHandler
	Booking *handler.BookingHandler
	Report  *handler.ReportHandler
	Admin   *handler.AdminHandler
	Health  echo.HandlerFunc
	Cache   echo.MiddlewareFunc
}

// Register mounts the health check and the full /api/v1 tree.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api/v1")

	// Session endpoints; no token required.
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Account endpoints for the authenticated user.
	account := api.Group("/auth", middleware.JWTAuth(jwtSecret))
	account.GET("/profile", h.Auth.Profile)
	account.PUT("/profile", h.Auth.UpdateProfile)
	account.PUT("/change-password", h.Auth.ChangePassword)

	// Public catalog browsing, cached when Redis is available.
	public := api.Group("")
	if h.Cache != nil {
		public.Use(h.Cache)
	}
	public.GET("/movies", h.Movie.List)
	public.GET("/movies/:id", h.Movie.Get)
	public.GET("/theaters", h.Theater.List)
	public.GET("/theaters/:id", h.Theater.Get)
	public.GET("/theaters/showtimes/list", h.Theater.ListShowTimes)
	public.GET("/theaters/showtimes/:id", h.Theater.GetShowTime)

	// Catalog management.
	manage := api.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	manage.POST("/movies", h.Movie.Create)
	manage.PUT("/movies/:id", h.Movie.Update)
	manage.DELETE("/movies/:id", h.Movie.Delete)
	manage.POST("/theaters", h.Theater.Create)
	manage.PUT("/theaters/:id", h.Theater.Update)
	manage.DELETE("/theaters/:id", h.Theater.Delete)
	manage.POST("/theaters/showtimes", h.Theater.CreateShowTime)
	manage.PUT("/theaters/showtimes/:id", h.Theater.UpdateShowTime)
	manage.DELETE("/theaters/showtimes/:id", h.Theater.DeleteShowTime)

	// Booking lifecycle.
	bookings := api.Group("/bookings", middleware.JWTAuth(jwtSecret))
	bookings.POST("", h.Booking.Create)
	bookings.GET("", h.Booking.List, middleware.RequireRole(model.RoleAdmin))
	bookings.GET("/my-bookings", h.Booking.MyBookings)
	bookings.GET("/my-summary", h.Report.MySummary)
	bookings.PUT("/:id/cancel", h.Booking.Cancel)
	bookings.GET("/reference/:reference", h.Booking.GetByReference)
	bookings.GET("/:id", h.Booking.Get)

	// Reporting.
	reports := api.Group("/reports", middleware.JWTAuth(jwtSecret))
	reports.POST("/booking-summary/email", h.Report.EmailSummary)
	reports.GET("/movies", h.Report.Movies, middleware.RequireRole(model.RoleAdmin))
	reports.GET("/theaters", h.Report.Theaters, middleware.RequireRole(model.RoleAdmin))
	reports.GET("/revenue", h.Report.Revenue, middleware.RequireRole(model.RoleAdmin))

	// Administration.
	admin := api.Group("/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/users", h.Admin.Users)
	admin.PUT("/users/:id/status", h.Admin.SetUserStatus)
}
