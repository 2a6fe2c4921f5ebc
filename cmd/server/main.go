package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/moviedesk/movie-booking-api/internal/config"
	"github.com/moviedesk/movie-booking-api/internal/database"
	"github.com/moviedesk/movie-booking-api/internal/handler"
	"github.com/moviedesk/movie-booking-api/internal/mailer"
	"github.com/moviedesk/movie-booking-api/internal/middleware"
	"github.com/moviedesk/movie-booking-api/internal/queue"
	"github.com/moviedesk/movie-booking-api/internal/repository"
	"github.com/moviedesk/movie-booking-api/internal/router"
	"github.com/moviedesk/movie-booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	theaters := repository.NewTheaterRepo(db)
	showtimes := repository.NewShowTimeRepo(db)
	bookings := repository.NewBookingRepo(db)
	reports := repository.NewReportRepo(db)

	var mail service.SummaryMailer
	if cfg.MailEnabled() {
		mail = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}

	bookingSvc := service.NewBookingService(showtimes, bookings, queue.NewPublisher())
	reportSvc := service.NewReportService(reports, users, mail)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	var cache echo.MiddlewareFunc
	if rdb != nil {
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(users, tokens, cfg),
		Movie:   handler.NewMovieHandler(movies),
		Theater: handler.NewTheaterHandler(theaters, showtimes, movies),
		Booking: handler.NewBookingHandler(bookingSvc),
		Report:  handler.NewReportHandler(reportSvc),
		Admin:   handler.NewAdminHandler(users, movies, theaters, bookings, reports),
		Health:  handler.Health(db),
		Cache:   cache,
	}, cfg.JWTSecret)

	// Background consumer mirrors booking events into logs/booking.log.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
