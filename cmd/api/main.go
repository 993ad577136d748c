package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/arealivre/areas-api/internal/handlers"
	"github.com/arealivre/areas-api/internal/notify"
	"github.com/arealivre/areas-api/internal/platform/mailer"
	"github.com/arealivre/areas-api/internal/repository"
	"github.com/arealivre/areas-api/internal/service"
	"github.com/arealivre/areas-api/pkg/config"
	"github.com/arealivre/areas-api/pkg/database"
	"github.com/arealivre/areas-api/pkg/events"
	"github.com/arealivre/areas-api/pkg/logger"
	mw "github.com/arealivre/areas-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	areaRepo := repository.NewAreaRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	guestRepo := repository.NewGuestRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Services
	guestResolver := service.NewGuestResolver(guestRepo)
	areaService := service.NewAreaService(areaRepo, bookingRepo)
	bookingService := service.NewBookingService(bookingRepo, areaRepo, userRepo, guestRepo, guestResolver, eventBus)
	authService := service.NewAuthService(userRepo, cfg.Auth)

	// Email notifications ride on the event bus.
	var mailService mailer.Service
	if cfg.Email.DevMode {
		mailService = mailer.NewDevMailer()
	} else {
		mailService = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	notifier := notify.New(eventBus, mailService)
	if err := notifier.Start(); err != nil {
		logger.Error("Failed to subscribe notifier", "error", err)
		os.Exit(1)
	}

	h := handlers.New(areaService, bookingService, authService, cfg)

	loginLimiter := mw.NewRateLimiter(redisClient, mw.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	})
	bookingLimiter := mw.NewRateLimiter(redisClient, mw.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h.Routes(r, loginLimiter.Middleware(), bookingLimiter.Middleware())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting areas API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
