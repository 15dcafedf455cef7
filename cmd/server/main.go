package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/database"
	"github.com/rentfold/rentfold/internal/handlers"
	"github.com/rentfold/rentfold/internal/logging"
	"github.com/rentfold/rentfold/internal/middleware"
	"github.com/rentfold/rentfold/internal/scheduler"
	"github.com/rentfold/rentfold/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)

	logger.Info("Starting Rentfold invite server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	inviteService := services.NewInviteService(dbAdapter)
	emailService := services.NewEmailService(&cfg.Email)

	// Reminder scheduler
	reminders := scheduler.New(inviteService, emailService, logger, cfg.Reminder.BatchSize, cfg.Reminder.SendTimeout)
	if cfg.Reminder.Enabled {
		if err := reminders.Start(cfg.Reminder.Schedule); err != nil {
			return fmt.Errorf("starting reminder scheduler: %w", err)
		}
		defer reminders.Stop()
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	inviteHandler := handlers.NewInviteHandler(inviteService, emailService)
	signupHandler := handlers.NewSignupHandler(inviteService)
	reminderHandler := handlers.NewReminderHandler(reminders)

	// Initialize middleware
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)
	signupLimiter := middleware.NewSignupRateLimiter(redisDB.Client, cfg.Signup.RateLimit, cfg.Signup.RateLimitWindow)

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Manager-facing invite endpoints
	mux.HandleFunc("POST /api/invites", inviteHandler.Create)
	mux.HandleFunc("GET /api/invites", inviteHandler.List)
	mux.HandleFunc("POST /api/invites/{code}/resend", inviteHandler.Resend)
	mux.HandleFunc("DELETE /api/invites/{code}", inviteHandler.Revoke)

	// Ops endpoints
	mux.HandleFunc("POST /api/admin/reminders/run", reminderHandler.Run)

	// Public signup endpoints; the only identity here is an invite
	// code, so throttle by client IP
	mux.Handle("GET /api/signup/invites/{code}", signupLimiter.Limit(http.HandlerFunc(signupHandler.Validate)))
	mux.Handle("POST /api/signup/accept", signupLimiter.Limit(http.HandlerFunc(signupHandler.Accept)))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
