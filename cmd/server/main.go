package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymdesk/internal/config"
	"gymdesk/internal/credentials"
	"gymdesk/internal/database"
	"gymdesk/internal/handlers"
	"gymdesk/internal/jobs"
	"gymdesk/internal/logging"
	"gymdesk/internal/repository"
	"gymdesk/internal/security"
	"gymdesk/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fatal(logger, "failed to initialize database", err)
	}
	defer db.Close()

	logger.Info("database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	logger.Info("migrations completed")

	codec, err := credentials.New(cfg.TokenFormat, cfg.TokenSigningKey, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		fatal(logger, "failed to configure credential codec", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, logger)
	if err != nil {
		// Missed-workout alerts are optional; keep serving without them
		logger.Warn("email service unavailable, alerts disabled", "error", err)
		emailService = nil
	}

	authService := service.NewAuthService(userRepo, cfg.SessionDuration, logger)
	qrService := service.NewQRLoginService(codec, authService, logger)
	memberService := service.NewMemberService(db, userRepo, memberRepo, codec, logger)
	workoutService := service.NewWorkoutService(workoutRepo, userRepo)
	ledgerService := service.NewLedgerService(completionRepo, workoutRepo, userRepo, emailService, service.LedgerOptions{
		RequireReason: cfg.LedgerRequireReason,
		AlertEmail:    cfg.CoachAlertEmail,
	}, logger)

	limiter := security.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	clientIP, err := security.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		fatal(logger, "failed to parse trusted proxies", err)
	}

	scheduler, err := jobs.NewScheduler(cfg.SessionCleanupSchedule, authService, limiter, logger)
	if err != nil {
		fatal(logger, "failed to configure scheduler", err)
	}
	scheduler.Start()

	router := handlers.Router{
		Middleware:  handlers.NewMiddleware(authService, logger),
		Auth:        handlers.NewAuthHandler(authService, qrService, limiter, clientIP, logger),
		Members:     handlers.NewMemberHandler(memberService, logger),
		Workouts:    handlers.NewWorkoutHandler(workoutService, logger),
		Completions: handlers.NewCompletionHandler(ledgerService, logger),
		DB:          db,
		Logger:      logger,
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server failed", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
