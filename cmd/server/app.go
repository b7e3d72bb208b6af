package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/xeno035/taskhive/internal/api/middleware"
	"github.com/xeno035/taskhive/internal/config"
	"github.com/xeno035/taskhive/internal/hub"
	"github.com/xeno035/taskhive/internal/platform/metrics"
	"github.com/xeno035/taskhive/internal/platform/postgres"
	"github.com/xeno035/taskhive/internal/service"
	"github.com/xeno035/taskhive/internal/service/auth"
	"github.com/xeno035/taskhive/internal/store"
)

// hubStartTimeout bounds the wait for the notification hub's run loop to
// come up before the HTTP server starts accepting connections.
const hubStartTimeout = 5 * time.Second

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Services
	jwtService  auth.JWTService
	authService *auth.AuthService
	taskService *service.TaskService

	// Event fan-out
	hub       *hub.Hub
	hubCancel context.CancelFunc

	// Observability and protection
	metrics     *metrics.Collector
	rateLimiter *middleware.RateLimiter
}

// newApplication creates an application instance with all dependencies
// initialized. The notification hub is constructed here but not started;
// Run owns its lifecycle.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity verifier: %w", err)
	}

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Observability
	app.metrics = metrics.NewCollector()

	// Event fan-out
	app.hub = hub.New(logger, app.metrics)

	// Services
	app.authService, err = auth.NewAuthService(verifier, app.userStore, app.jwtService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, app.hub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	// Per-user request limits on authenticated routes
	app.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the notification hub and the HTTP server, then blocks until
// shutdown. The hub must be ready before the first request is accepted so
// no mutation ever observes a half-started event transport.
func (app *application) Run(ctx context.Context) error {
	hubCtx, cancel := context.WithCancel(ctx)
	app.hubCancel = cancel
	go app.hub.Run(hubCtx)

	if err := app.waitForHub(); err != nil {
		cancel()
		return err
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// waitForHub polls until the hub's run loop reports ready.
func (app *application) waitForHub() error {
	deadline := time.Now().Add(hubStartTimeout)
	for !app.hub.Ready() {
		if time.Now().After(deadline) {
			return fmt.Errorf("notification hub failed to start within %s", hubStartTimeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
	app.logger.Info("Notification hub ready")
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	if app.hubCancel != nil {
		app.hubCancel()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
