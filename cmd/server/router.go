package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/xeno035/taskhive/internal/api"
	apimiddleware "github.com/xeno035/taskhive/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.authService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	socketHandler := api.NewSocketHandler(app.hub, app.jwtService, app.logger)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Request metrics only on the JSON API; the websocket endpoint
		// stays outside because its hijacked connections never complete
		// in the usual sense.
		r.Use(app.metrics.Middleware)

		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(app.rateLimiter.Middleware)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/my", taskHandler.ListMine)
				r.Get("/shared", taskHandler.ListShared)
				r.Get("/stats", taskHandler.Stats)

				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
				r.Post("/{id}/share", taskHandler.Share)
				r.Post("/{id}/complete", taskHandler.Complete)
			})
		})
	})

	// Realtime notifications; authenticates via token query parameter.
	r.Get("/ws", socketHandler.Serve)

	// Prometheus scrape endpoint
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
