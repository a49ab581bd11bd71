/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logging:    zap request logger, also placed in the request context
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the facility frontend

ROUTE GROUPS:
  /api/health           Liveness
  /api/uploads/*        Stored sheets
  /api/verifications/*  Schedule verification
  /api/checks/*         Interval and vehicle checks
  /api/samples/*        Demo datasets

SECURITY NOTE:
  No authentication middleware. Deploy behind the facility's gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/carecheck/attendance-engine/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Upload routes
		r.Route("/uploads", func(r chi.Router) {
			r.Get("/", h.ListUploads)
			r.Post("/", h.CreateUpload)
			r.Get("/{id}", h.GetUpload)
			r.Delete("/{id}", h.DeleteUpload)
		})

		// Check routes
		r.Post("/verifications/schedule", h.VerifySchedule)
		r.Route("/checks", func(r chi.Router) {
			r.Post("/intervals", h.CheckIntervals)
			r.Post("/vehicles", h.CheckVehicles)
		})

		// Sample routes
		r.Route("/samples", func(r chi.Router) {
			r.Get("/", h.ListSamples)
			r.Post("/load", h.LoadSample)
		})
	})

	return r
}
