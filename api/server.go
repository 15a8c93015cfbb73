/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: One logrus line per request (logging.RequestLogger)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for frontend

ROUTE GROUPS:
  /api/properties/*     Import, listing, reports
  /api/targets          Target allocation calculator
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/compliance-engine/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Property routes
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/import", h.ImportSnapshot)
			r.Delete("/{id}", h.DeleteProperty)
			r.Get("/{id}/snapshots", h.ListSnapshots)
			r.Get("/{id}/snapshots/{snapshotID}/compliance", h.GetCompliance)
			r.Get("/{id}/snapshots/{snapshotID}/verification", h.GetVerification)
		})

		r.Get("/targets", h.GetTargets)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
