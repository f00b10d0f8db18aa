/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. requestID:      X-Request-ID from the caller, or a fresh UUID
  2. requestLogger:  One zerolog line per request
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/health/*      Stock health
  /api/products/*    Catalog
  /api/inventory/*   Ledger, stock views, reconciliation
  /api/settings/*    Inventory mode
  /api/orders/*      Orders and their payments
  /api/payments/*    Transfer verification
  /api/scenarios/*   Demo data (dev mode only)
  /api/audit         Audit trail

ACTOR:
  Reads are open. Every mutating route goes through requireActor; the
  upstream auth layer is expected to set X-Actor-ID.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: requestID, requestLogger, requireActor
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultCORSOrigins is used when no origins are configured.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ActorHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Health
		r.Get("/health/stock", h.StockHealth)

		// Catalog routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.With(requireActor).Post("/", h.CreateProduct)
			r.With(requireActor).Put("/{id}/price", h.UpdatePrice)
		})

		// Inventory routes
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/reconcile", h.Reconcile)
			r.With(requireActor).Post("/rebuild", h.Rebuild)
			r.Get("/{id}", h.GetStock)
			r.Get("/{id}/ledger", h.GetLedger)
			r.With(requireActor).Post("/{id}/in", h.RecordIncoming)
			r.With(requireActor).Post("/{id}/out", h.RecordOutgoing)
			r.With(requireActor).Post("/{id}/corrections", h.RecordCorrection)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/mode", h.GetMode)
			r.With(requireActor).Put("/mode", h.SetMode)
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.With(requireActor).Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
			r.Get("/{id}/payments", h.ListPayments)
			r.With(requireActor).Post("/{id}/payments", h.RecordPayment)
			r.With(requireActor).Post("/{id}/recompute", h.RecomputeStatus)
			r.With(requireActor).Post("/{id}/cancel", h.CancelOrder)
			r.With(requireActor).Post("/{id}/reopen", h.ReopenOrder)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.With(requireActor).Post("/{id}/verify", h.VerifyTransfer)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.With(requireActor).Post("/load", h.LoadScenario)
		})

		r.Get("/audit", h.ListAudit)
	})

	return r
}
