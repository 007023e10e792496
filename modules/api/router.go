package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rentora/entitlements/pkg/billing"
	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/entitlement"
	"github.com/rentora/entitlements/pkg/httpserver"
)

// Deps carries the services the HTTP surface exposes. Billing is optional;
// when nil the portal and webhook routes are not mounted.
type Deps struct {
	Catalog  catalog.Service
	Resolver entitlement.Resolver
	Billing  *billing.Service
	Log      *slog.Logger

	// Readiness probes for /ready, typically database and cache pings.
	Readiness []func(context.Context) error
}

// NewRouter builds the chi router with the full route table.
func NewRouter(deps Deps) http.Handler {
	if deps.Catalog == nil {
		panic("api: catalog service is required")
	}
	if deps.Resolver == nil {
		panic("api: entitlement resolver is required")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	h := &handlers{
		catalog:  deps.Catalog,
		resolver: deps.Resolver,
		billing:  deps.Billing,
		log:      deps.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(deps.Log))
	r.Get("/ready", httpserver.HealthCheckHandler(deps.Log, deps.Readiness...))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", h.listPlans)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/entitlements", h.getEntitlements)
			r.Get("/entitlements/property-limit", h.getPropertyLimit)

			if h.billing != nil {
				r.Post("/billing/portal", h.createPortalSession)
			}

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/features", h.listFeatures)
				r.Post("/features", h.createFeature)
				r.Put("/features/{key}", h.updateFeature)

				r.Post("/plans", h.createPlan)
				r.Put("/plans/{id}", h.updatePlan)
				r.Delete("/plans/{id}", h.deletePlan)
			})
		})
	})

	if h.billing != nil {
		// Signature-verified by the provider SDK, so no identity middleware.
		r.Post("/v1/billing/webhook", h.handleWebhook)
	}

	return r
}
