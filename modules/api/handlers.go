package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentora/entitlements/pkg/billing"
	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/entitlement"
	"github.com/rentora/entitlements/pkg/logger"
)

const maxWebhookBody = 1 << 20 // Paddle payloads are small; cap defensively at 1 MiB.

type handlers struct {
	catalog  catalog.Service
	resolver entitlement.Resolver
	billing  *billing.Service
	log      *slog.Logger
}

func (h *handlers) getEntitlements(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	snapshot, err := h.resolver.Resolve(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to resolve entitlements",
			logger.UserID(user.ID), logger.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (h *handlers) getPropertyLimit(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	limit, err := h.resolver.PropertyLimit(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to compute property limit",
			logger.UserID(user.ID), logger.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, limit)
}

func (h *handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.catalog.ListActivePlans(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list plans", logger.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plans)
}

func (h *handlers) listFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := h.catalog.ListFeatures(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list features", logger.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, features)
}

func (h *handlers) createFeature(w http.ResponseWriter, r *http.Request) {
	var f catalog.Feature
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, errors.Join(catalog.ErrInvalidFeature, err))
		return
	}
	if err := h.catalog.CreateFeature(r.Context(), f); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

func (h *handlers) updateFeature(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var f catalog.Feature
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, errors.Join(catalog.ErrInvalidFeature, err))
		return
	}
	if err := h.catalog.UpdateFeature(r.Context(), key, f); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// planRequest mirrors catalog.Plan but exposes the provider price ID,
// which the public Plan representation deliberately hides.
type planRequest struct {
	catalog.Plan
	ProviderPriceID string `json:"providerPriceId"`
}

func (pr *planRequest) toPlan() *catalog.Plan {
	p := pr.Plan
	p.ProviderPriceID = pr.ProviderPriceID
	return &p
}

func (h *handlers) createPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(catalog.ErrInvalidPlan, err))
		return
	}
	created, err := h.catalog.CreatePlan(r.Context(), req.toPlan())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *handlers) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.Join(catalog.ErrInvalidPlan, err))
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(catalog.ErrInvalidPlan, err))
		return
	}
	p := req.toPlan()
	p.ID = id

	if err := h.catalog.UpdatePlan(r.Context(), p); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *handlers) deletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errors.Join(catalog.ErrInvalidPlan, err))
		return
	}
	if err := h.catalog.DeactivatePlan(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) createPortalSession(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	session, err := h.billing.PortalSession(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to create portal session",
			logger.UserID(user.ID), logger.Error(err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *handlers) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Paddle-Signature")
	if err := h.billing.Handle(r.Context(), payload, signature); err != nil {
		if errors.Is(err, billing.ErrWebhookVerificationFailed) {
			h.log.WarnContext(r.Context(), "rejected webhook with bad signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		if errors.Is(err, billing.ErrInvalidWebhookPayload) {
			h.log.WarnContext(r.Context(), "rejected malformed webhook", logger.Error(err))
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		h.log.ErrorContext(r.Context(), "failed to process billing webhook", logger.Error(err))
		// Non-2xx makes the provider redeliver, which is what we want for
		// transient storage failures.
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
