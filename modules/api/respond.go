package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/entitlement"
)

// envelope is the standard JSON response structure.
type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// respondError maps domain sentinel errors onto the HTTP taxonomy.
// Unavailable means "could not determine entitlement" and must never be
// conflated with a denial; it surfaces as 503 so callers retry.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, errUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, entitlement.ErrLimitReached):
		// A structured refusal from an enforcement point, not a failure.
		status, code = http.StatusUnprocessableEntity, "limit_reached"
	case errors.Is(err, entitlement.ErrUserNotFound):
		status, code = http.StatusNotFound, "user_not_found"
	case errors.Is(err, entitlement.ErrSubscriptionNotFound):
		status, code = http.StatusNotFound, "subscription_not_found"
	case errors.Is(err, entitlement.ErrPlanNotFound),
		errors.Is(err, catalog.ErrPlanNotFound):
		status, code = http.StatusNotFound, "plan_not_found"
	case errors.Is(err, catalog.ErrFeatureNotFound):
		status, code = http.StatusNotFound, "feature_not_found"
	case errors.Is(err, catalog.ErrPlanAlreadyExists),
		errors.Is(err, catalog.ErrFeatureAlreadyExists):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, catalog.ErrInvalidPlan),
		errors.Is(err, catalog.ErrInvalidFeature):
		status, code = http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, entitlement.ErrUnavailable),
		errors.Is(err, catalog.ErrStorageUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorDetail{
		Code:    code,
		Message: err.Error(),
	}})
}
