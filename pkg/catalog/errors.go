package catalog

import "errors"

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlanAlreadyExists = errors.New("plan already exists")
	ErrInvalidPlan       = errors.New("invalid plan definition")

	ErrFeatureNotFound      = errors.New("feature not found")
	ErrFeatureAlreadyExists = errors.New("feature already exists")
	ErrInvalidFeature       = errors.New("invalid feature definition")

	// ErrStorageUnavailable wraps storage failures so callers can
	// distinguish an empty catalog from a broken one.
	ErrStorageUnavailable = errors.New("catalog storage unavailable")
)
