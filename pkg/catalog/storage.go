package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Storage defines the persistence contract for plans and features.
//
// Ordering is part of the contract: ListActivePlans returns plans sorted by
// SortOrder then Name, ListFeatures returns features sorted by Category then
// Label, and each plan's Features slice follows the feature ordering. Read
// methods must return the package sentinel errors for missing records and
// wrap everything else with ErrStorageUnavailable.
type Storage interface {
	// ListActivePlans returns active plans only, each decorated with its
	// resolved feature list. Inactive plans are excluded from listings but
	// remain reachable through PlanByID/PlanByName.
	ListActivePlans(ctx context.Context) ([]Plan, error)

	// ListFeatures returns the full feature registry.
	ListFeatures(ctx context.Context) ([]Feature, error)

	// PlanByID returns a plan regardless of its IsActive flag.
	// Returns ErrPlanNotFound if no such plan exists.
	PlanByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// PlanByName returns a plan by its internal name regardless of its
	// IsActive flag. Returns ErrPlanNotFound if no such plan exists.
	PlanByName(ctx context.Context, name string) (*Plan, error)

	// PlanIDByPriceID maps a billing provider price ID to a plan ID.
	// Returns ErrPlanNotFound if no plan carries the price ID.
	PlanIDByPriceID(ctx context.Context, priceID string) (uuid.UUID, error)

	// CreateFeature registers a new feature key.
	// Returns ErrFeatureAlreadyExists on key collision.
	CreateFeature(ctx context.Context, f Feature) error

	// UpdateFeature changes the label and category of an existing feature.
	// The key itself is immutable.
	UpdateFeature(ctx context.Context, key string, f Feature) error

	// CreatePlan persists a new plan together with its feature links.
	CreatePlan(ctx context.Context, p *Plan) error

	// UpdatePlan replaces a plan's attributes and feature links.
	UpdatePlan(ctx context.Context, p *Plan) error

	// DeactivatePlan soft-deletes a plan. Existing subscribers keep the
	// plan; it just disappears from catalog listings.
	DeactivatePlan(ctx context.Context, id uuid.UUID) error
}
