package entitlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/rentora/entitlements/pkg/catalog"
)

// PlanSource provides read access to plan definitions. Both lookups must
// return plans regardless of their IsActive flag — resolution never checks
// it (see the package doc for why).
type PlanSource interface {
	PlanByID(ctx context.Context, id uuid.UUID) (*catalog.Plan, error)
	PlanByName(ctx context.Context, name string) (*catalog.Plan, error)
}

// FeatureSource provides the full feature registry, sorted by category
// then label.
type FeatureSource interface {
	ListFeatures(ctx context.Context) ([]catalog.Feature, error)
}

// SubscriptionStore persists the one-subscription-per-user binding.
type SubscriptionStore interface {
	// Get returns the user's subscription or ErrSubscriptionNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription keyed by UserID.
	Save(ctx context.Context, sub *Subscription) error
}

// PropertyCounterFunc returns the user's committed property count.
// Supplied by the collaborator that owns properties; the resolver only
// applies the threshold. Must be fast — it runs on every creation attempt.
type PropertyCounterFunc func(ctx context.Context, userID uuid.UUID) (int64, error)
