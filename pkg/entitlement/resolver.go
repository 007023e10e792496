package entitlement

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rentora/entitlements/pkg/catalog"
)

// Resolver computes entitlement snapshots and answers limit questions.
// It holds no mutable state and takes no locks; every call is an
// independent read over externally-owned storage.
type Resolver interface {
	// Resolve returns the user's entitlement snapshot.
	Resolve(ctx context.Context, userID uuid.UUID) (*Snapshot, error)

	// PropertyLimit returns the property enforcement-point view.
	PropertyLimit(ctx context.Context, userID uuid.UUID) (*PropertyLimit, error)

	// CanCreateProperty gates property creation. Returns nil when creation
	// is allowed and ErrLimitReached when the ceiling is hit. Idempotent:
	// re-invocation without an intervening mutation yields the same answer.
	CanCreateProperty(ctx context.Context, userID uuid.UUID) error
}

type resolver struct {
	plans    PlanSource
	features FeatureSource
	subs     SubscriptionStore
	counter  PropertyCounterFunc
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolver)

// WithPropertyCounter registers the committed-property-count collaborator.
// Without it, Resolve still works but limit questions fail with
// ErrNoPropertyCounter.
func WithPropertyCounter(fn PropertyCounterFunc) ResolverOption {
	return func(r *resolver) {
		if fn != nil {
			r.counter = fn
		}
	}
}

// NewResolver creates a Resolver over the given sources.
// Panics on nil required dependencies to fail fast during initialization.
func NewResolver(plans PlanSource, features FeatureSource, subs SubscriptionStore, opts ...ResolverOption) Resolver {
	if plans == nil {
		panic("entitlement: PlanSource is required")
	}
	if features == nil {
		panic("entitlement: FeatureSource is required")
	}
	if subs == nil {
		panic("entitlement: SubscriptionStore is required")
	}

	r := &resolver{
		plans:    plans,
		features: features,
		subs:     subs,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *resolver) Resolve(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	plan, err := r.effectivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	registry, err := r.features.ListFeatures(ctx)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	var included map[string]struct{}
	if plan != nil {
		included = plan.FeatureKeys()
	}

	snapshot := &Snapshot{
		PlanName:        FreePlanName,
		PlanDisplayName: FreePlanDisplayName,
		MaxProperties:   DefaultFreeMaxProperties,
		Features:        make([]FeatureGrant, 0, len(registry)),
	}
	if plan != nil {
		snapshot.PlanName = plan.Name
		snapshot.PlanDisplayName = plan.DisplayName
		// Applied literally: zero means zero, only -1 means unlimited.
		snapshot.MaxProperties = plan.MaxProperties
	}

	for _, f := range registry {
		_, ok := included[f.Key]
		snapshot.Features = append(snapshot.Features, FeatureGrant{
			Key:      f.Key,
			Label:    f.Label,
			Category: f.Category,
			Included: ok,
		})
	}
	return snapshot, nil
}

func (r *resolver) PropertyLimit(ctx context.Context, userID uuid.UUID) (*PropertyLimit, error) {
	snapshot, err := r.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if r.counter == nil {
		return nil, ErrNoPropertyCounter
	}
	count, err := r.counter(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	return &PropertyLimit{
		PropertyCount: count,
		MaxProperties: snapshot.MaxProperties,
		CanCreate:     snapshot.MaxProperties == Unlimited || count < int64(snapshot.MaxProperties),
	}, nil
}

func (r *resolver) CanCreateProperty(ctx context.Context, userID uuid.UUID) error {
	limit, err := r.PropertyLimit(ctx, userID)
	if err != nil {
		return err
	}
	if !limit.CanCreate {
		return ErrLimitReached
	}
	return nil
}

// effectivePlan implements the resolution algorithm. It returns nil when no
// FREE plan is configured, in which case the caller applies the documented
// built-in defaults.
func (r *resolver) effectivePlan(ctx context.Context, userID uuid.UUID) (*catalog.Plan, error) {
	if userID == uuid.Nil {
		return nil, ErrUserNotFound
	}

	sub, err := r.subs.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, errors.Join(ErrUnavailable, err)
	}

	if sub != nil && sub.Status.Grants() {
		// By ID, ignoring IsActive: a catalog deactivation must not
		// silently downgrade existing subscribers.
		plan, err := r.plans.PlanByID(ctx, sub.PlanID)
		if err != nil {
			if errors.Is(err, catalog.ErrPlanNotFound) {
				return nil, errors.Join(ErrPlanNotFound, err)
			}
			return nil, errors.Join(ErrUnavailable, err)
		}
		return plan, nil
	}

	return r.freePlan(ctx)
}

func (r *resolver) freePlan(ctx context.Context) (*catalog.Plan, error) {
	plan, err := r.plans.PlanByName(ctx, FreePlanName)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			// FREE is unconfigured; built-in defaults apply.
			return nil, nil
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	return plan, nil
}
