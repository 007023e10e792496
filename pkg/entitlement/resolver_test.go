package entitlement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/entitlement"
)

// Test fixtures

func seedCatalog(t *testing.T) (*catalog.MemoryStorage, *catalog.Plan, *catalog.Plan) {
	t.Helper()
	ctx := context.Background()
	store := catalog.NewMemoryStorage()

	for _, f := range []catalog.Feature{
		{Key: "analytics_dashboard", Label: "Analytics dashboard", Category: "insights"},
		{Key: "priority_support", Label: "Priority support", Category: "support"},
		{Key: "basic_listing", Label: "Basic listing", Category: "listings"},
	} {
		require.NoError(t, store.CreateFeature(ctx, f))
	}

	free := &catalog.Plan{
		ID:            uuid.New(),
		Name:          "free",
		DisplayName:   "Free",
		MaxProperties: 1,
		IsActive:      true,
		Features: []catalog.Feature{
			{Key: "basic_listing", Label: "Basic listing", Category: "listings"},
		},
	}
	pro := &catalog.Plan{
		ID:                uuid.New(),
		Name:              "pro",
		DisplayName:       "Pro",
		MonthlyPriceCents: 2900,
		MaxProperties:     entitlement.Unlimited,
		IsActive:          true,
		SortOrder:         1,
		Features: []catalog.Feature{
			{Key: "basic_listing", Label: "Basic listing", Category: "listings"},
			{Key: "analytics_dashboard", Label: "Analytics dashboard", Category: "insights"},
			{Key: "priority_support", Label: "Priority support", Category: "support"},
		},
	}
	require.NoError(t, store.CreatePlan(ctx, free))
	require.NoError(t, store.CreatePlan(ctx, pro))
	return store, free, pro
}

func staticCounter(count int64) entitlement.PropertyCounterFunc {
	return func(context.Context, uuid.UUID) (int64, error) {
		return count, nil
	}
}

func subscribe(t *testing.T, subs *entitlement.MemorySubscriptionStore, userID, planID uuid.UUID, status entitlement.Status) {
	t.Helper()
	require.NoError(t, subs.Save(context.Background(), &entitlement.Subscription{
		UserID: userID,
		PlanID: planID,
		Status: status,
	}))
}

// failingSubStore simulates subscription storage being down.
type failingSubStore struct{ err error }

func (f failingSubStore) Get(context.Context, uuid.UUID) (*entitlement.Subscription, error) {
	return nil, f.err
}

func (f failingSubStore) Save(context.Context, *entitlement.Subscription) error {
	return f.err
}

func TestResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no subscription falls back to free plan", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore())

		snap, err := r.Resolve(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "free", snap.PlanName)
		assert.Equal(t, "Free", snap.PlanDisplayName)
		assert.Equal(t, int32(1), snap.MaxProperties)
		assert.True(t, snap.HasFeature("basic_listing"))
		assert.False(t, snap.HasFeature("analytics_dashboard"))
	})

	t.Run("unconfigured free plan uses built-in defaults", func(t *testing.T) {
		t.Parallel()
		store := catalog.NewMemoryStorage()
		require.NoError(t, store.CreateFeature(ctx, catalog.Feature{
			Key: "basic_listing", Label: "Basic listing", Category: "listings",
		}))
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore())

		snap, err := r.Resolve(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, entitlement.FreePlanName, snap.PlanName)
		assert.Equal(t, entitlement.FreePlanDisplayName, snap.PlanDisplayName)
		assert.Equal(t, entitlement.DefaultFreeMaxProperties, snap.MaxProperties)
		assert.False(t, snap.HasFeature("basic_listing"))
	})

	t.Run("active subscription resolves subscribed plan", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs)

		snap, err := r.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "pro", snap.PlanName)
		assert.Equal(t, entitlement.Unlimited, snap.MaxProperties)
		assert.True(t, snap.HasFeature("analytics_dashboard"))
		assert.True(t, snap.HasFeature("priority_support"))
	})

	t.Run("snapshot covers the full registry", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs)

		snap, err := r.Resolve(ctx, userID)
		require.NoError(t, err)

		registry, err := store.ListFeatures(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Features, len(registry))
		for i, f := range registry {
			assert.Equal(t, f.Key, snap.Features[i].Key)
			assert.Equal(t, f.Label, snap.Features[i].Label)
			assert.Equal(t, f.Category, snap.Features[i].Category)
		}
	})

	t.Run("deactivated plan does not downgrade subscribers", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		require.NoError(t, store.DeactivatePlan(ctx, pro.ID))

		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs)

		snap, err := r.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "pro", snap.PlanName)
		assert.Equal(t, entitlement.Unlimited, snap.MaxProperties)
	})

	t.Run("canceled subscription falls back to free", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusCanceled)
		r := entitlement.NewResolver(store, store, subs)

		snap, err := r.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "free", snap.PlanName)
		assert.False(t, snap.HasFeature("analytics_dashboard"))
	})

	t.Run("past due subscription keeps its plan", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusPastDue)
		r := entitlement.NewResolver(store, store, subs)

		snap, err := r.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "pro", snap.PlanName)
	})

	t.Run("missing subscribed plan is an error, not a downgrade", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, uuid.New(), entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs)

		snap, err := r.Resolve(ctx, userID)
		require.ErrorIs(t, err, entitlement.ErrPlanNotFound)
		assert.Nil(t, snap)
	})

	t.Run("nil user ID", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore())

		_, err := r.Resolve(ctx, uuid.Nil)
		require.ErrorIs(t, err, entitlement.ErrUserNotFound)
	})

	t.Run("subscription storage failure is unavailable", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, failingSubStore{err: errors.New("connection refused")})

		_, err := r.Resolve(ctx, uuid.New())
		require.ErrorIs(t, err, entitlement.ErrUnavailable)
	})

	t.Run("resolution is idempotent", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs)

		first, err := r.Resolve(ctx, userID)
		require.NoError(t, err)
		second, err := r.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestPropertyLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("free user at ceiling cannot create", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore(),
			entitlement.WithPropertyCounter(staticCounter(1)))

		limit, err := r.PropertyLimit(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(1), limit.PropertyCount)
		assert.Equal(t, int32(1), limit.MaxProperties)
		assert.False(t, limit.CanCreate)
	})

	t.Run("free user below ceiling can create", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore(),
			entitlement.WithPropertyCounter(staticCounter(0)))

		limit, err := r.PropertyLimit(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, limit.CanCreate)
	})

	t.Run("unlimited plan always allows creation", func(t *testing.T) {
		t.Parallel()
		store, _, pro := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, pro.ID, entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs,
			entitlement.WithPropertyCounter(staticCounter(100000)))

		limit, err := r.PropertyLimit(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.Unlimited, limit.MaxProperties)
		assert.True(t, limit.CanCreate)
	})

	t.Run("zero ceiling means zero", func(t *testing.T) {
		t.Parallel()
		store := catalog.NewMemoryStorage()
		locked := &catalog.Plan{
			ID: uuid.New(), Name: "locked", DisplayName: "Locked",
			MaxProperties: 0, IsActive: true,
		}
		require.NoError(t, store.CreatePlan(ctx, locked))

		subs := entitlement.NewMemorySubscriptionStore()
		userID := uuid.New()
		subscribe(t, subs, userID, locked.ID, entitlement.StatusActive)
		r := entitlement.NewResolver(store, store, subs,
			entitlement.WithPropertyCounter(staticCounter(0)))

		limit, err := r.PropertyLimit(ctx, userID)
		require.NoError(t, err)
		assert.False(t, limit.CanCreate)
	})

	t.Run("missing counter", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore())

		_, err := r.PropertyLimit(ctx, uuid.New())
		require.ErrorIs(t, err, entitlement.ErrNoPropertyCounter)
	})

	t.Run("counter failure is unavailable", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore(),
			entitlement.WithPropertyCounter(func(context.Context, uuid.UUID) (int64, error) {
				return 0, errors.New("query timeout")
			}))

		_, err := r.PropertyLimit(ctx, uuid.New())
		require.ErrorIs(t, err, entitlement.ErrUnavailable)
	})
}

func TestCanCreateProperty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allows below ceiling", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore(),
			entitlement.WithPropertyCounter(staticCounter(0)))

		require.NoError(t, r.CanCreateProperty(ctx, uuid.New()))
	})

	t.Run("refuses at ceiling", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore(),
			entitlement.WithPropertyCounter(staticCounter(1)))

		err := r.CanCreateProperty(ctx, uuid.New())
		require.ErrorIs(t, err, entitlement.ErrLimitReached)
	})

	t.Run("repeated checks agree", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		r := entitlement.NewResolver(store, store, entitlement.NewMemorySubscriptionStore(),
			entitlement.WithPropertyCounter(staticCounter(1)))

		userID := uuid.New()
		first := r.CanCreateProperty(ctx, userID)
		second := r.CanCreateProperty(ctx, userID)
		require.ErrorIs(t, first, entitlement.ErrLimitReached)
		require.ErrorIs(t, second, entitlement.ErrLimitReached)
	})
}

func TestNewResolver(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil dependencies", func(t *testing.T) {
		t.Parallel()
		store, _, _ := seedCatalog(t)
		subs := entitlement.NewMemorySubscriptionStore()

		assert.Panics(t, func() { entitlement.NewResolver(nil, store, subs) })
		assert.Panics(t, func() { entitlement.NewResolver(store, nil, subs) })
		assert.Panics(t, func() { entitlement.NewResolver(store, store, nil) })
	})
}
