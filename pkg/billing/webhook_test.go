package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rentora/entitlements/pkg/billing"
	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/entitlement"
)

// Mock implementations

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, sub *entitlement.Subscription) (*billing.PortalSession, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PortalSession), args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Event), args.Error(1)
}

type mockPlanLookup struct {
	mock.Mock
}

func (m *mockPlanLookup) PlanIDByPriceID(ctx context.Context, priceID string) (uuid.UUID, error) {
	args := m.Called(ctx, priceID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func newWebhookService(provider *mockProvider, plans *mockPlanLookup) (*billing.Service, *entitlement.MemorySubscriptionStore) {
	subs := entitlement.NewMemorySubscriptionStore()
	return billing.NewService(provider, subs, plans, nil), subs
}

func TestHandleWebhook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("subscription created", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		planID := uuid.New()

		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:           billing.EventSubscriptionCreated,
			SubscriptionID: "sub_123",
			UserID:         userID.String(),
			Status:         "active",
			PriceID:        "pri_123",
		}, nil)
		plans := new(mockPlanLookup)
		plans.On("PlanIDByPriceID", ctx, "pri_123").Return(planID, nil)

		svc, subs := newWebhookService(provider, plans)
		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))

		sub, err := subs.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, planID, sub.PlanID)
		assert.Equal(t, entitlement.StatusActive, sub.Status)
		assert.Equal(t, "sub_123", sub.ProviderSubID)
	})

	t.Run("created with unknown price fails", func(t *testing.T) {
		t.Parallel()
		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:    billing.EventSubscriptionCreated,
			UserID:  uuid.New().String(),
			Status:  "active",
			PriceID: "pri_unknown",
		}, nil)
		plans := new(mockPlanLookup)
		plans.On("PlanIDByPriceID", ctx, "pri_unknown").Return(uuid.Nil, catalog.ErrPlanNotFound)

		svc, _ := newWebhookService(provider, plans)
		err := svc.Handle(ctx, []byte(`{}`), "sig")
		require.ErrorIs(t, err, catalog.ErrPlanNotFound)
	})

	t.Run("update remaps plan and clears cancellation", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		oldPlan := uuid.New()
		newPlan := uuid.New()

		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:    billing.EventSubscriptionUpdated,
			UserID:  userID.String(),
			Status:  "active",
			PriceID: "pri_new",
		}, nil)
		plans := new(mockPlanLookup)
		plans.On("PlanIDByPriceID", ctx, "pri_new").Return(newPlan, nil)

		svc, subs := newWebhookService(provider, plans)
		require.NoError(t, subs.Save(ctx, &entitlement.Subscription{
			UserID: userID,
			PlanID: oldPlan,
			Status: entitlement.StatusPastDue,
		}))

		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))

		sub, err := subs.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, newPlan, sub.PlanID)
		assert.Equal(t, entitlement.StatusActive, sub.Status)
		assert.Nil(t, sub.CanceledAt)
	})

	t.Run("update keeps plan when price is not in the catalog", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		planID := uuid.New()

		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:    billing.EventSubscriptionUpdated,
			UserID:  userID.String(),
			Status:  "active",
			PriceID: "pri_unmapped",
		}, nil)
		plans := new(mockPlanLookup)
		plans.On("PlanIDByPriceID", ctx, "pri_unmapped").Return(uuid.Nil, catalog.ErrPlanNotFound)

		svc, subs := newWebhookService(provider, plans)
		require.NoError(t, subs.Save(ctx, &entitlement.Subscription{
			UserID: userID, PlanID: planID, Status: entitlement.StatusActive,
		}))

		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))

		sub, err := subs.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, planID, sub.PlanID)
	})

	t.Run("cancellation marks subscription canceled", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()

		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:   billing.EventSubscriptionCanceled,
			UserID: userID.String(),
		}, nil)
		plans := new(mockPlanLookup)

		svc, subs := newWebhookService(provider, plans)
		require.NoError(t, subs.Save(ctx, &entitlement.Subscription{
			UserID: userID, PlanID: uuid.New(), Status: entitlement.StatusActive,
		}))

		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))

		sub, err := subs.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusCanceled, sub.Status)
		assert.NotNil(t, sub.CanceledAt)
	})

	t.Run("payment failure moves subscription to past due", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()

		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:   billing.EventPaymentFailed,
			UserID: userID.String(),
		}, nil)
		plans := new(mockPlanLookup)

		svc, subs := newWebhookService(provider, plans)
		require.NoError(t, subs.Save(ctx, &entitlement.Subscription{
			UserID: userID, PlanID: uuid.New(), Status: entitlement.StatusActive,
		}))

		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))

		sub, err := subs.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusPastDue, sub.Status)
	})

	t.Run("payment failure for unknown subscription is ignored", func(t *testing.T) {
		t.Parallel()
		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:   billing.EventPaymentFailed,
			UserID: uuid.New().String(),
		}, nil)

		svc, _ := newWebhookService(provider, new(mockPlanLookup))
		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		t.Parallel()
		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:          billing.EventType("subscription.paused"),
			ProviderEvent: "subscription.paused",
			UserID:        uuid.New().String(),
		}, nil)

		svc, _ := newWebhookService(provider, new(mockPlanLookup))
		require.NoError(t, svc.Handle(ctx, []byte(`{}`), "sig"))
	})

	t.Run("bad user ID in payload", func(t *testing.T) {
		t.Parallel()
		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "sig").Return(&billing.Event{
			Type:   billing.EventSubscriptionCreated,
			UserID: "not-a-uuid",
		}, nil)

		svc, _ := newWebhookService(provider, new(mockPlanLookup))
		err := svc.Handle(ctx, []byte(`{}`), "sig")
		require.ErrorIs(t, err, billing.ErrInvalidWebhookPayload)
	})

	t.Run("verification failure propagates", func(t *testing.T) {
		t.Parallel()
		provider := new(mockProvider)
		provider.On("ParseWebhook", ctx, mock.Anything, "bad").
			Return(nil, billing.ErrWebhookVerificationFailed)

		svc, _ := newWebhookService(provider, new(mockPlanLookup))
		err := svc.Handle(ctx, []byte(`{}`), "bad")
		require.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)
	})
}

func TestPortalSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns provider session", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		want := &billing.PortalSession{URL: "https://portal.example.com/s/abc"}

		provider := new(mockProvider)
		provider.On("CreatePortalSession", ctx, mock.Anything).Return(want, nil)

		svc, subs := newWebhookService(provider, new(mockPlanLookup))
		require.NoError(t, subs.Save(ctx, &entitlement.Subscription{
			UserID: userID, PlanID: uuid.New(), Status: entitlement.StatusActive,
			ProviderSubID: "sub_123",
		}))

		got, err := svc.PortalSession(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("no subscription", func(t *testing.T) {
		t.Parallel()
		svc, _ := newWebhookService(new(mockProvider), new(mockPlanLookup))

		_, err := svc.PortalSession(ctx, uuid.New())
		require.ErrorIs(t, err, entitlement.ErrSubscriptionNotFound)
	})

	t.Run("provider failure propagates", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		provider := new(mockProvider)
		provider.On("CreatePortalSession", ctx, mock.Anything).
			Return(nil, errors.New("paddle: 500"))

		svc, subs := newWebhookService(provider, new(mockPlanLookup))
		require.NoError(t, subs.Save(ctx, &entitlement.Subscription{
			UserID: userID, PlanID: uuid.New(), Status: entitlement.StatusActive,
		}))

		_, err := svc.PortalSession(ctx, userID)
		require.Error(t, err)
	})
}
