package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/entitlement"
	"github.com/rentora/entitlements/pkg/logger"
)

// PlanLookup maps a provider price ID to the catalog plan carrying it.
type PlanLookup interface {
	PlanIDByPriceID(ctx context.Context, priceID string) (uuid.UUID, error)
}

// Service applies verified billing events to subscription state.
// This is the only writer of subscriptions in the system.
type Service struct {
	provider Provider
	subs     entitlement.SubscriptionStore
	plans    PlanLookup
	log      *slog.Logger
}

// NewService wires the billing service. Panics on nil dependencies to
// fail fast during initialization.
func NewService(provider Provider, subs entitlement.SubscriptionStore, plans PlanLookup, log *slog.Logger) *Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if subs == nil {
		panic("billing: SubscriptionStore is required")
	}
	if plans == nil {
		panic("billing: PlanLookup is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{provider: provider, subs: subs, plans: plans, log: log}
}

// Handle verifies, parses and applies one webhook delivery.
// Unknown event types are acknowledged and ignored so the provider does not
// retry them forever.
func (w *Service) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := w.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: bad user ID %q", ErrInvalidWebhookPayload, event.UserID)
	}

	switch event.Type {
	case EventSubscriptionCreated:
		return w.applyCreated(ctx, userID, event)
	case EventSubscriptionUpdated, EventSubscriptionResumed:
		return w.applyUpdated(ctx, userID, event)
	case EventSubscriptionCanceled:
		return w.applyCanceled(ctx, userID)
	case EventPaymentFailed:
		return w.applyPaymentFailed(ctx, userID)
	default:
		w.log.InfoContext(ctx, "ignoring unhandled billing event",
			slog.String("event", event.ProviderEvent),
			logger.UserID(userID),
			logger.Component("billing_webhook"),
		)
		return nil
	}
}

func (w *Service) applyCreated(ctx context.Context, userID uuid.UUID, event *Event) error {
	planID, err := w.plans.PlanIDByPriceID(ctx, event.PriceID)
	if err != nil {
		return fmt.Errorf("no plan for price %q: %w", event.PriceID, err)
	}

	now := time.Now().UTC()
	sub := &entitlement.Subscription{
		UserID:        userID,
		PlanID:        planID,
		Status:        mapPaddleStatus(event.Status),
		ProviderSubID: event.SubscriptionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := w.subs.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	w.log.InfoContext(ctx, "subscription created",
		logger.UserID(userID),
		slog.String("plan_id", planID.String()),
		slog.String("status", string(sub.Status)),
	)
	return nil
}

func (w *Service) applyUpdated(ctx context.Context, userID uuid.UUID, event *Event) error {
	sub, err := w.subs.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("subscription not found for user %s: %w", userID, err)
	}

	if event.PriceID != "" {
		planID, err := w.plans.PlanIDByPriceID(ctx, event.PriceID)
		if err != nil && !errors.Is(err, catalog.ErrPlanNotFound) {
			return err
		}
		if err == nil {
			sub.PlanID = planID
		}
	}
	sub.Status = mapPaddleStatus(event.Status)
	sub.CanceledAt = nil

	return w.subs.Save(ctx, sub)
}

func (w *Service) applyCanceled(ctx context.Context, userID uuid.UUID) error {
	sub, err := w.subs.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("subscription not found for user %s: %w", userID, err)
	}

	now := time.Now().UTC()
	sub.Status = entitlement.StatusCanceled
	sub.CanceledAt = &now

	if err := w.subs.Save(ctx, sub); err != nil {
		return err
	}

	w.log.InfoContext(ctx, "subscription canceled", logger.UserID(userID))
	return nil
}

func (w *Service) applyPaymentFailed(ctx context.Context, userID uuid.UUID) error {
	sub, err := w.subs.Get(ctx, userID)
	if err != nil {
		// A failed charge for an unknown subscription is provider noise.
		if errors.Is(err, entitlement.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}

	sub.Status = entitlement.StatusPastDue
	return w.subs.Save(ctx, sub)
}

// PortalSession creates a customer portal session for the user's
// provider-backed subscription.
func (w *Service) PortalSession(ctx context.Context, userID uuid.UUID) (*PortalSession, error) {
	sub, err := w.subs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return w.provider.CreatePortalSession(ctx, sub)
}
