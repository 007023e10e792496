package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/rentora/entitlements/pkg/entitlement"
)

// PaddleConfig holds Paddle credentials and environment selection.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle billing provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// CreatePortalSession returns a customer portal link for a provider-backed
// subscription.
func (p *PaddleProvider) CreatePortalSession(ctx context.Context, sub *entitlement.Subscription) (*PortalSession, error) {
	if sub == nil || sub.ProviderSubID == "" {
		return nil, ErrNoProviderSubscription
	}

	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx,
		&paddle.CreateCustomerPortalSessionRequest{
			CustomerID:      sub.UserID.String(),
			SubscriptionIDs: []string{sub.ProviderSubID},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle portal session: %w", err)
	}

	portal := &PortalSession{
		URL: session.URLs.General.Overview,
		// Paddle portal links are valid for roughly a day.
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	for _, subURL := range session.URLs.Subscriptions {
		if subURL.ID == sub.ProviderSubID {
			portal.CancelURL = subURL.CancelSubscription
			portal.UpdatePaymentURL = subURL.UpdateSubscriptionPaymentMethod
			break
		}
	}

	if portal.URL == "" {
		return nil, ErrNoPortalURL
	}
	return portal, nil
}

// ParseWebhook verifies the Paddle signature and normalizes the event.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	// The verifier works on *http.Request, so rebuild one around the payload.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var paddleEvent struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	event := &Event{
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}

	if id, ok := paddleEvent.Data["id"].(string); ok {
		event.SubscriptionID = id
	}
	// Transaction events reference their subscription separately.
	if subID, ok := paddleEvent.Data["subscription_id"].(string); ok {
		event.SubscriptionID = subID
	}
	if status, ok := paddleEvent.Data["status"].(string); ok {
		event.Status = status
	}
	if customData, ok := paddleEvent.Data["custom_data"].(map[string]any); ok {
		if userID, ok := customData["user_id"].(string); ok {
			event.UserID = userID
		}
	}
	event.PriceID = extractPaddlePriceID(paddleEvent.Data)

	return event, nil
}

// extractPaddlePriceID digs the price ID out of the first line item.
// Subscription events nest it under items[0].price.id, transaction events
// flatten it to items[0].price_id.
func extractPaddlePriceID(data map[string]any) string {
	items, ok := data["items"].([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	item, ok := items[0].(map[string]any)
	if !ok {
		return ""
	}
	if priceID, ok := item["price_id"].(string); ok {
		return priceID
	}
	if price, ok := item["price"].(map[string]any); ok {
		if priceID, ok := price["id"].(string); ok {
			return priceID
		}
	}
	return ""
}

func mapPaddleEventType(name string) EventType {
	switch name {
	case "subscription.created", "transaction.completed":
		return EventSubscriptionCreated
	case "subscription.updated":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCanceled
	case "subscription.resumed":
		return EventSubscriptionResumed
	case "transaction.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(name)
	}
}

// mapPaddleStatus normalizes Paddle's subscription status strings.
func mapPaddleStatus(status string) entitlement.Status {
	switch strings.ToLower(status) {
	case "trialing":
		return entitlement.StatusTrialing
	case "active":
		return entitlement.StatusActive
	case "past_due":
		return entitlement.StatusPastDue
	case "canceled", "cancelled":
		return entitlement.StatusCanceled
	case "expired":
		return entitlement.StatusExpired
	default:
		return entitlement.Status(status)
	}
}
