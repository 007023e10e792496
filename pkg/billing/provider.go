package billing

import (
	"context"
	"time"

	"github.com/rentora/entitlements/pkg/entitlement"
)

// Provider is the minimal billing-provider contract. Implementations must
// verify webhook signatures before returning events.
type Provider interface {
	// CreatePortalSession returns a pre-authenticated customer portal URL
	// where the user manages payment methods, plan changes and cancellation.
	CreatePortalSession(ctx context.Context, sub *entitlement.Subscription) (*PortalSession, error)

	// ParseWebhook validates the signature and normalizes the payload.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// PortalSession is a short-lived customer portal link.
type PortalSession struct {
	URL              string    `json:"url"`
	CancelURL        string    `json:"cancelUrl,omitempty"`
	UpdatePaymentURL string    `json:"updatePaymentUrl,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// EventType is the normalized billing event type. Provider implementations
// map their vendor-specific event names onto these.
type EventType string

const (
	EventSubscriptionCreated  EventType = "subscription_created"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionCanceled EventType = "subscription_canceled"
	EventSubscriptionResumed  EventType = "subscription_resumed"
	EventPaymentFailed        EventType = "payment_failed"
)

// Event is a normalized webhook event.
type Event struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider's subscription ID
	UserID         string // our user ID, carried in provider custom data
	Status         string // provider subscription status
	PriceID        string // provider price ID, mapped to a plan via the catalog
	Raw            map[string]any
}
