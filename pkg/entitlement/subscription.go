package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// Grants reports whether the status keeps the subscribed plan in effect.
// past_due grants: the payment is being retried and revoking access on the
// first failed charge punishes card hiccups. Canceled and expired do not.
func (s Status) Grants() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	}
	return false
}

// Subscription binds a user to a plan. Each user has at most one record;
// UserID is the primary key. State changes arrive from the billing provider
// through webhooks — the resolver only ever reads this.
type Subscription struct {
	UserID        uuid.UUID
	PlanID        uuid.UUID
	Status        Status
	ProviderSubID string // provider's subscription ID, empty for free plans
	TrialEndsAt   *time.Time
	CanceledAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive returns true for a paid, current subscription.
func (s *Subscription) IsActive() bool { return s.Status == StatusActive }

// IsCanceled returns true once the subscription has been canceled.
func (s *Subscription) IsCanceled() bool { return s.Status == StatusCanceled }

// IsTrialing returns true while the subscription is in its trial window.
func (s *Subscription) IsTrialing() bool { return s.Status == StatusTrialing }
