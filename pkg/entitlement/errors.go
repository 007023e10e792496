package entitlement

import "errors"

var (
	// ErrUserNotFound reports a request without a resolvable user identity.
	ErrUserNotFound = errors.New("user not found")

	// ErrPlanNotFound reports a subscription pointing at a plan the catalog
	// no longer knows. This is a data-integrity failure, not a downgrade.
	ErrPlanNotFound = errors.New("subscribed plan not found in catalog")

	// ErrSubscriptionNotFound is returned by SubscriptionStore.Get when the
	// user has no subscription record. The resolver treats it as FREE.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrLimitReached is the structured refusal returned by the property
	// creation gate. Callers present the current plan and an upgrade path.
	ErrLimitReached = errors.New("property limit reached")

	// ErrUnavailable reports that entitlement state could not be read
	// (storage failure or deadline). Retryable; never to be conflated with
	// a denial.
	ErrUnavailable = errors.New("entitlement state unavailable")

	// ErrNoPropertyCounter reports a resolver built without a property
	// counter being asked a property-limit question.
	ErrNoPropertyCounter = errors.New("no property counter registered")
)
