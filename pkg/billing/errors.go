package billing

import "errors"

var (
	ErrMissingAPIKey             = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing provider webhook secret is required")
	ErrInvalidEnvironment        = errors.New("invalid billing provider environment")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrNoPortalURL               = errors.New("no portal URL returned from provider")
	ErrNoProviderSubscription    = errors.New("subscription has no provider record")
	ErrInvalidWebhookPayload     = errors.New("invalid webhook payload")
)
