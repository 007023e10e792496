// Package billing integrates the external subscription lifecycle
// collaborator. The billing provider owns subscription creation, updates and
// cancellation; this package verifies and normalizes its webhooks into
// subscription state and creates customer portal sessions. Entitlement
// resolution only ever reads the state written here — it never drives
// billing.
//
// Paddle is the only provider implementation. The Provider interface keeps
// the webhook processor and the HTTP layer vendor-neutral.
package billing
