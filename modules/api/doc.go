// Package api exposes the entitlement service over HTTP: the per-user
// entitlement snapshot, the property-limit enforcement view, the public plan
// catalog, the admin feature/plan registry, and the billing portal/webhook
// endpoints.
//
// Identity arrives from the upstream gateway as trusted X-User-ID and
// X-User-Role headers; the package maps missing identity to 401 and
// non-admin access to admin routes to 403. Domain sentinel errors map to
// the response taxonomy in respond.go.
package api
