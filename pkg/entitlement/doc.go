// Package entitlement computes the effective plan, feature set and numeric
// limits for a user — the single source of truth every plan-gated mutation
// consults before acting.
//
// Resolution is a pure read-derive path: look up the user's subscription,
// pick the subscribed plan when the subscription grants access or fall back
// to the FREE plan otherwise, then mark every feature in the registry as
// included or not. Nothing is mutated as a side effect, and nothing per-user
// is cached beyond a single call, so a webhook-driven plan change is visible
// on the very next resolution.
//
// Two invariants are deliberate and load-bearing:
//
//   - Deactivating a plan in the catalog does not downgrade existing
//     subscribers. The resolver fetches the subscribed plan by ID ignoring
//     IsActive; moving subscribers off a retired plan is an explicit
//     migration, never a silent side effect of a catalog edit.
//
//   - A plan's property ceiling is applied literally. Zero means zero;
//     only the documented Unlimited sentinel (-1) lifts the ceiling.
//     Misconfigured plans are a catalog-administration problem the
//     resolver refuses to paper over.
//
// The property-creation gate is check-then-act without a transactional
// reservation: two concurrent creations at the boundary may both pass and
// transiently exceed the ceiling by one. That race is accepted; strict
// enforcement would belong to the storage layer owning the mutation.
package entitlement
