// Package catalog manages subscription plan definitions and the canonical
// feature registry for the marketplace.
//
// A Plan is a named subscription tier with monthly/yearly pricing, a property
// ceiling and a set of linked features. A Feature is a stable key with a
// display label and a grouping category. Plans and features are created and
// edited only through administrative operations; everything else in the
// system treats them as read-mostly reference data.
//
// Plans carry an IsActive flag that is a catalog-listing concern only:
// ListActivePlans excludes inactive plans, but lookups by ID or name return
// them so that existing subscribers keep their plan until an explicit
// migration moves them. Deactivation is the only form of plan deletion.
//
// The package ships three Storage implementations:
//
//   - PostgresStorage: the production store backed by pgx
//   - MemoryStorage: an in-memory store for tests and local development
//   - CachedStorage: a read-through cache wrapper with a bounded TTL,
//     typically backed by Redis
//
// Usage:
//
//	store := catalog.NewPostgresStorage(pool)
//	cached := catalog.NewCachedStorage(store, catalog.NewRedisKV(client), 30*time.Second)
//	svc := catalog.NewService(cached)
//
//	plans, err := svc.ListActivePlans(ctx)
package catalog
