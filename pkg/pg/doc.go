// Package pg bootstraps the PostgreSQL layer: a pgx connection pool with
// startup retries, goose schema migrations routed through the application
// logger, a readiness probe, and error-classification helpers used by the
// storage packages.
package pg
