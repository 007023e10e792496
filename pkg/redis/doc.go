// Package redis connects to the Redis instance backing the catalog cache,
// with startup retries and a readiness probe.
package redis
