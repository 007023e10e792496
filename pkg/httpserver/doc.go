// Package httpserver wraps net/http with graceful shutdown, functional
// options and health probes.
package httpserver
