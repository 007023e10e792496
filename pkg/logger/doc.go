// Package logger builds the application's slog.Logger: JSON in production,
// text in development, with static service attributes and a small set of
// attribute helpers shared across packages.
package logger
