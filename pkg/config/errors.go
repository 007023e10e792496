package config

import "errors"

var (
	// ErrParsingConfig wraps env.Parse failures.
	ErrParsingConfig = errors.New("failed to parse environment into config")
	// ErrNilPointer is returned when Load receives a nil destination.
	ErrNilPointer = errors.New("nil pointer passed to config loader")
)
