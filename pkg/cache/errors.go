package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBackend is returned for cache-backend failures (connection
	// errors, timeouts). Callers should treat it as a miss and continue.
	ErrBackend = errors.New("cache backend error")
)
