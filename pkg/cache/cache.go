// Package cache provides pluggable byte caching for backend page responses.
//
// The engine's sector store is deliberately not built on this package: its
// strict least-recently-touched eviction and spatial bounds are part of the
// core contract. This cache exists one layer below, so repeated fetches of
// the same backend page are served locally across sessions and processes.
//
// Backends: in-memory (tests, short-lived TUI sessions), file (CLI default),
// Redis and MongoDB (shared deployments), and a null cache for disabling
// caching entirely.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached data type.
const (
	// TTLPage is how long backend page responses stay fresh. Pages are
	// append-mostly on the backend, so a short TTL keeps totals honest
	// without hammering the API.
	TTLPage = 15 * time.Minute

	// TTLMeta is how long collection metadata (total page counts) stays
	// fresh.
	TTLMeta = 5 * time.Minute
)

// Cache is the interface all cache backends implement.
//
// Get returns (data, true, nil) on a hit, (nil, false, nil) on a miss, and a
// non-nil error only for backend failures (a corrupt or expired entry is a
// miss, not an error). A TTL of 0 in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys for the data types driftwall caches.
// Implementations must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// PageKey generates a key for one backend page response.
	PageKey(baseURL string, page int) string

	// MetaKey generates a key for collection metadata.
	MetaKey(baseURL string) string
}

// DefaultKeyer hashes key components with SHA-256 so keys are safe for any
// backend (no filesystem or protocol special characters).
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// PageKey generates a key for one backend page response.
func (k *DefaultKeyer) PageKey(baseURL string, page int) string {
	return hashKey("page", baseURL, page)
}

// MetaKey generates a key for collection metadata.
func (k *DefaultKeyer) MetaKey(baseURL string) string {
	return hashKey("meta", baseURL)
}

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g. when
// several collections share one Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PageKey generates a prefixed page key.
func (k *ScopedKeyer) PageKey(baseURL string, page int) string {
	return k.prefix + k.inner.PageKey(baseURL, page)
}

// MetaKey generates a prefixed metadata key.
func (k *ScopedKeyer) MetaKey(baseURL string) string {
	return k.prefix + k.inner.MetaKey(baseURL)
}
