// Package cache defines the LLM-response cache contract used by
// react.CachingModel to avoid redundant model calls when the same prompt
// with the same tool catalog would return the same result. Grounded on the
// original implementation's cache module (loom/src/cache/mod.rs): "Provides
// caching capabilities to avoid redundant computations, especially useful
// for LLM calls where the same prompt with the same parameters should
// return the same result." Narrowed to Get/Set/Delete/Clear over
// string-keyed, JSON-encoded values, since this spec has no async runtime
// distinction to preserve from the original's async trait.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is a sentinel for implementations that need one, mirroring
// the original's CacheError::Other convention narrowed to one case. Get
// itself reports a miss through its bool return: the in-memory Cache
// returns ok=false with a nil error, and nothing in this repository
// returns ErrNotFound.
var ErrNotFound = errors.New("cache: not found")

// Cache stores and retrieves JSON-encoded values by key, with optional
// per-entry expiry.
type Cache interface {
	// Get reports whether key has a live (unexpired) cached value.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key, if present.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry.
	Clear(ctx context.Context) error
}
