// Package inmem provides an in-memory implementation of cache.Cache, for
// tests and local development. Grounded on the original implementation's
// InMemoryCache (loom/src/cache/mod.rs).
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/arwynlabs/graphrt/react/cache"
)

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// Cache is an in-memory cache.Cache. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New constructs an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	c.entries[key] = entry{value: cp, expires: expires}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *Cache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	return nil
}

var _ cache.Cache = (*Cache)(nil)
