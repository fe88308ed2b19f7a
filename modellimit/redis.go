package modellimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, for multi-process deployments that
// need to share one resolved model-limit catalog (SPEC_FULL.md §4.9 NEW;
// grounded on the teacher's registry package, which coordinates multi-node
// state over a shared Redis instance via goa.design/pulse/rmap rather than
// raw redis.Client calls — this package talks to Redis directly since the
// cached values here are simple scalars, not replicated maps needing
// Pulse's CRDT semantics).
type RedisCache struct {
	Client *redis.Client
	// Prefix namespaces keys in a shared Redis instance.
	Prefix string
	// TTL is an optional expiry applied to every Set; zero means no expiry
	// (the background refresher is relied on to keep entries current).
	TTL time.Duration
}

func (c *RedisCache) redisKey(key string) string {
	if c.Prefix == "" {
		return "modellimit:" + key
	}
	return c.Prefix + ":" + key
}

// Get implements Cache. Redis errors (including a miss) are treated as a
// cache miss rather than surfaced, matching Cache's ok-bool contract.
func (c *RedisCache) Get(key string) (Limit, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, err := c.Client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		return Limit{}, false
	}
	var l Limit
	if err := json.Unmarshal(b, &l); err != nil {
		return Limit{}, false
	}
	return l, true
}

// Set implements Cache. A failed Set is swallowed: the resolver chain will
// simply re-resolve against its source on the next miss.
func (c *RedisCache) Set(key string, limit Limit) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, err := json.Marshal(limit)
	if err != nil {
		return
	}
	c.Client.Set(ctx, c.redisKey(key), b, c.TTL)
}
