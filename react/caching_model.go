package react

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/arwynlabs/graphrt/react/cache"
)

// CachingModel wraps a Model with an LLM-response cache.Cache (spec §10's
// supplemental cache-layer feature, grounded on the original
// implementation's cache module): identical requests — same messages, same
// tool catalog — return the cached reply instead of calling the wrapped
// Model again. Think's own retry/backoff and streaming concerns are
// unaffected; caching only short-circuits the Generate call itself.
type CachingModel struct {
	Model Model
	Cache cache.Cache
	// TTL bounds how long a cached reply stays valid; zero means entries
	// never expire.
	TTL time.Duration
}

// Generate returns the cached reply for req if present and unexpired;
// otherwise it delegates to the wrapped Model and caches a successful
// result under req's key.
func (m CachingModel) Generate(ctx context.Context, req GenerateRequest) (GenerateReply, error) {
	key, err := cacheKey(req)
	if err != nil {
		return m.Model.Generate(ctx, req)
	}

	if cached, ok, err := m.Cache.Get(ctx, key); err == nil && ok {
		var reply GenerateReply
		if err := json.Unmarshal(cached, &reply); err == nil {
			return reply, nil
		}
	}

	reply, err := m.Model.Generate(ctx, req)
	if err != nil {
		return reply, err
	}
	if encoded, merr := json.Marshal(reply); merr == nil {
		_ = m.Cache.Set(ctx, key, encoded, m.TTL)
	}
	return reply, nil
}

// cacheKey derives a stable cache key from a request's messages and tool
// catalog: two requests with identical content produce identical keys
// regardless of map/slice allocation identity.
func cacheKey(req GenerateRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

var _ Model = CachingModel{}
