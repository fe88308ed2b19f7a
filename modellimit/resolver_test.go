package modellimit_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/modellimit"
)

func writeCatalog(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestConfigOverrideTakesPriorityOverEverythingElse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeCatalog(t, path, `{"openai":{"models":{"gpt-5":{"limit":{"context":1000,"output":100}}}}}`)

	composite := modellimit.NewCompositeResolver(
		modellimit.ConfigOverride{Overrides: map[string]modellimit.Limit{
			"openai/gpt-5": {Context: 999999, Output: 8192},
		}},
		modellimit.LocalFileResolver{Path: path},
	)

	l, ok := composite.Resolve(context.Background(), "openai", "gpt-5")
	require.True(t, ok)
	assert.Equal(t, modellimit.Limit{Context: 999999, Output: 8192}, l)
}

func TestLocalFileResolverIsConsultedWhenNoOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeCatalog(t, path, `{"anthropic":{"models":{"claude":{"limit":{"context":200000,"output":8192}}}}}`)

	composite := modellimit.NewCompositeResolver(
		modellimit.ConfigOverride{},
		modellimit.LocalFileResolver{Path: path},
	)

	l, ok := composite.Resolve(context.Background(), "anthropic", "claude")
	require.True(t, ok)
	assert.Equal(t, modellimit.Limit{Context: 200000, Output: 8192}, l)
}

func TestResolveReturnsNotOkWhenNoSourceKnowsTheModel(t *testing.T) {
	composite := modellimit.NewCompositeResolver(
		modellimit.ConfigOverride{},
		modellimit.LocalFileResolver{Path: filepath.Join(t.TempDir(), "missing.json")},
	)

	_, ok := composite.Resolve(context.Background(), "openai", "unknown-model")
	assert.False(t, ok)
}

// fakeFetcher serves a fixed catalog body, counting how many times Fetch was
// called so tests can assert on cache-hit behavior.
type fakeFetcher struct {
	body  string
	calls int
}

func (f *fakeFetcher) Fetch(context.Context) ([]byte, error) {
	f.calls++
	return []byte(f.body), nil
}

func TestCachedResolverOnlyFetchesOnceForRepeatedLookups(t *testing.T) {
	fetcher := &fakeFetcher{body: `{"openai":{"models":{"gpt-5":{"limit":{"context":400000,"output":128000}}}}}`}
	source := modellimit.ModelsDevResolver{Fetcher: fetcher}
	cached := modellimit.NewCachedResolver(source)

	for i := 0; i < 5; i++ {
		l, ok := cached.Resolve(context.Background(), "openai", "gpt-5")
		require.True(t, ok)
		assert.Equal(t, modellimit.Limit{Context: 400000, Output: 128000}, l)
	}
	assert.Equal(t, 1, fetcher.calls, "subsequent lookups must be served from cache, not re-fetched")
}

func TestCachedResolverBackgroundRefreshUpdatesStaleEntries(t *testing.T) {
	fetcher := &fakeFetcher{body: `{"openai":{"models":{"gpt-5":{"limit":{"context":100,"output":10}}}}}`}
	source := modellimit.ModelsDevResolver{Fetcher: fetcher}
	cached := modellimit.NewCachedResolver(source)

	l, ok := cached.Resolve(context.Background(), "openai", "gpt-5")
	require.True(t, ok)
	assert.Equal(t, 100, l.Context)

	// The provider bumps its published limit; the refresher should pick it
	// up on its next tick without a new Resolve call ever happening.
	fetcher.body = `{"openai":{"models":{"gpt-5":{"limit":{"context":500,"output":50}}}}}`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	stop := cached.StartRefresh(ctx, 10*time.Millisecond)
	defer stop()

	require.Eventually(t, func() bool {
		l, ok := cached.Resolve(context.Background(), "openai", "gpt-5")
		return ok && l.Context == 500
	}, 500*time.Millisecond, 10*time.Millisecond, "refresher must update the cached limit")
}

func TestModelsDevResolverReturnsNotOkOnFetchError(t *testing.T) {
	resolver := modellimit.ModelsDevResolver{Fetcher: &erroringFetcher{}}
	_, ok := resolver.Resolve(context.Background(), "openai", "gpt-5")
	assert.False(t, ok)
}

type erroringFetcher struct{}

func (erroringFetcher) Fetch(context.Context) ([]byte, error) {
	return nil, errors.New("fetch failed")
}
