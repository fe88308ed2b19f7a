package graph

import "context"

// Store is the seam for long-term memory (spec §4.2, with_store): a
// namespace-scoped key/value collaborator that survives across threads and
// runs, distinct from the per-thread Checkpoint history a checkpointer
// persists. Namespace mirrors the convention the original implementation's
// invoke config documents for user-scoped memory ("user_id; used by Store
// for cross-thread memory (namespace)"): callers typically scope by user id
// or agent id. The only implementation shipped in this repository is the
// in-memory graph/memstore; no durable backing store ships (spec
// Non-goals: no provider SDK adapters), so durable deployments supply
// their own Store implementation.
type Store interface {
	Get(ctx context.Context, namespace []string, key string) ([]byte, bool, error)
	Put(ctx context.Context, namespace []string, key string, value []byte) error
	Delete(ctx context.Context, namespace []string, key string) error
}

// WithStore attaches s as the graph's long-term-memory store (spec §4.2:
// "with_store(s) — attach long-term memory"). A Builder carries at most one
// store; calling WithStore again replaces it.
func (b *Builder[S]) WithStore(s Store) *Builder[S] {
	b.store = s
	return b
}

// Store returns the store attached via WithStore, if any.
func (p *CompiledPlan[S]) Store() (Store, bool) {
	return p.store, p.store != nil
}
