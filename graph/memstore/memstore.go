// Package memstore provides an in-memory implementation of graph.Store, for
// tests and local development. Production deployments should back
// long-term memory with durable storage (e.g. the same Redis/Mongo
// backends this repository already wires for checkpoints and model
// limits).
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/arwynlabs/graphrt/graph"
)

// Store is an in-memory graph.Store. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New constructs an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, namespace []string, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[fullKey(namespace, key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Store) Put(_ context.Context, namespace []string, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[fullKey(namespace, key)] = cp
	return nil
}

func (s *Store) Delete(_ context.Context, namespace []string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, fullKey(namespace, key))
	return nil
}

func fullKey(namespace []string, key string) string {
	return strings.Join(namespace, "\x1f") + "\x1e" + key
}

var _ graph.Store = (*Store)(nil)
