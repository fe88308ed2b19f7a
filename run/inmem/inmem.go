// Package inmem provides an in-memory implementation of run.Store, for
// tests and local development.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/arwynlabs/graphrt/run"
)

// Store is an in-memory run.Store. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	states map[string]run.State
}

// New constructs an empty Store.
func New() *Store {
	return &Store{states: make(map[string]run.State)}
}

func (s *Store) Set(_ context.Context, threadID string, status run.Status, phase run.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[threadID] = run.State{
		ThreadID:  threadID,
		Status:    status,
		Phase:     phase,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) Get(_ context.Context, threadID string) (run.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[threadID]
	if !ok {
		return run.State{}, run.ErrNotFound
	}
	return st, nil
}

var _ run.Store = (*Store)(nil)
