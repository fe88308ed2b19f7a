// Package inmem provides an in-memory implementation of session.Store, for
// tests and local development. Production deployments should back the
// store with durable storage (e.g. the checkpointer's backing database).
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/arwynlabs/graphrt/session"
)

// Store is an in-memory session.Store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]session.Entry
	next    map[string]int64
}

func New() *Store {
	return &Store{
		entries: make(map[string][]session.Entry),
		next:    make(map[string]int64),
	}
}

func (s *Store) Append(_ context.Context, threadID, message string) (session.Entry, error) {
	if threadID == "" {
		return session.Entry{}, session.ErrThreadIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next[threadID]++
	entry := session.Entry{
		ThreadID: threadID,
		Cursor:   s.next[threadID],
		Content:  message,
		At:       time.Now().UTC(),
	}
	s.entries[threadID] = append(s.entries[threadID], entry)
	return entry, nil
}

func (s *Store) List(_ context.Context, threadID string, before int64, limit int) ([]session.Entry, error) {
	if threadID == "" {
		return nil, session.ErrThreadIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[threadID]
	out := make([]session.Entry, 0, len(all))
	for _, e := range all {
		if e.Cursor <= before {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
