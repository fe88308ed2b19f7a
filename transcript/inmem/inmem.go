// Package inmem provides an in-memory implementation of transcript.Store,
// for tests and local development. Production deployments should back the
// ledger with durable storage (e.g. the checkpointer's backing database).
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/arwynlabs/graphrt/transcript"
)

// Store is an in-memory transcript.Store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]transcript.Entry
	next    map[string]int64
}

func New() *Store {
	return &Store{
		entries: make(map[string][]transcript.Entry),
		next:    make(map[string]int64),
	}
}

func (s *Store) Append(_ context.Context, threadID string, entry transcript.Entry) (transcript.Entry, error) {
	if threadID == "" {
		return transcript.Entry{}, transcript.ErrThreadIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.next[threadID]++
	entry.ThreadID = threadID
	entry.Cursor = s.next[threadID]
	entry.At = time.Now().UTC()
	s.entries[threadID] = append(s.entries[threadID], entry)
	return entry, nil
}

func (s *Store) List(_ context.Context, threadID string, before int64, limit int) ([]transcript.Entry, error) {
	if threadID == "" {
		return nil, transcript.ErrThreadIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[threadID]
	out := make([]transcript.Entry, 0, len(all))
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

var _ transcript.Store = (*Store)(nil)
