// Package inmem provides the in-memory reference implementation of
// checkpoint.Store, grounded on the teacher's runtime/agent/run/inmem
// per-key ordered-list store.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arwynlabs/graphrt/checkpoint"
)

type key struct {
	threadID string
	ns       string
}

// Store is a process-local, mutex-guarded checkpoint.Store keyed by
// (thread_id, checkpoint_ns) -> ordered list of Checkpoint by ts ascending,
// with an id index permitting random access (spec §6, "Persisted state
// layout (in-memory reference)").
type Store[S any] struct {
	mu   sync.RWMutex
	logs map[key][]checkpoint.Checkpoint[S]
	byID map[key]map[string]int // index into logs[key] by checkpoint id
}

// New constructs an empty in-memory checkpoint store.
func New[S any]() *Store[S] {
	return &Store[S]{
		logs: make(map[key][]checkpoint.Checkpoint[S]),
		byID: make(map[key]map[string]int),
	}
}

func (s *Store[S]) Put(_ context.Context, cfg checkpoint.Config, cp checkpoint.Checkpoint[S]) (string, error) {
	if cfg.ThreadID == "" {
		return "", checkpoint.ErrThreadIDRequired
	}
	if cp.TS == "" {
		cp.TS = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	k := key{threadID: cfg.ThreadID, ns: cfg.CheckpointNS}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[k][cp.ID]
	if exists {
		s.logs[k][idx] = cp
		return cp.ID, nil
	}
	s.logs[k] = append(s.logs[k], cp)
	sort.SliceStable(s.logs[k], func(i, j int) bool { return s.logs[k][i].TS < s.logs[k][j].TS })
	if s.byID[k] == nil {
		s.byID[k] = make(map[string]int)
	}
	for i, c := range s.logs[k] {
		s.byID[k][c.ID] = i
	}
	return cp.ID, nil
}

func (s *Store[S]) GetTuple(_ context.Context, cfg checkpoint.Config) (checkpoint.Checkpoint[S], bool, error) {
	var zero checkpoint.Checkpoint[S]
	if cfg.ThreadID == "" {
		return zero, false, checkpoint.ErrThreadIDRequired
	}
	k := key{threadID: cfg.ThreadID, ns: cfg.CheckpointNS}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[k]
	if len(entries) == 0 {
		return zero, false, nil
	}
	if cfg.CheckpointID != "" {
		idx, ok := s.byID[k][cfg.CheckpointID]
		if !ok {
			return zero, false, nil
		}
		return entries[idx], true, nil
	}
	return entries[len(entries)-1], true, nil
}

func (s *Store[S]) List(_ context.Context, cfg checkpoint.Config, limit int, before, after string) ([]checkpoint.ListItem, error) {
	if cfg.ThreadID == "" {
		return nil, checkpoint.ErrThreadIDRequired
	}
	k := key{threadID: cfg.ThreadID, ns: cfg.CheckpointNS}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[k]
	// Build descending-ts view first.
	descending := make([]checkpoint.Checkpoint[S], len(entries))
	for i, c := range entries {
		descending[len(entries)-1-i] = c
	}

	afterIdx, beforeIdx := -1, -1
	if after != "" {
		for i, c := range descending {
			if c.ID == after {
				afterIdx = i
				break
			}
		}
	}
	if before != "" {
		for i, c := range descending {
			if c.ID == before {
				beforeIdx = i
				break
			}
		}
	}

	start := 0
	if afterIdx >= 0 {
		start = afterIdx + 1
	}
	end := len(descending)
	if beforeIdx >= 0 {
		end = beforeIdx
	}
	if start > end {
		start = end
	}

	window := descending[start:end]
	if limit > 0 && len(window) > limit {
		window = window[:limit]
	}

	items := make([]checkpoint.ListItem, 0, len(window))
	for _, c := range window {
		items = append(items, checkpoint.ListItem{ID: c.ID, TS: c.TS, Meta: c.Meta})
	}
	return items, nil
}
