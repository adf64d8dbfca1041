package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/genregraph/pkg/graph"
)

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]snapshot
	now   func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]snapshot), now: time.Now}
}

// Push implements [Store].
func (s *MemoryStore) Push(_ context.Context, ds *graph.Dataset) (Summary, error) {
	snap, err := newSnapshot(ds, s.now())
	if err != nil {
		return Summary{}, err
	}
	// Keep a private copy so later edits to ds do not leak in.
	data, err := graph.Marshal(ds)
	if err != nil {
		return Summary{}, err
	}
	if snap.Dataset, err = graph.Unmarshal(data); err != nil {
		return Summary{}, err
	}

	s.mu.Lock()
	s.snaps[snap.DumpDate] = snap
	s.mu.Unlock()
	return snap.Summary, nil
}

// Pull implements [Store].
func (s *MemoryStore) Pull(_ context.Context, dumpDate string) (*graph.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if dumpDate == "" || dumpDate == Latest {
		var newest *snapshot
		for _, snap := range s.snaps {
			if newest == nil || snap.DumpDate > newest.DumpDate {
				newest = &snap
			}
		}
		if newest == nil {
			return nil, notFound(dumpDate)
		}
		return newest.Dataset, nil
	}
	snap, ok := s.snaps[dumpDate]
	if !ok {
		return nil, notFound(dumpDate)
	}
	return snap.Dataset, nil
}

// List implements [Store].
func (s *MemoryStore) List(context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.snaps))
	for _, snap := range s.snaps {
		out = append(out, snap.Summary)
	}
	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(b.DumpDate, a.DumpDate) })
	return out, nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, dumpDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[dumpDate]; !ok {
		return notFound(dumpDate)
	}
	delete(s.snaps, dumpDate)
	return nil
}

// Close implements [Store].
func (s *MemoryStore) Close(context.Context) error { return nil }
