package testkit

import (
	"context"
	"sort"
	"sync"

	"lassosig/domain/core"
	"lassosig/domain/model"
	"lassosig/ports"
)

// MemoryStore is an in-memory ports.ResultStore for tests and the demo CLI
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[core.RunID]ports.StoredRun
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[core.RunID]ports.StoredRun)}
}

// SaveRun stores a completed run
func (s *MemoryStore) SaveRun(_ context.Context, run ports.StoredRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.Manifest.RunID] = run
	return nil
}

// GetRun retrieves a run by ID
func (s *MemoryStore) GetRun(_ context.Context, id core.RunID) (*ports.StoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return &run, nil
}

// ListRuns returns manifests newest first
func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RunManifest, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Manifest)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[b].CreatedAt.Before(out[a].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
