package state

import (
	"sort"
	"sync"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

// MemoryStore implements an in-memory state store
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*RunState
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*RunState),
	}
}

// SaveRun saves a run state
func (s *MemoryStore) SaveRun(run *RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

// GetRun retrieves a run state
func (s *MemoryStore) GetRun(id string) (*RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if run, ok := s.runs[id]; ok {
		cp := *run
		return &cp, nil
	}
	return nil, runNotFound(id)
}

// ListRuns lists recent runs
func (s *MemoryStore) ListRuns(limit int) ([]*RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*RunState, 0, len(s.runs))
	for _, run := range s.runs {
		cp := *run
		runs = append(runs, &cp)
	}

	// Sort by start time descending
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

// DeleteRun deletes a run
func (s *MemoryStore) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return runNotFound(id)
	}
	delete(s.runs, id)
	return nil
}

// Close closes the store (no-op for memory)
func (s *MemoryStore) Close() error {
	return nil
}

func runNotFound(id string) error {
	return memexErrors.New(memexErrors.CodeRunNotFound, "run not found: "+id).
		WithSuggestion("Run 'memex history' to list saved runs")
}
