package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.Run
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.Run),
	}
}

// SaveRun stores or replaces a run.
func (s *RunStore) SaveRun(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	cp.Records = append([]domain.RunRecord(nil), run.Records...)
	s.runs[run.ID] = cp
	return nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(_ context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	run.Records = append([]domain.RunRecord(nil), run.Records...)
	return &run, nil
}

// ListRuns returns runs, most recent first. A limit of zero or less returns all runs.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.RunInfo, 0, len(s.runs))
	for _, run := range s.runs {
		infos = append(infos, domain.RunInfo{
			ID:         run.ID,
			Source:     run.Source,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Questions:  len(run.Records),
			Failures:   run.Failures(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.After(infos[j].StartedAt)
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// DeleteRun removes a run.
func (s *RunStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *RunStore) Close() error {
	return nil
}
