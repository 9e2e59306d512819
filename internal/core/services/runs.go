package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure RunService implements the interface.
var _ driving.RunService = (*RunService)(nil)

// RunService records completed runs in the run store and as JSON artifacts.
// Both collaborators are optional.
type RunService struct {
	store   driven.RunStore
	writers []driven.ArtifactWriter
}

// NewRunService creates a run service. A nil store disables run history.
func NewRunService(store driven.RunStore, writers ...driven.ArtifactWriter) *RunService {
	var ws []driven.ArtifactWriter
	for _, w := range writers {
		if w != nil {
			ws = append(ws, w)
		}
	}
	return &RunService{store: store, writers: ws}
}

// Record stores the run and writes its artifact with every configured writer.
// It returns the location reported by the last writer.
func (s *RunService) Record(ctx context.Context, run *domain.Run) (string, error) {
	if run == nil || run.ID == "" {
		return "", fmt.Errorf("record run: %w", domain.ErrInvalidInput)
	}
	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			return "", fmt.Errorf("save run: %w", err)
		}
		logger.Debug("Stored run %s (%d records)", run.ID, len(run.Records))
	}

	var location string
	for _, w := range s.writers {
		loc, err := w.Write(ctx, ArtifactName(run), run)
		if err != nil {
			return location, fmt.Errorf("write artifact: %w", err)
		}
		logger.Info("Wrote run artifact to %s", loc)
		location = loc
	}
	return location, nil
}

// Get retrieves a stored run.
func (s *RunService) Get(ctx context.Context, id string) (*domain.Run, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.GetRun(ctx, id)
}

// List returns stored runs, most recent first.
func (s *RunService) List(ctx context.Context, limit int) ([]domain.RunInfo, error) {
	if s.store == nil {
		return []domain.RunInfo{}, nil
	}
	return s.store.ListRuns(ctx, limit)
}

// Delete removes a stored run.
func (s *RunService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotFound
	}
	return s.store.DeleteRun(ctx, id)
}

// ArtifactName returns the artifact file name for a run.
func ArtifactName(run *domain.Run) string {
	return fmt.Sprintf("run-%s-%s.json", run.StartedAt.UTC().Format("20060102T150405Z"), shortID(run.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
