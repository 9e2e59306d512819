package driven

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// RunStore persists completed runs and their per-question records.
// Backed by SQLite. Runs are an output log; nothing is read back
// into ranking or generation.
type RunStore interface {
	// SaveRun stores or replaces a run and all of its records.
	SaveRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run with its records.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error)

	// DeleteRun removes a run and its records.
	DeleteRun(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
