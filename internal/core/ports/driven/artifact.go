package driven

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// ArtifactWriter persists the JSON artifact of a run for the evaluation collaborator.
type ArtifactWriter interface {
	// Write stores the run under name and returns where it was written
	// (a file path or an s3:// URL).
	Write(ctx context.Context, name string, run *domain.Run) (string, error)
}
