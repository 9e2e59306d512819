// Package local writes run artifacts to a directory on disk.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/artifact"
	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ArtifactWriter = (*Writer)(nil)

// Writer stores artifacts as JSON files under a directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Write encodes the run to dir/name and returns the file path.
// The file is written to a temporary name first and renamed into place.
func (w *Writer) Write(ctx context.Context, name string, run *domain.Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("artifact name %q: %w", name, domain.ErrInvalidInput)
	}

	data, err := artifact.Encode(run)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	path := filepath.Join(w.dir, name)
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	return path, nil
}
