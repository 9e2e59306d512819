// Package artifact holds the JSON encoding shared by the run artifact writers.
package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// ContentType is the media type of an encoded artifact.
const ContentType = "application/json"

// Encode renders a run as indented JSON with a trailing newline.
// Failed questions keep their diagnostic records.
func Encode(run *domain.Run) ([]byte, error) {
	if run == nil {
		return nil, fmt.Errorf("encode artifact: %w", domain.ErrInvalidInput)
	}
	if run.Records == nil {
		cp := *run
		cp.Records = []domain.RunRecord{}
		run = &cp
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return append(data, '\n'), nil
}
