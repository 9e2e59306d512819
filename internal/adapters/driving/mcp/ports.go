package mcp

import (
	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answerer runs retrieval and generation.
	Answerer driving.QuestionAnswerer

	// Ranker ranks caller-supplied documents. Optional.
	Ranker driving.DocumentRanker

	// Locator finds exact snippets. Optional.
	Locator driving.SnippetLocator

	// Runs exposes stored runs as resources. Optional.
	Runs driving.RunService

	// Options are the base pipeline options tool calls start from.
	Options domain.AnswerOptions
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answerer == nil {
		return ErrMissingAnswerer
	}
	return nil
}
