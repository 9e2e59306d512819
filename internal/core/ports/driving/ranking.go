package driving

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// DocumentRanker orders caller-supplied documents against a question.
type DocumentRanker interface {
	// Rank returns docs in descending similarity to question. Ties keep
	// their input order.
	Rank(ctx context.Context, docs []domain.Document, question string, policy domain.DocumentText) ([]domain.ScoredDocument, error)
}

// SnippetLocator finds exact excerpts in a document.
type SnippetLocator interface {
	// Locate returns the snippet for text in doc, searching the abstract
	// before the title. Returns domain.ErrSnippetNotFound when absent.
	Locate(doc domain.Document, text string) (domain.Snippet, error)
}
