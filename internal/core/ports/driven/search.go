package driven

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// ArticleSearcher is the document retrieval collaborator.
// Backed by NCBI E-utilities (esearch + efetch) for PubMed.
//
// Failures at the HTTP boundary (non-200 status) are logged and reported
// as an empty result rather than an error, so one question's retrieval
// failure never aborts a batch. Errors are reserved for conditions such as
// a cancelled context or an unparseable response.
type ArticleSearcher interface {
	// Search returns PMIDs matching the query, most relevant first.
	// An empty query yields an empty result.
	Search(ctx context.Context, query string, opts SearchOptions) ([]string, error)

	// Fetch returns the title and abstract of each PMID.
	// Empty input yields empty output without a remote call.
	Fetch(ctx context.Context, ids []string) ([]domain.Document, error)
}

// SearchOptions bounds an article search.
type SearchOptions struct {
	// MaxResults is the maximum number of PMIDs returned.
	MaxResults int

	// MinDate and MaxDate bound publication dates, formatted YYYY/MM/DD.
	MinDate string
	MaxDate string
}
