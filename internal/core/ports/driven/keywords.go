package driven

import "context"

// KeywordExtractor turns a question into search keywords.
type KeywordExtractor interface {
	// Extract returns keywords in the order they should appear in the query.
	Extract(ctx context.Context, question string) ([]string, error)

	// Name identifies the extraction strategy.
	Name() string
}
