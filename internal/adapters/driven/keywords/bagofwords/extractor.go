// Package bagofwords provides the baseline keyword extractor: lowercased
// word tokens with English stop words removed.
package bagofwords

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.KeywordExtractor = (*Extractor)(nil)

// Name is the strategy name used in settings.
const Name = "bagofwords"

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// Extractor is a stateless bag-of-words keyword extractor.
type Extractor struct{}

// New creates a bag-of-words extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the distinct non-stop-word tokens of the question in
// first-seen order.
func (e *Extractor) Extract(_ context.Context, question string) ([]string, error) {
	return Keywords(question), nil
}

// Name identifies the extraction strategy.
func (e *Extractor) Name() string {
	return Name
}

// Keywords is the pure form of Extract.
func Keywords(question string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(question), -1)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if seen[tok] || stopWords[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
