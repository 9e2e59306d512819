package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// sentenceDelimiter separates sentence units in an abstract.
const sentenceDelimiter = ". "

// Selector picks the most relevant located sentence of each document.
type Selector struct {
	embedder driven.EmbeddingService
}

// NewSelector creates a selector over the given embedding service.
func NewSelector(embedder driven.EmbeddingService) *Selector {
	return &Selector{embedder: embedder}
}

// SplitSentences splits an abstract into sentence units on ". ".
// The period consumed by each split is kept on the preceding unit, so every
// unit is an exact substring of the abstract. Empty units are dropped.
func SplitSentences(abstract string) []string {
	parts := strings.Split(abstract, sentenceDelimiter)
	units := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += "."
		}
		if strings.TrimSpace(p) == "" || p == "." {
			continue
		}
		units = append(units, p)
	}
	return units
}

// sentenceUnits returns the abstract's sentence units followed by the title.
func sentenceUnits(doc domain.Document) []string {
	units := SplitSentences(doc.Abstract)
	if doc.Title != "" {
		units = append(units, doc.Title)
	}
	return units
}

type scoredUnit struct {
	text  string
	score float64
}

// Select returns located snippets for documents with a non-empty abstract,
// in input document order. Per document the sentence units are scored by dot
// product of normalized vectors, the top TopSentencesConsidered are kept and
// the best MaxPerDocument of those become snippets. A chosen unit that cannot
// be located is skipped silently.
func (s *Selector) Select(
	ctx context.Context, docs []domain.ScoredDocument, question string, opts domain.SelectOptions,
) ([]domain.Snippet, error) {
	snippets := []domain.Snippet{}
	if !anyAbstract(docs) {
		return snippets, nil
	}
	if s.embedder == nil {
		return nil, domain.NewEmbeddingFailure("select snippets", domain.ErrEmbeddingUnavailable)
	}
	if opts.TopSentencesConsidered <= 0 {
		opts.TopSentencesConsidered = domain.DefaultSelectOptions().TopSentencesConsidered
	}
	if opts.MaxPerDocument <= 0 {
		opts.MaxPerDocument = domain.DefaultSelectOptions().MaxPerDocument
	}
	defer logger.Timed("select snippets")()

	qvec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.NewEmbeddingFailure("select snippets", err)
	}
	qvec = Normalize(qvec)

	for i := range docs {
		doc := docs[i].Document
		if !doc.HasAbstract() {
			continue
		}
		units := sentenceUnits(doc)
		if len(units) == 0 {
			logger.Debug("Document %s has no sentence units, skipping", doc.ID)
			continue
		}

		vecs, err := s.embedder.EmbedBatch(ctx, units)
		if err != nil {
			return nil, domain.NewEmbeddingFailure("select snippets", err)
		}
		if len(vecs) != len(units) {
			return nil, domain.NewEmbeddingFailure("select snippets",
				fmt.Errorf("got %d vectors for %d sentences", len(vecs), len(units)))
		}

		scored := make([]scoredUnit, len(units))
		for j := range units {
			scored[j] = scoredUnit{text: units[j], score: Dot(qvec, Normalize(vecs[j]))}
		}
		sort.SliceStable(scored, func(a, b int) bool {
			return scored[a].score > scored[b].score
		})
		if len(scored) > opts.TopSentencesConsidered {
			scored = scored[:opts.TopSentencesConsidered]
		}

		snippets = append(snippets, locateBest(doc, scored, opts.MaxPerDocument)...)
	}

	logger.Debug("Selected %d snippets from %d documents", len(snippets), len(docs))
	return snippets, nil
}

// locateBest locates the best limit candidate units. A unit that cannot be
// located is dropped rather than replaced by a lower-scoring one.
func locateBest(doc domain.Document, candidates []scoredUnit, limit int) []domain.Snippet {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	var out []domain.Snippet
	seen := make(map[domain.Location]bool)
	for _, c := range candidates {
		loc, err := Locate(doc, c.text)
		if err != nil {
			logger.Debug("Snippet not found in document %s: %q", doc.ID, c.text)
			continue
		}
		if seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, domain.NewSnippet(doc.ID, loc, c.text))
	}
	return out
}

func anyAbstract(docs []domain.ScoredDocument) bool {
	for i := range docs {
		if docs[i].HasAbstract() {
			return true
		}
	}
	return false
}
