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

// Ranker orders documents by cosine similarity of their text to a question.
type Ranker struct {
	embedder driven.EmbeddingService
}

// NewRanker creates a ranker over the given embedding service.
func NewRanker(embedder driven.EmbeddingService) *Ranker {
	return &Ranker{embedder: embedder}
}

// Rank embeds the question and the text of each document selected by policy,
// then returns the documents in descending cosine similarity. Ties keep their
// input order. Embedding failures are returned as *domain.EmbeddingFailure.
func (r *Ranker) Rank(
	ctx context.Context, docs []domain.Document, question string, policy domain.DocumentText,
) ([]domain.ScoredDocument, error) {
	if len(docs) == 0 {
		return []domain.ScoredDocument{}, nil
	}
	if r.embedder == nil {
		return nil, domain.NewEmbeddingFailure("rank documents", domain.ErrEmbeddingUnavailable)
	}
	defer logger.Timed("rank documents")()

	qvec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.NewEmbeddingFailure("rank documents", err)
	}

	// Empty texts are not sent to the embedder and score 0.
	texts := make([]string, 0, len(docs))
	index := make([]int, 0, len(docs))
	for i := range docs {
		text := policy.Of(docs[i])
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
		index = append(index, i)
	}

	var dvecs [][]float32
	if len(texts) > 0 {
		dvecs, err = r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, domain.NewEmbeddingFailure("rank documents", err)
		}
		if len(dvecs) != len(texts) {
			return nil, domain.NewEmbeddingFailure("rank documents",
				fmt.Errorf("got %d vectors for %d documents", len(dvecs), len(texts)))
		}
	}

	scored := make([]domain.ScoredDocument, len(docs))
	for i := range docs {
		scored[i] = domain.ScoredDocument{Document: docs[i]}
	}
	for j, i := range index {
		scored[i].Similarity = Cosine(qvec, dvecs[j])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	logger.Debug("Ranked %d documents (policy=%s)", len(scored), policy)
	return scored, nil
}

// Top returns at most n leading documents.
func Top(docs []domain.ScoredDocument, n int) []domain.ScoredDocument {
	if n <= 0 || n >= len(docs) {
		return docs
	}
	return docs[:n]
}
