// Package cache provides an in-memory LRU decorator for embedding services.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService caches embeddings of the wrapped service keyed by model
// and text hash. Cached vectors are copied on the way in and out.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

// Wrap returns next decorated with an LRU of the given size. A size or ttl
// of zero or less returns next unchanged.
func Wrap(next driven.EmbeddingService, size int, ttl time.Duration) driven.EmbeddingService {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &EmbeddingService{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed returns the cached embedding for text or computes it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("Embedding cache hit")
		return clone(cached), nil
	}
	res, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, clone(res))
	return res, nil
}

// EmbedBatch serves cached texts from the LRU and embeds the rest in one
// batch call, preserving input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := s.cache.Get(s.key(text)); ok {
			out[i] = clone(cached)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		logger.Debug("Embedding cache hit for all %d texts", len(texts))
		return out, nil
	}

	fresh, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range fresh {
		if j >= len(missingIdx) {
			break
		}
		out[missingIdx[j]] = vec
		s.cache.Add(s.key(missing[j]), clone(vec))
	}
	return out, nil
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.next.Close()
}

// Len returns the number of cached embeddings.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

func (s *EmbeddingService) key(text string) string {
	hash := sha256.Sum256([]byte(text))
	return s.next.ModelName() + ":" + hex.EncodeToString(hash[:])
}

func clone(values []float32) []float32 {
	if values == nil {
		return nil
	}
	c := make([]float32, len(values))
	copy(c, values)
	return c
}
