package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// vocabDimensions is the vector size of fakeEmbedder.
const vocabDimensions = 256

// fakeEmbedder is a bag-of-words embedder: every distinct lowercase word gets
// its own dimension, so similarity tracks lexical overlap.
type fakeEmbedder struct {
	mu         sync.Mutex
	vocab      map[string]int
	err        error
	batchErr   error
	shortBatch bool
	// rejectEmpty fails a batch containing an empty string, as hosted
	// embedding APIs do.
	rejectEmpty bool
	batchSizes  []int
	embedCalls int
	batchCalls int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vocab: make(map[string]int)}
}

func (e *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, vocabDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		idx, ok := e.vocab[w]
		if !ok {
			idx = len(e.vocab) % vocabDimensions
			e.vocab[w] = idx
		}
		v[idx]++
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.embedCalls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchCalls++
	e.batchSizes = append(e.batchSizes, len(texts))
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	if e.rejectEmpty {
		for _, t := range texts {
			if t == "" {
				return nil, errors.New("input must not be empty")
			}
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	if e.shortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return vocabDimensions }
func (e *fakeEmbedder) ModelName() string { return "bag-of-words" }
func (e *fakeEmbedder) Ping(context.Context) error { return nil }
func (e *fakeEmbedder) Close() error { return nil }

func (e *fakeEmbedder) calls() (embed, batch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedCalls, e.batchCalls
}

// llmReply is one scripted LLM response.
type llmReply struct {
	out string
	err error
}

// fakeLLM returns scripted replies in order, repeating the last one.
// If block is set, Chat waits for the context to end instead.
type fakeLLM struct {
	mu       sync.Mutex
	replies  []llmReply
	block    bool
	calls    int
	messages [][]driven.ChatMessage
	options  []driven.ChatOptions
}

func newFakeLLM(replies ...llmReply) *fakeLLM {
	return &fakeLLM{replies: replies}
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return l.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
}

func (l *fakeLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.mu.Lock()
	l.calls++
	l.messages = append(l.messages, messages)
	l.options = append(l.options, opts)
	block := l.block
	var reply llmReply
	if n := len(l.replies); n > 0 {
		reply = l.replies[min(l.calls, n)-1]
	}
	l.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", domain.NewTransientError("fake", 0, "context done", ctx.Err())
	}
	return reply.out, reply.err
}

func (l *fakeLLM) ModelName() string { return "fake-llm" }
func (l *fakeLLM) Ping(context.Context) error { return nil }
func (l *fakeLLM) Close() error { return nil }

func (l *fakeLLM) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// spaceTokenizer splits text into words carrying their leading whitespace,
// the way BPE tokenizers attach spaces to the following token.
type spaceTokenizer struct{}

func (spaceTokenizer) Tokens(text string) []string {
	var tokens []string
	start := 0
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && inWord {
			tokens = append(tokens, text[start:i])
			start = i
		}
		inWord = !space
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

func (t spaceTokenizer) Count(text string) int { return len(t.Tokens(text)) }
func (spaceTokenizer) Name() string { return "space" }

// fakeSearcher serves documents from memory.
type fakeSearcher struct {
	mu        sync.Mutex
	docs      []domain.Document
	searchErr error
	fetchErr  error
	queries   []string
	delay     time.Duration
}

func (s *fakeSearcher) Search(ctx context.Context, query string, opts driven.SearchOptions) ([]string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	ids := make([]string, 0, len(s.docs))
	for _, d := range s.docs {
		if opts.MaxResults > 0 && len(ids) == opts.MaxResults {
			break
		}
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (s *fakeSearcher) Fetch(_ context.Context, ids []string) ([]domain.Document, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	byID := make(map[string]domain.Document, len(s.docs))
	for _, d := range s.docs {
		byID[d.ID] = d
	}
	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeKeywords splits the question on whitespace and drops punctuation.
type fakeKeywords struct {
	err error
}

func (k fakeKeywords) Extract(_ context.Context, question string) ([]string, error) {
	if k.err != nil {
		return nil, k.err
	}
	var out []string
	for _, w := range strings.Fields(question) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if len(w) > 1 {
			out = append(out, w)
		}
	}
	return out, nil
}

func (fakeKeywords) Name() string { return "fake" }

// fakePromptStore serves prompts from a map.
type fakePromptStore map[string]string

func (p fakePromptStore) Load(name string) (string, error) {
	if s, ok := p[name]; ok {
		return s, nil
	}
	return "", domain.ErrNotFound
}

func (fakePromptStore) Reload() {}

// noSleep records retry delays without waiting.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.delays = append(n.delays, d)
	n.mu.Unlock()
	return ctx.Err()
}

func noJitter(time.Duration) time.Duration { return 0 }

// scenarioDocs are two short abstracts where only the first mentions treating B.
func scenarioDocs() []domain.Document {
	return []domain.Document{
		{ID: "1", Abstract: "A treats B. C causes D."},
		{ID: "2", Abstract: "E prevents F."},
	}
}
