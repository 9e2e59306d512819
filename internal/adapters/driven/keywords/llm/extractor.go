// Package llm provides a keyword extractor that asks the configured language
// model for PubMed search terms.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/keywords/bagofwords"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure Extractor implements the interfaces.
var (
	_ driven.KeywordExtractor = (*Extractor)(nil)
	_ driven.PromptStoreAware = (*Extractor)(nil)
)

// Name is the strategy name used in settings.
const Name = "llm"

// defaultPrompt is used when no prompt store is set.
const defaultPrompt = `Extract the most important biomedical search terms from the question below for a PubMed search.
Return ONLY a JSON array of strings, for example ["BRCA1", "breast cancer"].

Question: %s`

const maxKeywordTokens = 100

var errNoKeywords = errors.New("model returned no keywords")

// Extractor asks an LLM for keywords and falls back to the bag-of-words
// baseline when the model fails or returns something unusable.
type Extractor struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// New creates an LLM keyword extractor.
func New(llm driven.LLMService) *Extractor {
	return &Extractor{llm: llm}
}

// SetPromptStore sets the store the keywords prompt is loaded from.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// Name identifies the extraction strategy.
func (e *Extractor) Name() string {
	return Name
}

// Extract returns search keywords for the question. It never fails for
// model errors; those degrade to the baseline extractor. A cancelled
// context is returned as is.
func (e *Extractor) Extract(ctx context.Context, question string) ([]string, error) {
	if e.llm == nil {
		return bagofwords.Keywords(question), nil
	}

	keywords, err := e.ask(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("LLM keyword extraction failed, using bag of words: %v", err)
		return bagofwords.Keywords(question), nil
	}
	return keywords, nil
}

func (e *Extractor) ask(ctx context.Context, question string) ([]string, error) {
	prompt := fmt.Sprintf(e.loadPrompt(), question)
	reply, err := e.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{MaxTokens: maxKeywordTokens})
	if err != nil {
		return nil, err
	}
	return ParseKeywords(reply)
}

func (e *Extractor) loadPrompt() string {
	if e.promptStore == nil {
		return defaultPrompt
	}
	prompt, err := e.promptStore.Load(driven.PromptKeywords)
	if err != nil || !strings.Contains(prompt, "%s") {
		return defaultPrompt
	}
	return prompt
}

// ParseKeywords decodes a JSON array of strings from a model reply,
// tolerating a surrounding Markdown code fence. Blank and repeated entries
// are dropped.
func ParseKeywords(reply string) ([]string, error) {
	body := stripFence(reply)

	var raw []string
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("parse keywords %q: %w", body, err)
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil, errNoKeywords
	}
	return out, nil
}

func stripFence(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
