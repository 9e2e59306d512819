package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure Orchestrator can take custom prompts.
var _ driven.PromptStoreAware = (*Orchestrator)(nil)

// Default prompts used when no PromptStore is configured.
const (
	defaultIdealSystemPrompt = "You are a knowledgeable assistant for biomedical questions."

	defaultIdealUserPrompt = "Question: %s\n" +
		"Relevant snippets:\n%s\n" +
		"Please provide a concise and comprehensive answer to the question based on these snippets."

	defaultExactUserPrompt = "Question: %s\n" +
		"Relevant snippets:\n%s\n" +
		"Exact answer:"
)

// defaultExactSystemPrompts constrain the exact answer shape per question type.
var defaultExactSystemPrompts = map[domain.QuestionType]string{
	domain.QuestionFactoid: defaultIdealSystemPrompt + " Answer with a single entity name only " +
		"(for example a gene, protein, drug or disease), with no explanation or trailing punctuation.",
	domain.QuestionList: defaultIdealSystemPrompt + " Answer with a semicolon-separated list of unique " +
		"entity names only, with no explanation.",
	domain.QuestionYesNo: defaultIdealSystemPrompt + ` Answer with exactly one word: "Yes" or "No".`,
	domain.QuestionSummary: defaultIdealSystemPrompt + " This is a summary question, so an exact answer " +
		"is not applicable. Reply exactly: An exact answer is not applicable to summary questions.",
}

// Orchestrator turns a question and its snippets into a generated answer.
// It truncates the snippet text to the input token budget, builds a system and
// user prompt, and calls the LLM under a single retry policy shared by
// ideal-answer and exact-answer generation.
type Orchestrator struct {
	llm         driven.LLMService
	tokenizer   driven.Tokenizer
	promptStore driven.PromptStore
	retryOpts   []RetrierOption
}

// NewOrchestrator creates an orchestrator. The tokenizer is optional; without
// it snippet text is passed through untruncated.
func NewOrchestrator(llm driven.LLMService, tokenizer driven.Tokenizer, opts ...RetrierOption) *Orchestrator {
	return &Orchestrator{
		llm:       llm,
		tokenizer: tokenizer,
		retryOpts: opts,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the orchestrator uses its built-in default prompts.
func (o *Orchestrator) SetPromptStore(store driven.PromptStore) {
	o.promptStore = store
}

// GenerateIdeal produces a paragraph answer to the question.
func (o *Orchestrator) GenerateIdeal(
	ctx context.Context, req domain.GenerationRequest, cfg domain.GenerationConfig,
) domain.GenerationResult {
	logger.Debug("Generating ideal answer (snippets=%d, max_input_tokens=%d)", len(req.Snippets), cfg.MaxInputTokens)

	system := cfg.SystemPrompt
	if system == "" {
		system = o.loadPrompt(driven.PromptIdealSystem, defaultIdealSystemPrompt)
	}
	user := fmt.Sprintf(o.loadPrompt(driven.PromptIdealUser, defaultIdealUserPrompt),
		req.Question, o.snippetText(req.Snippets, cfg.MaxInputTokens))

	return o.generate(ctx, system, user, driven.ChatOptions{
		MaxTokens:   cfg.MaxOutputTokens,
		Temperature: cfg.Temperature,
	}, cfg)
}

// GenerateExact produces a short answer shaped by the question type: a single
// entity for factoid, unique semicolon-separated items for list, Yes or No for
// yes/no, and a not-applicable statement for summary questions. It uses the
// same retry policy as GenerateIdeal.
func (o *Orchestrator) GenerateExact(
	ctx context.Context, req domain.GenerationRequest, qtype domain.QuestionType, cfg domain.GenerationConfig,
) domain.GenerationResult {
	if !qtype.IsValid() {
		qtype = domain.IdentifyQuestionType(req.Question)
	}
	logger.Debug("Generating exact answer (type=%s)", qtype)

	system := o.loadPrompt(driven.PromptExactSystem(qtype.String()), defaultExactSystemPrompts[qtype])
	user := fmt.Sprintf(o.loadPrompt(driven.PromptExactUser, defaultExactUserPrompt),
		req.Question, o.snippetText(req.Snippets, cfg.MaxInputTokens))

	res := o.generate(ctx, system, user, driven.ChatOptions{
		MaxTokens:   cfg.ExactMaxOutputTokens,
		Temperature: cfg.ExactTemperature,
	}, cfg)
	if res.OK() {
		res.Answer = NormalizeExactAnswer(qtype, res.Answer)
	}
	return res
}

func (o *Orchestrator) generate(
	ctx context.Context, system, user string, chatOpts driven.ChatOptions, cfg domain.GenerationConfig,
) domain.GenerationResult {
	if o.llm == nil {
		return domain.GenerationResult{Err: domain.ErrLLMUnavailable}
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: user},
	}

	var answer string
	retrier := NewRetrier(cfg.MaxRetries, cfg.RetryBaseDelay, o.retryOpts...)
	attempts, err := retrier.Do(ctx, func(ctx context.Context) error {
		out, err := o.llm.Chat(ctx, messages, chatOpts)
		if err != nil {
			return err
		}
		answer = out
		return nil
	})
	if err != nil {
		logger.Warn("Generation failed after %d attempt(s): %v", attempts, err)
		return domain.GenerationResult{Attempts: attempts, Err: err}
	}
	return domain.GenerationResult{Answer: strings.TrimSpace(answer), Attempts: attempts}
}

// snippetText joins snippets with spaces and truncates to the token budget.
func (o *Orchestrator) snippetText(snippets []string, maxTokens int) string {
	joined := strings.Join(snippets, " ")
	truncated := Truncate(o.tokenizer, joined, maxTokens)
	if len(truncated) < len(joined) {
		logger.Debug("Truncated snippets from %d to %d bytes (%d tokens)", len(joined), len(truncated), maxTokens)
	}
	return truncated
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (o *Orchestrator) loadPrompt(name, fallback string) string {
	if o.promptStore == nil {
		return fallback
	}
	prompt, err := o.promptStore.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// NormalizeExactAnswer tidies a model's exact answer into the BioASQ shape:
// Yes/No for yes/no questions, unique trimmed items for list questions, and a
// single line without trailing period for factoid questions.
func NormalizeExactAnswer(qtype domain.QuestionType, answer string) string {
	answer = strings.TrimSpace(answer)
	switch qtype {
	case domain.QuestionYesNo:
		lower := strings.ToLower(answer)
		switch {
		case strings.HasPrefix(lower, "yes"):
			return "Yes"
		case strings.HasPrefix(lower, "no"):
			return "No"
		}
		return answer
	case domain.QuestionList:
		seen := make(map[string]bool)
		var items []string
		for _, item := range strings.Split(answer, ";") {
			item = strings.TrimSuffix(strings.TrimSpace(item), ".")
			key := strings.ToLower(item)
			if item == "" || seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, item)
		}
		return strings.Join(items, "; ")
	case domain.QuestionFactoid:
		if i := strings.IndexByte(answer, '\n'); i >= 0 {
			answer = answer[:i]
		}
		return strings.TrimSuffix(strings.TrimSpace(answer), ".")
	default:
		return answer
	}
}
