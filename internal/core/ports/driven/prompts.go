package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptIdealSystem establishes the assistant's biomedical domain.
	// This prompt has no format placeholders.
	PromptIdealSystem = "ideal_system"

	// PromptIdealUser carries the question and snippets.
	// The template expects %s (question) and %s (snippets) placeholders.
	PromptIdealUser = "ideal_user"

	// PromptExactUser carries the question and snippets for exact answers.
	// The template expects %s (question) and %s (snippets) placeholders.
	PromptExactUser = "exact_user"

	// PromptKeywords asks for PubMed search terms as a JSON array.
	// The template expects a %s placeholder for the question.
	PromptKeywords = "keywords"
)

// PromptExactSystem returns the name of the exact-answer system prompt for a
// question type ("factoid", "list", "yesno" or "summary").
func PromptExactSystem(questionType string) string {
	return "exact_system_" + questionType
}

// PromptStoreAware is an optional interface for services that can use custom prompts.
// If no store is set, the service uses its built-in default prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	SetPromptStore(store PromptStore)
}
