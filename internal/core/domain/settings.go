package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// APIKeyEnv returns the environment variable consulted when no key is configured.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI and Gemini).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI, Anthropic and Gemini).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings configures PubMed article retrieval.
type RetrievalSettings struct {
	// MaxResults is the esearch retmax.
	MaxResults int `validate:"gte=1,lte=10000"`

	// MinDate and MaxDate bound publication dates, formatted YYYY/MM/DD.
	MinDate string
	MaxDate string

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string

	// KeywordExtractor selects how keywords are extracted: "bagofwords" or "llm".
	KeywordExtractor string `validate:"oneof=bagofwords llm"`
}

// RankingSettings configures document ranking and snippet selection.
type RankingSettings struct {
	// DocumentText selects the document text embedded for ranking.
	DocumentText DocumentText

	// TopDocuments is how many ranked documents go on to snippet selection.
	TopDocuments int `validate:"gte=1"`

	Select SelectOptions
}

// SelectOptions tunes snippet selection per call.
type SelectOptions struct {
	// TopSentencesConsidered is how many top-scoring sentence units are kept per document.
	TopSentencesConsidered int `validate:"gte=1"`

	// MaxPerDocument is how many snippets a document may contribute.
	MaxPerDocument int `validate:"gte=1,ltefield=TopSentencesConsidered"`
}

// DefaultSelectOptions returns the default snippet selection options.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{
		TopSentencesConsidered: 3,
		MaxPerDocument:         1,
	}
}

// GenerationConfig tunes the generation orchestrator per call.
type GenerationConfig struct {
	// MaxInputTokens bounds the joined snippet text. Zero disables truncation.
	MaxInputTokens int `validate:"gte=0"`

	// MaxOutputTokens bounds the ideal answer.
	MaxOutputTokens int `validate:"gte=1"`

	Temperature float64 `validate:"gte=0,lte=2"`

	// MaxRetries is the total number of attempts made on transient failures.
	MaxRetries int `validate:"gte=1,lte=20"`

	// RetryBaseDelay is the base of the exponential backoff.
	RetryBaseDelay time.Duration `validate:"gte=0"`

	// ExactMaxOutputTokens and ExactTemperature apply to exact-answer generation.
	ExactMaxOutputTokens int     `validate:"gte=1"`
	ExactTemperature     float64 `validate:"gte=0,lte=2"`

	// SystemPrompt overrides the ideal-answer system prompt when set.
	SystemPrompt string
}

// DefaultGenerationConfig returns the default generation configuration.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxInputTokens:       3000,
		MaxOutputTokens:      300,
		Temperature:          0.5,
		MaxRetries:           3,
		RetryBaseDelay:       time.Second,
		ExactMaxOutputTokens: 50,
		ExactTemperature:     0,
	}
}

// PipelineSettings configures batch processing.
type PipelineSettings struct {
	// Workers is the number of questions processed concurrently.
	Workers int `validate:"gte=1,lte=64"`

	// QuestionTimeout is the overall budget for one question.
	QuestionTimeout time.Duration `validate:"gte=0"`

	// PromptSnippets is how many snippets are passed to generation.
	PromptSnippets int `validate:"gte=1"`

	// ExactAnswers enables exact-answer generation for factoid, list and yes/no questions.
	ExactAnswers bool
}

// OutputSettings configures where run artifacts are written.
type OutputSettings struct {
	// Dir is the local artifact directory.
	Dir string

	// S3Bucket uploads artifacts to S3 when set.
	S3Bucket string
	S3Region string
	S3Prefix string
}

// CacheSettings sizes the optional adapter caches. Zero disables a cache.
type CacheSettings struct {
	EmbeddingSize int `validate:"gte=0"`
	ArticleSize   int `validate:"gte=0"`
	TTL           time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Retrieval  RetrievalSettings
	Ranking    RankingSettings
	Generation GenerationConfig
	Pipeline   PipelineSettings
	Output     OutputSettings
	Cache      CacheSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings default to a local Ollama MiniLM model and generation to OpenAI,
// which still needs an API key from the settings wizard or OPENAI_API_KEY.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "all-minilm",
			BaseURL:  "http://localhost:11434",
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-3.5-turbo",
		},
		Retrieval: RetrievalSettings{
			MaxResults:       30,
			MinDate:          "2000/01/01",
			MaxDate:          "2025/01/01",
			KeywordExtractor: "bagofwords",
		},
		Ranking: RankingSettings{
			DocumentText: DocumentTextAbstract,
			TopDocuments: 10,
			Select:       DefaultSelectOptions(),
		},
		Generation: DefaultGenerationConfig(),
		Pipeline: PipelineSettings{
			Workers:         1,
			QuestionTimeout: 2 * time.Minute,
			PromptSnippets:  5,
			ExactAnswers:    true,
		},
		Output: OutputSettings{
			Dir:      "runs",
			S3Region: "us-east-1",
		},
		Cache: CacheSettings{
			TTL: time.Hour,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-3.5-turbo",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}

// AnswerOptions carries every per-call tunable of the question pipeline.
// Callers start from AnswerOptionsFrom and override fields per call.
type AnswerOptions struct {
	Search       SearchBounds
	DocumentText DocumentText
	TopDocuments int `validate:"gte=1"`
	Select       SelectOptions
	Generation   GenerationConfig

	// PromptSnippets is how many snippets are joined into the prompt.
	PromptSnippets int `validate:"gte=1"`

	// ExactAnswers enables exact-answer generation.
	ExactAnswers bool

	// Workers and QuestionTimeout apply to batch runs.
	Workers         int           `validate:"gte=1,lte=64"`
	QuestionTimeout time.Duration `validate:"gte=0"`
}

// SearchBounds limits an article search.
type SearchBounds struct {
	MaxResults int `validate:"gte=1,lte=10000"`
	MinDate    string
	MaxDate    string
}

// AnswerOptionsFrom derives pipeline options from application settings.
func AnswerOptionsFrom(s AppSettings) AnswerOptions {
	return AnswerOptions{
		Search: SearchBounds{
			MaxResults: s.Retrieval.MaxResults,
			MinDate:    s.Retrieval.MinDate,
			MaxDate:    s.Retrieval.MaxDate,
		},
		DocumentText:    s.Ranking.DocumentText,
		TopDocuments:    s.Ranking.TopDocuments,
		Select:          s.Ranking.Select,
		Generation:      s.Generation,
		PromptSnippets:  s.Pipeline.PromptSnippets,
		ExactAnswers:    s.Pipeline.ExactAnswers,
		Workers:         s.Pipeline.Workers,
		QuestionTimeout: s.Pipeline.QuestionTimeout,
	}
}

// DefaultAnswerOptions returns pipeline options derived from default settings.
func DefaultAnswerOptions() AnswerOptions {
	return AnswerOptionsFrom(DefaultAppSettings())
}
