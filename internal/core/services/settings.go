package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyRetMax           = "retrieval.retmax"
	keyMinDate          = "retrieval.mindate"
	keyMaxDate          = "retrieval.maxdate"
	keyNCBIAPIKey       = "retrieval.ncbi_api_key"
	keyKeywordExtractor = "retrieval.keyword_extractor"

	keyDocumentText   = "ranking.document_text"
	keyTopDocuments   = "ranking.top_documents"
	keyTopSentences   = "ranking.top_sentences"
	keyMaxPerDocument = "ranking.max_per_document"

	keyMaxInputTokens   = "generation.max_input_tokens"
	keyMaxOutputTokens  = "generation.max_output_tokens"
	keyTemperature      = "generation.temperature"
	keyMaxRetries       = "generation.max_retries"
	keyRetryBaseDelay   = "generation.retry_base_delay"
	keyExactMaxTokens   = "generation.exact_max_output_tokens"
	keyExactTemperature = "generation.exact_temperature"
	keySystemPrompt     = "generation.system_prompt"

	keyWorkers         = "pipeline.workers"
	keyQuestionTimeout = "pipeline.question_timeout"
	keyPromptSnippets  = "pipeline.prompt_snippets"
	keyExactAnswers    = "pipeline.exact_answers"

	keyOutputDir = "output.dir"
	keyS3Bucket  = "output.s3_bucket"
	keyS3Region  = "output.s3_region"
	keyS3Prefix  = "output.s3_prefix"

	keyCacheEmbedding = "cache.embedding_size"
	keyCacheArticle   = "cache.article_size"
	keyCacheTTL       = "cache.ttl"
)

// ncbiAPIKeyEnv is consulted when no NCBI API key is configured.
const ncbiAPIKeyEnv = "NCBI_API_KEY"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// Missing or invalid values fall back to defaults. API keys that are not
// configured are read from the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			MaxResults:       s.getInt(keyRetMax, d.Retrieval.MaxResults),
			MinDate:          s.getString(keyMinDate, d.Retrieval.MinDate),
			MaxDate:          s.getString(keyMaxDate, d.Retrieval.MaxDate),
			APIKey:           s.getString(keyNCBIAPIKey, s.getenv(ncbiAPIKeyEnv)),
			KeywordExtractor: s.getString(keyKeywordExtractor, d.Retrieval.KeywordExtractor),
		},
		Ranking: domain.RankingSettings{
			DocumentText: s.getDocumentText(d.Ranking.DocumentText),
			TopDocuments: s.getInt(keyTopDocuments, d.Ranking.TopDocuments),
			Select: domain.SelectOptions{
				TopSentencesConsidered: s.getInt(keyTopSentences, d.Ranking.Select.TopSentencesConsidered),
				MaxPerDocument:         s.getInt(keyMaxPerDocument, d.Ranking.Select.MaxPerDocument),
			},
		},
		Generation: domain.GenerationConfig{
			MaxInputTokens:       s.getInt(keyMaxInputTokens, d.Generation.MaxInputTokens),
			MaxOutputTokens:      s.getInt(keyMaxOutputTokens, d.Generation.MaxOutputTokens),
			Temperature:          s.getFloat(keyTemperature, d.Generation.Temperature),
			MaxRetries:           s.getInt(keyMaxRetries, d.Generation.MaxRetries),
			RetryBaseDelay:       s.getDuration(keyRetryBaseDelay, d.Generation.RetryBaseDelay),
			ExactMaxOutputTokens: s.getInt(keyExactMaxTokens, d.Generation.ExactMaxOutputTokens),
			ExactTemperature:     s.getFloat(keyExactTemperature, d.Generation.ExactTemperature),
			SystemPrompt:         s.configStore.GetString(keySystemPrompt),
		},
		Pipeline: domain.PipelineSettings{
			Workers:         s.getInt(keyWorkers, d.Pipeline.Workers),
			QuestionTimeout: s.getDuration(keyQuestionTimeout, d.Pipeline.QuestionTimeout),
			PromptSnippets:  s.getInt(keyPromptSnippets, d.Pipeline.PromptSnippets),
			ExactAnswers:    s.getBool(keyExactAnswers, d.Pipeline.ExactAnswers),
		},
		Output: domain.OutputSettings{
			Dir:      s.getString(keyOutputDir, d.Output.Dir),
			S3Bucket: s.configStore.GetString(keyS3Bucket),
			S3Region: s.getString(keyS3Region, d.Output.S3Region),
			S3Prefix: s.configStore.GetString(keyS3Prefix),
		},
		Cache: domain.CacheSettings{
			EmbeddingSize: s.getInt(keyCacheEmbedding, d.Cache.EmbeddingSize),
			ArticleSize:   s.getInt(keyCacheArticle, d.Cache.ArticleSize),
			TTL:           s.getDuration(keyCacheTTL, d.Cache.TTL),
		},
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set, so keys from the environment stay there.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := ValidateStruct(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyRetMax, settings.Retrieval.MaxResults},
		{keyMinDate, settings.Retrieval.MinDate},
		{keyMaxDate, settings.Retrieval.MaxDate},
		{keyKeywordExtractor, settings.Retrieval.KeywordExtractor},
		{keyDocumentText, settings.Ranking.DocumentText.String()},
		{keyTopDocuments, settings.Ranking.TopDocuments},
		{keyTopSentences, settings.Ranking.Select.TopSentencesConsidered},
		{keyMaxPerDocument, settings.Ranking.Select.MaxPerDocument},
		{keyMaxInputTokens, settings.Generation.MaxInputTokens},
		{keyMaxOutputTokens, settings.Generation.MaxOutputTokens},
		{keyTemperature, settings.Generation.Temperature},
		{keyMaxRetries, settings.Generation.MaxRetries},
		{keyRetryBaseDelay, settings.Generation.RetryBaseDelay.String()},
		{keyExactMaxTokens, settings.Generation.ExactMaxOutputTokens},
		{keyExactTemperature, settings.Generation.ExactTemperature},
		{keyWorkers, settings.Pipeline.Workers},
		{keyQuestionTimeout, settings.Pipeline.QuestionTimeout.String()},
		{keyPromptSnippets, settings.Pipeline.PromptSnippets},
		{keyExactAnswers, settings.Pipeline.ExactAnswers},
		{keyOutputDir, settings.Output.Dir},
		{keyS3Bucket, settings.Output.S3Bucket},
		{keyS3Region, settings.Output.S3Region},
		{keyS3Prefix, settings.Output.S3Prefix},
		{keyCacheEmbedding, settings.Cache.EmbeddingSize},
		{keyCacheArticle, settings.Cache.ArticleSize},
		{keyCacheTTL, settings.Cache.TTL.String()},
	}
	if settings.Generation.SystemPrompt != "" {
		values = append(values, struct {
			key   string
			value any
		}{keySystemPrompt, settings.Generation.SystemPrompt})
	}
	for _, kv := range values {
		if err := s.configStore.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	secrets := map[string]string{
		keyEmbedAPIKey: settings.Embedding.APIKey,
		keyLLMAPIKey:   settings.LLM.APIKey,
		keyNCBIAPIKey:  settings.Retrieval.APIKey,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Local providers need a base URL; cloud providers use their default endpoint
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.envKey(provider) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings can answer questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if err := ValidateStruct(settings); err != nil {
		return err
	}
	return ValidateAnswerOptions(domain.AnswerOptionsFrom(*settings))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	name := provider.APIKeyEnv()
	if name == "" {
		return ""
	}
	return s.getenv(name)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch val.(type) {
	case float64, float32, int, int64:
		return s.configStore.GetFloat(key)
	default:
		return defaultVal
	}
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration reads a duration string like "1s" or "2m".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, err := time.ParseDuration(s.configStore.GetString(key)); err != nil {
		return defaultVal
	}
	return s.configStore.GetDuration(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDocumentText(defaultVal domain.DocumentText) domain.DocumentText {
	text := domain.DocumentText(s.configStore.GetString(keyDocumentText))
	if !text.IsValid() {
		return defaultVal
	}
	return text
}
