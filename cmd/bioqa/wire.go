package main

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/artifact/local"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/artifact/s3store"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/keywords/bagofwords"
	llmkeywords "github.com/custodia-labs/bioqa-cli/internal/adapters/driven/keywords/llm"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/pubmed"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bioqa-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/core/services"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// bootstrap wires adapters into services. Settings-only commands get just
// the settings service so they work before any provider is reachable.
func bootstrap(full bool) (*cli.Services, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	out := &cli.Services{Settings: settingsService}
	if !full {
		return out, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	out.Options = domain.AnswerOptionsFrom(*settings)

	done := logger.Timed("Initialising services")
	defer done()

	aiServices := ai.Initialise(settings)
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		aiServices.Close()
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	searcher := pubmed.NewClient(pubmed.Config{
		APIKey:    settings.Retrieval.APIKey,
		CacheSize: settings.Cache.ArticleSize,
		CacheTTL:  settings.Cache.TTL,
	})

	keywords := keywordExtractor(settings.Retrieval.KeywordExtractor, aiServices.LLMService, prompts)

	var (
		ranker   *services.Ranker
		selector *services.Selector
	)
	if aiServices.EmbeddingService != nil {
		ranker = services.NewRanker(aiServices.EmbeddingService)
		selector = services.NewSelector(aiServices.EmbeddingService)
		out.Ranker = ranker
	}

	orchestrator := services.NewOrchestrator(aiServices.LLMService, aiServices.Tokenizer)
	orchestrator.SetPromptStore(prompts)

	out.Answerer = services.NewPipelineService(keywords, searcher, ranker, selector, orchestrator)
	out.Locator = services.SnippetLocator{}
	out.Evaluation = services.NewEvaluationService()

	store, err := sqlite.NewStore("")
	if err != nil {
		aiServices.Close()
		return nil, fmt.Errorf("open run store: %w", err)
	}

	writers := []driven.ArtifactWriter{local.NewWriter(settings.Output.Dir)}
	if settings.Output.S3Bucket != "" {
		s3, err := s3store.NewWriter(context.Background(), s3store.Config{
			Bucket: settings.Output.S3Bucket,
			Region: settings.Output.S3Region,
			Prefix: settings.Output.S3Prefix,
		})
		if err != nil {
			logger.Warn("S3 artifacts disabled: %v", err)
		} else {
			writers = append(writers, s3)
		}
	}
	out.Runs = services.NewRunService(store.RunStore(), writers...)

	out.Close = func() {
		aiServices.Close()
		if err := store.Close(); err != nil {
			logger.Warn("close run store: %v", err)
		}
	}
	return out, nil
}

// keywordExtractor selects the configured extractor. The LLM extractor needs
// a reachable LLM and falls back to bag-of-words otherwise.
func keywordExtractor(name string, llm driven.LLMService, prompts driven.PromptStore) driven.KeywordExtractor {
	if name != llmkeywords.Name {
		return bagofwords.New()
	}
	if llm == nil {
		logger.Warn("LLM keyword extraction needs an LLM provider, using %s", bagofwords.Name)
		return bagofwords.New()
	}
	extractor := llmkeywords.New(llm)
	extractor.SetPromptStore(prompts)
	return extractor
}
