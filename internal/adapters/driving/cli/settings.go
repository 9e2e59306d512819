package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

var settingsWiring = map[string]string{annotationWiring: wiringSettings}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, PubMed retrieval and pipeline options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	Annotations: settingsWiring,
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: settingsWiring,
	RunE:        runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:         "wizard",
	Short:       "Interactive setup wizard",
	Long:        `Run an interactive wizard to configure all settings step by step.`,
	Annotations: settingsWiring,
	RunE:        runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:         "embedding",
	Short:       "Configure embedding provider",
	Long:        `Configure the embedding provider used to rank documents and snippets.`,
	Annotations: settingsWiring,
	RunE:        runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:         "llm",
	Short:       "Configure LLM provider",
	Long:        `Configure the LLM provider used to generate answers.`,
	Annotations: settingsWiring,
	RunE:        runSettingsLLM,
}

var settingsPubMedCmd = &cobra.Command{
	Use:         "pubmed",
	Short:       "Configure PubMed retrieval",
	Long:        `Configure the NCBI API key, result count and publication date bounds.`,
	Annotations: settingsWiring,
	RunE:        runSettingsPubMed,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsPubMedCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	// Retrieval settings
	cmd.Println("[PubMed]")
	cmd.Printf("  Max results: %d\n", settings.Retrieval.MaxResults)
	cmd.Printf("  Date range: %s - %s\n", orDash(settings.Retrieval.MinDate), orDash(settings.Retrieval.MaxDate))
	cmd.Printf("  Keywords: %s\n", settings.Retrieval.KeywordExtractor)
	if settings.Retrieval.APIKey != "" {
		cmd.Printf("  NCBI API Key: %s\n", maskAPIKey(settings.Retrieval.APIKey))
	} else {
		cmd.Printf("  NCBI API Key: (not set, limited to 3 requests/s)\n")
	}
	cmd.Println()

	// Ranking and generation
	cmd.Println("[Pipeline]")
	cmd.Printf("  Document text: %s\n", settings.Ranking.DocumentText)
	cmd.Printf("  Top documents: %d\n", settings.Ranking.TopDocuments)
	cmd.Printf("  Prompt snippets: %d\n", settings.Pipeline.PromptSnippets)
	cmd.Printf("  Max input tokens: %d\n", settings.Generation.MaxInputTokens)
	cmd.Printf("  Max retries: %d (base delay %s)\n", settings.Generation.MaxRetries, settings.Generation.RetryBaseDelay)
	cmd.Printf("  Workers: %d\n", settings.Pipeline.Workers)
	cmd.Printf("  Question timeout: %s\n", settings.Pipeline.QuestionTimeout)
	cmd.Printf("  Exact answers: %t\n", settings.Pipeline.ExactAnswers)
	cmd.Println()

	// Output
	cmd.Println("[Output]")
	cmd.Printf("  Directory: %s\n", settings.Output.Dir)
	if settings.Output.S3Bucket != "" {
		cmd.Printf("  S3: s3://%s/%s (%s)\n", settings.Output.S3Bucket, settings.Output.S3Prefix, settings.Output.S3Region)
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'bioqa settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() || baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set, %s)\n", provider.APIKeyEnv())
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("bioqa Settings Wizard")
	cmd.Println("=====================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Embedding provider
	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Embeddings rank PubMed articles and select snippets.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	// Step 2: LLM provider
	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("The LLM writes ideal and exact answers from the selected snippets.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	// Step 3: PubMed
	cmd.Println("Step 3: Configure PubMed Retrieval")
	cmd.Println("----------------------------------")
	if err := configurePubMed(cmd, reader); err != nil {
		return err
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func runSettingsPubMed(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configurePubMed(cmd, reader)
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	apiKey, err := readAPIKey(cmd, reader, selectedProvider)
	if err != nil {
		return err
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	apiKey, err := readAPIKey(cmd, reader, selectedProvider)
	if err != nil {
		return err
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

func configurePubMed(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Print("Enter NCBI API key (optional, press enter to keep): ")
	if key := readPassword(cmd.InOrStdin(), reader); key != "" {
		settings.Retrieval.APIKey = key
	}
	cmd.Println()

	cmd.Printf("Maximum articles per question [%d]: ", settings.Retrieval.MaxResults)
	if n, err := strconv.Atoi(readLine(reader)); err == nil && n > 0 {
		settings.Retrieval.MaxResults = n
	}

	cmd.Printf("Earliest publication date (YYYY/MM/DD) [%s]: ", settings.Retrieval.MinDate)
	if v := readLine(reader); v != "" {
		settings.Retrieval.MinDate = v
	}

	cmd.Printf("Latest publication date (YYYY/MM/DD) [%s]: ", settings.Retrieval.MaxDate)
	if v := readLine(reader); v != "" {
		settings.Retrieval.MaxDate = v
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save PubMed settings: %w", err)
	}
	cmd.Println("PubMed retrieval configured.")
	cmd.Println()
	return nil
}

// readAPIKey prompts for a key when the provider needs one. An empty entry
// is accepted when the provider's environment variable is set.
func readAPIKey(cmd *cobra.Command, reader *bufio.Reader, provider domain.AIProvider) (string, error) {
	if !provider.RequiresAPIKey() {
		return "", nil
	}
	env := provider.APIKeyEnv()
	if os.Getenv(env) != "" {
		cmd.Printf("Enter API key (press enter to use %s): ", env)
	} else {
		cmd.Print("Enter API key: ")
	}
	apiKey := readPassword(cmd.InOrStdin(), reader)
	cmd.Println()
	if apiKey == "" && os.Getenv(env) == "" {
		return "", errors.New("API key is required for this provider")
	}
	return apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader, reader *bufio.Reader) string {
	// Try to read password without echo
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
