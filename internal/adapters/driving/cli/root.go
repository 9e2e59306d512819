// Package cli provides the cobra command tree for the bioqa binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// version is set at build time.
var version = "dev"

// Command annotations that control service wiring.
const (
	annotationWiring = "wiring"
	wiringNone       = "none"
	wiringSettings   = "settings"
)

// Services holds the driving ports the commands use.
type Services struct {
	Settings   driving.SettingsService
	Answerer   driving.QuestionAnswerer
	Runs       driving.RunService
	Evaluation driving.EvaluationService
	Ranker     driving.DocumentRanker
	Locator    driving.SnippetLocator

	// Options are the pipeline options derived from settings.
	Options domain.AnswerOptions

	// Close releases adapter resources. May be nil.
	Close func()
}

// Bootstrap builds the services. When full is false only the settings
// service is required.
type Bootstrap func(full bool) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	verbose bool
	envFile string
)

// Command-level service handles, set from services before each command.
var (
	settingsService   driving.SettingsService
	answerer          driving.QuestionAnswerer
	runService        driving.RunService
	evaluationService driving.EvaluationService
	documentRanker    driving.DocumentRanker
	snippetLocator    driving.SnippetLocator
	answerOptions     domain.AnswerOptions
)

var rootCmd = &cobra.Command{
	Use:   "bioqa",
	Short: "Biomedical question answering over PubMed",
	Long: `bioqa answers biomedical questions from PubMed abstracts.

For each question it extracts keywords, searches PubMed, ranks the retrieved
articles by semantic similarity, selects exact snippets and asks an LLM for
an ideal answer (and optionally a BioASQ exact answer).

Run 'bioqa settings wizard' to configure the embedding and LLM providers.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with provider API keys")
}

// SetVersion sets the version reported by 'bioqa version'.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command and releases the wired services.
// Cancelling ctx stops running batches and servers.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if services != nil && services.Close != nil {
		services.Close()
	}
	return err
}

// prepare loads the dotenv file and wires services for the command.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	wiring := cmd.Annotations[annotationWiring]
	if wiring == wiringNone || bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(wiring != wiringSettings)
	if err != nil {
		return err
	}
	useServices(svc)
	return nil
}

func useServices(svc *Services) {
	services = svc
	settingsService = svc.Settings
	answerer = svc.Answerer
	runService = svc.Runs
	evaluationService = svc.Evaluation
	documentRanker = svc.Ranker
	snippetLocator = svc.Locator
	answerOptions = svc.Options
}
