package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/bioasq"
	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

var (
	runWorkers  int
	runTimeout  time.Duration
	runExact    bool
	runLimit    int
	runEvaluate bool
	runJSON     bool
)

var runCmd = &cobra.Command{
	Use:   "run [questions.json]",
	Short: "Answer every question in a BioASQ file",
	Long: `Answers a BioASQ question file with a pool of workers.

Each question is bounded by the question timeout. Questions that fail or time
out are kept in the run as diagnostic records and the batch continues. The run
is stored in the run history and written as a JSON artifact.

Use --evaluate to score the answers against the reference answers in the same
file.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "number of concurrent workers (default from settings)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-question timeout (default from settings)")
	runCmd.Flags().BoolVar(&runExact, "exact", false, "generate exact answers (default from settings, --exact=false to skip)")
	runCmd.Flags().IntVarP(&runLimit, "limit", "n", 0, "answer only the first n questions")
	runCmd.Flags().BoolVar(&runEvaluate, "evaluate", false, "score answers against the file's reference answers")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if answerer == nil {
		return errors.New("question answerer not configured")
	}

	questions, err := bioasq.LoadQuestions(args[0])
	if err != nil {
		return err
	}
	if runLimit > 0 && runLimit < len(questions) {
		questions = questions[:runLimit]
	}

	opts := answerOptions
	if runWorkers > 0 {
		opts.Workers = runWorkers
	}
	if runTimeout > 0 {
		opts.QuestionTimeout = runTimeout
	}
	if cmd.Flags().Changed("exact") {
		opts.ExactAnswers = runExact
	}

	run, batchErr := answerer.RunBatch(cmd.Context(), questions, opts)
	if run == nil {
		return fmt.Errorf("run failed: %w", batchErr)
	}
	run.Source = args[0]

	if runEvaluate {
		if evaluationService == nil {
			return errors.New("evaluation service not configured")
		}
		summary := evaluationService.Evaluate(run, questions)
		run.Summary = &summary
	}

	// Partial runs are recorded too, so a cancelled batch keeps its records.
	location := ""
	if runService != nil {
		location, err = runService.Record(cmd.Context(), run)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	if runJSON {
		if err := outputJSON(cmd, run); err != nil {
			return err
		}
	} else {
		outputRunSummary(cmd, run, location)
	}

	if batchErr != nil {
		return fmt.Errorf("run interrupted: %w", batchErr)
	}
	return nil
}

func outputRunSummary(cmd *cobra.Command, run *domain.Run, location string) {
	cmd.Printf("Run %s\n", run.ID)
	cmd.Printf("  Questions: %d\n", len(run.Records))
	cmd.Printf("  Failed:    %d\n", run.Failures())
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Duration:  %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if location != "" {
		cmd.Printf("  Artifact:  %s\n", location)
	}
	if run.Summary != nil {
		cmd.Println()
		outputEvaluation(cmd, run.Summary)
	}
}

func outputEvaluation(cmd *cobra.Command, e *domain.Evaluation) {
	cmd.Println("Evaluation")
	cmd.Printf("  Scored answers: %d\n", e.Scored)
	cmd.Printf("  ROUGE-1 F: %.4f\n", e.AverageRouge.Rouge1.FMeasure)
	cmd.Printf("  ROUGE-2 F: %.4f\n", e.AverageRouge.Rouge2.FMeasure)
	cmd.Printf("  ROUGE-L F: %.4f\n", e.AverageRouge.RougeL.FMeasure)
	if e.ExactScored > 0 {
		cmd.Printf("  Exact accuracy: %.4f (%d questions)\n", e.ExactAccuracy, e.ExactScored)
	}
	cmd.Printf("  Mean P@10: %.4f\n", e.MeanPrecision10)
}
