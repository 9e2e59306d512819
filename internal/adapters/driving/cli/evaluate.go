package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/bioasq"
	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

var (
	evaluateGold string
	evaluateJSON bool
	evaluateSave bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [run.json | run-id]",
	Short: "Score a run against BioASQ reference answers",
	Long: `Scores the ideal answers of a run with ROUGE-1, ROUGE-2 and ROUGE-L,
exact answers by normalised match and retrieval by precision at 10.

The run is read from an artifact file, or from the run history when the
argument is not a file. Use --save to store the scored run.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluateCmd,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateGold, "gold", "g", "", "BioASQ file with reference answers (required)")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "print the summary as JSON")
	evaluateCmd.Flags().BoolVar(&evaluateSave, "save", false, "store the scored run in the run history")
	_ = evaluateCmd.MarkFlagRequired("gold")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	gold, err := bioasq.LoadQuestions(evaluateGold)
	if err != nil {
		return err
	}

	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	summary := evaluationService.Evaluate(run, gold)
	run.Summary = &summary

	if evaluateSave {
		if runService == nil {
			return errors.New("run service not configured")
		}
		if _, err := runService.Record(cmd.Context(), run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	if evaluateJSON {
		return outputJSON(cmd, summary)
	}
	cmd.Printf("Run %s\n\n", run.ID)
	outputEvaluation(cmd, &summary)
	return nil
}

// loadRun reads a run artifact, falling back to the run history by ID.
func loadRun(cmd *cobra.Command, ref string) (*domain.Run, error) {
	run, fileErr := bioasq.LoadRun(ref)
	if fileErr == nil {
		return run, nil
	}
	if runService == nil {
		return nil, fileErr
	}
	run, err := runService.Get(cmd.Context(), ref)
	if err != nil {
		return nil, fmt.Errorf("run %q is neither a readable artifact (%v) nor a stored run: %w", ref, fileErr, err)
	}
	return run, nil
}
