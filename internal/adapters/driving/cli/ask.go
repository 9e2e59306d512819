package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

var (
	askJSON       bool
	askType       string
	askExact      bool
	askMaxResults int
	askSnippets   int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single biomedical question",
	Long: `Answers one question from PubMed abstracts.

The question type (factoid, list, yesno or summary) is identified from the
question unless --type is given. A BioASQ exact answer is generated when the
pipeline settings enable it; --exact or --exact=false overrides that.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full record as JSON")
	askCmd.Flags().StringVarP(&askType, "type", "t", "", "question type (factoid, list, yesno, summary)")
	askCmd.Flags().BoolVar(&askExact, "exact", false, "generate an exact answer (default from settings)")
	askCmd.Flags().IntVarP(&askMaxResults, "max-results", "n", 0, "maximum PubMed articles to retrieve (default from settings)")
	askCmd.Flags().IntVar(&askSnippets, "show-snippets", 3, "number of snippets to print")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerer == nil {
		return errors.New("question answerer not configured")
	}

	qtype := domain.QuestionType(askType)
	if askType != "" && !qtype.IsValid() {
		return fmt.Errorf("unknown question type %q: %w", askType, domain.ErrInvalidInput)
	}

	opts := answerOptions
	if cmd.Flags().Changed("exact") {
		opts.ExactAnswers = askExact
	}
	if askMaxResults > 0 {
		opts.Search.MaxResults = askMaxResults
	}

	q := domain.Question{ID: "1", Body: args[0], Type: qtype}
	record, err := answerer.Answer(cmd.Context(), q, opts)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, record)
	}
	outputRecord(cmd, record, askSnippets)
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRecord(cmd *cobra.Command, record *domain.RunRecord, maxSnippets int) {
	cmd.Printf("Question (%s): %s\n", record.Type, record.Question)
	if record.Query != "" {
		cmd.Printf("Query: %s\n", record.Query)
	}
	cmd.Println()

	cmd.Println("Answer:")
	cmd.Printf("  %s\n", strings.TrimSpace(record.GeneratedAnswer))
	if record.ExactAnswer != "" {
		cmd.Printf("Exact answer: %s\n", record.ExactAnswer)
	}
	if record.ExactError != "" {
		cmd.Printf("Exact answer failed: %s\n", record.ExactError)
	}

	if len(record.Snippets) > 0 && maxSnippets > 0 {
		cmd.Println()
		cmd.Println("Snippets:")
		for i, s := range record.Snippets {
			if i == maxSnippets {
				break
			}
			cmd.Printf("  [%d] PMID %s (%s %d-%d)\n", i+1, s.DocumentID, s.BeginSection, s.OffsetBegin, s.OffsetEnd)
			cmd.Printf("      %s\n", s.Text)
		}
	}
}
