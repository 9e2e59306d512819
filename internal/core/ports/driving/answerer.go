package driving

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// QuestionAnswerer answers biomedical questions end to end.
// Used by the CLI, MCP and HTTP adapters.
type QuestionAnswerer interface {
	// Retrieve extracts keywords, searches PubMed, ranks the fetched documents
	// and selects located snippets from the top documents.
	Retrieve(ctx context.Context, question string, opts domain.AnswerOptions) (*domain.Retrieval, error)

	// Answer runs retrieval and generation for one question.
	// On failure the returned record still carries what was produced
	// before the error, with Error set.
	Answer(ctx context.Context, q domain.Question, opts domain.AnswerOptions) (*domain.RunRecord, error)

	// RunBatch answers every question with a worker pool and a per-question
	// timeout. Failed questions become diagnostic records; the batch continues.
	// Records are returned in input order.
	RunBatch(ctx context.Context, questions []domain.Question, opts domain.AnswerOptions) (*domain.Run, error)
}

// RunService records runs and reads them back.
type RunService interface {
	// Record persists the run in the run store and writes its JSON artifact.
	// Returns the artifact location, or "" when no artifact writer is configured.
	Record(ctx context.Context, run *domain.Run) (string, error)

	// Get retrieves a stored run.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns stored runs, most recent first.
	List(ctx context.Context, limit int) ([]domain.RunInfo, error)

	// Delete removes a stored run.
	Delete(ctx context.Context, id string) error
}

// EvaluationService scores generated answers against BioASQ references.
type EvaluationService interface {
	// Evaluate annotates each record with its ROUGE scores and P@10 and
	// returns the run summary. Records without a reference are left unscored.
	Evaluate(run *domain.Run, gold []domain.Question) domain.Evaluation
}
