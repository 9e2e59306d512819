package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.QuestionAnswerer = (*PipelineService)(nil)

// PipelineService sequences keyword extraction, article retrieval, ranking,
// snippet selection and generation for each question.
type PipelineService struct {
	keywords     driven.KeywordExtractor
	searcher     driven.ArticleSearcher
	ranker       *Ranker
	selector     *Selector
	orchestrator *Orchestrator
	now          func() time.Time
}

// NewPipelineService creates a pipeline over the given collaborators.
func NewPipelineService(
	keywords driven.KeywordExtractor,
	searcher driven.ArticleSearcher,
	ranker *Ranker,
	selector *Selector,
	orchestrator *Orchestrator,
) *PipelineService {
	return &PipelineService{
		keywords:     keywords,
		searcher:     searcher,
		ranker:       ranker,
		selector:     selector,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

// Retrieve extracts keywords, searches PubMed, ranks every fetched document
// and selects snippets from the top documents.
func (s *PipelineService) Retrieve(
	ctx context.Context, question string, opts domain.AnswerOptions,
) (*domain.Retrieval, error) {
	if s.keywords == nil || s.searcher == nil {
		return nil, domain.ErrRetrievalUnavailable
	}
	if s.ranker == nil || s.selector == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	out := &domain.Retrieval{
		Documents: []domain.ScoredDocument{},
		Snippets:  []domain.Snippet{},
	}

	kws, err := s.keywords.Extract(ctx, question)
	if err != nil {
		return out, fmt.Errorf("extract keywords: %w", err)
	}
	out.Keywords = kws
	out.Query = BuildQuery(kws)
	logger.Debug("Keywords (%s): %v", s.keywords.Name(), kws)
	logger.Debug("Query: %q", out.Query)
	if out.Query == "" {
		logger.Warn("No keywords extracted from %q, nothing to retrieve", question)
		return out, nil
	}

	ids, err := s.searcher.Search(ctx, out.Query, driven.SearchOptions{
		MaxResults: opts.Search.MaxResults,
		MinDate:    opts.Search.MinDate,
		MaxDate:    opts.Search.MaxDate,
	})
	if err != nil {
		return out, fmt.Errorf("search articles: %w", err)
	}
	docs, err := s.searcher.Fetch(ctx, ids)
	if err != nil {
		return out, fmt.Errorf("fetch articles: %w", err)
	}
	logger.Debug("Retrieved %d of %d articles", len(docs), len(ids))

	ranked, err := s.ranker.Rank(ctx, docs, question, opts.DocumentText)
	if err != nil {
		return out, err
	}
	out.Documents = ranked

	snippets, err := s.selector.Select(ctx, Top(ranked, opts.TopDocuments), question, opts.Select)
	if err != nil {
		return out, err
	}
	out.Snippets = snippets
	return out, nil
}

// Answer runs retrieval and generation for one question. The returned record
// is never nil; on failure it holds the partial result with Error set.
func (s *PipelineService) Answer(
	ctx context.Context, q domain.Question, opts domain.AnswerOptions,
) (*domain.RunRecord, error) {
	start := s.now()
	rec := &domain.RunRecord{
		ID:       q.ID,
		Question: q.Body,
		Type:     q.ResolvedType(),
	}
	defer func() { rec.Duration = s.now().Sub(start) }()

	logger.Section("Question %s", q.ID)
	if err := ValidateAnswerOptions(opts); err != nil {
		rec.Error = err.Error()
		return rec, err
	}
	if s.orchestrator == nil {
		rec.Error = domain.ErrLLMUnavailable.Error()
		return rec, domain.ErrLLMUnavailable
	}

	r, err := s.Retrieve(ctx, q.Body, opts)
	if r != nil {
		rec.Keywords = r.Keywords
		rec.Query = r.Query
		rec.Documents = Top(r.Documents, opts.TopDocuments)
		rec.Snippets = r.Snippets
	}
	if err != nil {
		rec.Error = err.Error()
		return rec, err
	}

	req := domain.GenerationRequest{
		Question: q.Body,
		Snippets: PromptSnippets(domain.SnippetTexts(rec.Snippets), opts.PromptSnippets),
	}
	if len(req.Snippets) == 0 {
		logger.Warn("No snippets for question %s, generating without context", q.ID)
	}

	ideal := s.orchestrator.GenerateIdeal(ctx, req, opts.Generation)
	if !ideal.OK() {
		rec.Error = ideal.Err.Error()
		return rec, ideal.Err
	}
	rec.GeneratedAnswer = ideal.Answer

	if opts.ExactAnswers && rec.Type.HasExactAnswer() {
		exact := s.orchestrator.GenerateExact(ctx, req, rec.Type, opts.Generation)
		if exact.OK() {
			rec.ExactAnswer = exact.Answer
		} else {
			rec.ExactError = exact.Err.Error()
			logger.Warn("Exact answer for question %s failed: %v", q.ID, exact.Err)
		}
	}
	return rec, nil
}

// RunBatch answers questions with opts.Workers workers, each question bounded
// by opts.QuestionTimeout. A failed or timed-out question becomes a diagnostic
// record and the batch continues. If ctx is cancelled, unstarted questions are
// recorded as cancelled and ctx's error is returned with the partial run.
func (s *PipelineService) RunBatch(
	ctx context.Context, questions []domain.Question, opts domain.AnswerOptions,
) (*domain.Run, error) {
	if err := ValidateAnswerOptions(opts); err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:        uuid.New().String(),
		StartedAt: s.now(),
		Records:   make([]domain.RunRecord, len(questions)),
	}
	logger.Section("Run %s", run.ID)
	logger.Info("Answering %d questions with %d worker(s)", len(questions), opts.Workers)

	workers := min(max(opts.Workers, 1), max(len(questions), 1))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				run.Records[i] = s.answerWithTimeout(ctx, questions[i], opts)
			}
		}()
	}

	next := 0
feed:
	for ; next < len(questions); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(questions); i++ {
		run.Records[i] = domain.RunRecord{
			ID:       questions[i].ID,
			Question: questions[i].Body,
			Type:     questions[i].ResolvedType(),
			Error:    fmt.Sprintf("not started: %v", ctx.Err()),
		}
	}

	run.FinishedAt = s.now()
	logger.Info("Run %s finished: %d questions, %d failed", run.ID, len(run.Records), run.Failures())
	if err := ctx.Err(); err != nil {
		return run, err
	}
	return run, nil
}

func (s *PipelineService) answerWithTimeout(
	ctx context.Context, q domain.Question, opts domain.AnswerOptions,
) domain.RunRecord {
	qctx, cancel := ctx, context.CancelFunc(func() {})
	if opts.QuestionTimeout > 0 {
		qctx, cancel = context.WithTimeout(ctx, opts.QuestionTimeout)
	}
	defer cancel()

	rec, err := s.Answer(qctx, q, opts)
	if err != nil {
		if errors.Is(qctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			rec.Error = fmt.Sprintf("question timed out after %s: %v", opts.QuestionTimeout, err)
		}
		logger.Error("Question %s failed: %s", q.ID, rec.Error)
	}
	return *rec
}
