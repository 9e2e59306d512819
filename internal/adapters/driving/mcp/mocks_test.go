package mcp

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// mockAnswerer is a mock implementation of driving.QuestionAnswerer.
type mockAnswerer struct {
	record   *domain.RunRecord
	err      error
	question domain.Question
	opts     domain.AnswerOptions
}

func (m *mockAnswerer) Retrieve(_ context.Context, _ string, _ domain.AnswerOptions) (*domain.Retrieval, error) {
	return &domain.Retrieval{}, m.err
}

func (m *mockAnswerer) Answer(_ context.Context, q domain.Question, opts domain.AnswerOptions) (*domain.RunRecord, error) {
	m.question = q
	m.opts = opts
	return m.record, m.err
}

func (m *mockAnswerer) RunBatch(_ context.Context, _ []domain.Question, _ domain.AnswerOptions) (*domain.Run, error) {
	return &domain.Run{}, m.err
}

// mockRanker is a mock implementation of driving.DocumentRanker.
type mockRanker struct {
	policy domain.DocumentText
	err    error
}

func (m *mockRanker) Rank(
	_ context.Context, docs []domain.Document, _ string, policy domain.DocumentText,
) ([]domain.ScoredDocument, error) {
	m.policy = policy
	if m.err != nil {
		return nil, m.err
	}
	// Reverse input order with descending scores.
	out := make([]domain.ScoredDocument, len(docs))
	for i := range docs {
		out[i] = domain.ScoredDocument{Document: docs[len(docs)-1-i], Similarity: 1 - float64(i)*0.1}
	}
	return out, nil
}

// mockRunService is a mock implementation of driving.RunService.
type mockRunService struct {
	runs []domain.RunInfo
	run  *domain.Run
	err  error
}

func (m *mockRunService) Record(_ context.Context, _ *domain.Run) (string, error) {
	return "", m.err
}

func (m *mockRunService) Get(_ context.Context, _ string) (*domain.Run, error) {
	return m.run, m.err
}

func (m *mockRunService) List(_ context.Context, _ int) ([]domain.RunInfo, error) {
	return m.runs, m.err
}

func (m *mockRunService) Delete(_ context.Context, _ string) error {
	return m.err
}
