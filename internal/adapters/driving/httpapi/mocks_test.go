package httpapi

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

type mockAnswerer struct {
	record    *domain.RunRecord
	retrieval *domain.Retrieval
	err       error
	question  domain.Question
	opts      domain.AnswerOptions
}

func (m *mockAnswerer) Retrieve(_ context.Context, question string, opts domain.AnswerOptions) (*domain.Retrieval, error) {
	m.question = domain.Question{Body: question}
	m.opts = opts
	return m.retrieval, m.err
}

func (m *mockAnswerer) Answer(_ context.Context, q domain.Question, opts domain.AnswerOptions) (*domain.RunRecord, error) {
	m.question = q
	m.opts = opts
	return m.record, m.err
}

func (m *mockAnswerer) RunBatch(_ context.Context, _ []domain.Question, _ domain.AnswerOptions) (*domain.Run, error) {
	return nil, m.err
}

type mockRunService struct {
	runs    []domain.RunInfo
	run     *domain.Run
	err     error
	limit   int
	deleted string
}

func (m *mockRunService) Record(_ context.Context, _ *domain.Run) (string, error) {
	return "", m.err
}

func (m *mockRunService) Get(_ context.Context, _ string) (*domain.Run, error) {
	return m.run, m.err
}

func (m *mockRunService) List(_ context.Context, limit int) ([]domain.RunInfo, error) {
	m.limit = limit
	return m.runs, m.err
}

func (m *mockRunService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}
