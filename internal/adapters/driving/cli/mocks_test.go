package cli

import (
	"context"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

type mockAnswerer struct {
	record    *domain.RunRecord
	run       *domain.Run
	err       error
	question  domain.Question
	questions []domain.Question
	opts      domain.AnswerOptions
}

func (m *mockAnswerer) Retrieve(_ context.Context, _ string, opts domain.AnswerOptions) (*domain.Retrieval, error) {
	m.opts = opts
	return &domain.Retrieval{}, m.err
}

func (m *mockAnswerer) Answer(_ context.Context, q domain.Question, opts domain.AnswerOptions) (*domain.RunRecord, error) {
	m.question = q
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.record != nil {
		return m.record, nil
	}
	return &domain.RunRecord{
		ID:              q.ID,
		Question:        q.Body,
		Type:            q.ResolvedType(),
		GeneratedAnswer: "Imatinib is a first-line treatment.",
		Query:           "imatinib",
		Snippets: []domain.Snippet{
			{DocumentID: "123", Text: "Imatinib treats CML.", BeginSection: "abstract", EndSection: "abstract", OffsetEnd: 20},
		},
	}, nil
}

func (m *mockAnswerer) RunBatch(_ context.Context, questions []domain.Question, opts domain.AnswerOptions) (*domain.Run, error) {
	m.questions = questions
	m.opts = opts
	if m.run != nil {
		return m.run, m.err
	}
	run := &domain.Run{ID: "run-1"}
	for _, q := range questions {
		run.Records = append(run.Records, domain.RunRecord{ID: q.ID, Question: q.Body, GeneratedAnswer: "answer"})
	}
	return run, m.err
}

type mockRunService struct {
	recorded []*domain.Run
	runs     []domain.RunInfo
	run      *domain.Run
	err      error
	limit    int
	deleted  string
}

func (m *mockRunService) Record(_ context.Context, run *domain.Run) (string, error) {
	m.recorded = append(m.recorded, run)
	if m.err != nil {
		return "", m.err
	}
	return "runs/" + run.ID + ".json", nil
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

type mockEvaluation struct {
	gold   []domain.Question
	result domain.Evaluation
}

func (m *mockEvaluation) Evaluate(_ *domain.Run, gold []domain.Question) domain.Evaluation {
	m.gold = gold
	return m.result
}

type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	embedding   []string
	llm         []string
	saved       *domain.AppSettings
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings()}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.saved = settings
	m.settings = *settings
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(provider domain.AIProvider, model, _ string) error {
	m.embedding = []string{string(provider), model}
	return nil
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model, _ string) error {
	m.llm = []string{string(provider), model}
	return nil
}

func (m *mockSettings) Validate() error                 { return m.validateErr }
func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettings) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettings) ValidateLLMConfig() error        { return nil }
