package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

func TestRouge_Identical(t *testing.T) {
	s := Rouge("Metformin lowers hepatic glucose output.", "Metformin lowers hepatic glucose output.")

	assert.InDelta(t, 1.0, s.Rouge1.FMeasure, 1e-9)
	assert.InDelta(t, 1.0, s.Rouge2.FMeasure, 1e-9)
	assert.InDelta(t, 1.0, s.RougeL.FMeasure, 1e-9)
}

func TestRouge_Disjoint(t *testing.T) {
	s := Rouge("alpha beta gamma", "delta epsilon")

	assert.Zero(t, s.Rouge1.FMeasure)
	assert.Zero(t, s.Rouge2.FMeasure)
	assert.Zero(t, s.RougeL.FMeasure)
}

func TestRouge_PrecisionRecall(t *testing.T) {
	s := Rouge("the cat sat on the mat", "the cat sat")

	assert.InDelta(t, 1.0, s.Rouge1.Precision, 1e-9)
	assert.InDelta(t, 0.5, s.Rouge1.Recall, 1e-9)
	assert.InDelta(t, 1.0, s.Rouge2.Precision, 1e-9)
	assert.InDelta(t, 0.4, s.Rouge2.Recall, 1e-9)
	assert.InDelta(t, 0.5, s.RougeL.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.RougeL.FMeasure, 1e-9)
}

func TestRouge_StemsAndIgnoresCase(t *testing.T) {
	s := Rouge("Treatments reduce Mortality", "treatment reduces mortality")

	assert.InDelta(t, 1.0, s.Rouge1.FMeasure, 1e-9)
}

func TestRougeTokens_ASCIIOnly(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"BCR-ABL, 90%", []string{"bcr", "abl", "90"}},
		{"β-lactam", []string{"lactam"}},
		{"Résumé", []string{"r", "sum"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := rougeTokens(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouge_EmptyCandidate(t *testing.T) {
	s := Rouge("some reference", "")

	assert.Zero(t, s.Rouge1.Precision)
	assert.Zero(t, s.Rouge1.Recall)
}

func TestPrecisionAt(t *testing.T) {
	docs := []domain.ScoredDocument{
		{Document: domain.Document{ID: "1"}},
		{Document: domain.Document{ID: "2"}},
		{Document: domain.Document{ID: "3"}},
	}

	assert.InDelta(t, 0.2, PrecisionAt(docs, []string{"1", "3", "99"}, 10), 1e-9)
	assert.InDelta(t, 0.5, PrecisionAt(docs, []string{"1"}, 2), 1e-9)
	assert.Zero(t, PrecisionAt(docs, nil, 10))
	assert.Zero(t, PrecisionAt(docs, []string{"1"}, 0))
}

func TestExactMatch(t *testing.T) {
	tests := []struct {
		name     string
		qtype    domain.QuestionType
		answer   string
		accepted []string
		want     bool
	}{
		{"yesno", domain.QuestionYesNo, "Yes", []string{"yes"}, true},
		{"yesno wrong", domain.QuestionYesNo, "No", []string{"yes"}, false},
		{"factoid synonym", domain.QuestionFactoid, "interleukin 6.", []string{"IL-6", "interleukin 6"}, true},
		{"list all accepted", domain.QuestionList, "IL-6; TNF", []string{"IL-6", "TNF", "IL-1"}, true},
		{"list one wrong", domain.QuestionList, "IL-6; CRP", []string{"IL-6", "TNF"}, false},
		{"list empty", domain.QuestionList, " ; ", []string{"IL-6"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExactMatch(tt.qtype, tt.answer, tt.accepted))
		})
	}
}

func TestEvaluationService_Evaluate(t *testing.T) {
	run := &domain.Run{
		ID: "run-1",
		Records: []domain.RunRecord{
			{
				ID:              "q1",
				Type:            domain.QuestionList,
				GeneratedAnswer: "IL-6 and TNF drive inflammation.",
				ExactAnswer:     "IL-6; TNF",
				Documents: []domain.ScoredDocument{
					{Document: domain.Document{ID: "111"}},
					{Document: domain.Document{ID: "222"}},
				},
			},
			{
				ID:              "q2",
				Type:            domain.QuestionYesNo,
				GeneratedAnswer: "No, it is not.",
				ExactAnswer:     "No",
			},
			{ID: "q3", Type: domain.QuestionSummary, Error: "search articles: boom"},
			{ID: "unknown", Type: domain.QuestionSummary, GeneratedAnswer: "x"},
		},
	}
	gold := []domain.Question{
		{
			ID:           "q1",
			IdealAnswers: []string{"IL-6 and TNF drive inflammation."},
			ExactAnswer:  json.RawMessage(`[["IL-6", "interleukin 6"], ["TNF"]]`),
			Documents:    []string{"http://www.ncbi.nlm.nih.gov/pubmed/111"},
		},
		{
			ID:           "q2",
			IdealAnswers: []string{"Yes, it is."},
			ExactAnswer:  json.RawMessage(`"yes"`),
		},
		{ID: "q3", IdealAnswers: []string{"anything"}},
	}

	eval := NewEvaluationService().Evaluate(run, gold)

	assert.Equal(t, 2, eval.Scored)
	assert.Equal(t, 2, eval.ExactScored)
	assert.InDelta(t, 0.5, eval.ExactAccuracy, 1e-9)
	assert.InDelta(t, 0.1, eval.MeanPrecision10, 1e-9)

	require.NotNil(t, run.Records[0].Rouge)
	assert.InDelta(t, 1.0, run.Records[0].Rouge.Rouge1.FMeasure, 1e-9)
	require.NotNil(t, run.Records[0].Precision10)
	assert.InDelta(t, 0.1, *run.Records[0].Precision10, 1e-9)
	assert.Nil(t, run.Records[1].Precision10)
	assert.Nil(t, run.Records[2].Rouge, "failed records are not scored")
	assert.Nil(t, run.Records[3].Rouge, "records without a reference are not scored")
}

func TestQuestion_ExactAnswers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"string", `"yes"`, []string{"yes"}},
		{"flat list", `["a", "b"]`, []string{"a", "b"}},
		{"nested list", `[["a", "a1"], ["b"]]`, []string{"a", "a1", "b"}},
		{"number", `42`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := domain.Question{ExactAnswer: json.RawMessage(tt.raw)}
			assert.Equal(t, tt.want, q.ExactAnswers())
		})
	}
}
