package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyQuestionType(t *testing.T) {
	tests := []struct {
		question string
		expected QuestionType
	}{
		{"What is the mechanism of action of imatinib?", QuestionFactoid},
		{"Which gene is mutated in cystic fibrosis?", QuestionFactoid},
		{"Which drugs are used to treat CML? List them.", QuestionList},
		{"What genes are mentioned in relation to Lynch syndrome?", QuestionList},
		{"Is imatinib effective for CML?", QuestionYesNo},
		{"Does metformin reduce cancer risk?", QuestionYesNo},
		{"Can aspirin prevent stroke?", QuestionYesNo},
		{"Describe the role of p53 in apoptosis.", QuestionSummary},
		{"", QuestionSummary},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.expected, IdentifyQuestionType(tt.question))
		})
	}
}

func TestQuestionType(t *testing.T) {
	for _, qt := range AllQuestionTypes() {
		assert.True(t, qt.IsValid())
	}
	assert.False(t, QuestionType("essay").IsValid())

	assert.True(t, QuestionFactoid.HasExactAnswer())
	assert.True(t, QuestionList.HasExactAnswer())
	assert.True(t, QuestionYesNo.HasExactAnswer())
	assert.False(t, QuestionSummary.HasExactAnswer())
}

func TestQuestion_ResolvedType(t *testing.T) {
	declared := Question{Body: "Is it?", Type: QuestionSummary}
	assert.Equal(t, QuestionSummary, declared.ResolvedType())

	inferred := Question{Body: "Is it?"}
	assert.Equal(t, QuestionYesNo, inferred.ResolvedType())

	invalid := Question{Body: "Is it?", Type: "essay"}
	assert.Equal(t, QuestionYesNo, invalid.ResolvedType())
}

func TestQuestion_GoldPMIDs(t *testing.T) {
	q := Question{Documents: []string{
		"http://www.ncbi.nlm.nih.gov/pubmed/23456789",
		"not a pubmed url",
		"https://www.ncbi.nlm.nih.gov/pubmed/111",
	}}

	assert.Equal(t, []string{"23456789", "111"}, q.GoldPMIDs())
	assert.Empty(t, Question{}.GoldPMIDs())
}

func TestQuestion_ExactAnswers(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "yes/no string", raw: `"yes"`, expected: []string{"yes"}},
		{name: "flat list", raw: `["imatinib", "dasatinib"]`, expected: []string{"imatinib", "dasatinib"}},
		{name: "synonym lists", raw: `[["imatinib", "Gleevec"], ["nilotinib"]]`, expected: []string{"imatinib", "Gleevec", "nilotinib"}},
		{name: "unsupported shape", raw: `{"a": 1}`, expected: nil},
		{name: "missing", raw: ``, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ExactAnswer: json.RawMessage(tt.raw)}
			assert.Equal(t, tt.expected, q.ExactAnswers())
		})
	}
}
