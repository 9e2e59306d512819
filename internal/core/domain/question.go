package domain

import (
	"encoding/json"
	"regexp"
	"strings"
)

// QuestionType is the BioASQ answer shape expected for a question.
type QuestionType string

// BioASQ question types.
const (
	QuestionFactoid QuestionType = "factoid"
	QuestionList    QuestionType = "list"
	QuestionYesNo   QuestionType = "yesno"
	QuestionSummary QuestionType = "summary"
)

// IsValid returns true if the question type is recognised.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionFactoid, QuestionList, QuestionYesNo, QuestionSummary:
		return true
	default:
		return false
	}
}

// HasExactAnswer returns true if questions of this type are scored on an exact answer.
func (t QuestionType) HasExactAnswer() bool {
	return t == QuestionFactoid || t == QuestionList || t == QuestionYesNo
}

// String returns the string representation.
func (t QuestionType) String() string {
	return string(t)
}

// AllQuestionTypes returns all question types.
func AllQuestionTypes() []QuestionType {
	return []QuestionType{QuestionFactoid, QuestionList, QuestionYesNo, QuestionSummary}
}

var (
	whWords     = []string{"what", "which", "who", "where", "when"}
	yesNoPrefix = []string{"is", "are", "does", "do", "can", "could", "will", "would"}
	listPattern = regexp.MustCompile(`list|name|mention|identify`)
)

// IdentifyQuestionType classifies a question with simple lexical rules.
// Questions mentioning a wh-word are factoid, or list when they also ask to
// list, name, mention or identify. Questions opening with an auxiliary verb are
// yes/no. Everything else is summary.
func IdentifyQuestionType(body string) QuestionType {
	q := strings.ToLower(body)

	for _, w := range whWords {
		if strings.Contains(q, w) {
			if listPattern.MatchString(q) {
				return QuestionList
			}
			return QuestionFactoid
		}
	}
	for _, p := range yesNoPrefix {
		if strings.HasPrefix(q, p) {
			return QuestionYesNo
		}
	}
	return QuestionSummary
}

// Question is one entry of a BioASQ question file.
type Question struct {
	ID   string       `json:"id"`
	Body string       `json:"body"`
	Type QuestionType `json:"type,omitempty"`

	// IdealAnswers are reference paragraph answers. The first is used for scoring.
	IdealAnswers []string `json:"ideal_answer,omitempty"`

	// ExactAnswer is kept raw: BioASQ uses a string for yes/no and nested
	// lists for factoid and list questions.
	ExactAnswer json.RawMessage `json:"exact_answer,omitempty"`

	// Documents are gold article URLs of the form http://www.ncbi.nlm.nih.gov/pubmed/<pmid>.
	Documents []string `json:"documents,omitempty"`
}

// ResolvedType returns the declared type, or the identified type when none is set.
func (q Question) ResolvedType() QuestionType {
	if q.Type.IsValid() {
		return q.Type
	}
	return IdentifyQuestionType(q.Body)
}

var pubmedURL = regexp.MustCompile(`/pubmed/(\d+)`)

// GoldPMIDs extracts PMIDs from the gold document URLs.
func (q Question) GoldPMIDs() []string {
	ids := make([]string, 0, len(q.Documents))
	for _, u := range q.Documents {
		if m := pubmedURL.FindStringSubmatch(u); m != nil {
			ids = append(ids, m[1])
		}
	}
	return ids
}

// ExactAnswers flattens the raw exact answer into a list of acceptable strings.
// Strings, lists of strings and lists of synonym lists are supported.
func (q Question) ExactAnswers() []string {
	if len(q.ExactAnswer) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(q.ExactAnswer, &s); err == nil {
		return []string{s}
	}
	var flat []string
	if err := json.Unmarshal(q.ExactAnswer, &flat); err == nil {
		return flat
	}
	var nested [][]string
	if err := json.Unmarshal(q.ExactAnswer, &nested); err == nil {
		var out []string
		for _, syn := range nested {
			out = append(out, syn...)
		}
		return out
	}
	return nil
}

// QuestionSet is the top-level shape of a BioASQ question file.
type QuestionSet struct {
	Questions []Question `json:"questions"`
}

// GenerationRequest is the input of one generation call.
type GenerationRequest struct {
	Question string
	Snippets []string
}

// GenerationResult is either an answer or a terminal failure.
type GenerationResult struct {
	Answer   string
	Attempts int
	Err      error
}

// OK returns true if generation produced an answer.
func (r GenerationResult) OK() bool {
	return r.Err == nil
}
