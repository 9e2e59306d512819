package domain

import "time"

// RunRecord is the outcome of answering one question in a run.
// A record with Error set is a diagnostic for a question that failed;
// it is always written so no question is dropped without a trace.
type RunRecord struct {
	ID              string           `json:"id"`
	Question        string           `json:"question"`
	Type            QuestionType     `json:"type"`
	GeneratedAnswer string           `json:"generated_answer"`
	ExactAnswer     string           `json:"exact_answer,omitempty"`
	ExactError      string           `json:"exact_error,omitempty"`
	Keywords        []string         `json:"keywords,omitempty"`
	Query           string           `json:"query,omitempty"`
	Documents       []ScoredDocument `json:"documents,omitempty"`
	Snippets        []Snippet        `json:"snippets,omitempty"`
	Rouge           *RougeScores     `json:"rouge_score,omitempty"`
	Precision10     *float64         `json:"precision_at_10,omitempty"`
	Error           string           `json:"error,omitempty"`
	Duration        time.Duration    `json:"duration_ns"`
}

// Failed returns true if the record is a diagnostic for a failed question.
func (r RunRecord) Failed() bool {
	return r.Error != ""
}

// Run is one batch of answered questions.
type Run struct {
	ID         string      `json:"run_id"`
	Source     string      `json:"source,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Records    []RunRecord `json:"questions"`
	Summary    *Evaluation `json:"summary,omitempty"`
}

// Failures returns the number of failed records.
func (r Run) Failures() int {
	n := 0
	for i := range r.Records {
		if r.Records[i].Failed() {
			n++
		}
	}
	return n
}

// RunInfo is a lightweight listing entry for a stored run.
type RunInfo struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Questions  int
	Failures   int
}

// PRF holds precision, recall and F-measure.
type PRF struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	FMeasure  float64 `json:"fmeasure"`
}

// RougeScores holds ROUGE-1, ROUGE-2 and ROUGE-L scores.
type RougeScores struct {
	Rouge1 PRF `json:"rouge1"`
	Rouge2 PRF `json:"rouge2"`
	RougeL PRF `json:"rougeL"`
}

// Evaluation summarises a run against reference answers.
type Evaluation struct {
	// Scored is the number of records that had a reference ideal answer.
	Scored int `json:"scored"`

	AverageRouge RougeScores `json:"average_rouge"`

	// ExactAccuracy is the share of factoid, list and yes/no questions whose
	// exact answer matched the reference.
	ExactAccuracy float64 `json:"exact_accuracy"`
	ExactScored   int     `json:"exact_scored"`

	// MeanPrecision10 is P@10 averaged over questions with gold documents.
	MeanPrecision10 float64 `json:"mean_precision_at_10"`
}

// Retrieval is the retrieval and ranking stage of answering one question.
type Retrieval struct {
	Keywords []string
	Query    string

	// Documents are all fetched documents in descending similarity.
	Documents []ScoredDocument

	// Snippets come from the top documents, in document rank order.
	Snippets []Snippet
}
