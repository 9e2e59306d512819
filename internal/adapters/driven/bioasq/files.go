// Package bioasq reads BioASQ question files and run artifacts.
package bioasq

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
)

// LoadQuestions reads a BioASQ question file ({"questions": [...]}).
// Questions without an ID are numbered by position. Questions with an
// empty body are rejected.
func LoadQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes the contents of a BioASQ question file.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var set domain.QuestionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: decode question file: %w", domain.ErrInvalidInput, err)
	}

	for i := range set.Questions {
		q := &set.Questions[i]
		q.Body = strings.TrimSpace(q.Body)
		if q.Body == "" {
			return nil, fmt.Errorf("%w: question %d has no body", domain.ErrInvalidInput, i+1)
		}
		if q.ID == "" {
			q.ID = strconv.Itoa(i + 1)
		}
	}
	return set.Questions, nil
}

// LoadRun reads a run artifact written by the artifact writers.
func LoadRun(path string) (*domain.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run artifact: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%w: decode run artifact: %w", domain.ErrInvalidInput, err)
	}
	if run.ID == "" {
		return nil, fmt.Errorf("%w: run artifact has no run_id", domain.ErrInvalidInput)
	}
	return &run, nil
}
