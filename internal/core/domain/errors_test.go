package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	errs := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrConfigInvalid,
		ErrSnippetNotFound,
		ErrLLMUnavailable,
		ErrEmbeddingUnavailable,
		ErrRetrievalUnavailable,
		ErrEmbeddingFailed,
		ErrTransientGeneration,
		ErrFatalGeneration,
		ErrGenerationFailed,
		ErrRateLimited,
		ErrAuthInvalid,
	}
	for _, err := range errs {
		assert.NotNil(t, err)
		assert.NotEmpty(t, err.Error())
	}
}

func TestErrSnippetNotFound_IsNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrSnippetNotFound, ErrNotFound)
	assert.Equal(t, "snippet not found", ErrSnippetNotFound.Error())
}

func TestEmbeddingFailure(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("rank: %w", NewEmbeddingFailure("rank documents", cause))

	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "rank: rank documents: embedding failed: connection refused", err.Error())
	assert.Equal(t, "select: embedding failed", NewEmbeddingFailure("select", nil).Error())
}

func TestGenerationError_Kinds(t *testing.T) {
	transient := NewTransientError("openai", 503, "overloaded", nil)
	fatal := NewFatalError("anthropic", 401, "bad key", nil)

	assert.ErrorIs(t, transient, ErrTransientGeneration)
	assert.NotErrorIs(t, transient, ErrFatalGeneration)
	assert.ErrorIs(t, fatal, ErrFatalGeneration)
	assert.ErrorIs(t, fatal, ErrAuthInvalid)
	assert.False(t, IsFatalGeneration(transient))
	assert.True(t, IsFatalGeneration(fatal))
	assert.False(t, IsFatalGeneration(errors.New("unclassified")))
}

func TestGenerationError_Message(t *testing.T) {
	withStatus := NewTransientError("openai", 429, "slow down", nil)
	assert.Equal(t, "openai error (transient, status 429): slow down", withStatus.Error())
	assert.ErrorIs(t, withStatus, ErrRateLimited)

	cause := errors.New("dial tcp: timeout")
	noStatus := NewTransientError("ollama", 0, "", cause)
	assert.Equal(t, "ollama error (transient): dial tcp: timeout", noStatus.Error())
	assert.ErrorIs(t, noStatus, cause)
}

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{429, true},
		{408, true},
		{500, true},
		{502, true},
		{400, false},
		{401, false},
		{404, false},
	}

	for _, tt := range tests {
		err := NewStatusError("gemini", tt.status, "boom")
		assert.Equal(t, tt.status, err.StatusCode)
		assert.Equal(t, tt.transient, errors.Is(err, ErrTransientGeneration), "status %d", tt.status)
	}
}

func TestGenerationFailedError(t *testing.T) {
	cause := NewFatalError("openai", 400, "bad request", nil)
	err := &GenerationFailedError{Attempts: 1, Cause: cause}

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrFatalGeneration)
	assert.Contains(t, err.Error(), "after 1 attempt(s)")

	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.Equal(t, 400, genErr.StatusCode)
}
