package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigInvalid indicates configuration values failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrSnippetNotFound indicates snippet text appears verbatim in neither
	// the abstract nor the title of a document.
	ErrSnippetNotFound = fmt.Errorf("snippet %w", ErrNotFound)

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRetrievalUnavailable indicates the article search service is not configured.
	ErrRetrievalUnavailable = errors.New("article search unavailable")

	// ErrEmbeddingFailed is matched by every EmbeddingFailure.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// Generation Errors.

	// ErrTransientGeneration is matched by generation errors worth retrying:
	// rate limiting, timeouts and upstream server errors.
	ErrTransientGeneration = errors.New("transient generation error")

	// ErrFatalGeneration is matched by generation errors that will fail again
	// without intervention: bad credentials, malformed requests, policy rejections.
	ErrFatalGeneration = errors.New("fatal generation error")

	// ErrGenerationFailed is matched by GenerationFailedError.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")
)

// EmbeddingFailure wraps an error from the embedding collaborator.
// It is fatal to the ranking or selection call that raised it.
type EmbeddingFailure struct {
	// Op names the operation that needed embeddings.
	Op    string
	Cause error
}

// NewEmbeddingFailure wraps cause for the named operation.
func NewEmbeddingFailure(op string, cause error) *EmbeddingFailure {
	return &EmbeddingFailure{Op: op, Cause: cause}
}

func (e *EmbeddingFailure) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: embedding failed", e.Op)
	}
	return fmt.Sprintf("%s: embedding failed: %v", e.Op, e.Cause)
}

func (e *EmbeddingFailure) Unwrap() error {
	return e.Cause
}

// Is matches ErrEmbeddingFailed.
func (e *EmbeddingFailure) Is(target error) bool {
	return target == ErrEmbeddingFailed
}

// GenerationErrorKind classifies a generation failure for the retrier.
type GenerationErrorKind int

// Generation error kinds.
const (
	GenerationTransient GenerationErrorKind = iota
	GenerationFatal
)

// String returns the string representation.
func (k GenerationErrorKind) String() string {
	if k == GenerationFatal {
		return "fatal"
	}
	return "transient"
}

// GenerationError is a classified failure from a generative provider.
type GenerationError struct {
	Kind       GenerationErrorKind
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (%s, status %d): %s", e.Provider, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Kind, msg)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTransientGeneration or ErrFatalGeneration depending on Kind,
// plus ErrRateLimited and ErrAuthInvalid for the matching status codes.
func (e *GenerationError) Is(target error) bool {
	switch target {
	case ErrTransientGeneration:
		return e.Kind == GenerationTransient
	case ErrFatalGeneration:
		return e.Kind == GenerationFatal
	case ErrRateLimited:
		return e.StatusCode == 429
	case ErrAuthInvalid:
		return e.StatusCode == 401 || e.StatusCode == 403
	default:
		return false
	}
}

// NewTransientError builds a retryable generation error.
func NewTransientError(provider string, status int, message string, cause error) *GenerationError {
	return &GenerationError{
		Kind:       GenerationTransient,
		Provider:   provider,
		StatusCode: status,
		Message:    message,
		Cause:      cause,
	}
}

// NewFatalError builds a non-retryable generation error.
func NewFatalError(provider string, status int, message string, cause error) *GenerationError {
	return &GenerationError{
		Kind:       GenerationFatal,
		Provider:   provider,
		StatusCode: status,
		Message:    message,
		Cause:      cause,
	}
}

// ClassifyStatus maps an HTTP status from a generative provider to an error kind.
// Rate limiting, request timeouts and 5xx are transient; everything else is fatal.
func ClassifyStatus(status int) GenerationErrorKind {
	switch {
	case status == 429, status == 408, status >= 500:
		return GenerationTransient
	default:
		return GenerationFatal
	}
}

// NewStatusError builds a generation error for a non-success HTTP status,
// classified with ClassifyStatus.
func NewStatusError(provider string, status int, message string) *GenerationError {
	return &GenerationError{
		Kind:       ClassifyStatus(status),
		Provider:   provider,
		StatusCode: status,
		Message:    message,
	}
}

// IsFatalGeneration returns true if err is a generation error that must not be retried.
// Errors that carry no classification are treated as transient.
func IsFatalGeneration(err error) bool {
	return errors.Is(err, ErrFatalGeneration)
}

// GenerationFailedError is returned after the retry budget is exhausted or a
// fatal error ends generation early. It wraps the last underlying cause.
type GenerationFailedError struct {
	Attempts int
	Cause    error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Cause
}

// Is matches ErrGenerationFailed.
func (e *GenerationFailedError) Is(target error) bool {
	return target == ErrGenerationFailed
}
