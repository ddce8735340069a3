// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases.
var (
	// ErrMissingMessage indicates the feedback message is empty or whitespace only.
	ErrMissingMessage = errors.New("message required")

	// ErrPayloadTooLarge indicates the screenshot exceeds the maximum allowed size.
	ErrPayloadTooLarge = errors.New("screenshot exceeds maximum size")

	// ErrRateLimited indicates too many requests from one client identity.
	ErrRateLimited = errors.New("too many requests")

	// ErrAINotConfigured indicates no API key is set, so classification is skipped.
	ErrAINotConfigured = errors.New("AI classification not configured")

	// ErrAITimeout indicates the AI service did not respond in time.
	ErrAITimeout = errors.New("AI service timeout")

	// ErrAIUnavailable indicates the AI service is not available.
	ErrAIUnavailable = errors.New("AI service unavailable")

	// ErrInvalidAIResponse indicates the AI response failed schema validation.
	ErrInvalidAIResponse = errors.New("invalid AI response format")

	// ErrStorageFailure indicates the feedback record could not be persisted.
	ErrStorageFailure = errors.New("failed to save")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IngestError wraps an error with the operation that produced it.
type IngestError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *IngestError) Unwrap() error {
	return e.Err
}

// WrapError creates a new IngestError with context.
func WrapError(op string, err error) *IngestError {
	return &IngestError{Op: op, Err: err}
}
