// Package ai provides the classification client interface and implementations.
package ai

import (
	"context"

	"github.com/feedback-widget/internal/domain"
)

// Classifier defines the interface for AI classification backends.
// This interface allows for easy mocking and swapping of providers.
type Classifier interface {
	// Classify sends the feedback text (and optional image) to the AI
	// service and returns a fully validated classification. The context
	// should carry timeout and cancellation signals. Callers treat any
	// error as "no classification"; no partially valid result is ever
	// returned.
	Classify(ctx context.Context, message string, image *ImagePayload) (*domain.ClassificationResult, error)
}

// PromptBuilder defines the interface for constructing classification prompts.
type PromptBuilder interface {
	// BuildPrompt constructs the prompt with the feedback message embedded.
	BuildPrompt(message string) string
}

// ResponseValidator defines the interface for validating AI responses.
type ResponseValidator interface {
	// Validate checks if the AI response conforms to the expected schema.
	Validate(result *domain.ClassificationResult) error
}
