// Package ai provides the classification client interface and implementations.
package ai

import (
	"context"

	"github.com/feedback-widget/internal/domain"
	"go.uber.org/zap"
)

// MockClient implements the Classifier interface for testing and local dev.
type MockClient struct {
	logger *zap.Logger
}

// NewMockClient creates a new mock classifier.
func NewMockClient(logger *zap.Logger) *MockClient {
	return &MockClient{
		logger: logger.Named("mock_ai_client"),
	}
}

// Classify returns a deterministic mock classification.
func (c *MockClient) Classify(ctx context.Context, message string, image *ImagePayload) (*domain.ClassificationResult, error) {
	c.logger.Debug("mock classification",
		zap.Int("message_length", len(message)),
		zap.Bool("has_image", image != nil),
	)

	return &domain.ClassificationResult{
		Title:             "Mock feedback",
		Summary:           "This is a mock classification. Set AI_MOCK_MODE=false and configure GEMINI_API_KEY for real results.",
		KeyDetails:        []string{"mock mode enabled"},
		SuggestedCategory: domain.CategoryOther,
		FeatureArea:       "general",
		SuggestedPriority: domain.PriorityMedium,
		Steps:             []string{},
		Confidence:        0.5,
		ClarifyingQuestions: []string{
			"Is this service running in mock mode intentionally?",
		},
	}, nil
}
