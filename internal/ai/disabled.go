// Package ai provides the classification client interface and implementations.
package ai

import (
	"context"

	"github.com/feedback-widget/internal/domain"
	"go.uber.org/zap"
)

// DisabledClient implements Classifier when no API key is configured.
// Classification is an enhancement, never a hard dependency: without a key
// every submission simply persists unclassified.
type DisabledClient struct {
	logger *zap.Logger
}

// NewDisabledClient creates a classifier that always reports "not configured".
func NewDisabledClient(logger *zap.Logger) *DisabledClient {
	return &DisabledClient{
		logger: logger.Named("ai_disabled"),
	}
}

// Classify short-circuits without any network call.
func (c *DisabledClient) Classify(ctx context.Context, message string, image *ImagePayload) (*domain.ClassificationResult, error) {
	return nil, domain.ErrAINotConfigured
}
