// Package ai provides the classification client interface and implementations.
package ai

import (
	"fmt"

	"github.com/feedback-widget/internal/domain"
)

// DefaultValidator implements ResponseValidator with strict schema checks.
type DefaultValidator struct{}

// NewDefaultValidator creates a new response validator.
func NewDefaultValidator() *DefaultValidator {
	return &DefaultValidator{}
}

// Validate checks if the AI response conforms to the expected schema.
// A result that fails any check is discarded whole; callers never see a
// partially valid classification.
func (v *DefaultValidator) Validate(result *domain.ClassificationResult) error {
	if result == nil {
		return domain.WrapError("validate",
			fmt.Errorf("result is nil"))
	}

	if result.Title == "" {
		return domain.WrapError("validate_title",
			fmt.Errorf("%w: title is required", domain.ErrInvalidAIResponse))
	}

	if result.Summary == "" {
		return domain.WrapError("validate_summary",
			fmt.Errorf("%w: summary is required", domain.ErrInvalidAIResponse))
	}

	if !result.SuggestedCategory.IsValid() {
		return domain.WrapError("validate_category",
			fmt.Errorf("%w: suggested_category must be one of the closed set, got: %s",
				domain.ErrInvalidAIResponse, result.SuggestedCategory))
	}

	if !result.SuggestedPriority.IsValid() {
		return domain.WrapError("validate_priority",
			fmt.Errorf("%w: suggested_priority must be low, medium, or high, got: %s",
				domain.ErrInvalidAIResponse, result.SuggestedPriority))
	}

	if result.FeatureArea == "" {
		return domain.WrapError("validate_feature_area",
			fmt.Errorf("%w: feature_area is required", domain.ErrInvalidAIResponse))
	}

	if result.Confidence < 0 || result.Confidence > 1 {
		return domain.WrapError("validate_confidence",
			fmt.Errorf("%w: confidence must be in [0,1], got: %f",
				domain.ErrInvalidAIResponse, result.Confidence))
	}

	for i, detail := range result.KeyDetails {
		if detail == "" {
			return domain.WrapError("validate_key_details",
				fmt.Errorf("%w: key_details[%d] is empty", domain.ErrInvalidAIResponse, i))
		}
	}

	for i, step := range result.Steps {
		if step == "" {
			return domain.WrapError("validate_steps",
				fmt.Errorf("%w: steps[%d] is empty", domain.ErrInvalidAIResponse, i))
		}
	}

	return nil
}
