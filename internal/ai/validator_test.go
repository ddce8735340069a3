package ai

import (
	"testing"

	"github.com/feedback-widget/internal/domain"
)

func validResult() *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Title:               "Export button broken",
		Summary:             "The export button does nothing when clicked.",
		KeyDetails:          []string{"export button", "no response on click"},
		SuggestedCategory:   domain.CategoryBug,
		FeatureArea:         "reports/export",
		SuggestedPriority:   domain.PriorityHigh,
		Steps:               []string{"Open reports", "Click export"},
		Expected:            "A file download should start",
		Confidence:          0.92,
		ClarifyingQuestions: []string{"Which browser are you using?"},
	}
}

func TestDefaultValidator_Validate(t *testing.T) {
	validator := NewDefaultValidator()

	tests := []struct {
		name    string
		mutate  func(*domain.ClassificationResult)
		nilArg  bool
		wantErr bool
	}{
		{
			name:    "valid result",
			mutate:  func(r *domain.ClassificationResult) {},
			wantErr: false,
		},
		{
			name:    "nil result",
			nilArg:  true,
			wantErr: true,
		},
		{
			name:    "missing title",
			mutate:  func(r *domain.ClassificationResult) { r.Title = "" },
			wantErr: true,
		},
		{
			name:    "missing summary",
			mutate:  func(r *domain.ClassificationResult) { r.Summary = "" },
			wantErr: true,
		},
		{
			name:    "category outside closed set",
			mutate:  func(r *domain.ClassificationResult) { r.SuggestedCategory = "complaint" },
			wantErr: true,
		},
		{
			name:    "empty category",
			mutate:  func(r *domain.ClassificationResult) { r.SuggestedCategory = "" },
			wantErr: true,
		},
		{
			name:    "priority outside closed set",
			mutate:  func(r *domain.ClassificationResult) { r.SuggestedPriority = "urgent" },
			wantErr: true,
		},
		{
			name:    "missing feature area",
			mutate:  func(r *domain.ClassificationResult) { r.FeatureArea = "" },
			wantErr: true,
		},
		{
			name:    "confidence above range",
			mutate:  func(r *domain.ClassificationResult) { r.Confidence = 1.2 },
			wantErr: true,
		},
		{
			name:    "confidence below range",
			mutate:  func(r *domain.ClassificationResult) { r.Confidence = -0.1 },
			wantErr: true,
		},
		{
			name:    "confidence at boundaries",
			mutate:  func(r *domain.ClassificationResult) { r.Confidence = 1.0 },
			wantErr: false,
		},
		{
			name:    "empty key detail element",
			mutate:  func(r *domain.ClassificationResult) { r.KeyDetails = []string{"ok", ""} },
			wantErr: true,
		},
		{
			name:    "empty step element",
			mutate:  func(r *domain.ClassificationResult) { r.Steps = []string{""} },
			wantErr: true,
		},
		{
			name:    "no steps is allowed",
			mutate:  func(r *domain.ClassificationResult) { r.Steps = nil },
			wantErr: false,
		},
		{
			name:    "no expected is allowed",
			mutate:  func(r *domain.ClassificationResult) { r.Expected = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result *domain.ClassificationResult
			if !tt.nilArg {
				result = validResult()
				tt.mutate(result)
			}

			err := validator.Validate(result)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
