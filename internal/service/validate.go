package service

import (
	"strings"

	"github.com/feedback-widget/internal/domain"
)

// ValidateSubmission enforces required fields and size constraints.
// The transport boundary already caps the upload size; the check here is
// defensive so the pipeline never trusts the caller to have done it.
func ValidateSubmission(sub *domain.Submission, maxScreenshotBytes int64) error {
	if strings.TrimSpace(sub.Message) == "" {
		return domain.ErrMissingMessage
	}

	if len(sub.Screenshot) > 0 && int64(len(sub.Screenshot)) > maxScreenshotBytes {
		return domain.ErrPayloadTooLarge
	}

	return nil
}
