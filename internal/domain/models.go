// Package domain contains the core domain models and types.
// These models represent the business logic contracts and are independent
// of any infrastructure concerns.
package domain

import "time"

// Category is the closed set of feedback categories the AI may assign.
type Category string

const (
	CategoryBug      Category = "bug"
	CategoryFeature  Category = "feature"
	CategoryQuestion Category = "question"
	CategoryBilling  Category = "billing"
	CategoryPraise   Category = "praise"
	CategoryOther    Category = "other"
)

// IsValid checks if the category value is one of the allowed values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBug, CategoryFeature, CategoryQuestion, CategoryBilling, CategoryPraise, CategoryOther:
		return true
	default:
		return false
	}
}

// Priority is the closed set of priorities the AI may assign.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks if the priority value is one of the allowed values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Status tracks the triage lifecycle of a persisted feedback record.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// IsValid checks if the status value is one of the allowed values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed:
		return true
	default:
		return false
	}
}

// Submission is the parsed inbound request. It lives only for the duration
// of one ingestion call.
type Submission struct {
	// Message is the free-text feedback. Required, non-empty after trimming.
	Message string

	// Screenshot holds the raw image bytes, if the visitor attached one.
	Screenshot []byte

	// ScreenshotType is the declared content type of the screenshot.
	ScreenshotType string

	// TrapValue is the honeypot field. Humans leave it empty.
	TrapValue string

	// Project is an opaque tenant/project tag passed through to storage.
	Project string

	// OriginURL is the page the feedback was submitted from.
	OriginURL string

	// ClientIdentity is the rate-limiting key, typically a network address.
	ClientIdentity string

	// UserAgent is the submitting browser's user agent, if any.
	UserAgent string
}

// ClassificationResult is the structured output of AI classification.
// Instances are all-or-nothing: a value either satisfies every schema
// constraint or the classification is nil.
type ClassificationResult struct {
	// Title is a short human-readable title for the feedback.
	Title string `json:"title"`

	// Summary is a one or two sentence restatement of the feedback.
	Summary string `json:"summary"`

	// KeyDetails lists the concrete facts extracted from the message.
	KeyDetails []string `json:"key_details"`

	// SuggestedCategory is one of the closed Category values.
	SuggestedCategory Category `json:"suggested_category"`

	// FeatureArea is a free-form label for the affected product area.
	FeatureArea string `json:"feature_area"`

	// SuggestedPriority is one of the closed Priority values.
	SuggestedPriority Priority `json:"suggested_priority"`

	// Steps lists reproduction steps inferred from the message, if any.
	Steps []string `json:"steps"`

	// Expected describes the behavior the user expected, if stated.
	Expected string `json:"expected,omitempty"`

	// Confidence is the model's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// ClarifyingQuestions holds up to two follow-up questions for the user.
	ClarifyingQuestions []string `json:"clarifying_questions"`
}

// FeedbackRecord is the unit handed to storage. Created once per accepted
// submission; the ingestion pipeline never mutates it afterwards.
type FeedbackRecord struct {
	ID             int64                 `json:"id"`
	OriginURL      string                `json:"url,omitempty"`
	UserAgent      string                `json:"user_agent,omitempty"`
	Project        string                `json:"project,omitempty"`
	Message        string                `json:"message"`
	ScreenshotRef  string                `json:"screenshot_url,omitempty"`
	Classification *ClassificationResult `json:"ai_data,omitempty"`
	Status         Status                `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// IngestResult is what the orchestrator hands back to the transport layer
// for an accepted (or honeypot-masked) submission.
type IngestResult struct {
	// ID is the persisted record id, or a placeholder for honeypot hits.
	ID int64

	// Classification is nil whenever the AI stage was skipped or failed.
	Classification *ClassificationResult

	// Masked is true when the submission was silently dropped as bot
	// traffic. The caller must still respond with a success-shaped body.
	Masked bool
}

// SubmitResponse is the JSON body returned to the widget on success.
type SubmitResponse struct {
	ID     int64                 `json:"id"`
	AIData *ClassificationResult `json:"ai_data"`
}

// ErrorResponse is the JSON body returned to the widget on failure.
// Error is always one of the closed reason strings.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Notification carries the summary fields handed to the email sink.
type Notification struct {
	FeedbackID int64
	Message    string
	OriginURL  string
	Project    string
	Category   string
	Priority   string
}
