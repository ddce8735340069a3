// Package ai provides the classification client interface and implementations.
package ai

import (
	"bytes"
	"text/template"
)

// DefaultPromptBuilder implements PromptBuilder with a templated prompt.
type DefaultPromptBuilder struct {
	userTemplate *template.Template
}

// promptTemplate instructs the model to classify a feedback submission and
// return nothing but a single JSON object matching our schema.
// This prompt is versioned as code and can be reviewed/tested.
const promptTemplate = `You are triaging user feedback submitted through a website feedback widget. A screenshot may be attached; if so, use it as additional context.

Analyze the feedback below and return valid JSON exactly matching this schema:

{
  "title": "string - short title for the feedback item",
  "summary": "string - one or two sentence restatement of the feedback",
  "key_details": ["string array - concrete facts extracted from the message"],
  "suggested_category": "bug|feature|question|billing|praise|other",
  "feature_area": "string - free-form label for the affected product area",
  "suggested_priority": "low|medium|high",
  "steps": ["string array - reproduction steps if the message implies any, else empty"],
  "expected": "string - the behavior the user expected, or empty if not stated",
  "confidence": 0.0,
  "clarifying_questions": ["string array - at most 2 questions that would help triage"]
}

Guidelines:
- suggested_category and suggested_priority MUST be one of the listed values.
- confidence is your confidence in the categorization, between 0 and 1.
- Priority: high for crashes, data loss, or blocked core workflows; medium for degraded but workable behavior; low for cosmetic issues, questions, and praise.
- Do not invent details that are not in the message or screenshot.

Feedback message:
---
{{.Message}}
---

Respond with ONLY the JSON object. No markdown, no explanations.`

// NewDefaultPromptBuilder creates a prompt builder with the default template.
func NewDefaultPromptBuilder() (*DefaultPromptBuilder, error) {
	tmpl, err := template.New("classify_prompt").Parse(promptTemplate)
	if err != nil {
		return nil, err
	}

	return &DefaultPromptBuilder{userTemplate: tmpl}, nil
}

// BuildPrompt constructs the prompt with the feedback message embedded.
func (p *DefaultPromptBuilder) BuildPrompt(message string) string {
	var buf bytes.Buffer
	data := struct {
		Message string
	}{
		Message: message,
	}

	if err := p.userTemplate.Execute(&buf, data); err != nil {
		// Fallback to simple format if template fails
		return "Classify this feedback and return JSON:\n\n" + message
	}

	return buf.String()
}
