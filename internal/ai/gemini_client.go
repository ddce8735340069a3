// Package ai provides the classification client interface and implementations.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/feedback-widget/internal/config"
	"github.com/feedback-widget/internal/domain"
	"go.uber.org/zap"
)

// GeminiClient implements the Classifier interface using Google's Gemini API.
// Classification is a degraded enhancement: the client makes a single attempt
// with a bounded timeout and its caller absorbs every error into "no
// classification".
type GeminiClient struct {
	config     *config.AIConfig
	httpClient *http.Client
	prompter   PromptBuilder
	validator  ResponseValidator
	logger     *zap.Logger
}

// Gemini API request/response structures

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is either a text part or an inline image part.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

// geminiInlineData carries base64-encoded media for multimodal calls.
type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	Error          *geminiError          `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiClient creates a new Gemini classification client.
func NewGeminiClient(cfg *config.AIConfig, prompter PromptBuilder, validator ResponseValidator, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		prompter:  prompter,
		validator: validator,
		logger:    logger.Named("gemini_client"),
	}
}

// Classify sends the feedback text (and optional image) to the Gemini API
// and returns a validated classification.
func (c *GeminiClient) Classify(ctx context.Context, message string, image *ImagePayload) (*domain.ClassificationResult, error) {
	startTime := time.Now()
	c.logger.Debug("starting classification",
		zap.Int("message_length", len(message)),
		zap.Bool("has_image", image != nil),
	)

	parts := []geminiPart{
		{Text: c.prompter.BuildPrompt(message)},
	}
	if image != nil {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MIMEType: image.MIMEType,
				Data:     image.Base64,
			},
		})
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: parts},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.1, // Low temperature for deterministic output
			MaxOutputTokens: c.config.MaxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.WrapError("marshal_request", err)
	}

	result, err := c.executeRequest(ctx, c.buildURL(), jsonBody)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("classification completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.String("category", string(result.SuggestedCategory)),
		zap.String("priority", string(result.SuggestedPriority)),
	)

	return result, nil
}

// buildURL constructs the Gemini API URL.
func (c *GeminiClient) buildURL() string {
	baseURL := strings.TrimSuffix(c.config.BaseURL, "/")

	// Support both full URL and just the base
	if strings.Contains(baseURL, "/v1") || strings.Contains(baseURL, "/v1beta") {
		return fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, c.config.Model, c.config.APIKey)
	}

	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, c.config.Model, c.config.APIKey)
}

// executeRequest performs a single HTTP request to the Gemini API.
func (c *GeminiClient) executeRequest(ctx context.Context, url string, jsonBody []byte) (*domain.ClassificationResult, error) {
	c.logger.Debug("sending Gemini request",
		zap.String("url", maskAPIKey(url)),
		zap.Int("body_size", len(jsonBody)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, domain.WrapError("create_request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.WrapError("gemini_timeout", domain.ErrAITimeout)
		}
		return nil, domain.WrapError("http_request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError("read_response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleHTTPError(resp.StatusCode, body)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		c.logger.Warn("failed to unmarshal Gemini response",
			zap.Error(err),
			zap.String("body_preview", truncate(string(body), 500)),
		)
		return nil, domain.WrapError("parse_response", err)
	}

	if geminiResp.Error != nil {
		return nil, domain.WrapError("gemini_api_error",
			fmt.Errorf("[%d] %s: %s", geminiResp.Error.Code, geminiResp.Error.Status, geminiResp.Error.Message))
	}

	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return nil, domain.WrapError("content_blocked",
			fmt.Errorf("prompt blocked: %s", geminiResp.PromptFeedback.BlockReason))
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, domain.WrapError("empty_response", domain.ErrInvalidAIResponse)
	}

	candidate := geminiResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return nil, domain.WrapError("safety_filter",
			fmt.Errorf("response blocked by safety filter"))
	}

	var textContent strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			textContent.WriteString(part.Text)
		}
	}

	content := textContent.String()
	if content == "" {
		return nil, domain.WrapError("empty_content", domain.ErrInvalidAIResponse)
	}

	result, err := c.parseClassification(content)
	if err != nil {
		return nil, err
	}

	if err := c.validator.Validate(result); err != nil {
		return nil, err
	}

	return result, nil
}

// handleHTTPError processes HTTP error responses.
func (c *GeminiClient) handleHTTPError(statusCode int, body []byte) error {
	var errResp geminiResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		c.logger.Warn("Gemini API error",
			zap.Int("status", statusCode),
			zap.String("error_status", errResp.Error.Status),
			zap.String("error_message", errResp.Error.Message),
		)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return domain.WrapError("rate_limit", domain.ErrAIUnavailable)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domain.WrapError("auth_error",
			fmt.Errorf("authentication failed (status %d): check your API key", statusCode))
	case statusCode >= 500:
		return domain.WrapError("gemini_unavailable", domain.ErrAIUnavailable)
	default:
		return domain.WrapError("gemini_error",
			fmt.Errorf("Gemini API returned status %d: %s", statusCode, truncate(string(body), 200)))
	}
}

// parseClassification extracts the ClassificationResult from the model reply.
func (c *GeminiClient) parseClassification(content string) (*domain.ClassificationResult, error) {
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		c.logger.Warn("could not extract JSON from Gemini response",
			zap.String("content_preview", truncate(content, 200)),
		)
		return nil, domain.WrapError("extract_json", domain.ErrInvalidAIResponse)
	}

	var result domain.ClassificationResult
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		c.logger.Warn("failed to unmarshal classification",
			zap.Error(err),
			zap.String("json_content", truncate(jsonContent, 200)),
		)
		return nil, domain.WrapError("unmarshal_result", domain.ErrInvalidAIResponse)
	}

	return &result, nil
}

// maskAPIKey masks the API key in a URL for safe logging.
func maskAPIKey(url string) string {
	if idx := strings.Index(url, "key="); idx != -1 {
		endIdx := strings.Index(url[idx:], "&")
		if endIdx == -1 {
			return url[:idx] + "key=***"
		}
		return url[:idx] + "key=***" + url[idx+endIdx:]
	}
	return url
}
