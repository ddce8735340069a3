// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/feedback-widget/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// AI classification configuration
	AI AIConfig

	// RateLimit configuration for the submission endpoint
	RateLimit RateLimitConfig

	// Storage configuration (database and screenshot blobs)
	Storage StorageConfig

	// Notify configuration for outbound email
	Notify NotifyConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	// MaxScreenshotBytes bounds the accepted screenshot payload.
	MaxScreenshotBytes int64
}

// AIConfig contains classification backend settings.
type AIConfig struct {
	// APIKey is the Gemini API credential. Empty disables classification.
	APIKey string

	// BaseURL is the base URL for the Gemini API.
	BaseURL string

	// Model is the model to use.
	Model string

	// Timeout is the maximum time to wait for an AI response.
	Timeout time.Duration

	// MaxTokens is the maximum tokens for the AI response.
	MaxTokens int

	// MockMode enables canned responses for testing without API calls.
	MockMode bool
}

// RateLimitConfig contains the fixed-window limiter settings.
type RateLimitConfig struct {
	// Limit is the maximum admitted requests per identity per window.
	Limit int

	// Window is the fixed-window length.
	Window time.Duration

	// FallbackIdentity buckets clients with no derivable network address.
	// All such clients share one budget; see DESIGN.md.
	FallbackIdentity string
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// DBPath is the sqlite database file path.
	DBPath string

	// BlobDir is the directory screenshots are written to.
	BlobDir string

	// BlobBaseURL is the public URL prefix for stored screenshots.
	BlobBaseURL string
}

// NotifyConfig contains outbound email settings. An empty Host disables
// notifications.
type NotifyConfig struct {
	Host string
	Port string
	From string
	To   string

	// QueueSize bounds the background dispatch queue.
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnvOrDefault("PORT", "8080"),
			ReadTimeout:        getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			MaxScreenshotBytes: int64(getIntOrDefault("MAX_SCREENSHOT_BYTES", 5*1024*1024)),
		},
		AI: AIConfig{
			APIKey:    os.Getenv("GEMINI_API_KEY"),
			BaseURL:   getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:     getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:   getDurationOrDefault("AI_TIMEOUT", 20*time.Second),
			MaxTokens: getIntOrDefault("AI_MAX_TOKENS", 1024),
			MockMode:  getBoolOrDefault("AI_MOCK_MODE", false),
		},
		RateLimit: RateLimitConfig{
			Limit:            getIntOrDefault("RATE_LIMIT", 10),
			Window:           getDurationOrDefault("RATE_LIMIT_WINDOW", 60*time.Second),
			FallbackIdentity: getEnvOrDefault("RATE_LIMIT_FALLBACK_IDENTITY", "unknown"),
		},
		Storage: StorageConfig{
			DBPath:      getEnvOrDefault("DB_PATH", "feedback.db"),
			BlobDir:     getEnvOrDefault("BLOB_DIR", "uploads"),
			BlobBaseURL: getEnvOrDefault("BLOB_BASE_URL", "/uploads"),
		},
		Notify: NotifyConfig{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      getEnvOrDefault("SMTP_PORT", "587"),
			From:      os.Getenv("SMTP_FROM"),
			To:        os.Getenv("NOTIFY_TO"),
			QueueSize: getIntOrDefault("NOTIFY_QUEUE_SIZE", 64),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RateLimit.Limit < 1 {
		return fmt.Errorf("%w: RATE_LIMIT must be at least 1", domain.ErrInvalidConfig)
	}

	if c.RateLimit.Window < time.Second {
		return fmt.Errorf("%w: RATE_LIMIT_WINDOW must be at least 1 second", domain.ErrInvalidConfig)
	}

	if c.AI.Timeout < time.Second {
		return fmt.Errorf("%w: AI_TIMEOUT must be at least 1 second", domain.ErrInvalidConfig)
	}

	if c.AI.MaxTokens < 100 {
		return fmt.Errorf("%w: AI_MAX_TOKENS must be at least 100", domain.ErrInvalidConfig)
	}

	if c.Server.MaxScreenshotBytes < 1024 {
		return fmt.Errorf("%w: MAX_SCREENSHOT_BYTES must be at least 1024", domain.ErrInvalidConfig)
	}

	if c.Notify.Host != "" && (c.Notify.From == "" || c.Notify.To == "") {
		return fmt.Errorf("%w: SMTP_FROM and NOTIFY_TO are required when SMTP_HOST is set", domain.ErrInvalidConfig)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Bare integers are treated as seconds (e.g., "15")
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
