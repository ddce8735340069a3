// Feedback Widget API - Server Entry Point
//
// Initializes all dependencies for the feedback ingestion pipeline and
// starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedback-widget/internal/ai"
	"github.com/feedback-widget/internal/config"
	"github.com/feedback-widget/internal/handler"
	"github.com/feedback-widget/internal/logger"
	"github.com/feedback-widget/internal/notify"
	"github.com/feedback-widget/internal/ratelimit"
	"github.com/feedback-widget/internal/service"
	"github.com/feedback-widget/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	isDev := os.Getenv("GIN_MODE") != "release"

	zapLogger, err := logger.New(isDev)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting feedback widget API",
		zap.Bool("development", isDev),
	)

	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	zapLogger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.Bool("ai_enabled", cfg.AI.APIKey != "" || cfg.AI.MockMode),
		zap.Bool("notify_enabled", cfg.Notify.Host != ""),
		zap.Int("rate_limit", cfg.RateLimit.Limit),
		zap.Duration("rate_limit_window", cfg.RateLimit.Window),
	)

	// Classification backend: real, mock, or disabled.
	var classifier ai.Classifier
	switch {
	case cfg.AI.MockMode:
		zapLogger.Warn("running in mock mode - classifications are simulated")
		classifier = ai.NewMockClient(zapLogger)
	case cfg.AI.APIKey == "":
		zapLogger.Warn("no GEMINI_API_KEY set - feedback will persist unclassified")
		classifier = ai.NewDisabledClient(zapLogger)
	default:
		promptBuilder, err := ai.NewDefaultPromptBuilder()
		if err != nil {
			zapLogger.Fatal("failed to create prompt builder", zap.Error(err))
		}
		classifier = ai.NewGeminiClient(&cfg.AI, promptBuilder, ai.NewDefaultValidator(), zapLogger)
	}

	// Storage
	repo, err := storage.NewSQLiteRepository(cfg.Storage.DBPath)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err))
	}
	defer repo.Close()

	blobs, err := storage.NewLocalBlobStore(cfg.Storage.BlobDir, cfg.Storage.BlobBaseURL)
	if err != nil {
		zapLogger.Fatal("failed to create blob store", zap.Error(err))
	}

	// Notification dispatcher
	var sender notify.Sender = notify.NopSender{}
	if cfg.Notify.Host != "" {
		sender = notify.NewSMTPSender(cfg.Notify)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify.QueueSize, zapLogger)

	// Rate limiter
	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window, zapLogger)

	// Ingestion pipeline
	ingestor := service.NewIngestor(
		limiter, classifier, repo, blobs, dispatcher,
		service.IngestorConfig{MaxScreenshotBytes: cfg.Server.MaxScreenshotBytes},
		zapLogger,
	)

	feedbackHandler := handler.NewFeedbackHandler(ingestor, repo, handler.FeedbackHandlerConfig{
		MaxScreenshotBytes: cfg.Server.MaxScreenshotBytes,
		FallbackIdentity:   cfg.RateLimit.FallbackIdentity,
	}, zapLogger)
	healthHandler := handler.NewHealthHandler()

	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(zapLogger))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggingMiddleware(zapLogger))
	router.Use(handler.CORSMiddleware())

	router.MaxMultipartMemory = cfg.Server.MaxScreenshotBytes

	router.GET("/health", healthHandler.Handle)

	api := router.Group("/api")
	{
		api.POST("/feedback", feedbackHandler.HandleSubmit)
		api.GET("/feedback", feedbackHandler.HandleList)
		api.GET("/feedback/:id", feedbackHandler.HandleGet)
		api.PATCH("/feedback/:id/status", feedbackHandler.HandleUpdateStatus)
	}

	// Stored screenshots are public by reference.
	router.Static(cfg.Storage.BlobBaseURL, blobs.Dir())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	// Drain queued notifications before exiting.
	dispatcher.Close(10 * time.Second)
	limiter.Stop()

	zapLogger.Info("server stopped")
}
