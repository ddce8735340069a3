// Package service contains the feedback ingestion pipeline.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/feedback-widget/internal/ai"
	"github.com/feedback-widget/internal/domain"
	"github.com/feedback-widget/internal/ratelimit"
	"github.com/feedback-widget/internal/storage"
	"github.com/feedback-widget/pkg/honeypot"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	Dispatch(n domain.Notification)
}

// Ingestor sequences the ingestion pipeline: rate limit, honeypot, validate,
// screenshot upload, classification, persistence, notification.
type Ingestor struct {
	limiter    *ratelimit.Limiter
	classifier ai.Classifier
	repo       storage.Repository
	blobs      storage.BlobStore
	notifier   Notifier
	logger     *zap.Logger

	maxScreenshotBytes int64
}

// IngestorConfig contains configuration for the Ingestor.
type IngestorConfig struct {
	MaxScreenshotBytes int64
}

// NewIngestor creates an Ingestor with all dependencies.
func NewIngestor(
	limiter *ratelimit.Limiter,
	classifier ai.Classifier,
	repo storage.Repository,
	blobs storage.BlobStore,
	notifier Notifier,
	config IngestorConfig,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		limiter:            limiter,
		classifier:         classifier,
		repo:               repo,
		blobs:              blobs,
		notifier:           notifier,
		logger:             logger.Named("ingestor"),
		maxScreenshotBytes: config.MaxScreenshotBytes,
	}
}

// Ingest processes one submission end to end.
//
// Failure semantics: rate-limit rejection and validation failure surface as
// sentinel errors; bot traffic is masked as a success; classification,
// screenshot upload, and notification failures degrade silently; only the
// record insert is fatal.
func (s *Ingestor) Ingest(ctx context.Context, sub *domain.Submission) (*domain.IngestResult, error) {
	startTime := time.Now()
	logger := s.logger.With(zap.String("identity", sub.ClientIdentity))

	// Step 1: rate limit
	if !s.limiter.Admit(sub.ClientIdentity) {
		logger.Warn("submission rate limited")
		return nil, domain.ErrRateLimited
	}

	// Step 2: honeypot. A hit gets a success-shaped response with zero side
	// effects so scripted submitters cannot tell they were filtered.
	if honeypot.IsLikelyBot(sub.TrapValue) {
		logger.Info("honeypot triggered, masking as success")
		return &domain.IngestResult{ID: placeholderID(), Masked: true}, nil
	}

	// Step 3: validate
	if err := ValidateSubmission(sub, s.maxScreenshotBytes); err != nil {
		logger.Debug("submission rejected", zap.Error(err))
		return nil, err
	}

	// Step 4: screenshot upload (best-effort) plus the in-memory encoded
	// copy for classification. The encoded copy is never persisted.
	var screenshotRef string
	var image *ai.ImagePayload
	if len(sub.Screenshot) > 0 {
		image = ai.EncodeImage(sub.Screenshot, sub.ScreenshotType)

		ref, err := s.blobs.Save(ctx, sub.Screenshot, image.MIMEType)
		if err != nil {
			logger.Warn("screenshot upload failed, continuing without reference",
				zap.Error(err),
			)
		} else {
			screenshotRef = ref
		}
	}

	// Step 5: classification. Any failure resolves to nil; this stage can
	// never fail the request.
	classification := s.classify(ctx, sub.Message, image, logger)

	// Step 6: persistence. The sole fatal step.
	record := &domain.FeedbackRecord{
		OriginURL:      sub.OriginURL,
		UserAgent:      sub.UserAgent,
		Project:        sub.Project,
		Message:        strings.TrimSpace(sub.Message),
		ScreenshotRef:  screenshotRef,
		Classification: classification,
		Status:         domain.StatusNew,
	}

	id, err := s.repo.Insert(ctx, record)
	if err != nil {
		logger.Error("failed to persist feedback", zap.Error(err))
		return nil, domain.WrapError("insert_feedback", domain.ErrStorageFailure)
	}

	// Step 7: notification, handed off without waiting.
	notification := domain.Notification{
		FeedbackID: id,
		Message:    record.Message,
		OriginURL:  record.OriginURL,
		Project:    record.Project,
	}
	if classification != nil {
		notification.Category = string(classification.SuggestedCategory)
		notification.Priority = string(classification.SuggestedPriority)
	}
	s.notifier.Dispatch(notification)

	logger.Info("feedback ingested",
		zap.Int64("id", id),
		zap.Bool("classified", classification != nil),
		zap.Bool("has_screenshot", screenshotRef != ""),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &domain.IngestResult{ID: id, Classification: classification}, nil
}

// classify runs the AI stage and absorbs every failure into nil.
func (s *Ingestor) classify(ctx context.Context, message string, image *ai.ImagePayload, logger *zap.Logger) *domain.ClassificationResult {
	result, err := s.classifier.Classify(ctx, message, image)
	if err != nil {
		if errors.Is(err, domain.ErrAINotConfigured) {
			logger.Debug("classification skipped, no API key configured")
		} else {
			logger.Warn("classification failed, persisting without ai_data",
				zap.Error(err),
			)
		}
		return nil
	}
	return result
}

// placeholderID yields a positive pseudo-id for masked honeypot responses so
// they are shaped like real accepts.
func placeholderID() int64 {
	return time.Now().UnixMilli()%100000 + 1
}
