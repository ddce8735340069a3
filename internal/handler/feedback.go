// Package handler contains HTTP handlers for the API.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/feedback-widget/internal/domain"
	"github.com/feedback-widget/internal/ratelimit"
	"github.com/feedback-widget/internal/service"
	"github.com/feedback-widget/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stable reason strings returned to the widget. Nothing else ever crosses
// the boundary; internal errors stay in the logs.
const (
	reasonMissingMessage = "message required"
	reasonRateLimited    = "too many requests"
	reasonTooLarge       = "screenshot too large"
	reasonSaveFailed     = "failed to save"
	reasonInternal       = "internal error"
)

// FeedbackHandler handles feedback submission and triage requests.
type FeedbackHandler struct {
	ingestor *service.Ingestor
	repo     storage.Repository
	logger   *zap.Logger

	maxScreenshotBytes int64
	fallbackIdentity   string
}

// FeedbackHandlerConfig contains transport-boundary settings.
type FeedbackHandlerConfig struct {
	MaxScreenshotBytes int64
	FallbackIdentity   string
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(ingestor *service.Ingestor, repo storage.Repository, cfg FeedbackHandlerConfig, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		ingestor:           ingestor,
		repo:               repo,
		logger:             logger.Named("feedback_handler"),
		maxScreenshotBytes: cfg.MaxScreenshotBytes,
		fallbackIdentity:   cfg.FallbackIdentity,
	}
}

// HandleSubmit processes POST /api/feedback multipart submissions.
func (h *FeedbackHandler) HandleSubmit(c *gin.Context) {
	sub, err := h.parseSubmission(c)
	if err != nil {
		h.logger.Debug("rejected multipart submission", zap.Error(err))
		h.writeIngestError(c, err)
		return
	}

	result, err := h.ingestor.Ingest(c.Request.Context(), sub)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.SubmitResponse{
		ID:     result.ID,
		AIData: result.Classification,
	})
}

// parseSubmission extracts the multipart fields and transport metadata.
func (h *FeedbackHandler) parseSubmission(c *gin.Context) (*domain.Submission, error) {
	sub := &domain.Submission{
		Message:   c.PostForm("message"),
		TrapValue: c.PostForm("website"),
		Project:   c.PostForm("project"),
		UserAgent: c.Request.UserAgent(),
	}

	sub.OriginURL = c.GetHeader("Origin")
	if sub.OriginURL == "" {
		sub.OriginURL = c.Request.Referer()
	}

	sub.ClientIdentity = ratelimit.IdentityFromHeaders(
		c.GetHeader("X-Forwarded-For"),
		c.GetHeader("X-Real-IP"),
		h.fallbackIdentity,
	)

	file, err := c.FormFile("screenshot")
	if err != nil {
		// Screenshot is optional.
		return sub, nil
	}

	// Hard cap at the transport boundary; the validator re-checks.
	if file.Size > h.maxScreenshotBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxScreenshotBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxScreenshotBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	sub.Screenshot = data
	sub.ScreenshotType = file.Header.Get("Content-Type")
	return sub, nil
}

// writeIngestError maps pipeline errors onto the closed response set.
func (h *FeedbackHandler) writeIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingMessage):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: reasonMissingMessage})
	case errors.Is(err, domain.ErrPayloadTooLarge):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: reasonTooLarge})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, domain.ErrorResponse{Error: reasonRateLimited})
	case errors.Is(err, domain.ErrStorageFailure):
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: reasonSaveFailed})
	default:
		h.logger.Error("unexpected ingestion error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: reasonInternal})
	}
}

// HandleList processes GET /api/feedback requests.
func (h *FeedbackHandler) HandleList(c *gin.Context) {
	limit := 50
	offset := 0

	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	status := domain.Status(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: reasonInternal})
		return
	}

	records, err := h.repo.List(c.Request.Context(), limit, offset, status)
	if err != nil {
		h.logger.Error("failed to list feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: reasonInternal})
		return
	}

	if records == nil {
		records = []*domain.FeedbackRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// HandleGet processes GET /api/feedback/:id.
func (h *FeedbackHandler) HandleGet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: reasonInternal})
		return
	}

	record, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get feedback", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: reasonInternal})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: "not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// statusUpdateRequest is the PATCH body for triage updates.
type statusUpdateRequest struct {
	Status domain.Status `json:"status" binding:"required"`
}

// HandleUpdateStatus processes PATCH /api/feedback/:id/status.
func (h *FeedbackHandler) HandleUpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: reasonInternal})
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid status"})
		return
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		h.logger.Warn("failed to update status",
			zap.Int64("id", id),
			zap.String("status", string(req.Status)),
			zap.Error(err),
		)
		c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// HealthHandler handles health check requests.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Handle processes GET /health requests.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
