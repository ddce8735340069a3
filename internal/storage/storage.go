// Package storage implements the persistence collaborators of the ingestion
// pipeline: the feedback record repository and the screenshot blob store.
package storage

import (
	"context"

	"github.com/feedback-widget/internal/domain"
)

// Repository is the storage sink the orchestrator hands records to.
type Repository interface {
	// Insert persists a new feedback record and returns its assigned id.
	Insert(ctx context.Context, record *domain.FeedbackRecord) (int64, error)

	// GetByID returns a record, or nil when it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.FeedbackRecord, error)

	// List returns records newest-first. An empty status means no filter.
	List(ctx context.Context, limit, offset int, status domain.Status) ([]*domain.FeedbackRecord, error)

	// UpdateStatus moves a record through the triage lifecycle.
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error
}

// BlobStore persists screenshot bytes and returns a public reference.
// Uploads are best-effort: a failure here never aborts ingestion.
type BlobStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
}
