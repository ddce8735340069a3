package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feedback-widget/internal/domain"
	// Pure Go sqlite driver, no CGO required.
	_ "modernc.org/sqlite"
)

// SQLiteRepository persists feedback records in a sqlite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database, enables WAL mode, and ensures the
// schema exists.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode allows simultaneous readers and writers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT,
		user_agent TEXT,
		project TEXT,
		message TEXT NOT NULL,
		screenshot_url TEXT,
		ai_data TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_status ON feedback(status);
	CREATE INDEX IF NOT EXISTS idx_feedback_project ON feedback(project);
	CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
	`
	_, err := r.db.Exec(query)
	return err
}

// Insert persists a new feedback record and returns its assigned id.
// Timestamps are set server-side; client timestamps are never trusted.
func (r *SQLiteRepository) Insert(ctx context.Context, record *domain.FeedbackRecord) (int64, error) {
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	if record.Status == "" {
		record.Status = domain.StatusNew
	}

	var aiData sql.NullString
	if record.Classification != nil {
		encoded, err := json.Marshal(record.Classification)
		if err != nil {
			return 0, fmt.Errorf("failed to encode classification: %w", err)
		}
		aiData = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `
	INSERT INTO feedback (
		url, user_agent, project, message, screenshot_url, ai_data,
		status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		record.OriginURL, record.UserAgent, record.Project, record.Message,
		record.ScreenshotRef, aiData,
		record.Status, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID: %w", err)
	}

	record.ID = id
	return id, nil
}

const selectColumns = `
	id, url, user_agent, project, message, screenshot_url, ai_data,
	status, created_at, updated_at`

// GetByID retrieves a single feedback record. Returns nil when not found.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*domain.FeedbackRecord, error) {
	query := "SELECT" + selectColumns + " FROM feedback WHERE id = ?"

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return record, nil
}

// List returns a paginated list of feedback, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit, offset int, status domain.Status) ([]*domain.FeedbackRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT" + selectColumns + " FROM feedback"
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var records []*domain.FeedbackRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// UpdateStatus moves a record through the triage lifecycle.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE feedback SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Close closes the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.FeedbackRecord, error) {
	record := &domain.FeedbackRecord{}
	var aiData sql.NullString

	err := s.Scan(
		&record.ID, &record.OriginURL, &record.UserAgent, &record.Project,
		&record.Message, &record.ScreenshotRef, &aiData,
		&record.Status, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if aiData.Valid && aiData.String != "" {
		var classification domain.ClassificationResult
		if err := json.Unmarshal([]byte(aiData.String), &classification); err != nil {
			return nil, fmt.Errorf("failed to decode classification: %w", err)
		}
		record.Classification = &classification
	}

	return record, nil
}
