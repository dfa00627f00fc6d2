// Package store keeps a sqlite journal of classified completion failures.
// Only the category, status code and the already-classified user-facing text
// are stored; prompts and conversation content never reach the database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"StudyChat/internal/classify"
)

// Failure is one journal entry
type Failure struct {
	ID         int64
	SessionID  string
	Category   classify.Category
	StatusCode int
	Message    string
	OccurredAt time.Time
}

// FailureStore is a sqlite-backed failure journal
type FailureStore struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path
func Open(path string) (*FailureStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createFailuresTable := `
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		category TEXT,
		status_code INTEGER,
		message TEXT,
		occurred_at DATETIME
	);`

	if _, err := db.Exec(createFailuresTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create failures table: %w", err)
	}

	return &FailureStore{db: db}, nil
}

// Record appends a failure to the journal
func (s *FailureStore) Record(ctx context.Context, f Failure) error {
	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO failures (session_id, category, status_code, message, occurred_at) VALUES (?, ?, ?, ?, ?)",
		f.SessionID, string(f.Category), f.StatusCode, f.Message, f.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *FailureStore) Recent(ctx context.Context, limit int) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, category, status_code, message, occurred_at FROM failures ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		var category string
		if err := rows.Scan(&f.ID, &f.SessionID, &category, &f.StatusCode, &f.Message, &f.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		f.Category = classify.Category(category)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate failures: %w", err)
	}
	return failures, nil
}

// Close closes the database
func (s *FailureStore) Close() error {
	return s.db.Close()
}
