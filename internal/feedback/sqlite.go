package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/readmit-risk-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite. It serves
// single-node deployments and local development where no Postgres is
// available.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite outcome feedback store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFeedback scans a row into an OutcomeFeedback struct.
func scanFeedback(s scanner) (*domain.OutcomeFeedback, error) {
	fb := &domain.OutcomeFeedback{}
	var readmittedAt sql.NullTime

	err := s.Scan(
		&fb.ID, &fb.PredictionID, &fb.PatientID, &fb.Readmitted,
		&readmittedAt, &fb.DaysToEvent, &fb.Notes,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if readmittedAt.Valid {
		fb.ReadmittedAt = &readmittedAt.Time
	}
	return fb, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcome_feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prediction_id TEXT NOT NULL UNIQUE,
		patient_id TEXT NOT NULL,
		readmitted INTEGER NOT NULL DEFAULT 0,
		readmitted_at DATETIME,
		days_to_event INTEGER NOT NULL DEFAULT 0,
		notes TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_outcome_patient_id ON outcome_feedback(patient_id);
	CREATE INDEX IF NOT EXISTS idx_outcome_created_at ON outcome_feedback(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores or updates outcome feedback for a prediction.
func (s *SQLiteStore) Save(ctx context.Context, fb *domain.OutcomeFeedback) error {
	now := time.Now()

	var existingID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM outcome_feedback WHERE prediction_id = ?",
		fb.PredictionID,
	).Scan(&existingID)

	if err == nil {
		// Update existing
		fb.ID = existingID
		fb.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			UPDATE outcome_feedback SET
				patient_id = ?,
				readmitted = ?,
				readmitted_at = ?,
				days_to_event = ?,
				notes = ?,
				updated_at = ?
			WHERE id = ?
		`,
			fb.PatientID,
			fb.Readmitted,
			fb.ReadmittedAt,
			fb.DaysToEvent,
			fb.Notes,
			now,
			existingID,
		)
		return err
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	// Insert new
	fb.CreatedAt = now
	fb.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO outcome_feedback (
			prediction_id, patient_id, readmitted, readmitted_at,
			days_to_event, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		fb.PredictionID,
		fb.PatientID,
		fb.Readmitted,
		fb.ReadmittedAt,
		fb.DaysToEvent,
		fb.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	fb.ID = id

	return nil
}

// Get retrieves the feedback recorded for a prediction.
func (s *SQLiteStore) Get(ctx context.Context, predictionID string) (*domain.OutcomeFeedback, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, prediction_id, patient_id, readmitted,
			readmitted_at, days_to_event, notes, created_at, updated_at
		FROM outcome_feedback
		WHERE prediction_id = ?
		LIMIT 1
	`, predictionID)

	fb, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return fb, nil
}

// List returns feedback entries with pagination, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.OutcomeFeedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prediction_id, patient_id, readmitted,
			readmitted_at, days_to_event, notes, created_at, updated_at
		FROM outcome_feedback
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.OutcomeFeedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}

// Count returns the total number of feedback entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM outcome_feedback").Scan(&count)
	return count, err
}

// Delete removes a feedback entry by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM outcome_feedback WHERE id = ?", id)
	return err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all feedback to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Feedback:   all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports feedback from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, fb := range export.Feedback {
		existing, err := s.Get(ctx, fb.PredictionID)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing != nil {
			skipped++
			continue
		}

		if err := s.Save(ctx, fb); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
