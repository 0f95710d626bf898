package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/readmit-risk-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL outcome feedback store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL outcome feedback store
// from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores or updates outcome feedback for a prediction.
func (s *PostgresStore) Save(ctx context.Context, fb *domain.OutcomeFeedback) error {
	now := time.Now()

	query := `
		INSERT INTO outcome_feedback (
			prediction_id, patient_id, readmitted, readmitted_at,
			days_to_event, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (prediction_id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			readmitted = EXCLUDED.readmitted,
			readmitted_at = EXCLUDED.readmitted_at,
			days_to_event = EXCLUDED.days_to_event,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		fb.PredictionID,
		fb.PatientID,
		fb.Readmitted,
		fb.ReadmittedAt,
		fb.DaysToEvent,
		fb.Notes,
		now,
		now,
	).Scan(&fb.ID, &fb.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	fb.UpdatedAt = now
	return nil
}

// Get retrieves the feedback recorded for a prediction.
func (s *PostgresStore) Get(ctx context.Context, predictionID string) (*domain.OutcomeFeedback, error) {
	query := `
		SELECT id, prediction_id, patient_id, readmitted,
			readmitted_at, days_to_event, notes, created_at, updated_at
		FROM outcome_feedback
		WHERE prediction_id = $1
		LIMIT 1
	`

	fb := &domain.OutcomeFeedback{}
	var readmittedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, predictionID).Scan(
		&fb.ID, &fb.PredictionID, &fb.PatientID, &fb.Readmitted,
		&readmittedAt, &fb.DaysToEvent, &fb.Notes,
		&fb.CreatedAt, &fb.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	if readmittedAt.Valid {
		fb.ReadmittedAt = &readmittedAt.Time
	}
	return fb, nil
}

// List returns feedback entries with pagination, newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.OutcomeFeedback, error) {
	query := `
		SELECT id, prediction_id, patient_id, readmitted,
			readmitted_at, days_to_event, notes, created_at, updated_at
		FROM outcome_feedback
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var result []*domain.OutcomeFeedback
	for rows.Next() {
		fb := &domain.OutcomeFeedback{}
		var readmittedAt sql.NullTime

		err := rows.Scan(
			&fb.ID, &fb.PredictionID, &fb.PatientID, &fb.Readmitted,
			&readmittedAt, &fb.DaysToEvent, &fb.Notes,
			&fb.CreatedAt, &fb.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if readmittedAt.Valid {
			fb.ReadmittedAt = &readmittedAt.Time
		}
		result = append(result, fb)
	}

	return result, rows.Err()
}

// Count returns the total number of feedback entries.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM outcome_feedback").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

// Delete removes a feedback entry by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM outcome_feedback WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return nil
}

// pgMaxExportLimit is the maximum number of entries to export at once.
const pgMaxExportLimit = 1000000

// ExportJSON exports all feedback to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, pgMaxExportLimit, 0)
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
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
