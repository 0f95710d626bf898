package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
)

// PredictionRepository persists the immutable prediction snapshot. The
// prediction and its feature vector are stored as jsonb documents next
// to the hot query columns; rows are written once and never updated.
type PredictionRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPredictionRepository creates a prediction repository.
func NewPredictionRepository(db *pgxpool.Pool, logger *logrus.Logger) *PredictionRepository {
	return &PredictionRepository{db: db, log: logger}
}

// Save writes one prediction record.
func (r *PredictionRepository) Save(ctx context.Context, record *domain.PredictionRecord) error {
	predJSON, err := json.Marshal(record.Prediction)
	if err != nil {
		return fmt.Errorf("marshaling prediction: %w", err)
	}
	featJSON, err := json.Marshal(record.Features)
	if err != nil {
		return fmt.Errorf("marshaling feature snapshot: %w", err)
	}

	p := record.Prediction
	_, err = r.db.Exec(ctx, `
		INSERT INTO predictions (
			id, patient_id, tenant_id, risk_30_day, risk_category,
			confidence, model_used, prediction, features, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.PatientID, p.TenantID, p.Risk30Day, p.RiskCategory,
		p.Confidence, p.ModelUsed, predJSON, featJSON, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting prediction: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"prediction_id": p.ID,
		"patient_id":    p.PatientID,
	}).Debug("Prediction persisted")
	return nil
}

// Get loads one prediction record by ID.
func (r *PredictionRepository) Get(ctx context.Context, id string) (*domain.PredictionRecord, error) {
	var predJSON, featJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT prediction, features FROM predictions WHERE id = $1`, id,
	).Scan(&predJSON, &featJSON)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying prediction %s: %w", id, err)
	}
	return decodeRecord(predJSON, featJSON)
}

// ListByPatient returns the most recent prediction records for a
// patient, newest first.
func (r *PredictionRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]*domain.PredictionRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT prediction, features
		FROM predictions
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		patientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying predictions for patient: %w", err)
	}
	defer rows.Close()

	var records []*domain.PredictionRecord
	for rows.Next() {
		var predJSON, featJSON []byte
		if err := rows.Scan(&predJSON, &featJSON); err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		record, err := decodeRecord(predJSON, featJSON)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func decodeRecord(predJSON, featJSON []byte) (*domain.PredictionRecord, error) {
	var record domain.PredictionRecord
	if err := json.Unmarshal(predJSON, &record.Prediction); err != nil {
		return nil, fmt.Errorf("decoding stored prediction: %w", err)
	}
	if err := json.Unmarshal(featJSON, &record.Features); err != nil {
		return nil, fmt.Errorf("decoding stored feature snapshot: %w", err)
	}
	return &record, nil
}
