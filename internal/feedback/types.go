// Package feedback provides outcome feedback storage for readmission
// predictions. It records whether a predicted readmission actually
// happened, closing the offline accuracy-tracking loop.
package feedback

import (
	"context"
	"io"
	"time"

	"github.com/readmit-risk-server/internal/domain"
)

// Store defines the interface for outcome feedback storage operations.
type Store interface {
	// Save stores or updates outcome feedback for a prediction.
	// If feedback for the same prediction exists, it will be updated.
	Save(ctx context.Context, fb *domain.OutcomeFeedback) error

	// Get retrieves the feedback recorded for a prediction, or nil when
	// none exists.
	Get(ctx context.Context, predictionID string) (*domain.OutcomeFeedback, error)

	// List returns feedback entries with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.OutcomeFeedback, error)

	// Count returns the total number of feedback entries.
	Count(ctx context.Context) (int64, error)

	// Delete removes a feedback entry by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all feedback to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports feedback from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string                    `json:"version"`
	ExportedAt time.Time                 `json:"exported_at"`
	Count      int                       `json:"count"`
	Feedback   []*domain.OutcomeFeedback `json:"feedback"`
}
