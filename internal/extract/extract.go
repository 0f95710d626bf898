// Package extract builds the per-domain feature records that feed the
// readmission risk pipeline. The seven extractors are independent,
// read-only and side-effect-free with respect to each other; the
// aggregator fans them out in parallel and joins on completion.
package extract

import (
	"time"

	"github.com/readmit-risk-server/internal/domain"
)

// Input carries the discharge context plus the as-of timestamp. The asOf
// override keeps extraction deterministic under test; production callers
// pass time.Now().
type Input struct {
	Context *domain.DischargeContext
	AsOf    time.Time
}

// PatientID is a convenience accessor.
func (in Input) PatientID() string { return in.Context.PatientID }

// TenantID is a convenience accessor.
func (in Input) TenantID() string { return in.Context.TenantID }
