package extract

import (
	"context"
)

// UnwiredMedicationChangeDetector is the placeholder medication-change
// collaborator. Regimen-change detection is not yet wired to a data
// source, so it always reports no recent change. Keep this seam explicit
// rather than burying a fixed value inside the extractor.
type UnwiredMedicationChangeDetector struct{}

// RecentChange always returns false until a pharmacy feed is wired in.
func (UnwiredMedicationChangeDetector) RecentChange(ctx context.Context, patientID, tenantID string) (bool, error) {
	return false, nil
}

// UnwiredInstructionConfirmation is the placeholder discharge-instruction
// collaborator. Confirmation tracking is not yet wired to a data source,
// so it always reports unconfirmed.
type UnwiredInstructionConfirmation struct{}

// Confirmed always returns false until an education-platform feed is
// wired in.
func (UnwiredInstructionConfirmation) Confirmed(ctx context.Context, patientID, tenantID string) (bool, error) {
	return false, nil
}
