package domain

import (
	"context"
	"time"
)

// Read-only data sources queried by the seven feature extractors. Store
// errors propagate to the aggregator's join; missing data does not.

// ClinicalSource exposes the clinical record for a patient.
type ClinicalSource interface {
	DischargeVitals(ctx context.Context, patientID, tenantID string) (*VitalsReading, error)
	LatestLabs(ctx context.Context, patientID, tenantID string) (*LabPanel, error)
	Comorbidities(ctx context.Context, patientID, tenantID string) ([]string, error)
	AdmissionCounts(ctx context.Context, patientID, tenantID string, since time.Time) (admissions, edVisits int, err error)
}

// MedicationSource exposes the active medication list.
type MedicationSource interface {
	ActiveMedications(ctx context.Context, patientID, tenantID string) ([]Medication, error)
}

// AppointmentSource exposes scheduled post-discharge care. Windows cut
// on the caller's as-of time, not the database clock, so extraction
// stays deterministic under an as-of override.
type AppointmentSource interface {
	UpcomingAppointments(ctx context.Context, patientID, tenantID string, asOf time.Time) ([]Appointment, error)
	ServicesOrdered(ctx context.Context, patientID, tenantID string) (*OrderedServices, error)
}

// SDOHSource exposes the social-determinants survey snapshot.
type SDOHSource interface {
	Indicators(ctx context.Context, patientID, tenantID string) (*SDOHIndicators, error)
}

// AssessmentSource exposes functional-status assessments.
type AssessmentSource interface {
	LatestAssessment(ctx context.Context, patientID, tenantID string) (*FunctionalAssessment, error)
}

// CheckInSource exposes remote check-in history, newest first.
type CheckInSource interface {
	CheckInsSince(ctx context.Context, patientID, tenantID string, since time.Time) ([]CheckIn, error)
}

// SelfReportSource exposes patient-reported readings, oldest first.
type SelfReportSource interface {
	ReadingsSince(ctx context.Context, patientID, tenantID string, since time.Time) ([]SelfReading, error)
}

// RucaResolver maps a ZIP code to its rural-urban commuting area category.
type RucaResolver interface {
	Resolve(ctx context.Context, zipCode string) (RuralCategory, error)
}

// MedicationChangeDetector reports whether the regimen changed recently.
// The production implementation is not yet wired to a data source; see
// extract.UnwiredMedicationChangeDetector.
type MedicationChangeDetector interface {
	RecentChange(ctx context.Context, patientID, tenantID string) (bool, error)
}

// InstructionConfirmationSource reports whether the patient confirmed the
// discharge instructions. Not yet wired to a data source; see
// extract.UnwiredInstructionConfirmation.
type InstructionConfirmationSource interface {
	Confirmed(ctx context.Context, patientID, tenantID string) (bool, error)
}

// Judge is the external predictive model boundary. Implementations must
// honor ctx cancellation; a timeout is fatal for the discharge event.
type Judge interface {
	Assess(ctx context.Context, req *JudgeRequest) (*JudgeResponse, error)
}

// PredictionStore persists the immutable prediction snapshot.
type PredictionStore interface {
	Save(ctx context.Context, record *PredictionRecord) error
	Get(ctx context.Context, id string) (*PredictionRecord, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*PredictionRecord, error)
}

// TenantSettingsSource resolves per-tenant prediction configuration.
type TenantSettingsSource interface {
	Settings(ctx context.Context, tenantID string) (TenantSettings, error)
}

// Downstream fire-and-forget collaborators. Their failure must never fail
// or roll back a Prediction already produced.

// CarePlanCreator creates a care plan for a high-risk discharge.
type CarePlanCreator interface {
	CreateFromPrediction(ctx context.Context, p *Prediction) error
}

// AlertNotifier delivers critical-risk alerts to care teams.
type AlertNotifier interface {
	NotifyCriticalRisk(ctx context.Context, p *Prediction) error
}

// AccuracyRecorder enrolls a prediction in the offline accuracy loop.
type AccuracyRecorder interface {
	Enroll(ctx context.Context, p *Prediction) error
}
