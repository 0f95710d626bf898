// Package repository implements the data-source and persistence
// interfaces against Postgres. All reads are tenant-scoped; a patient
// with no rows yields nil or empty slices, never an error.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
)

// PatientDataRepository serves the seven extractor source interfaces
// from the clinical warehouse schema.
type PatientDataRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPatientDataRepository creates a patient data repository.
func NewPatientDataRepository(db *pgxpool.Pool, logger *logrus.Logger) *PatientDataRepository {
	return &PatientDataRepository{db: db, log: logger}
}

// DischargeVitals returns the most recent vitals reading taken at or
// before discharge, or nil when none exists.
func (r *PatientDataRepository) DischargeVitals(ctx context.Context, patientID, tenantID string) (*domain.VitalsReading, error) {
	var v domain.VitalsReading
	err := r.db.QueryRow(ctx, `
		SELECT systolic, diastolic, heart_rate, oxygen_saturation, recorded_at
		FROM vitals_readings
		WHERE patient_id = $1 AND tenant_id = $2
		ORDER BY recorded_at DESC
		LIMIT 1`,
		patientID, tenantID,
	).Scan(&v.Systolic, &v.Diastolic, &v.HeartRate, &v.OxygenSaturation, &v.RecordedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying discharge vitals: %w", err)
	}
	return &v, nil
}

// LatestLabs returns the most recent lab panel, or nil when none exists.
// Individual analytes are nullable; absence of a value is not absence of
// the panel.
func (r *PatientDataRepository) LatestLabs(ctx context.Context, patientID, tenantID string) (*domain.LabPanel, error) {
	var p domain.LabPanel
	err := r.db.QueryRow(ctx, `
		SELECT egfr, hemoglobin, sodium, glucose, resulted_at
		FROM lab_panels
		WHERE patient_id = $1 AND tenant_id = $2
		ORDER BY resulted_at DESC
		LIMIT 1`,
		patientID, tenantID,
	).Scan(&p.EGFR, &p.Hemoglobin, &p.Sodium, &p.Glucose, &p.ResultedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest labs: %w", err)
	}
	return &p, nil
}

// Comorbidities returns the active problem-list ICD-10 codes. A patient
// with an empty problem list returns an empty non-nil slice; nil means
// the problem list itself was never sourced.
func (r *PatientDataRepository) Comorbidities(ctx context.Context, patientID, tenantID string) ([]string, error) {
	var sourced bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM problem_list_sources
			WHERE patient_id = $1 AND tenant_id = $2
		)`,
		patientID, tenantID,
	).Scan(&sourced)
	if err != nil {
		return nil, fmt.Errorf("checking problem list source: %w", err)
	}
	if !sourced {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT icd10_code
		FROM problem_list
		WHERE patient_id = $1 AND tenant_id = $2 AND active`,
		patientID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying comorbidities: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning comorbidity row: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// AdmissionCounts returns inpatient admission and ED visit counts over
// the trailing window. The window cuts on the caller's since timestamp,
// not the database clock.
func (r *PatientDataRepository) AdmissionCounts(ctx context.Context, patientID, tenantID string, since time.Time) (int, int, error) {
	var admissions, edVisits int
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE encounter_type = 'inpatient'),
			COUNT(*) FILTER (WHERE encounter_type = 'emergency')
		FROM encounters
		WHERE patient_id = $1 AND tenant_id = $2
		  AND admitted_at >= $3`,
		patientID, tenantID, since,
	).Scan(&admissions, &edVisits)
	if err != nil {
		return 0, 0, fmt.Errorf("querying admission counts: %w", err)
	}
	return admissions, edVisits, nil
}

// ActiveMedications returns the current active medication list.
func (r *PatientDataRepository) ActiveMedications(ctx context.Context, patientID, tenantID string) ([]domain.Medication, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, dosage, started_at
		FROM medications
		WHERE patient_id = $1 AND tenant_id = $2 AND active`,
		patientID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying active medications: %w", err)
	}
	defer rows.Close()

	var meds []domain.Medication
	for rows.Next() {
		var m domain.Medication
		if err := rows.Scan(&m.Name, &m.Dosage, &m.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning medication row: %w", err)
		}
		m.Active = true
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

// UpcomingAppointments returns appointments at or after asOf ordered
// soonest first, including cancelled ones; the extractor filters status
// itself.
func (r *PatientDataRepository) UpcomingAppointments(ctx context.Context, patientID, tenantID string, asOf time.Time) ([]domain.Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT scheduled_at, kind, status
		FROM appointments
		WHERE patient_id = $1 AND tenant_id = $2 AND scheduled_at >= $3
		ORDER BY scheduled_at ASC`,
		patientID, tenantID, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("querying upcoming appointments: %w", err)
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(&a.ScheduledAt, &a.Kind, &a.Status); err != nil {
			return nil, fmt.Errorf("scanning appointment row: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// ServicesOrdered returns the discharge service orders, or nil when no
// order record exists for the discharge.
func (r *PatientDataRepository) ServicesOrdered(ctx context.Context, patientID, tenantID string) (*domain.OrderedServices, error) {
	var s domain.OrderedServices
	err := r.db.QueryRow(ctx, `
		SELECT home_health, dme
		FROM discharge_orders
		WHERE patient_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		patientID, tenantID,
	).Scan(&s.HomeHealth, &s.DME)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying discharge orders: %w", err)
	}
	return &s, nil
}

// Indicators returns the latest SDOH survey snapshot, or nil when the
// patient was never surveyed.
func (r *PatientDataRepository) Indicators(ctx context.Context, patientID, tenantID string) (*domain.SDOHIndicators, error) {
	var ind domain.SDOHIndicators
	err := r.db.QueryRow(ctx, `
		SELECT lives_alone, has_caregiver, transportation_barrier, food_insecurity,
		       housing_instability, zip_code, hospital_distance_miles, pcp_distance_miles,
		       insurance_type, health_literacy_score, days_alone_mentions, family_contact_mentions
		FROM sdoh_surveys
		WHERE patient_id = $1 AND tenant_id = $2
		ORDER BY surveyed_at DESC
		LIMIT 1`,
		patientID, tenantID,
	).Scan(
		&ind.LivesAlone, &ind.HasCaregiver, &ind.TransportationBarrier, &ind.FoodInsecurity,
		&ind.HousingInstability, &ind.ZipCode, &ind.HospitalDistanceMiles, &ind.PCPDistanceMiles,
		&ind.InsuranceType, &ind.HealthLiteracyScore, &ind.DaysAloneMentions, &ind.FamilyContactMentions,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sdoh indicators: %w", err)
	}
	return &ind, nil
}

// LatestAssessment returns the most recent functional assessment, or nil
// when the patient was never assessed.
func (r *PatientDataRepository) LatestAssessment(ctx context.Context, patientID, tenantID string) (*domain.FunctionalAssessment, error) {
	var a domain.FunctionalAssessment
	err := r.db.QueryRow(ctx, `
		SELECT adl_dependencies, mobility_risk_score, cognitive_risk_score,
		       mobility_notes, falls_last_90_days, assessed_at
		FROM functional_assessments
		WHERE patient_id = $1 AND tenant_id = $2
		ORDER BY assessed_at DESC
		LIMIT 1`,
		patientID, tenantID,
	).Scan(&a.ADLDependencies, &a.MobilityRiskScore, &a.CognitiveRiskScore,
		&a.MobilityNotes, &a.FallsLast90Days, &a.AssessedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying functional assessment: %w", err)
	}
	return &a, nil
}

// CheckInsSince returns check-ins recorded at or after since, newest
// first. The consecutive-missed walk depends on this ordering.
func (r *PatientDataRepository) CheckInsSince(ctx context.Context, patientID, tenantID string, since time.Time) ([]domain.CheckIn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, mood_text, recorded_at
		FROM check_ins
		WHERE patient_id = $1 AND tenant_id = $2
		  AND recorded_at >= $3
		ORDER BY recorded_at DESC`,
		patientID, tenantID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("querying check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []domain.CheckIn
	for rows.Next() {
		var c domain.CheckIn
		if err := rows.Scan(&c.Status, &c.MoodText, &c.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning check-in row: %w", err)
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}

// ReadingsSince returns self-reported readings recorded at or after
// since, oldest first. The weight-change comparison depends on this
// ordering.
func (r *PatientDataRepository) ReadingsSince(ctx context.Context, patientID, tenantID string, since time.Time) ([]domain.SelfReading, error) {
	rows, err := r.db.Query(ctx, `
		SELECT kind, value, systolic, diastolic, recorded_at
		FROM self_readings
		WHERE patient_id = $1 AND tenant_id = $2
		  AND recorded_at >= $3
		ORDER BY recorded_at ASC`,
		patientID, tenantID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("querying self-reported readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.SelfReading
	for rows.Next() {
		var sr domain.SelfReading
		if err := rows.Scan(&sr.Kind, &sr.Value, &sr.Systolic, &sr.Diastolic, &sr.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning self-reading row: %w", err)
		}
		readings = append(readings, sr)
	}
	return readings, rows.Err()
}
