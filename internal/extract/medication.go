package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// MedicationExtractor derives medication-burden features from the active
// medication list.
type MedicationExtractor struct {
	cfg      *riskmodel.Config
	src      domain.MedicationSource
	detector domain.MedicationChangeDetector
	log      *logrus.Logger
}

// NewMedicationExtractor creates a medication feature extractor.
func NewMedicationExtractor(cfg *riskmodel.Config, src domain.MedicationSource, detector domain.MedicationChangeDetector, logger *logrus.Logger) *MedicationExtractor {
	return &MedicationExtractor{cfg: cfg, src: src, detector: detector, log: logger}
}

// Extract builds the medication feature record. High-risk classes are
// matched by case-insensitive substring against the config keyword sets.
func (e *MedicationExtractor) Extract(ctx context.Context, in Input) (domain.MedicationFeatures, domain.DataAvailability, error) {
	var (
		f  domain.MedicationFeatures
		av domain.DataAvailability
	)

	meds, err := e.src.ActiveMedications(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying active medications: %w", err)
	}
	av.Medications = meds != nil

	for _, m := range meds {
		if !m.Active {
			continue
		}
		f.ActiveMedicationCount++
		if e.cfg.MatchesAny(m.Name, e.cfg.AnticoagulantKeywords) {
			f.OnAnticoagulants = true
		}
		if e.cfg.MatchesAny(m.Name, e.cfg.InsulinKeywords) {
			f.OnInsulin = true
		}
		if e.cfg.MatchesAny(m.Name, e.cfg.OpioidKeywords) {
			f.OnOpioids = true
		}
		if e.cfg.MatchesAny(m.Name, e.cfg.ImmunosuppressantKeywords) {
			f.OnImmunosuppressants = true
		}
	}

	f.IsPolypharmacy = f.ActiveMedicationCount >= e.cfg.PolypharmacyCount
	for _, on := range []bool{f.OnAnticoagulants, f.OnInsulin, f.OnOpioids, f.OnImmunosuppressants} {
		if on {
			f.HighRiskClassCount++
		}
	}

	changed, err := e.detector.RecentChange(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("detecting medication change: %w", err)
	}
	f.RecentMedicationChange = changed

	e.log.WithFields(logrus.Fields{
		"patient_id":       in.PatientID(),
		"active_meds":      f.ActiveMedicationCount,
		"is_polypharmacy":  f.IsPolypharmacy,
		"high_risk_count":  f.HighRiskClassCount,
	}).Debug("Extracted medication features")

	return f, av, nil
}
