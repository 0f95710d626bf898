package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// ClinicalExtractor derives diagnosis, vitals and lab features from the
// clinical record.
type ClinicalExtractor struct {
	cfg *riskmodel.Config
	src domain.ClinicalSource
	log *logrus.Logger
}

// NewClinicalExtractor creates a clinical feature extractor.
func NewClinicalExtractor(cfg *riskmodel.Config, src domain.ClinicalSource, logger *logrus.Logger) *ClinicalExtractor {
	return &ClinicalExtractor{cfg: cfg, src: src, log: logger}
}

// Extract builds the clinical feature record. Missing data degrades the
// availability flags, never the call itself; store errors propagate.
func (e *ClinicalExtractor) Extract(ctx context.Context, in Input) (domain.ClinicalFeatures, domain.DataAvailability, error) {
	var (
		f  domain.ClinicalFeatures
		av domain.DataAvailability
	)

	vitals, err := e.src.DischargeVitals(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying discharge vitals: %w", err)
	}
	av.Vitals = vitals != nil
	f.VitalsStable = e.cfg.VitalsStable(vitals)

	labs, err := e.src.LatestLabs(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying latest labs: %w", err)
	}
	av.Labs = labs != nil
	f.LabTrendsConcerning = e.cfg.LabsConcerning(labs)

	comorbidities, err := e.src.Comorbidities(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying comorbidities: %w", err)
	}
	av.Comorbidities = comorbidities != nil
	f.ComorbidityCount = len(comorbidities)
	for _, code := range comorbidities {
		if e.cfg.IsCHFCode(code) {
			f.HasCHF = true
		}
		if e.cfg.IsCOPDCode(code) {
			f.HasCOPD = true
		}
	}

	admissions, edVisits, err := e.src.AdmissionCounts(ctx, in.PatientID(), in.TenantID(), in.AsOf.AddDate(0, 0, -90))
	if err != nil {
		return f, av, fmt.Errorf("querying admission counts: %w", err)
	}
	av.AdmissionHistory = true
	f.PriorAdmissions90Days = admissions
	f.EDVisits90Days = edVisits

	if e.cfg.IsCHFCode(in.Context.PrimaryDiagnosis) {
		f.HasCHF = true
	}
	if e.cfg.IsCOPDCode(in.Context.PrimaryDiagnosis) {
		f.HasCOPD = true
	}
	f.PrimaryDiagnosisHighRisk = e.cfg.IsHighRiskDiagnosis(in.Context.PrimaryDiagnosis)
	f.LengthOfStayCategory = e.cfg.CategorizeLengthOfStay(in.Context.LengthOfStayDays)

	e.log.WithFields(logrus.Fields{
		"patient_id":        in.PatientID(),
		"comorbidity_count": f.ComorbidityCount,
		"vitals_stable":     f.VitalsStable,
		"labs_concerning":   f.LabTrendsConcerning,
	}).Debug("Extracted clinical features")

	return f, av, nil
}
