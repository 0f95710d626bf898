package extract

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// SelfReportExtractor derives concern flags from patient-reported
// readings.
type SelfReportExtractor struct {
	cfg *riskmodel.Config
	src domain.SelfReportSource
	log *logrus.Logger
}

// NewSelfReportExtractor creates a self-reported-health feature extractor.
func NewSelfReportExtractor(cfg *riskmodel.Config, src domain.SelfReportSource, logger *logrus.Logger) *SelfReportExtractor {
	return &SelfReportExtractor{cfg: cfg, src: src, log: logger}
}

// Extract builds the self-reported feature record from readings ordered
// oldest first. The weight-change check compares the first and last
// readings with the last reading as the percentage base.
func (e *SelfReportExtractor) Extract(ctx context.Context, in Input) (domain.SelfReportedFeatures, domain.DataAvailability, error) {
	var (
		f  domain.SelfReportedFeatures
		av domain.DataAvailability
	)

	readings, err := e.src.ReadingsSince(ctx, in.PatientID(), in.TenantID(), in.AsOf.AddDate(0, 0, -e.cfg.CheckInWindowDays))
	if err != nil {
		return f, av, fmt.Errorf("querying self-reported readings: %w", err)
	}
	av.SelfReports = len(readings) > 0
	f.ReadingCount = len(readings)

	var weights, pains []float64
	for _, r := range readings {
		switch r.Kind {
		case domain.ReadingBloodPressure:
			if r.Systolic > e.cfg.SelfBPSystolicHigh || (r.Systolic != 0 && r.Systolic < e.cfg.SelfBPSystolicLow) || r.Diastolic > e.cfg.SelfBPDiastolicHigh {
				f.BloodPressureConcern = true
			}
		case domain.ReadingGlucose:
			if r.Value > e.cfg.SelfGlucoseHigh || (r.Value != 0 && r.Value < e.cfg.SelfGlucoseLow) {
				f.GlucoseConcern = true
			}
		case domain.ReadingWeight:
			weights = append(weights, r.Value)
		case domain.ReadingPain:
			pains = append(pains, r.Value)
		case domain.ReadingSymptom:
			f.SymptomReportCount++
		}
	}

	if len(weights) >= e.cfg.MinWeightReadings {
		first, last := weights[0], weights[len(weights)-1]
		if last != 0 && math.Abs(first-last) > last*e.cfg.WeightChangeFraction {
			f.WeightChangeConcern = true
		}
	}

	if len(pains) >= 2 && pains[len(pains)-1] > pains[0] {
		f.PainTrendWorsening = true
	}

	e.log.WithFields(logrus.Fields{
		"patient_id":    in.PatientID(),
		"reading_count": f.ReadingCount,
		"bp_concern":    f.BloodPressureConcern,
	}).Debug("Extracted self-reported features")

	return f, av, nil
}
