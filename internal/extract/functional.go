package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// FunctionalExtractor derives mobility, ADL and fall-risk features from
// the latest functional assessment.
type FunctionalExtractor struct {
	cfg *riskmodel.Config
	src domain.AssessmentSource
	log *logrus.Logger
}

// NewFunctionalExtractor creates a functional-status feature extractor.
func NewFunctionalExtractor(cfg *riskmodel.Config, src domain.AssessmentSource, logger *logrus.Logger) *FunctionalExtractor {
	return &FunctionalExtractor{cfg: cfg, src: src, log: logger}
}

// Extract builds the functional feature record.
func (e *FunctionalExtractor) Extract(ctx context.Context, in Input) (domain.FunctionalFeatures, domain.DataAvailability, error) {
	var (
		f  domain.FunctionalFeatures
		av domain.DataAvailability
	)
	f.CognitiveSeverity = domain.CognitiveNone

	a, err := e.src.LatestAssessment(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying functional assessment: %w", err)
	}
	if a == nil {
		return f, av, nil
	}
	av.Assessment = true

	f.ADLDependencyCount = a.ADLDependencies
	f.MobilityImpaired = a.MobilityRiskScore > e.cfg.MobilityImpairedAbove
	f.UsesWalkingAid = e.cfg.MatchesAny(a.MobilityNotes, e.cfg.WalkingAidKeywords)
	f.FallsLast90Days = a.FallsLast90Days
	f.FallRiskScore = e.cfg.FallRiskScore(a.FallsLast90Days, a.MobilityRiskScore, a.CognitiveRiskScore, a.MobilityNotes)
	f.CognitiveSeverity = e.cfg.CategorizeCognitive(a.CognitiveRiskScore)

	e.log.WithFields(logrus.Fields{
		"patient_id":      in.PatientID(),
		"fall_risk_score": f.FallRiskScore,
		"cognitive":       f.CognitiveSeverity,
	}).Debug("Extracted functional features")

	return f, av, nil
}
