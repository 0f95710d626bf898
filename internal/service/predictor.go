package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/extract"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// sideEffectTimeout bounds each fire-and-forget downstream call.
const sideEffectTimeout = 10 * time.Second

// Predictor runs the full readmission risk pipeline for one discharge
// event: validate, gate on tenant settings, extract features, consult
// the predictive judge, parse and calibrate, explain, assemble and
// persist. Downstream side effects are fire-and-forget; their failure
// never fails a prediction already produced.
type Predictor struct {
	cfg        *riskmodel.Config
	log        *logrus.Logger
	aggregator *extract.Aggregator
	prompts    *PromptBuilder
	parser     *ResponseParser
	explainer  *Explainer
	judge      domain.Judge
	store      domain.PredictionStore
	tenants    domain.TenantSettingsSource

	carePlans domain.CarePlanCreator
	alerts    domain.AlertNotifier
	accuracy  domain.AccuracyRecorder
}

// NewPredictor creates the prediction pipeline service. The care-plan,
// alert and accuracy collaborators may be nil; the corresponding side
// effect is then skipped.
func NewPredictor(
	cfg *riskmodel.Config,
	logger *logrus.Logger,
	aggregator *extract.Aggregator,
	judge domain.Judge,
	store domain.PredictionStore,
	tenants domain.TenantSettingsSource,
	carePlans domain.CarePlanCreator,
	alerts domain.AlertNotifier,
	accuracy domain.AccuracyRecorder,
) *Predictor {
	return &Predictor{
		cfg:        cfg,
		log:        logger,
		aggregator: aggregator,
		prompts:    NewPromptBuilder(cfg),
		parser:     NewResponseParser(),
		explainer:  NewExplainer(cfg),
		judge:      judge,
		store:      store,
		tenants:    tenants,
		carePlans:  carePlans,
		alerts:     alerts,
		accuracy:   accuracy,
	}
}

// Predict produces one immutable Prediction for the discharge context.
func (s *Predictor) Predict(ctx context.Context, dc *domain.DischargeContext) (*domain.Prediction, error) {
	start := time.Now()

	if err := dc.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.tenants.Settings(ctx, dc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant settings: %w", err)
	}
	if !settings.Enabled {
		s.log.WithField("tenant_id", dc.TenantID).Info("Prediction skipped, tenant disabled")
		return nil, domain.ErrTenantDisabled
	}

	fv, err := s.aggregator.Aggregate(ctx, extract.Input{Context: dc, AsOf: time.Now().UTC()})
	if err != nil {
		return nil, err
	}

	model := settings.JudgeModel
	if model == "" {
		model = domain.DefaultJudgeModel
	}
	req := &domain.JudgeRequest{
		Brief:          s.prompts.Build(dc, fv),
		SystemPrompt:   SystemPrompt,
		Model:          model,
		ComplexityHint: complexityHint(fv),
	}

	resp, err := s.judge.Assess(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("consulting predictive judge: %w", err)
	}

	assessment, err := s.parser.Parse(resp.Text)
	if err != nil {
		return nil, err
	}

	expl := s.explainer.Explain(fv, assessment.RiskCategory)

	prediction := s.assemble(dc, fv, assessment, expl, resp)

	record := &domain.PredictionRecord{Prediction: *prediction, Features: *fv}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting prediction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"prediction_id": prediction.ID,
		"patient_id":    prediction.PatientID,
		"tenant_id":     prediction.TenantID,
		"risk_30_day":   prediction.Risk30Day,
		"risk_category": prediction.RiskCategory,
		"confidence":    prediction.Confidence,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Prediction completed")

	s.dispatchSideEffects(prediction, settings)

	return prediction, nil
}

// assemble combines the parsed judge output, calibrated confidence and
// the explainability output into the final Prediction entity. The
// factor lists and interventions come from the explainer's independent
// derivation, not from the judge's own lists.
func (s *Predictor) assemble(
	dc *domain.DischargeContext,
	fv *domain.FeatureVector,
	a *domain.JudgeAssessment,
	expl *Explanation,
	resp *domain.JudgeResponse,
) *domain.Prediction {
	return &domain.Prediction{
		ID:                       uuid.New().String(),
		PatientID:                dc.PatientID,
		TenantID:                 dc.TenantID,
		Risk7Day:                 a.Risk7Day,
		Risk30Day:                a.Risk30Day,
		Risk90Day:                a.Risk90Day,
		RiskCategory:             a.RiskCategory,
		RiskFactors:              expl.RiskFactors,
		ProtectiveFactors:        expl.ProtectiveFactors,
		Interventions:            expl.Interventions,
		PredictedReadmissionDate: a.PredictedReadmissionDate,
		Confidence:               CalibrateConfidence(a.Confidence, fv.CompletenessScore),
		Explanation:              expl.Narrative,
		SourcesAvailable:         fv.SourcesAvailable,
		ModelUsed:                resp.ModelUsed,
		CostUSD:                  resp.CostUSD,
		CreatedAt:                time.Now().UTC(),
	}
}

// dispatchSideEffects fires the downstream collaborators on detached
// contexts. Each runs in its own goroutine with a bounded timeout and
// logs failures instead of propagating them.
func (s *Predictor) dispatchSideEffects(p *domain.Prediction, settings domain.TenantSettings) {
	elevated := p.RiskCategory == domain.RiskHigh || p.RiskCategory == domain.RiskCritical

	if s.carePlans != nil && settings.AutoCarePlan && elevated && p.Risk30Day >= settings.HighRiskThreshold {
		go s.runSideEffect("care_plan", p, s.carePlans.CreateFromPrediction)
	}
	if s.alerts != nil && p.RiskCategory == domain.RiskCritical {
		go s.runSideEffect("critical_alert", p, s.alerts.NotifyCriticalRisk)
	}
	if s.accuracy != nil {
		go s.runSideEffect("accuracy_enroll", p, s.accuracy.Enroll)
	}
}

func (s *Predictor) runSideEffect(name string, p *domain.Prediction, fn func(context.Context, *domain.Prediction) error) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := fn(ctx, p); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"side_effect":   name,
			"prediction_id": p.ID,
		}).Warn("Side effect failed")
	}
}

// complexityHint lets the judge transport route unusually data-rich or
// data-poor cases to a different model tier.
func complexityHint(fv *domain.FeatureVector) string {
	switch {
	case fv.CompletenessScore < 50:
		return "sparse"
	case len(fv.SourcesAvailable) >= 9:
		return "rich"
	default:
		return ""
	}
}
