package service

import (
	"fmt"
	"strings"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// PromptBuilder serializes a feature vector into the structured evidence
// brief sent to the predictive judge. Every feature is rendered with its
// configured evidence weight: the judge is a probabilistic reasoner, not
// a rule evaluator, and anchoring it on the same feature importances the
// rule engine uses keeps the two signals consistent without hard-coding
// the final score.
type PromptBuilder struct {
	cfg *riskmodel.Config
}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder(cfg *riskmodel.Config) *PromptBuilder {
	return &PromptBuilder{cfg: cfg}
}

// SystemPrompt is the fixed instruction set sent with every brief.
const SystemPrompt = `You are a clinical readmission risk assessor. Review the weighted evidence brief and respond with a single JSON object containing: risk_7_day, risk_30_day, risk_90_day (numbers 0-1), risk_category (low|moderate|high|critical), risk_factors (array of {name, category, weight, explanation}), interventions (array of {description, priority, estimated_impact, timeframe, responsible_role}), confidence (number 0-1). Optionally include protective_factors and predicted_readmission_date. Weigh each finding by the evidence weight shown.`

// Build renders the evidence brief, grouped by domain, with explicit
// callouts for high-impact findings.
func (b *PromptBuilder) Build(dc *domain.DischargeContext, fv *domain.FeatureVector) string {
	w := b.cfg.Weights
	var sb strings.Builder

	fmt.Fprintf(&sb, "READMISSION RISK EVIDENCE BRIEF (model config %s)\n", b.cfg.Version)
	fmt.Fprintf(&sb, "Discharge: disposition=%s, facility=%s, length_of_stay_days=%d\n",
		dc.Disposition, dc.FacilityName, dc.LengthOfStayDays)
	fmt.Fprintf(&sb, "Data completeness: %d%% (missing: %s)\n\n",
		fv.CompletenessScore, joinOrNone(fv.MissingFields))

	sb.WriteString("## Clinical\n")
	c := fv.Clinical
	writeFeature(&sb, "primary diagnosis high risk", c.PrimaryDiagnosisHighRisk, w.HighRiskDiagnosis)
	fmt.Fprintf(&sb, "- comorbidity count: %d (weight %.2f when >= %d)\n", c.ComorbidityCount, w.ComorbidityBurden, b.cfg.ComorbidityConcernAt)
	writeFeature(&sb, "congestive heart failure", c.HasCHF, w.HighRiskDiagnosis)
	writeFeature(&sb, "COPD", c.HasCOPD, w.HighRiskDiagnosis)
	fmt.Fprintf(&sb, "- length of stay category: %s\n", c.LengthOfStayCategory)
	writeFeature(&sb, "vitals unstable at discharge", !c.VitalsStable, w.UnstableVitals)
	writeFeature(&sb, "concerning lab trends", c.LabTrendsConcerning, w.ConcerningLabs)
	fmt.Fprintf(&sb, "- prior admissions last 90 days: %d (weight %.2f each occurrence)\n", c.PriorAdmissions90Days, w.PriorAdmissions)
	fmt.Fprintf(&sb, "- ED visits last 90 days: %d (weight %.2f)\n", c.EDVisits90Days, w.EDVisits)

	sb.WriteString("\n## Medication\n")
	m := fv.Medication
	fmt.Fprintf(&sb, "- active medications: %d\n", m.ActiveMedicationCount)
	writeFeature(&sb, "polypharmacy (5+ active)", m.IsPolypharmacy, w.Polypharmacy)
	writeFeature(&sb, "on anticoagulants", m.OnAnticoagulants, w.Anticoagulants)
	writeFeature(&sb, "on insulin", m.OnInsulin, w.Insulin)
	writeFeature(&sb, "on opioids", m.OnOpioids, w.Opioids)
	writeFeature(&sb, "on immunosuppressants", m.OnImmunosuppressants, w.Immunosuppressants)
	writeFeature(&sb, "recent medication change", m.RecentMedicationChange, w.Polypharmacy)

	sb.WriteString("\n## Post-discharge\n")
	p := fv.PostDischarge
	writeFeature(&sb, "no follow-up scheduled", !p.FollowUpScheduled, w.NoFollowUp)
	if p.FollowUpScheduled {
		fmt.Fprintf(&sb, "- days until follow-up: %d\n", p.DaysUntilFollowUp)
	}
	writeFeature(&sb, "follow-up within 7 days", p.FollowUpWithin7Days, w.EarlyFollowUp)
	writeFeature(&sb, "home health ordered", p.HomeHealthOrdered, w.HomeHealth)
	writeFeature(&sb, "discharge instructions confirmed", p.InstructionsConfirmed, 0)

	sb.WriteString("\n## Social determinants\n")
	s := fv.Social
	writeFeature(&sb, "lives alone", s.LivesAlone, w.LivesAlone)
	writeFeature(&sb, "no caregiver", !s.HasCaregiver, w.NoCaregiver)
	writeFeature(&sb, "transportation barrier", s.TransportationBarrier, w.TransportBarrier)
	writeFeature(&sb, "food insecurity", s.FoodInsecurity, w.FoodInsecurity)
	writeFeature(&sb, "housing instability", s.HousingInstability, w.HousingInstability)
	fmt.Fprintf(&sb, "- rurality: %s, distance-to-care weight %.2f (max %.2f)\n",
		s.RuralCategory, s.DistanceToCareRiskWeight, b.cfg.DistanceWeightCap)
	writeFeature(&sb, "socially isolated", s.SociallyIsolated, w.SocialIsolation)
	writeFeature(&sb, "limited health literacy", s.HealthLiteracyLimited, w.LimitedLiteracy)
	fmt.Fprintf(&sb, "- insurance: %s\n", s.InsuranceCategory)

	sb.WriteString("\n## Functional status\n")
	fn := fv.Functional
	fmt.Fprintf(&sb, "- ADL dependencies: %d (weight %.2f when >= %d)\n", fn.ADLDependencyCount, w.ADLDependence, b.cfg.ADLDependencyConcernAt)
	writeFeature(&sb, "mobility impaired", fn.MobilityImpaired, w.MobilityImpairment)
	writeFeature(&sb, "uses walking aid", fn.UsesWalkingAid, 0)
	fmt.Fprintf(&sb, "- fall risk score: %d/10 (weight %.2f when >= %d)\n", fn.FallRiskScore, w.HighFallRisk, b.cfg.FallRiskHighAt)
	fmt.Fprintf(&sb, "- cognitive severity: %s\n", fn.CognitiveSeverity)

	sb.WriteString("\n## Engagement\n")
	e := fv.Engagement
	fmt.Fprintf(&sb, "- 30-day check-in completion rate: %.2f\n", e.CheckInRate30Days)
	fmt.Fprintf(&sb, "- 7-day check-in completion rate: %.2f\n", e.CheckInRate7Days)
	fmt.Fprintf(&sb, "- consecutive missed check-ins: %d (weight %.2f when >= %d)\n", e.ConsecutiveMissed, w.MissedCheckIns, b.cfg.ConsecutiveMissedHigh)
	writeFeature(&sb, "engagement drop detected", e.EngagementDropDetected, w.EngagementDrop)
	writeFeature(&sb, "negative mood trend", e.NegativeMoodTrend, w.NegativeMood)

	sb.WriteString("\n## Self-reported health\n")
	sr := fv.SelfReported
	writeFeature(&sb, "blood pressure concern", sr.BloodPressureConcern, w.BloodPressureConcern)
	writeFeature(&sb, "glucose concern", sr.GlucoseConcern, w.GlucoseConcern)
	writeFeature(&sb, "weight change concern", sr.WeightChangeConcern, w.WeightChange)
	writeFeature(&sb, "pain trend worsening", sr.PainTrendWorsening, w.WorseningPain)
	fmt.Fprintf(&sb, "- symptom reports in window: %d\n", sr.SymptomReportCount)

	if callouts := b.highImpactCallouts(fv); len(callouts) > 0 {
		sb.WriteString("\n## HIGH-IMPACT FINDINGS\n")
		for _, c := range callouts {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}

	return sb.String()
}

// highImpactCallouts surfaces the findings the judge should not miss.
func (b *PromptBuilder) highImpactCallouts(fv *domain.FeatureVector) []string {
	var out []string
	if fv.Clinical.PriorAdmissions90Days >= 2 {
		out = append(out, fmt.Sprintf("%d prior admissions in the last 90 days", fv.Clinical.PriorAdmissions90Days))
	}
	if !fv.Clinical.VitalsStable {
		out = append(out, "vitals were not stable at discharge")
	}
	if fv.Engagement.ConsecutiveMissed >= b.cfg.ConsecutiveMissedHigh {
		out = append(out, fmt.Sprintf("%d consecutive missed check-ins", fv.Engagement.ConsecutiveMissed))
	}
	if !fv.PostDischarge.FollowUpScheduled {
		out = append(out, "no follow-up appointment scheduled")
	}
	if fv.Social.DistanceToCareRiskWeight >= b.cfg.DistanceWeightCap {
		out = append(out, "distance to care at maximum risk weight")
	}
	if fv.Functional.FallRiskScore >= b.cfg.FallRiskHighAt {
		out = append(out, fmt.Sprintf("fall risk score %d/10", fv.Functional.FallRiskScore))
	}
	return out
}

func writeFeature(sb *strings.Builder, label string, present bool, weight float64) {
	if weight != 0 {
		fmt.Fprintf(sb, "- %s: %t (evidence weight %+.2f)\n", label, present, weight)
		return
	}
	fmt.Fprintf(sb, "- %s: %t\n", label, present)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
