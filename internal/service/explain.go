package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// Explainer independently re-derives risk and protective factors from
// the feature vector using the configured evidence weights, so the
// judge's own factor list can be sanity-checked against a deterministic
// rule pass. It also generates the recommended interventions and the
// plain-language narrative attached to the prediction.
type Explainer struct {
	cfg *riskmodel.Config
}

// NewExplainer creates an explainability engine.
func NewExplainer(cfg *riskmodel.Config) *Explainer {
	return &Explainer{cfg: cfg}
}

// Explanation is the engine's full output for one feature vector.
type Explanation struct {
	RiskFactors       []domain.RiskFactor
	ProtectiveFactors []domain.RiskFactor
	Interventions     []domain.RecommendedIntervention
	Narrative         string
	DataQuality       string
}

// Explain derives factors, ranks them by absolute weight, picks the top
// five for interventions and the top three for the narrative.
func (e *Explainer) Explain(fv *domain.FeatureVector, category domain.RiskCategory) *Explanation {
	risks, protective := e.deriveFactors(fv)

	sort.SliceStable(risks, func(i, j int) bool {
		return abs(risks[i].Weight) > abs(risks[j].Weight)
	})
	sort.SliceStable(protective, func(i, j int) bool {
		return abs(protective[i].Weight) > abs(protective[j].Weight)
	})

	topFive := risks
	if len(topFive) > 5 {
		topFive = topFive[:5]
	}

	return &Explanation{
		RiskFactors:       risks,
		ProtectiveFactors: protective,
		Interventions:     e.interventions(topFive, fv),
		Narrative:         e.narrative(risks, protective, fv, category),
		DataQuality:       dataQualityVerdict(fv.CompletenessScore),
	}
}

// deriveFactors walks the feature vector against the weight table.
// Positive weights accumulate as risk factors, negative as protective.
func (e *Explainer) deriveFactors(fv *domain.FeatureVector) (risks, protective []domain.RiskFactor) {
	w := e.cfg.Weights
	add := func(cond bool, name string, cat domain.FactorCategory, weight float64, explanation string) {
		if !cond {
			return
		}
		f := domain.RiskFactor{Name: name, Category: cat, Weight: weight, Explanation: explanation}
		if weight < 0 {
			protective = append(protective, f)
		} else {
			risks = append(risks, f)
		}
	}

	c := fv.Clinical
	add(c.PrimaryDiagnosisHighRisk, "high_risk_diagnosis", domain.FactorClinical, w.HighRiskDiagnosis,
		"The primary diagnosis carries an elevated baseline readmission rate.")
	add(c.ComorbidityCount >= e.cfg.ComorbidityConcernAt, "comorbidity_burden", domain.FactorClinical, w.ComorbidityBurden,
		fmt.Sprintf("%d chronic conditions are being managed at once.", c.ComorbidityCount))
	add(!c.VitalsStable, "unstable_vitals", domain.FactorClinical, w.UnstableVitals,
		"Vital signs were outside stable ranges at discharge.")
	add(c.LabTrendsConcerning, "concerning_labs", domain.FactorClinical, w.ConcerningLabs,
		"Recent lab values fell outside safe thresholds.")
	add(c.LengthOfStayCategory == domain.LOSProlonged, "prolonged_stay", domain.FactorClinical, w.ProlongedStay,
		"The hospital stay was unusually long for this admission type.")
	add(c.LengthOfStayCategory == domain.LOSTooShort, "too_short_stay", domain.FactorClinical, w.TooShortStay,
		"The hospital stay may have been too short to fully stabilize.")
	add(c.PriorAdmissions90Days > 0, "prior_admissions", domain.FactorClinical,
		w.PriorAdmissions*float64(c.PriorAdmissions90Days),
		fmt.Sprintf("%d hospital admissions occurred in the last 90 days.", c.PriorAdmissions90Days))
	add(c.EDVisits90Days > 0, "ed_visits", domain.FactorClinical, w.EDVisits,
		fmt.Sprintf("%d emergency department visits occurred in the last 90 days.", c.EDVisits90Days))

	m := fv.Medication
	add(m.IsPolypharmacy, "polypharmacy", domain.FactorMedication, w.Polypharmacy,
		fmt.Sprintf("%d active medications raise the chance of interactions and missed doses.", m.ActiveMedicationCount))
	add(m.OnAnticoagulants, "anticoagulants", domain.FactorMedication, w.Anticoagulants,
		"Blood thinners require close monitoring after discharge.")
	add(m.OnInsulin, "insulin", domain.FactorMedication, w.Insulin,
		"Insulin dosing errors are a common cause of early readmission.")
	add(m.OnOpioids, "opioids", domain.FactorMedication, w.Opioids,
		"Opioid therapy carries sedation and dependence risks at home.")
	add(m.OnImmunosuppressants, "immunosuppressants", domain.FactorMedication, w.Immunosuppressants,
		"Immunosuppressant therapy raises infection risk after discharge.")

	p := fv.PostDischarge
	add(!p.FollowUpScheduled, "no_follow_up", domain.FactorPostDischarge, w.NoFollowUp,
		"No follow-up appointment is on the calendar.")
	add(p.FollowUpWithin7Days, "early_follow_up", domain.FactorPostDischarge, w.EarlyFollowUp,
		"A follow-up visit is scheduled within the first week.")
	add(p.HomeHealthOrdered, "home_health", domain.FactorPostDischarge, w.HomeHealth,
		"Home health services were ordered at discharge.")

	s := fv.Social
	add(s.LivesAlone, "lives_alone", domain.FactorSocial, w.LivesAlone,
		"The patient lives alone.")
	add(!s.HasCaregiver, "no_caregiver", domain.FactorSocial, w.NoCaregiver,
		"No caregiver is identified to help at home.")
	add(s.TransportationBarrier, "transportation_barrier", domain.FactorSocial, w.TransportBarrier,
		"Getting to appointments is a reported problem.")
	add(s.FoodInsecurity, "food_insecurity", domain.FactorSocial, w.FoodInsecurity,
		"Reliable access to food is a reported problem.")
	add(s.HousingInstability, "housing_instability", domain.FactorSocial, w.HousingInstability,
		"Housing stability is a reported problem.")
	add(s.SociallyIsolated, "social_isolation", domain.FactorSocial, w.SocialIsolation,
		"Recent check-ins suggest long stretches without human contact.")
	add(s.HealthLiteracyLimited, "limited_health_literacy", domain.FactorSocial, w.LimitedLiteracy,
		"Understanding written medical instructions is a reported difficulty.")
	add(s.DistanceToCareRiskWeight > 0, "distance_to_care", domain.FactorSocial, s.DistanceToCareRiskWeight,
		"Care facilities are far from home.")

	fn := fv.Functional
	add(fn.FallRiskScore >= e.cfg.FallRiskHighAt, "high_fall_risk", domain.FactorFunctional, w.HighFallRisk,
		fmt.Sprintf("Fall risk scored %d of 10.", fn.FallRiskScore))
	add(fn.MobilityImpaired, "mobility_impairment", domain.FactorFunctional, w.MobilityImpairment,
		"Mobility is significantly impaired.")
	add(fn.ADLDependencyCount >= e.cfg.ADLDependencyConcernAt, "adl_dependence", domain.FactorFunctional, w.ADLDependence,
		fmt.Sprintf("The patient needs help with %d daily activities.", fn.ADLDependencyCount))
	switch fn.CognitiveSeverity {
	case domain.CognitiveSevere:
		add(true, "cognitive_impairment", domain.FactorFunctional, w.CognitiveSevere,
			"Severe cognitive impairment was assessed.")
	case domain.CognitiveModerate:
		add(true, "cognitive_impairment", domain.FactorFunctional, w.CognitiveModerate,
			"Moderate cognitive impairment was assessed.")
	case domain.CognitiveMild:
		add(true, "cognitive_impairment", domain.FactorFunctional, w.CognitiveMild,
			"Mild cognitive impairment was assessed.")
	}

	en := fv.Engagement
	add(en.ConsecutiveMissed >= e.cfg.ConsecutiveMissedHigh, "missed_check_ins", domain.FactorEngagement, w.MissedCheckIns,
		fmt.Sprintf("%d check-ins in a row were missed.", en.ConsecutiveMissed))
	add(en.EngagementDropDetected, "engagement_drop", domain.FactorEngagement, w.EngagementDrop,
		"Check-in activity dropped sharply this week.")
	add(en.NegativeMoodTrend, "negative_mood", domain.FactorEngagement, w.NegativeMood,
		"Recent check-in notes show a negative mood trend.")
	add(en.CheckInRate30Days >= e.cfg.StrongEngagementRate, "strong_engagement", domain.FactorEngagement, w.StrongEngagement,
		"Check-ins are completed consistently.")

	sr := fv.SelfReported
	add(sr.BloodPressureConcern, "blood_pressure_concern", domain.FactorSelfReported, w.BloodPressureConcern,
		"Self-reported blood pressure readings were out of range.")
	add(sr.GlucoseConcern, "glucose_concern", domain.FactorSelfReported, w.GlucoseConcern,
		"Self-reported glucose readings were out of range.")
	add(sr.WeightChangeConcern, "weight_change", domain.FactorSelfReported, w.WeightChange,
		"Reported weight changed more than 5% over the window.")
	add(sr.PainTrendWorsening, "worsening_pain", domain.FactorSelfReported, w.WorseningPain,
		"Reported pain levels are trending up.")

	return risks, protective
}

// interventionTable maps a factor name to its canned intervention.
var interventionTable = map[string]domain.RecommendedIntervention{
	"no_follow_up": {
		Description:     "Schedule a primary care follow-up appointment within 7 days of discharge",
		Priority:        domain.PriorityCritical,
		EstimatedImpact: 0.15,
		Timeframe:       "within 48 hours",
		ResponsibleRole: "care coordinator",
	},
	"missed_check_ins": {
		Description:     "Call the patient to re-engage with daily check-ins and identify barriers",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.10,
		Timeframe:       "within 24 hours",
		ResponsibleRole: "care coordinator",
	},
	"prior_admissions": {
		Description:     "Enroll in an intensive transitional care program",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.12,
		Timeframe:       "within 72 hours",
		ResponsibleRole: "transitional care nurse",
	},
	"unstable_vitals": {
		Description:     "Arrange a home nursing visit to recheck vital signs",
		Priority:        domain.PriorityCritical,
		EstimatedImpact: 0.12,
		Timeframe:       "within 24 hours",
		ResponsibleRole: "home health nurse",
	},
	"concerning_labs": {
		Description:     "Order repeat labs and route results to the discharging physician",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.10,
		Timeframe:       "within 72 hours",
		ResponsibleRole: "discharging physician",
	},
	"polypharmacy": {
		Description:     "Complete a pharmacist-led medication reconciliation",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.08,
		Timeframe:       "within 72 hours",
		ResponsibleRole: "pharmacist",
	},
	"high_fall_risk": {
		Description:     "Arrange a home safety evaluation and physical therapy referral",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.09,
		Timeframe:       "within 1 week",
		ResponsibleRole: "physical therapist",
	},
	"transportation_barrier": {
		Description:     "Arrange medical transportation for scheduled appointments",
		Priority:        domain.PriorityMedium,
		EstimatedImpact: 0.06,
		Timeframe:       "before next appointment",
		ResponsibleRole: "social worker",
	},
	"lives_alone": {
		Description:     "Assess in-home support needs and connect with community services",
		Priority:        domain.PriorityMedium,
		EstimatedImpact: 0.05,
		Timeframe:       "within 1 week",
		ResponsibleRole: "social worker",
	},
	"no_caregiver": {
		Description:     "Identify a family member or service able to assist at home",
		Priority:        domain.PriorityMedium,
		EstimatedImpact: 0.05,
		Timeframe:       "within 1 week",
		ResponsibleRole: "social worker",
	},
	"engagement_drop": {
		Description:     "Reach out to understand the drop in check-in activity",
		Priority:        domain.PriorityMedium,
		EstimatedImpact: 0.06,
		Timeframe:       "within 48 hours",
		ResponsibleRole: "care coordinator",
	},
	"negative_mood": {
		Description:     "Screen for depression and refer to behavioral health if indicated",
		Priority:        domain.PriorityMedium,
		EstimatedImpact: 0.06,
		Timeframe:       "within 1 week",
		ResponsibleRole: "behavioral health clinician",
	},
	"blood_pressure_concern": {
		Description:     "Review self-reported blood pressure readings with the care team",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.08,
		Timeframe:       "within 48 hours",
		ResponsibleRole: "primary care physician",
	},
	"glucose_concern": {
		Description:     "Review glucose readings and adjust the diabetes regimen",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.08,
		Timeframe:       "within 48 hours",
		ResponsibleRole: "primary care physician",
	},
	"weight_change": {
		Description:     "Evaluate rapid weight change for fluid retention",
		Priority:        domain.PriorityHigh,
		EstimatedImpact: 0.08,
		Timeframe:       "within 48 hours",
		ResponsibleRole: "primary care physician",
	},
}

// interventions maps the top risk factors to canned interventions,
// falling back to a generic monitoring item so the list is never empty.
func (e *Explainer) interventions(topFactors []domain.RiskFactor, fv *domain.FeatureVector) []domain.RecommendedIntervention {
	out := make([]domain.RecommendedIntervention, 0, len(topFactors))
	seen := make(map[string]bool)
	for _, f := range topFactors {
		iv, ok := interventionTable[f.Name]
		if !ok || seen[iv.Description] {
			continue
		}
		seen[iv.Description] = true
		out = append(out, iv)
	}
	if len(out) == 0 {
		out = append(out, domain.RecommendedIntervention{
			Description:     "Continue routine post-discharge monitoring and check-ins",
			Priority:        domain.PriorityLow,
			EstimatedImpact: 0.02,
			Timeframe:       "ongoing",
			ResponsibleRole: "care coordinator",
		})
	}
	return out
}

// narrativeFragments maps a factor name to its reading-level-controlled
// sentence fragment for the plain-language narrative.
var narrativeFragments = map[string]string{
	"high_risk_diagnosis":     "the main condition treated tends to bring people back to the hospital",
	"comorbidity_burden":      "several health conditions are being managed at the same time",
	"unstable_vitals":         "vital signs were not fully stable when leaving the hospital",
	"concerning_labs":         "some recent lab results were outside the safe range",
	"prolonged_stay":          "the hospital stay was longer than usual",
	"too_short_stay":          "the hospital stay was shorter than usual",
	"prior_admissions":        "there have been recent hospital stays",
	"ed_visits":               "there have been recent emergency room visits",
	"polypharmacy":            "many medications are being taken at once",
	"anticoagulants":          "blood thinner medication needs careful monitoring",
	"insulin":                 "insulin needs careful dosing at home",
	"opioids":                 "strong pain medication needs careful use at home",
	"immunosuppressants":      "medication that lowers the immune system raises infection risk",
	"no_follow_up":            "no doctor visit is scheduled yet",
	"lives_alone":             "living alone means less help is nearby",
	"no_caregiver":            "no caregiver is available to help at home",
	"transportation_barrier":  "getting to appointments is difficult",
	"food_insecurity":         "getting enough food is a concern",
	"housing_instability":     "housing is not stable right now",
	"social_isolation":        "long stretches pass without contact with others",
	"limited_health_literacy": "medical instructions can be hard to follow",
	"distance_to_care":        "the nearest care facilities are far away",
	"high_fall_risk":          "there is a high chance of falling at home",
	"mobility_impairment":     "moving around is difficult",
	"adl_dependence":          "help is needed with everyday activities",
	"cognitive_impairment":    "memory or thinking problems make self-care harder",
	"missed_check_ins":        "several daily check-ins were missed in a row",
	"engagement_drop":         "check-ins have dropped off recently",
	"negative_mood":           "recent check-ins show a low mood",
	"blood_pressure_concern":  "home blood pressure readings were out of range",
	"glucose_concern":         "home blood sugar readings were out of range",
	"weight_change":           "body weight changed quickly",
	"worsening_pain":          "pain has been getting worse",
}

var protectiveFragments = map[string]string{
	"early_follow_up":   "a doctor visit is already scheduled within the first week",
	"home_health":       "home health services are arranged",
	"strong_engagement": "daily check-ins are being completed consistently",
}

// narrative renders the plain-language summary: an opening naming the
// risk band, the top three risk factors, one piece of good news when a
// protective factor exists, and a closing action chosen by fixed
// priority.
func (e *Explainer) narrative(risks, protective []domain.RiskFactor, fv *domain.FeatureVector, category domain.RiskCategory) string {
	var parts []string

	switch category {
	case domain.RiskCritical:
		parts = append(parts, "This patient has a very high chance of returning to the hospital soon.")
	case domain.RiskHigh:
		parts = append(parts, "This patient has a high chance of returning to the hospital.")
	case domain.RiskModerate:
		parts = append(parts, "This patient has a moderate chance of returning to the hospital.")
	default:
		parts = append(parts, "This patient has a low chance of returning to the hospital.")
	}

	top := risks
	if len(top) > 3 {
		top = top[:3]
	}
	var reasons []string
	for _, f := range top {
		if frag, ok := narrativeFragments[f.Name]; ok {
			reasons = append(reasons, frag)
		}
	}
	if len(reasons) > 0 {
		parts = append(parts, "The main reasons: "+strings.Join(reasons, "; ")+".")
	}

	if len(protective) > 0 {
		if frag, ok := protectiveFragments[protective[0].Name]; ok {
			parts = append(parts, "Good news: "+frag+".")
		}
	}

	parts = append(parts, e.closingAction(risks, fv, category))

	return strings.Join(parts, " ")
}

// closingAction picks the final actionable sentence by fixed priority.
func (e *Explainer) closingAction(risks []domain.RiskFactor, fv *domain.FeatureVector, category domain.RiskCategory) string {
	has := func(name string) bool {
		for _, f := range risks {
			if f.Name == name {
				return true
			}
		}
		return false
	}
	switch {
	case has("no_follow_up"):
		return "The most important next step is getting a doctor visit on the calendar."
	case has("missed_check_ins"):
		return "The most important next step is getting back to daily check-ins."
	case has("transportation_barrier"):
		return "The most important next step is arranging a ride to upcoming appointments."
	case fv.Social.LivesAlone && !fv.Social.HasCaregiver:
		return "The most important next step is lining up someone who can help at home."
	case category == domain.RiskHigh || category == domain.RiskCritical:
		return "The care team will be checking in frequently over the next two weeks."
	default:
		return "Keep taking medications as prescribed and attend scheduled visits."
	}
}

func dataQualityVerdict(completeness int) string {
	switch {
	case completeness >= 80:
		return "good"
	case completeness >= 50:
		return "partial"
	default:
		return "limited"
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
