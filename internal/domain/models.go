package domain

import (
	"time"
)

// Core Enums and Types

// Disposition represents where the patient was discharged to
type Disposition string

const (
	DispositionHome       Disposition = "home"
	DispositionHomeHealth Disposition = "home_health"
	DispositionSNF        Disposition = "snf"
	DispositionLTAC       Disposition = "ltac"
	DispositionRehab      Disposition = "rehab"
	DispositionHospice    Disposition = "hospice"
)

// Valid reports whether d is one of the six allowed dispositions.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionHome, DispositionHomeHealth, DispositionSNF,
		DispositionLTAC, DispositionRehab, DispositionHospice:
		return true
	}
	return false
}

// RiskCategory represents the overall readmission risk band
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// Valid reports whether c is a recognized risk category.
func (c RiskCategory) Valid() bool {
	switch c {
	case RiskLow, RiskModerate, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// FactorCategory classifies a risk or protective factor by domain
type FactorCategory string

const (
	FactorClinical      FactorCategory = "clinical"
	FactorMedication    FactorCategory = "medication"
	FactorPostDischarge FactorCategory = "post_discharge"
	FactorSocial        FactorCategory = "social"
	FactorFunctional    FactorCategory = "functional"
	FactorEngagement    FactorCategory = "engagement"
	FactorSelfReported  FactorCategory = "self_reported"
)

// InterventionPriority represents the urgency of a recommended intervention
type InterventionPriority string

const (
	PriorityLow      InterventionPriority = "low"
	PriorityMedium   InterventionPriority = "medium"
	PriorityHigh     InterventionPriority = "high"
	PriorityCritical InterventionPriority = "critical"
)

// LOSCategory buckets inpatient length of stay
type LOSCategory string

const (
	LOSTooShort  LOSCategory = "too_short"
	LOSNormal    LOSCategory = "normal"
	LOSExtended  LOSCategory = "extended"
	LOSProlonged LOSCategory = "prolonged"
)

// CognitiveSeverity buckets cognitive-impairment assessment scores
type CognitiveSeverity string

const (
	CognitiveNone     CognitiveSeverity = "none"
	CognitiveMild     CognitiveSeverity = "mild"
	CognitiveModerate CognitiveSeverity = "moderate"
	CognitiveSevere   CognitiveSeverity = "severe"
)

// RuralCategory is the RUCA-derived rurality classification
type RuralCategory string

const (
	RuralUrban    RuralCategory = "urban"
	RuralLarge    RuralCategory = "large_rural"
	RuralSmall    RuralCategory = "small_rural"
	RuralIsolated RuralCategory = "isolated_rural"
)

// Input Models

// DischargeContext is the immutable input describing one discharge event.
// It is validated once by Validate and never mutated afterwards, except for
// in-place sanitization of free-text fields during validation.
type DischargeContext struct {
	PatientID            string      `json:"patient_id"`
	TenantID             string      `json:"tenant_id"`
	DischargedAt         time.Time   `json:"discharged_at"`
	FacilityName         string      `json:"facility_name"`
	Disposition          Disposition `json:"disposition"`
	PrimaryDiagnosis     string      `json:"primary_diagnosis,omitempty"`
	SecondaryDiagnoses   []string    `json:"secondary_diagnoses,omitempty"`
	DiagnosisDescription string      `json:"diagnosis_description,omitempty"`
	LengthOfStayDays     int         `json:"length_of_stay_days,omitempty"`
}

// Domain Feature Records
//
// Each record is a flat value object produced fresh by its extractor.
// Pointer fields in the source rows distinguish "value absent" from
// "value zero" where the scoring rules care about the difference.

// ClinicalFeatures captures diagnosis, vitals and lab signal at discharge.
type ClinicalFeatures struct {
	PrimaryDiagnosisHighRisk bool        `json:"primary_diagnosis_high_risk"`
	ComorbidityCount         int         `json:"comorbidity_count"`
	HasCHF                   bool        `json:"has_chf"`
	HasCOPD                  bool        `json:"has_copd"`
	LengthOfStayCategory     LOSCategory `json:"length_of_stay_category"`
	VitalsStable             bool        `json:"vitals_stable"`
	LabTrendsConcerning      bool        `json:"lab_trends_concerning"`
	PriorAdmissions90Days    int         `json:"prior_admissions_90_days"`
	EDVisits90Days           int         `json:"ed_visits_90_days"`
}

// MedicationFeatures captures the active medication burden.
type MedicationFeatures struct {
	ActiveMedicationCount  int  `json:"active_medication_count"`
	IsPolypharmacy         bool `json:"is_polypharmacy"`
	OnAnticoagulants       bool `json:"on_anticoagulants"`
	OnInsulin              bool `json:"on_insulin"`
	OnOpioids              bool `json:"on_opioids"`
	OnImmunosuppressants   bool `json:"on_immunosuppressants"`
	HighRiskClassCount     int  `json:"high_risk_class_count"`
	RecentMedicationChange bool `json:"recent_medication_change"`
}

// PostDischargeFeatures captures scheduled follow-up and ordered services.
type PostDischargeFeatures struct {
	FollowUpScheduled       bool `json:"follow_up_scheduled"`
	DaysUntilFollowUp       int  `json:"days_until_follow_up"`
	FollowUpWithin7Days     bool `json:"follow_up_within_7_days"`
	HomeHealthOrdered       bool `json:"home_health_ordered"`
	DMEOrdered              bool `json:"dme_ordered"`
	InstructionsConfirmed   bool `json:"instructions_confirmed"`
	PendingAppointmentCount int  `json:"pending_appointment_count"`
}

// SocialFeatures captures social determinants of health.
type SocialFeatures struct {
	LivesAlone               bool          `json:"lives_alone"`
	HasCaregiver             bool          `json:"has_caregiver"`
	TransportationBarrier    bool          `json:"transportation_barrier"`
	FoodInsecurity           bool          `json:"food_insecurity"`
	HousingInstability       bool          `json:"housing_instability"`
	RuralCategory            RuralCategory `json:"rural_category"`
	DistanceToCareRiskWeight float64       `json:"distance_to_care_risk_weight"`
	SociallyIsolated         bool          `json:"socially_isolated"`
	LimitedFamilyContact     bool          `json:"limited_family_contact"`
	InsuranceCategory        string        `json:"insurance_category"`
	HealthLiteracyLimited    bool          `json:"health_literacy_limited"`
}

// FunctionalFeatures captures mobility, ADL dependency and fall risk.
type FunctionalFeatures struct {
	ADLDependencyCount int               `json:"adl_dependency_count"`
	MobilityImpaired   bool              `json:"mobility_impaired"`
	UsesWalkingAid     bool              `json:"uses_walking_aid"`
	FallsLast90Days    int               `json:"falls_last_90_days"`
	FallRiskScore      int               `json:"fall_risk_score"`
	CognitiveSeverity  CognitiveSeverity `json:"cognitive_severity"`
}

// EngagementFeatures captures check-in behavior over the trailing 30 days.
type EngagementFeatures struct {
	CheckInRate30Days      float64 `json:"check_in_rate_30_days"`
	CheckInRate7Days       float64 `json:"check_in_rate_7_days"`
	ConsecutiveMissed      int     `json:"consecutive_missed"`
	EngagementDropDetected bool    `json:"engagement_drop_detected"`
	NegativeMoodTrend      bool    `json:"negative_mood_trend"`
	TotalCheckIns30Days    int     `json:"total_check_ins_30_days"`
}

// SelfReportedFeatures captures patient-reported vitals and symptoms.
type SelfReportedFeatures struct {
	BloodPressureConcern bool `json:"blood_pressure_concern"`
	GlucoseConcern       bool `json:"glucose_concern"`
	WeightChangeConcern  bool `json:"weight_change_concern"`
	PainTrendWorsening   bool `json:"pain_trend_worsening"`
	SymptomReportCount   int  `json:"symptom_report_count"`
	ReadingCount         int  `json:"reading_count"`
}

// FeatureVector merges the seven domain records with the completeness score.
// Owned by the aggregator; handed to the prompt builder and the
// explainability engine as a read-only value.
type FeatureVector struct {
	Clinical      ClinicalFeatures      `json:"clinical"`
	Medication    MedicationFeatures    `json:"medication"`
	PostDischarge PostDischargeFeatures `json:"post_discharge"`
	Social        SocialFeatures        `json:"social"`
	Functional    FunctionalFeatures    `json:"functional"`
	Engagement    EngagementFeatures    `json:"engagement"`
	SelfReported  SelfReportedFeatures  `json:"self_reported"`

	Availability      DataAvailability `json:"availability"`
	CompletenessScore int              `json:"completeness_score"`
	MissingFields     []string         `json:"missing_fields"`
	SourcesAvailable  []string         `json:"sources_available"`
}

// DataAvailability records which source data actually existed during
// extraction. Completeness scoring reads these flags through typed
// accessors; a false feature value still counts as present data.
type DataAvailability struct {
	Vitals           bool `json:"vitals"`
	Labs             bool `json:"labs"`
	Comorbidities    bool `json:"comorbidities"`
	AdmissionHistory bool `json:"admission_history"`
	Medications      bool `json:"medications"`
	Appointments     bool `json:"appointments"`
	SDOH             bool `json:"sdoh"`
	Assessment       bool `json:"assessment"`
	CheckIns         bool `json:"check_ins"`
	SelfReports      bool `json:"self_reports"`
}

// Output Models

// RiskFactor is one named contributor to the risk estimate. A negative
// weight marks a protective factor.
type RiskFactor struct {
	Name        string         `json:"name"`
	Category    FactorCategory `json:"category"`
	Weight      float64        `json:"weight"`
	Explanation string         `json:"explanation"`
	Evidence    string         `json:"evidence,omitempty"`
}

// RecommendedIntervention is one actionable follow-up item.
type RecommendedIntervention struct {
	Description     string               `json:"description"`
	Priority        InterventionPriority `json:"priority"`
	EstimatedImpact float64              `json:"estimated_impact"`
	Timeframe       string               `json:"timeframe"`
	ResponsibleRole string               `json:"responsible_role"`
}

// Prediction is the terminal entity produced once per discharge event.
// Immutable after assembly; persisted as a snapshot.
type Prediction struct {
	ID                       string                    `json:"id"`
	PatientID                string                    `json:"patient_id"`
	TenantID                 string                    `json:"tenant_id"`
	Risk7Day                 float64                   `json:"risk_7_day"`
	Risk30Day                float64                   `json:"risk_30_day"`
	Risk90Day                float64                   `json:"risk_90_day"`
	RiskCategory             RiskCategory              `json:"risk_category"`
	RiskFactors              []RiskFactor              `json:"risk_factors"`
	ProtectiveFactors        []RiskFactor              `json:"protective_factors"`
	Interventions            []RecommendedIntervention `json:"interventions"`
	PredictedReadmissionDate *time.Time                `json:"predicted_readmission_date,omitempty"`
	Confidence               float64                   `json:"confidence"`
	Explanation              string                    `json:"explanation"`
	SourcesAvailable         []string                  `json:"sources_available"`
	ModelUsed                string                    `json:"model_used"`
	CostUSD                  float64                   `json:"cost_usd"`
	CreatedAt                time.Time                 `json:"created_at"`
}

// PredictionRecord is the persisted form of a Prediction: the prediction
// itself plus the full feature snapshot, retained for audit and for the
// offline accuracy-tracking loop.
type PredictionRecord struct {
	Prediction Prediction    `json:"prediction"`
	Features   FeatureVector `json:"features"`
}

// Judge Boundary Models

// JudgeRequest is the contract with the external predictive judge.
type JudgeRequest struct {
	Brief          string `json:"brief"`
	SystemPrompt   string `json:"system_prompt"`
	Model          string `json:"model"`
	ComplexityHint string `json:"complexity_hint,omitempty"`
}

// JudgeResponse is the raw judge output before parsing.
type JudgeResponse struct {
	Text      string  `json:"text"`
	ModelUsed string  `json:"model_used"`
	CostUSD   float64 `json:"cost_usd"`
}

// JudgeAssessment is the validated JSON object extracted from the judge's
// response text.
type JudgeAssessment struct {
	Risk7Day                 float64                   `json:"risk_7_day"`
	Risk30Day                float64                   `json:"risk_30_day"`
	Risk90Day                float64                   `json:"risk_90_day"`
	RiskCategory             RiskCategory              `json:"risk_category"`
	RiskFactors              []RiskFactor              `json:"risk_factors"`
	ProtectiveFactors        []RiskFactor              `json:"protective_factors"`
	Interventions            []RecommendedIntervention `json:"interventions"`
	PredictedReadmissionDate *time.Time                `json:"predicted_readmission_date,omitempty"`
	Confidence               float64                   `json:"confidence"`
}

// Tenant Configuration

// TenantSettings is the per-tenant configuration contract. Absent rows
// fall back to the documented defaults via DefaultTenantSettings.
type TenantSettings struct {
	TenantID          string  `json:"tenant_id"`
	Enabled           bool    `json:"enabled"`
	AutoCarePlan      bool    `json:"auto_care_plan"`
	HighRiskThreshold float64 `json:"high_risk_threshold"`
	JudgeModel        string  `json:"judge_model,omitempty"`
}

// DefaultJudgeModel is used when a tenant has no model override.
const DefaultJudgeModel = "risk-judge-standard-1"

// DefaultTenantSettings returns the documented fallback settings:
// disabled, no auto care plan, 0.50 threshold, default judge model.
func DefaultTenantSettings(tenantID string) TenantSettings {
	return TenantSettings{
		TenantID:          tenantID,
		Enabled:           false,
		AutoCarePlan:      false,
		HighRiskThreshold: 0.50,
		JudgeModel:        DefaultJudgeModel,
	}
}

// OutcomeFeedback records whether a predicted readmission actually happened,
// closing the offline accuracy loop.
type OutcomeFeedback struct {
	ID           int64      `json:"id,omitempty"`
	PredictionID string     `json:"prediction_id"`
	PatientID    string     `json:"patient_id"`
	Readmitted   bool       `json:"readmitted"`
	ReadmittedAt *time.Time `json:"readmitted_at,omitempty"`
	DaysToEvent  int        `json:"days_to_event,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
