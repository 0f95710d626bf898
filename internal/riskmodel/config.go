// Package riskmodel holds the versioned, immutable model configuration for
// the readmission risk pipeline: every threshold, weight, keyword list and
// categorization boundary used anywhere downstream. Threshold values are
// contractual and verified by golden tests; bumping the version is the only
// sanctioned way to change one.
package riskmodel

import (
	"github.com/readmit-risk-server/internal/domain"
)

// Config is the frozen model configuration. Loaded once at process start
// and injected into every component; never mutated at runtime.
type Config struct {
	Version string

	// Length-of-stay boundaries (days)
	LOSTooShortBelow  int
	LOSNormalMax      int
	LOSExtendedMax    int

	// Vitals stability ranges; a zero reading is treated as missing
	SystolicMin  float64
	SystolicMax  float64
	DiastolicMin float64
	DiastolicMax float64
	HeartRateMin float64
	HeartRateMax float64
	OxygenSatMin float64

	// Lab concern thresholds (presence-checked, not falsy-checked)
	EGFRConcernBelow       float64
	HemoglobinConcernBelow float64
	SodiumConcernBelow     float64
	SodiumConcernAbove     float64
	GlucoseConcernBelow    float64
	GlucoseConcernAbove    float64

	// Medication thresholds
	PolypharmacyCount int

	// Follow-up window (days)
	FollowUpSoonDays int

	// Cognitive severity boundaries (assessment score)
	CognitiveMildBelow     int
	CognitiveModerateBelow int
	CognitiveSevereBelow   int

	// Fall risk scoring
	FallBaseCap          int
	FallMobilityBonusGT  int
	FallCognitiveBonusGT int
	FallScoreCap         int

	// Functional thresholds
	MobilityImpairedAbove  int
	ADLDependencyConcernAt int
	FallRiskHighAt         int

	// Distance-to-care weighting. Band weights accumulate, then the rural
	// multiplier applies, then the cap. Multiply-before-cap is load-bearing.
	HospitalDistanceBands []DistanceBand
	PCPDistanceBands      []DistanceBand
	IsolatedRuralFactor   float64
	SmallRuralFactor      float64
	DistanceWeightCap     float64

	// Engagement windows and thresholds. Rates divide by the fixed window
	// constants, never by the observed record count.
	CheckInWindowDays     int
	CheckInRecentDays     int
	PreviousPeriodDays    int
	EngagementDropDelta   float64
	NegativeMoodFraction  float64
	ConsecutiveMissedHigh int
	StrongEngagementRate  float64

	// Self-reported concern thresholds
	SelfBPSystolicHigh  float64
	SelfBPSystolicLow   float64
	SelfBPDiastolicHigh float64
	SelfGlucoseHigh     float64
	SelfGlucoseLow      float64
	WeightChangeFraction float64
	MinWeightReadings    int

	// Social isolation indicator thresholds
	DaysAloneIsolatedAbove    int
	FamilyContactLimitedBelow int

	// Health literacy (1-5 scale; zero means not assessed)
	HealthLiteracyLimitedBelow int

	// Comorbidity burden threshold
	ComorbidityConcernAt int

	// Keyword lists, matched case-insensitively as substrings
	AnticoagulantKeywords     []string
	InsulinKeywords           []string
	OpioidKeywords            []string
	ImmunosuppressantKeywords []string
	WalkingAidKeywords        []string
	NegativeMoodKeywords      []string

	// High-risk primary diagnosis code prefixes (ICD-10)
	CHFCodePrefixes      []string
	COPDCodePrefixes     []string
	HighRiskCodePrefixes []string

	// Evidence weights surfaced to the judge and re-used by the
	// explainability engine. Negative weights are protective.
	Weights EvidenceWeights

	// Completeness scoring
	CriticalFields []CriticalField
}

// DistanceBand adds Weight when the distance strictly exceeds AboveMiles.
// Bands are checked in order and only the first match applies.
type DistanceBand struct {
	AboveMiles float64
	Weight     float64
}

// EvidenceWeights is the per-feature evidence weight table.
type EvidenceWeights struct {
	HighRiskDiagnosis    float64
	ComorbidityBurden    float64
	UnstableVitals       float64
	ConcerningLabs       float64
	ProlongedStay        float64
	TooShortStay         float64
	PriorAdmissions      float64
	EDVisits             float64
	Polypharmacy         float64
	Anticoagulants       float64
	Insulin              float64
	Opioids              float64
	Immunosuppressants   float64
	NoFollowUp           float64
	EarlyFollowUp        float64
	HomeHealth           float64
	LivesAlone           float64
	NoCaregiver          float64
	TransportBarrier     float64
	FoodInsecurity       float64
	HousingInstability   float64
	SocialIsolation      float64
	LimitedLiteracy      float64
	HighFallRisk         float64
	MobilityImpairment   float64
	CognitiveSevere      float64
	CognitiveModerate    float64
	CognitiveMild        float64
	ADLDependence        float64
	MissedCheckIns       float64
	EngagementDrop       float64
	NegativeMood         float64
	StrongEngagement     float64
	BloodPressureConcern float64
	GlucoseConcern       float64
	WeightChange         float64
	WorseningPain        float64
}

// CriticalField is one weighted entry in the data-completeness table. The
// Present accessor is typed per field so the weight table stays statically
// checkable; false and zero still count as present, only a missing source
// does not.
type CriticalField struct {
	Name    string
	Weight  float64
	Present func(av domain.DataAvailability) bool
}

// V1 returns model configuration version v1. The returned value must be
// treated as read-only.
func V1() *Config {
	return &Config{
		Version: "v1",

		LOSTooShortBelow: 2,
		LOSNormalMax:     5,
		LOSExtendedMax:   10,

		SystolicMin:  90,
		SystolicMax:  160,
		DiastolicMin: 60,
		DiastolicMax: 100,
		HeartRateMin: 60,
		HeartRateMax: 100,
		OxygenSatMin: 92,

		EGFRConcernBelow:       30,
		HemoglobinConcernBelow: 10,
		SodiumConcernBelow:     130,
		SodiumConcernAbove:     150,
		GlucoseConcernBelow:    60,
		GlucoseConcernAbove:    200,

		PolypharmacyCount: 5,

		FollowUpSoonDays: 7,

		CognitiveMildBelow:     4,
		CognitiveModerateBelow: 7,
		CognitiveSevereBelow:   9,

		FallBaseCap:          6,
		FallMobilityBonusGT:  7,
		FallCognitiveBonusGT: 6,
		FallScoreCap:         10,

		MobilityImpairedAbove:  5,
		ADLDependencyConcernAt: 3,
		FallRiskHighAt:         7,

		HospitalDistanceBands: []DistanceBand{
			{AboveMiles: 60, Weight: 0.20},
			{AboveMiles: 40, Weight: 0.15},
			{AboveMiles: 20, Weight: 0.10},
			{AboveMiles: 10, Weight: 0.05},
		},
		PCPDistanceBands: []DistanceBand{
			{AboveMiles: 30, Weight: 0.10},
			{AboveMiles: 15, Weight: 0.05},
		},
		IsolatedRuralFactor: 1.3,
		SmallRuralFactor:    1.15,
		DistanceWeightCap:   0.25,

		CheckInWindowDays:     30,
		CheckInRecentDays:     7,
		PreviousPeriodDays:    23,
		EngagementDropDelta:   0.3,
		NegativeMoodFraction:  0.4,
		ConsecutiveMissedHigh: 3,
		StrongEngagementRate:  0.8,

		SelfBPSystolicHigh:   160,
		SelfBPSystolicLow:    90,
		SelfBPDiastolicHigh:  100,
		SelfGlucoseHigh:      250,
		SelfGlucoseLow:       70,
		WeightChangeFraction: 0.05,
		MinWeightReadings:    2,

		DaysAloneIsolatedAbove:    15,
		FamilyContactLimitedBelow: 8,

		HealthLiteracyLimitedBelow: 3,

		ComorbidityConcernAt: 3,

		AnticoagulantKeywords: []string{
			"warfarin", "coumadin", "apixaban", "eliquis", "rivaroxaban",
			"xarelto", "dabigatran", "heparin", "enoxaparin",
		},
		InsulinKeywords: []string{
			"insulin", "lantus", "humalog", "novolog", "levemir", "tresiba",
		},
		OpioidKeywords: []string{
			"oxycodone", "hydrocodone", "morphine", "fentanyl", "tramadol",
			"codeine", "hydromorphone",
		},
		ImmunosuppressantKeywords: []string{
			"tacrolimus", "cyclosporine", "mycophenolate", "azathioprine",
			"prednisone", "methotrexate",
		},
		WalkingAidKeywords: []string{
			"walker", "cane", "wheelchair", "crutches", "rollator",
		},
		NegativeMoodKeywords: []string{
			"sad", "anxious", "depressed", "hopeless", "worried",
		},

		CHFCodePrefixes:  []string{"I50"},
		COPDCodePrefixes: []string{"J44"},
		HighRiskCodePrefixes: []string{
			"I50", "J44", "N18", "I21", "I63", "E11", "J18",
		},

		Weights: EvidenceWeights{
			HighRiskDiagnosis:    0.15,
			ComorbidityBurden:    0.10,
			UnstableVitals:       0.12,
			ConcerningLabs:       0.12,
			ProlongedStay:        0.08,
			TooShortStay:         0.06,
			PriorAdmissions:      0.15,
			EDVisits:             0.08,
			Polypharmacy:         0.10,
			Anticoagulants:       0.08,
			Insulin:              0.08,
			Opioids:              0.07,
			Immunosuppressants:   0.09,
			NoFollowUp:           0.12,
			EarlyFollowUp:        -0.08,
			HomeHealth:           -0.05,
			LivesAlone:           0.08,
			NoCaregiver:          0.06,
			TransportBarrier:     0.09,
			FoodInsecurity:       0.07,
			HousingInstability:   0.10,
			SocialIsolation:      0.08,
			LimitedLiteracy:      0.06,
			HighFallRisk:         0.12,
			MobilityImpairment:   0.08,
			CognitiveSevere:      0.12,
			CognitiveModerate:    0.08,
			CognitiveMild:        0.04,
			ADLDependence:        0.09,
			MissedCheckIns:       0.14,
			EngagementDrop:       0.10,
			NegativeMood:         0.08,
			StrongEngagement:     -0.10,
			BloodPressureConcern: 0.10,
			GlucoseConcern:       0.09,
			WeightChange:         0.08,
			WorseningPain:        0.06,
		},

		CriticalFields: []CriticalField{
			{Name: "clinical.vitals", Weight: 3, Present: func(av domain.DataAvailability) bool { return av.Vitals }},
			{Name: "clinical.labs", Weight: 2, Present: func(av domain.DataAvailability) bool { return av.Labs }},
			{Name: "clinical.comorbidities", Weight: 2, Present: func(av domain.DataAvailability) bool { return av.Comorbidities }},
			{Name: "medication.active_list", Weight: 3, Present: func(av domain.DataAvailability) bool { return av.Medications }},
			{Name: "post_discharge.appointments", Weight: 2, Present: func(av domain.DataAvailability) bool { return av.Appointments }},
			{Name: "social.sdoh_survey", Weight: 3, Present: func(av domain.DataAvailability) bool { return av.SDOH }},
			{Name: "functional.assessment", Weight: 2, Present: func(av domain.DataAvailability) bool { return av.Assessment }},
			{Name: "engagement.check_ins", Weight: 2, Present: func(av domain.DataAvailability) bool { return av.CheckIns }},
			{Name: "self_reported.readings", Weight: 1, Present: func(av domain.DataAvailability) bool { return av.SelfReports }},
		},
	}
}
