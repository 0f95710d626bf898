package domain

import (
	"time"
)

// Raw rows returned by the external data stores. Extractors consume these
// through the source interfaces below and never write anything back.

// VitalsReading is the last vitals set recorded before discharge.
// Zero values are treated as missing, not as out-of-range readings.
type VitalsReading struct {
	Systolic         float64   `json:"systolic"`
	Diastolic        float64   `json:"diastolic"`
	HeartRate        float64   `json:"heart_rate"`
	OxygenSaturation float64   `json:"oxygen_saturation"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// LabPanel holds the most recent lab results. Unlike vitals, absence is
// modeled with nil pointers: a present zero is a real (alarming) value.
type LabPanel struct {
	EGFR       *float64  `json:"egfr,omitempty"`
	Hemoglobin *float64  `json:"hemoglobin,omitempty"`
	Sodium     *float64  `json:"sodium,omitempty"`
	Glucose    *float64  `json:"glucose,omitempty"`
	ResultedAt time.Time `json:"resulted_at"`
}

// Medication is one entry on the active medication list.
type Medication struct {
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage,omitempty"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}

// Appointment is a scheduled post-discharge encounter.
type Appointment struct {
	Kind        string    `json:"kind"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

// OrderedServices captures services arranged at discharge.
type OrderedServices struct {
	HomeHealth bool `json:"home_health"`
	DME        bool `json:"dme"`
}

// SDOHIndicators is the social-determinants survey snapshot.
type SDOHIndicators struct {
	LivesAlone            bool    `json:"lives_alone"`
	HasCaregiver          bool    `json:"has_caregiver"`
	TransportationBarrier bool    `json:"transportation_barrier"`
	FoodInsecurity        bool    `json:"food_insecurity"`
	HousingInstability    bool    `json:"housing_instability"`
	ZipCode               string  `json:"zip_code"`
	HospitalDistanceMiles float64 `json:"hospital_distance_miles"`
	PCPDistanceMiles      float64 `json:"pcp_distance_miles"`
	InsuranceType         string  `json:"insurance_type"`
	HealthLiteracyScore   int     `json:"health_literacy_score"`
	DaysAloneMentions     int     `json:"days_alone_mentions"`
	FamilyContactMentions int     `json:"family_contact_mentions"`
}

// FunctionalAssessment is the latest functional-status evaluation.
type FunctionalAssessment struct {
	ADLDependencies    int       `json:"adl_dependencies"`
	MobilityRiskScore  int       `json:"mobility_risk_score"`
	CognitiveRiskScore int       `json:"cognitive_risk_score"`
	MobilityNotes      string    `json:"mobility_notes"`
	FallsLast90Days    int       `json:"falls_last_90_days"`
	AssessedAt         time.Time `json:"assessed_at"`
}

// CheckInStatus is the disposition of one remote check-in.
type CheckInStatus string

const (
	CheckInCompleted CheckInStatus = "completed"
	CheckInMissed    CheckInStatus = "missed"
	CheckInPending   CheckInStatus = "pending"
)

// CheckIn is one remote check-in record.
type CheckIn struct {
	Status     CheckInStatus `json:"status"`
	MoodText   string        `json:"mood_text,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// ReadingKind labels a self-reported measurement.
type ReadingKind string

const (
	ReadingBloodPressure ReadingKind = "blood_pressure"
	ReadingGlucose       ReadingKind = "glucose"
	ReadingWeight        ReadingKind = "weight"
	ReadingPain          ReadingKind = "pain"
	ReadingSymptom       ReadingKind = "symptom"
)

// SelfReading is one patient-reported measurement or symptom report.
type SelfReading struct {
	Kind       ReadingKind `json:"kind"`
	Systolic   float64     `json:"systolic,omitempty"`
	Diastolic  float64     `json:"diastolic,omitempty"`
	Value      float64     `json:"value,omitempty"`
	Note       string      `json:"note,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}
