package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// fakeSources implements every extractor source interface from canned
// data, with optional per-source errors.
type fakeSources struct {
	vitals        *domain.VitalsReading
	labs          *domain.LabPanel
	comorbidities []string
	admissions    int
	edVisits      int
	meds          []domain.Medication
	appointments  []domain.Appointment
	services      *domain.OrderedServices
	sdoh          *domain.SDOHIndicators
	assessment    *domain.FunctionalAssessment
	checkIns      []domain.CheckIn
	readings      []domain.SelfReading

	err error

	admissionsSince time.Time
	apptsAsOf       time.Time
	checkInsSince   time.Time
	readingsSince   time.Time
}

func (f *fakeSources) DischargeVitals(ctx context.Context, patientID, tenantID string) (*domain.VitalsReading, error) {
	return f.vitals, f.err
}

func (f *fakeSources) LatestLabs(ctx context.Context, patientID, tenantID string) (*domain.LabPanel, error) {
	return f.labs, f.err
}

func (f *fakeSources) Comorbidities(ctx context.Context, patientID, tenantID string) ([]string, error) {
	return f.comorbidities, f.err
}

func (f *fakeSources) AdmissionCounts(ctx context.Context, patientID, tenantID string, since time.Time) (int, int, error) {
	f.admissionsSince = since
	return f.admissions, f.edVisits, f.err
}

func (f *fakeSources) ActiveMedications(ctx context.Context, patientID, tenantID string) ([]domain.Medication, error) {
	return f.meds, f.err
}

func (f *fakeSources) UpcomingAppointments(ctx context.Context, patientID, tenantID string, asOf time.Time) ([]domain.Appointment, error) {
	f.apptsAsOf = asOf
	return f.appointments, f.err
}

func (f *fakeSources) ServicesOrdered(ctx context.Context, patientID, tenantID string) (*domain.OrderedServices, error) {
	return f.services, f.err
}

func (f *fakeSources) Indicators(ctx context.Context, patientID, tenantID string) (*domain.SDOHIndicators, error) {
	return f.sdoh, f.err
}

func (f *fakeSources) LatestAssessment(ctx context.Context, patientID, tenantID string) (*domain.FunctionalAssessment, error) {
	return f.assessment, f.err
}

func (f *fakeSources) CheckInsSince(ctx context.Context, patientID, tenantID string, since time.Time) ([]domain.CheckIn, error) {
	f.checkInsSince = since
	return f.checkIns, f.err
}

func (f *fakeSources) ReadingsSince(ctx context.Context, patientID, tenantID string, since time.Time) ([]domain.SelfReading, error) {
	f.readingsSince = since
	return f.readings, f.err
}

type staticRuca struct {
	category domain.RuralCategory
}

func (s staticRuca) Resolve(ctx context.Context, zipCode string) (domain.RuralCategory, error) {
	return s.category, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testInput() Input {
	return Input{
		Context: &domain.DischargeContext{
			PatientID:        "11111111-2222-3333-4444-555555555555",
			TenantID:         "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
			DischargedAt:     time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			FacilityName:     "Mercy General",
			Disposition:      domain.DispositionHome,
			PrimaryDiagnosis: "I50.9",
			LengthOfStayDays: 4,
		},
		AsOf: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func newAggregator(src *fakeSources, ruca domain.RucaResolver) *Aggregator {
	cfg := riskmodel.V1()
	log := testLogger()
	return NewAggregator(
		cfg,
		log,
		NewClinicalExtractor(cfg, src, log),
		NewMedicationExtractor(cfg, src, UnwiredMedicationChangeDetector{}, log),
		NewPostDischargeExtractor(cfg, src, UnwiredInstructionConfirmation{}, log),
		NewSocialExtractor(cfg, src, ruca, log),
		NewFunctionalExtractor(cfg, src, log),
		NewEngagementExtractor(cfg, src, log),
		NewSelfReportExtractor(cfg, src, log),
	)
}

func TestAggregateFullScenario(t *testing.T) {
	in := testInput()
	f := func(v float64) *float64 { return &v }
	src := &fakeSources{
		vitals:        &domain.VitalsReading{Systolic: 130, Diastolic: 82, HeartRate: 78, OxygenSaturation: 96},
		labs:          &domain.LabPanel{EGFR: f(55), Hemoglobin: f(12.5), Sodium: f(139), Glucose: f(110)},
		comorbidities: []string{"I50.9", "E11.9", "N18.3"},
		admissions:    1,
		edVisits:      2,
		meds: []domain.Medication{
			{Name: "Warfarin 5mg", Active: true},
			{Name: "Insulin glargine", Active: true},
			{Name: "Lisinopril", Active: true},
			{Name: "Metformin", Active: true},
			{Name: "Furosemide", Active: true},
			{Name: "Old statin", Active: false},
		},
		appointments: []domain.Appointment{
			{Kind: "pcp_follow_up", ScheduledAt: in.AsOf.AddDate(0, 0, 5), Status: "scheduled"},
		},
		services: &domain.OrderedServices{HomeHealth: true},
		sdoh: &domain.SDOHIndicators{
			LivesAlone:            true,
			ZipCode:               "59801",
			HospitalDistanceMiles: 65,
			PCPDistanceMiles:      35,
			InsuranceType:         "medicare",
			DaysAloneMentions:     20,
			FamilyContactMentions: 3,
		},
		assessment: &domain.FunctionalAssessment{
			ADLDependencies:    2,
			MobilityRiskScore:  4,
			CognitiveRiskScore: 2,
			FallsLast90Days:    1,
		},
		checkIns: []domain.CheckIn{
			{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -1)},
			{Status: domain.CheckInMissed, RecordedAt: in.AsOf.AddDate(0, 0, -2)},
		},
		readings: []domain.SelfReading{
			{Kind: domain.ReadingWeight, Value: 180, RecordedAt: in.AsOf.AddDate(0, 0, -10)},
			{Kind: domain.ReadingWeight, Value: 182, RecordedAt: in.AsOf.AddDate(0, 0, -1)},
		},
	}

	fv, err := newAggregator(src, staticRuca{domain.RuralIsolated}).Aggregate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 3, fv.Clinical.ComorbidityCount)
	assert.True(t, fv.Clinical.HasCHF)
	assert.True(t, fv.Clinical.PrimaryDiagnosisHighRisk)
	assert.True(t, fv.Clinical.VitalsStable)
	assert.False(t, fv.Clinical.LabTrendsConcerning)
	assert.Equal(t, domain.LOSNormal, fv.Clinical.LengthOfStayCategory)

	assert.Equal(t, 5, fv.Medication.ActiveMedicationCount)
	assert.True(t, fv.Medication.IsPolypharmacy)
	assert.True(t, fv.Medication.OnAnticoagulants)
	assert.True(t, fv.Medication.OnInsulin)
	assert.Equal(t, 2, fv.Medication.HighRiskClassCount)

	assert.True(t, fv.PostDischarge.FollowUpScheduled)
	assert.Equal(t, 5, fv.PostDischarge.DaysUntilFollowUp)
	assert.True(t, fv.PostDischarge.FollowUpWithin7Days)
	assert.True(t, fv.PostDischarge.HomeHealthOrdered)

	// 65 mi hospital (0.20) + 35 mi pcp (0.10) = 0.30, x1.3 isolated, capped.
	assert.InDelta(t, 0.25, fv.Social.DistanceToCareRiskWeight, 1e-9)
	assert.Equal(t, domain.RuralIsolated, fv.Social.RuralCategory)
	assert.True(t, fv.Social.SociallyIsolated)
	assert.True(t, fv.Social.LimitedFamilyContact)
	assert.Equal(t, "medicare", fv.Social.InsuranceCategory)

	assert.Equal(t, 2, fv.Functional.FallRiskScore)
	assert.Equal(t, domain.CognitiveNone, fv.Functional.CognitiveSeverity)

	// All ten sources present.
	assert.Equal(t, 100, fv.CompletenessScore)
	assert.Empty(t, fv.MissingFields)
	assert.Contains(t, fv.SourcesAvailable, "vitals")
	assert.Contains(t, fv.SourcesAvailable, "self_reports")
}

func TestAggregateCompletenessPartial(t *testing.T) {
	// Vitals missing (weight 3): 17 of 20 present rounds to 85.
	in := testInput()
	src := &fakeSources{
		labs:          &domain.LabPanel{},
		comorbidities: []string{},
		meds:          []domain.Medication{{Name: "Aspirin", Active: true}},
		appointments:  []domain.Appointment{{ScheduledAt: in.AsOf.AddDate(0, 0, 3), Status: "scheduled"}},
		sdoh:          &domain.SDOHIndicators{FamilyContactMentions: 10},
		assessment:    &domain.FunctionalAssessment{},
		checkIns:      []domain.CheckIn{{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -1)}},
		readings:      []domain.SelfReading{{Kind: domain.ReadingPain, Value: 3, RecordedAt: in.AsOf.AddDate(0, 0, -1)}},
	}

	fv, err := newAggregator(src, staticRuca{domain.RuralUrban}).Aggregate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 85, fv.CompletenessScore)
	assert.Equal(t, []string{"clinical.vitals"}, fv.MissingFields)
	assert.NotContains(t, fv.SourcesAvailable, "vitals")
}

func TestAggregateEmptySourcesStillScoresAdmissionHistory(t *testing.T) {
	// Admission history is always sourced; everything else missing.
	fv, err := newAggregator(&fakeSources{}, staticRuca{domain.RuralUrban}).Aggregate(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, 0, fv.CompletenessScore)
	assert.Len(t, fv.MissingFields, 9)
	assert.Equal(t, []string{"admission_history"}, fv.SourcesAvailable)
	assert.True(t, fv.Clinical.VitalsStable, "missing vitals are stable, not unstable")
	assert.False(t, fv.Clinical.LabTrendsConcerning)
}

func TestAggregateWindowsAnchoredToAsOf(t *testing.T) {
	// Trailing windows derive from the as-of timestamp, not the wall
	// clock, so an as-of override yields the same extraction every run.
	in := testInput()
	src := &fakeSources{}

	_, err := newAggregator(src, staticRuca{domain.RuralUrban}).Aggregate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.AsOf.AddDate(0, 0, -90), src.admissionsSince)
	assert.Equal(t, in.AsOf.AddDate(0, 0, -30), src.checkInsSince)
	assert.Equal(t, in.AsOf.AddDate(0, 0, -30), src.readingsSince)
	assert.Equal(t, in.AsOf, src.apptsAsOf)
}

func TestAggregateSourceErrorFailsExtraction(t *testing.T) {
	src := &fakeSources{err: errors.New("store unavailable")}

	fv, err := newAggregator(src, staticRuca{domain.RuralUrban}).Aggregate(context.Background(), testInput())
	require.Error(t, err)
	assert.Nil(t, fv)
}
