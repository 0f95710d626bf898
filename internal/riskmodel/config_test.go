package riskmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
)

// Threshold values are contractual. A failing assertion here means a
// threshold changed without a version bump.
func TestV1GoldenThresholds(t *testing.T) {
	cfg := V1()

	assert.Equal(t, "v1", cfg.Version)

	assert.Equal(t, 2, cfg.LOSTooShortBelow)
	assert.Equal(t, 5, cfg.LOSNormalMax)
	assert.Equal(t, 10, cfg.LOSExtendedMax)

	assert.Equal(t, 90.0, cfg.SystolicMin)
	assert.Equal(t, 160.0, cfg.SystolicMax)
	assert.Equal(t, 60.0, cfg.DiastolicMin)
	assert.Equal(t, 100.0, cfg.DiastolicMax)
	assert.Equal(t, 92.0, cfg.OxygenSatMin)

	assert.Equal(t, 30.0, cfg.EGFRConcernBelow)
	assert.Equal(t, 10.0, cfg.HemoglobinConcernBelow)
	assert.Equal(t, 130.0, cfg.SodiumConcernBelow)
	assert.Equal(t, 150.0, cfg.SodiumConcernAbove)
	assert.Equal(t, 60.0, cfg.GlucoseConcernBelow)
	assert.Equal(t, 200.0, cfg.GlucoseConcernAbove)

	assert.Equal(t, 5, cfg.PolypharmacyCount)
	assert.Equal(t, 7, cfg.FollowUpSoonDays)

	assert.Equal(t, 6, cfg.FallBaseCap)
	assert.Equal(t, 10, cfg.FallScoreCap)

	assert.Equal(t, 1.3, cfg.IsolatedRuralFactor)
	assert.Equal(t, 1.15, cfg.SmallRuralFactor)
	assert.Equal(t, 0.25, cfg.DistanceWeightCap)

	assert.Equal(t, 30, cfg.CheckInWindowDays)
	assert.Equal(t, 7, cfg.CheckInRecentDays)
	assert.Equal(t, 23, cfg.PreviousPeriodDays)
	assert.Equal(t, 0.3, cfg.EngagementDropDelta)
	assert.Equal(t, 0.4, cfg.NegativeMoodFraction)

	assert.Equal(t, 0.05, cfg.WeightChangeFraction)
	assert.Equal(t, 2, cfg.MinWeightReadings)
	assert.Equal(t, 15, cfg.DaysAloneIsolatedAbove)
	assert.Equal(t, 8, cfg.FamilyContactLimitedBelow)
}

func TestV1CriticalFieldWeights(t *testing.T) {
	cfg := V1()

	var total float64
	for _, cf := range cfg.CriticalFields {
		require.NotEmpty(t, cf.Name)
		require.NotNil(t, cf.Present)
		total += cf.Weight
	}
	assert.Equal(t, 20.0, total, "critical field weights must sum to 20")
	assert.Len(t, cfg.CriticalFields, 9)
}

func TestV1CriticalFieldAccessors(t *testing.T) {
	cfg := V1()

	// Every accessor should flip exactly with its availability flag.
	full := domain.DataAvailability{
		Vitals: true, Labs: true, Comorbidities: true, AdmissionHistory: true,
		Medications: true, Appointments: true, SDOH: true, Assessment: true,
		CheckIns: true, SelfReports: true,
	}
	for _, cf := range cfg.CriticalFields {
		assert.True(t, cf.Present(full), "field %s should be present", cf.Name)
		assert.False(t, cf.Present(domain.DataAvailability{}), "field %s should be missing", cf.Name)
	}
}

func TestV1EvidenceWeightSigns(t *testing.T) {
	w := V1().Weights

	// Protective factors carry negative weights.
	assert.Negative(t, w.EarlyFollowUp)
	assert.Negative(t, w.HomeHealth)
	assert.Negative(t, w.StrongEngagement)

	assert.Positive(t, w.MissedCheckIns)
	assert.Positive(t, w.PriorAdmissions)
	assert.Positive(t, w.NoFollowUp)
	assert.Equal(t, 0.14, w.MissedCheckIns)
	assert.Equal(t, 0.15, w.PriorAdmissions)
}
