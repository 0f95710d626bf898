package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

func TestSocialExtractNoSurvey(t *testing.T) {
	f, av, err := NewSocialExtractor(riskmodel.V1(), &fakeSources{}, staticRuca{domain.RuralIsolated}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.False(t, av.SDOH)
	assert.Equal(t, domain.RuralUrban, f.RuralCategory, "no survey means no zip, default urban")
	assert.Equal(t, "uninsured", f.InsuranceCategory)
	assert.Zero(t, f.DistanceToCareRiskWeight)
	assert.False(t, f.LivesAlone)
}

func TestSocialExtractResolvesRuralityFromZip(t *testing.T) {
	src := &fakeSources{sdoh: &domain.SDOHIndicators{
		ZipCode:               "59801",
		HospitalDistanceMiles: 45,
		PCPDistanceMiles:      30,
	}}

	f, av, err := NewSocialExtractor(riskmodel.V1(), src, staticRuca{domain.RuralIsolated}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, av.SDOH)
	assert.Equal(t, domain.RuralIsolated, f.RuralCategory)
	// 0.15 + 0.05 = 0.20, x1.3 = 0.26, capped at 0.25.
	assert.InDelta(t, 0.25, f.DistanceToCareRiskWeight, 1e-9)
}

func TestSocialExtractSkipsResolverWithoutZip(t *testing.T) {
	src := &fakeSources{sdoh: &domain.SDOHIndicators{
		HospitalDistanceMiles: 25,
	}}

	f, _, err := NewSocialExtractor(riskmodel.V1(), src, staticRuca{domain.RuralIsolated}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, domain.RuralUrban, f.RuralCategory)
	assert.InDelta(t, 0.10, f.DistanceToCareRiskWeight, 1e-9)
}

func TestSocialExtractIsolationSignals(t *testing.T) {
	tests := []struct {
		name          string
		daysAlone     int
		familyContact int
		wantIsolated  bool
		wantLimited   bool
	}{
		{"isolated and limited", 20, 3, true, true},
		{"boundary days alone not isolated", 15, 8, false, false},
		{"well connected", 2, 20, false, false},
		{"boundary family contact limited", 0, 7, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSources{sdoh: &domain.SDOHIndicators{
				DaysAloneMentions:     tt.daysAlone,
				FamilyContactMentions: tt.familyContact,
			}}
			f, _, err := NewSocialExtractor(riskmodel.V1(), src, staticRuca{domain.RuralUrban}, testLogger()).
				Extract(context.Background(), testInput())
			require.NoError(t, err)
			assert.Equal(t, tt.wantIsolated, f.SociallyIsolated)
			assert.Equal(t, tt.wantLimited, f.LimitedFamilyContact)
		})
	}
}

func TestSocialExtractSurveyFlags(t *testing.T) {
	src := &fakeSources{sdoh: &domain.SDOHIndicators{
		LivesAlone:            true,
		TransportationBarrier: true,
		HousingInstability:    true,
		InsuranceType:         "dual",
		HealthLiteracyScore:   2,
		FamilyContactMentions: 10,
	}}

	f, _, err := NewSocialExtractor(riskmodel.V1(), src, staticRuca{domain.RuralUrban}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, f.LivesAlone)
	assert.False(t, f.HasCaregiver)
	assert.True(t, f.TransportationBarrier)
	assert.False(t, f.FoodInsecurity)
	assert.True(t, f.HousingInstability)
	assert.Equal(t, "dual_eligible", f.InsuranceCategory)
	assert.True(t, f.HealthLiteracyLimited)
}
