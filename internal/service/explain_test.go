package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

func newExplainer() *Explainer {
	return NewExplainer(riskmodel.V1())
}

func factorNames(factors []domain.RiskFactor) []string {
	names := make([]string, 0, len(factors))
	for _, f := range factors {
		names = append(names, f.Name)
	}
	return names
}

func TestExplainRanksByAbsoluteWeight(t *testing.T) {
	fv := &domain.FeatureVector{
		Clinical: domain.ClinicalFeatures{
			PriorAdmissions90Days: 2, // 0.15 * 2 = 0.30
			VitalsStable:          true,
		},
		PostDischarge: domain.PostDischargeFeatures{
			FollowUpScheduled: false, // no_follow_up 0.12
		},
		Social: domain.SocialFeatures{
			HasCaregiver:          true,
			TransportationBarrier: true, // smaller weight
		},
		CompletenessScore: 80,
	}

	expl := newExplainer().Explain(fv, domain.RiskHigh)

	names := factorNames(expl.RiskFactors)
	require.NotEmpty(t, names)
	assert.Equal(t, "prior_admissions", names[0], "scaled admission weight outranks the rest")
	assert.InDelta(t, 0.30, expl.RiskFactors[0].Weight, 1e-9)
}

func TestExplainSplitsProtectiveFactors(t *testing.T) {
	fv := &domain.FeatureVector{
		Clinical: domain.ClinicalFeatures{VitalsStable: true},
		PostDischarge: domain.PostDischargeFeatures{
			FollowUpScheduled:   true,
			FollowUpWithin7Days: true,
			HomeHealthOrdered:   true,
		},
		Social: domain.SocialFeatures{HasCaregiver: true},
		Engagement: domain.EngagementFeatures{
			CheckInRate30Days: 0.85,
		},
		CompletenessScore: 90,
	}

	expl := newExplainer().Explain(fv, domain.RiskLow)

	protective := factorNames(expl.ProtectiveFactors)
	assert.Contains(t, protective, "early_follow_up")
	assert.Contains(t, protective, "home_health")
	assert.Contains(t, protective, "strong_engagement")
	assert.NotContains(t, factorNames(expl.RiskFactors), "early_follow_up")

	for _, f := range expl.ProtectiveFactors {
		assert.Negative(t, f.Weight, "protective factor %s must carry negative weight", f.Name)
	}
}

func TestExplainDistanceFactorUsesComputedWeight(t *testing.T) {
	fv := &domain.FeatureVector{
		Clinical: domain.ClinicalFeatures{VitalsStable: true},
		Social: domain.SocialFeatures{
			HasCaregiver:             true,
			DistanceToCareRiskWeight: 0.25,
		},
		CompletenessScore: 70,
	}

	expl := newExplainer().Explain(fv, domain.RiskModerate)

	var found bool
	for _, f := range expl.RiskFactors {
		if f.Name == "distance_to_care" {
			found = true
			assert.Equal(t, 0.25, f.Weight)
		}
	}
	assert.True(t, found)
}

func TestExplainInterventionsComeFromTopFactors(t *testing.T) {
	fv := &domain.FeatureVector{
		Clinical: domain.ClinicalFeatures{
			VitalsStable:          false,
			PriorAdmissions90Days: 3,
		},
		Medication: domain.MedicationFeatures{
			IsPolypharmacy:        true,
			ActiveMedicationCount: 8,
		},
		PostDischarge: domain.PostDischargeFeatures{FollowUpScheduled: false},
		Social:        domain.SocialFeatures{HasCaregiver: true},
		Engagement:    domain.EngagementFeatures{ConsecutiveMissed: 4},
		CompletenessScore: 85,
	}

	expl := newExplainer().Explain(fv, domain.RiskCritical)

	require.NotEmpty(t, expl.Interventions)
	assert.LessOrEqual(t, len(expl.Interventions), 5)

	descriptions := make([]string, 0, len(expl.Interventions))
	for _, iv := range expl.Interventions {
		descriptions = append(descriptions, iv.Description)
		assert.NotEmpty(t, iv.Timeframe)
		assert.NotEmpty(t, iv.ResponsibleRole)
	}
	assert.Contains(t, strings.Join(descriptions, " | "), "transitional care")
}

func TestExplainFallbackIntervention(t *testing.T) {
	// Only factors with no table entry: the generic monitoring item fills in.
	fv := &domain.FeatureVector{
		Clinical:          domain.ClinicalFeatures{VitalsStable: true, EDVisits90Days: 1},
		PostDischarge:     domain.PostDischargeFeatures{FollowUpScheduled: true},
		Social:            domain.SocialFeatures{HasCaregiver: true},
		CompletenessScore: 90,
	}

	expl := newExplainer().Explain(fv, domain.RiskLow)

	require.Len(t, expl.Interventions, 1)
	assert.Equal(t, domain.PriorityLow, expl.Interventions[0].Priority)
}

func TestExplainNarrativeOpeningMatchesCategory(t *testing.T) {
	fv := &domain.FeatureVector{
		Clinical:          domain.ClinicalFeatures{VitalsStable: true},
		PostDischarge:     domain.PostDischargeFeatures{FollowUpScheduled: true},
		Social:            domain.SocialFeatures{HasCaregiver: true},
		CompletenessScore: 90,
	}

	tests := []struct {
		category domain.RiskCategory
		opening  string
	}{
		{domain.RiskCritical, "very high chance"},
		{domain.RiskHigh, "high chance"},
		{domain.RiskModerate, "moderate chance"},
		{domain.RiskLow, "low chance"},
	}

	for _, tt := range tests {
		expl := newExplainer().Explain(fv, tt.category)
		assert.Contains(t, expl.Narrative, tt.opening, "category %s", tt.category)
	}
}

func TestExplainClosingActionPriority(t *testing.T) {
	base := func() *domain.FeatureVector {
		return &domain.FeatureVector{
			Clinical:          domain.ClinicalFeatures{VitalsStable: true},
			PostDischarge:     domain.PostDischargeFeatures{FollowUpScheduled: true},
			Social:            domain.SocialFeatures{HasCaregiver: true},
			CompletenessScore: 90,
		}
	}

	t.Run("no follow-up outranks everything", func(t *testing.T) {
		fv := base()
		fv.PostDischarge.FollowUpScheduled = false
		fv.Engagement.ConsecutiveMissed = 5
		fv.Social.TransportationBarrier = true

		expl := newExplainer().Explain(fv, domain.RiskCritical)
		assert.Contains(t, expl.Narrative, "doctor visit on the calendar")
	})

	t.Run("missed check-ins next", func(t *testing.T) {
		fv := base()
		fv.Engagement.ConsecutiveMissed = 5
		fv.Social.TransportationBarrier = true

		expl := newExplainer().Explain(fv, domain.RiskCritical)
		assert.Contains(t, expl.Narrative, "back to daily check-ins")
	})

	t.Run("transportation next", func(t *testing.T) {
		fv := base()
		fv.Social.TransportationBarrier = true

		expl := newExplainer().Explain(fv, domain.RiskHigh)
		assert.Contains(t, expl.Narrative, "arranging a ride")
	})

	t.Run("lives alone without caregiver", func(t *testing.T) {
		fv := base()
		fv.Social.LivesAlone = true
		fv.Social.HasCaregiver = false

		expl := newExplainer().Explain(fv, domain.RiskModerate)
		assert.Contains(t, expl.Narrative, "help at home")
	})

	t.Run("high category reassurance", func(t *testing.T) {
		expl := newExplainer().Explain(base(), domain.RiskHigh)
		assert.Contains(t, expl.Narrative, "checking in frequently")
	})

	t.Run("default adherence reminder", func(t *testing.T) {
		expl := newExplainer().Explain(base(), domain.RiskLow)
		assert.Contains(t, expl.Narrative, "as prescribed")
	})
}

func TestExplainGoodNews(t *testing.T) {
	fv := &domain.FeatureVector{
		Clinical: domain.ClinicalFeatures{VitalsStable: true},
		PostDischarge: domain.PostDischargeFeatures{
			FollowUpScheduled:   true,
			FollowUpWithin7Days: true,
		},
		Social:            domain.SocialFeatures{HasCaregiver: true},
		CompletenessScore: 90,
	}

	expl := newExplainer().Explain(fv, domain.RiskLow)
	assert.Contains(t, expl.Narrative, "Good news:")
}

func TestExplainDataQualityVerdict(t *testing.T) {
	assert.Equal(t, "good", dataQualityVerdict(80))
	assert.Equal(t, "partial", dataQualityVerdict(50))
	assert.Equal(t, "limited", dataQualityVerdict(49))
	assert.Equal(t, "limited", dataQualityVerdict(0))
}
