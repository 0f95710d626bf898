package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

func TestFunctionalExtractNoAssessment(t *testing.T) {
	f, av, err := NewFunctionalExtractor(riskmodel.V1(), &fakeSources{}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.False(t, av.Assessment)
	assert.Equal(t, domain.CognitiveNone, f.CognitiveSeverity)
	assert.Equal(t, 0, f.FallRiskScore)
	assert.False(t, f.MobilityImpaired)
}

func TestFunctionalExtractHighRiskAssessment(t *testing.T) {
	src := &fakeSources{assessment: &domain.FunctionalAssessment{
		ADLDependencies:    4,
		MobilityRiskScore:  8,
		CognitiveRiskScore: 7,
		MobilityNotes:      "uses a walker daily",
		FallsLast90Days:    3,
	}}

	f, av, err := NewFunctionalExtractor(riskmodel.V1(), src, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, av.Assessment)
	assert.Equal(t, 4, f.ADLDependencyCount)
	assert.True(t, f.MobilityImpaired)
	assert.True(t, f.UsesWalkingAid)
	assert.Equal(t, 3, f.FallsLast90Days)
	assert.Equal(t, 10, f.FallRiskScore)
	assert.Equal(t, domain.CognitiveModerate, f.CognitiveSeverity)
}

func TestFunctionalExtractMobilityBoundary(t *testing.T) {
	src := &fakeSources{assessment: &domain.FunctionalAssessment{MobilityRiskScore: 5}}

	f, _, err := NewFunctionalExtractor(riskmodel.V1(), src, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.False(t, f.MobilityImpaired, "score five is the threshold, not above it")
	assert.False(t, f.UsesWalkingAid)
}
