package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

func extractSelfReport(t *testing.T, readings []domain.SelfReading) domain.SelfReportedFeatures {
	t.Helper()
	f, _, err := NewSelfReportExtractor(riskmodel.V1(), &fakeSources{readings: readings}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)
	return f
}

func TestSelfReportBloodPressureConcern(t *testing.T) {
	tests := []struct {
		name     string
		systolic float64
		diast    float64
		want     bool
	}{
		{"normal", 125, 82, false},
		{"systolic high", 165, 80, true},
		{"systolic low", 85, 70, true},
		{"diastolic high", 130, 105, true},
		{"zero systolic skipped", 0, 80, false},
		{"boundary high", 160, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := extractSelfReport(t, []domain.SelfReading{
				{Kind: domain.ReadingBloodPressure, Systolic: tt.systolic, Diastolic: tt.diast},
			})
			assert.Equal(t, tt.want, f.BloodPressureConcern)
		})
	}
}

func TestSelfReportGlucoseConcern(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"normal", 110, false},
		{"high", 260, true},
		{"low", 55, true},
		{"zero skipped", 0, false},
		{"boundary low", 70, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := extractSelfReport(t, []domain.SelfReading{
				{Kind: domain.ReadingGlucose, Value: tt.value},
			})
			assert.Equal(t, tt.want, f.GlucoseConcern)
		})
	}
}

func TestSelfReportWeightChange(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    bool
	}{
		{"single reading never flags", []float64{200}, false},
		{"stable weight", []float64{180, 181, 182}, false},
		{"gain beyond five percent", []float64{170, 175, 180}, true},
		{"loss beyond five percent", []float64{200, 195, 188}, true},
		{"exactly five percent not flagged", []float64{210, 200}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readings []domain.SelfReading
			for _, w := range tt.weights {
				readings = append(readings, domain.SelfReading{Kind: domain.ReadingWeight, Value: w})
			}
			f := extractSelfReport(t, readings)
			assert.Equal(t, tt.want, f.WeightChangeConcern)
		})
	}
}

func TestSelfReportPainTrend(t *testing.T) {
	worsening := extractSelfReport(t, []domain.SelfReading{
		{Kind: domain.ReadingPain, Value: 3},
		{Kind: domain.ReadingPain, Value: 5},
		{Kind: domain.ReadingPain, Value: 7},
	})
	assert.True(t, worsening.PainTrendWorsening)

	improving := extractSelfReport(t, []domain.SelfReading{
		{Kind: domain.ReadingPain, Value: 7},
		{Kind: domain.ReadingPain, Value: 4},
	})
	assert.False(t, improving.PainTrendWorsening)

	single := extractSelfReport(t, []domain.SelfReading{
		{Kind: domain.ReadingPain, Value: 9},
	})
	assert.False(t, single.PainTrendWorsening)
}

func TestSelfReportSymptomCountAndAvailability(t *testing.T) {
	f, av, err := NewSelfReportExtractor(riskmodel.V1(), &fakeSources{readings: []domain.SelfReading{
		{Kind: domain.ReadingSymptom, Note: "short of breath"},
		{Kind: domain.ReadingSymptom, Note: "ankle swelling"},
	}}, testLogger()).Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, av.SelfReports)
	assert.Equal(t, 2, f.SymptomReportCount)
	assert.Equal(t, 2, f.ReadingCount)

	_, avEmpty, err := NewSelfReportExtractor(riskmodel.V1(), &fakeSources{}, testLogger()).
		Extract(context.Background(), testInput())
	require.NoError(t, err)
	assert.False(t, avEmpty.SelfReports)
}
