package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

func newEngagementExtractor(src *fakeSources) *EngagementExtractor {
	return NewEngagementExtractor(riskmodel.V1(), src, testLogger())
}

func TestEngagementNoHistory(t *testing.T) {
	f, av, err := newEngagementExtractor(&fakeSources{}).Extract(context.Background(), testInput())
	require.NoError(t, err)

	assert.False(t, av.CheckIns)
	assert.Equal(t, 0, f.TotalCheckIns30Days)
	assert.Zero(t, f.CheckInRate30Days)
	assert.False(t, f.EngagementDropDetected)
}

func TestEngagementFixedDenominatorRates(t *testing.T) {
	in := testInput()

	// 15 completed in the window, 3 of them in the last 7 days. Rates
	// divide by the window lengths, not by the record count.
	var checkIns []domain.CheckIn
	for i := 1; i <= 3; i++ {
		checkIns = append(checkIns, domain.CheckIn{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -i)})
	}
	for i := 8; i < 20; i++ {
		checkIns = append(checkIns, domain.CheckIn{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -i)})
	}

	f, av, err := newEngagementExtractor(&fakeSources{checkIns: checkIns}).Extract(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, av.CheckIns)
	assert.Equal(t, 15, f.TotalCheckIns30Days)
	assert.InDelta(t, 15.0/30.0, f.CheckInRate30Days, 1e-9)
	assert.InDelta(t, 3.0/7.0, f.CheckInRate7Days, 1e-9)
}

func TestEngagementConsecutiveMissedSkipsPending(t *testing.T) {
	in := testInput()

	// Newest first: missed, pending, missed, completed, missed.
	// The pending entry neither breaks nor counts; the completed one
	// ends the streak at two.
	checkIns := []domain.CheckIn{
		{Status: domain.CheckInMissed, RecordedAt: in.AsOf.AddDate(0, 0, -1)},
		{Status: domain.CheckInPending, RecordedAt: in.AsOf.AddDate(0, 0, -2)},
		{Status: domain.CheckInMissed, RecordedAt: in.AsOf.AddDate(0, 0, -3)},
		{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -4)},
		{Status: domain.CheckInMissed, RecordedAt: in.AsOf.AddDate(0, 0, -5)},
	}

	f, _, err := newEngagementExtractor(&fakeSources{checkIns: checkIns}).Extract(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, f.ConsecutiveMissed)
}

func TestEngagementDropDetected(t *testing.T) {
	in := testInput()

	// Nine completed in the earlier period (9/23 ≈ 0.39), none in the
	// last 7 days. The gap exceeds the 0.3 drop threshold.
	var checkIns []domain.CheckIn
	for i := 1; i <= 3; i++ {
		checkIns = append(checkIns, domain.CheckIn{Status: domain.CheckInMissed, RecordedAt: in.AsOf.AddDate(0, 0, -i)})
	}
	for i := 8; i < 17; i++ {
		checkIns = append(checkIns, domain.CheckIn{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -i)})
	}

	f, _, err := newEngagementExtractor(&fakeSources{checkIns: checkIns}).Extract(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, f.EngagementDropDetected)
}

func TestEngagementNoDropWhenStable(t *testing.T) {
	in := testInput()

	checkIns := []domain.CheckIn{
		{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -1)},
		{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -3)},
		{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -10)},
		{Status: domain.CheckInCompleted, RecordedAt: in.AsOf.AddDate(0, 0, -15)},
	}

	f, _, err := newEngagementExtractor(&fakeSources{checkIns: checkIns}).Extract(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, f.EngagementDropDetected)
}

func TestEngagementNegativeMoodTrend(t *testing.T) {
	in := testInput()

	tests := []struct {
		name  string
		moods []string
		want  bool
	}{
		{"majority negative", []string{"feeling anxious", "so depressed", "fine", "worried today"}, true},
		{"minority negative", []string{"sad", "fine", "good", "good", "great"}, false},
		{"exactly at threshold not flagged", []string{"hopeless", "worried", "fine", "fine", "fine"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checkIns []domain.CheckIn
			for i, mood := range tt.moods {
				checkIns = append(checkIns, domain.CheckIn{
					Status:     domain.CheckInCompleted,
					MoodText:   mood,
					RecordedAt: in.AsOf.AddDate(0, 0, -(i + 1)),
				})
			}
			f, _, err := newEngagementExtractor(&fakeSources{checkIns: checkIns}).Extract(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.NegativeMoodTrend)
		})
	}
}
