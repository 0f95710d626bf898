package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// EngagementExtractor derives check-in behavior features from the remote
// check-in history.
type EngagementExtractor struct {
	cfg *riskmodel.Config
	src domain.CheckInSource
	log *logrus.Logger
}

// NewEngagementExtractor creates an engagement feature extractor.
func NewEngagementExtractor(cfg *riskmodel.Config, src domain.CheckInSource, logger *logrus.Logger) *EngagementExtractor {
	return &EngagementExtractor{cfg: cfg, src: src, log: logger}
}

// Extract builds the engagement feature record. Completion rates divide
// by the fixed window lengths, never by the observed record count, so a
// sparse history reads as low engagement rather than as a small sample.
func (e *EngagementExtractor) Extract(ctx context.Context, in Input) (domain.EngagementFeatures, domain.DataAvailability, error) {
	var (
		f  domain.EngagementFeatures
		av domain.DataAvailability
	)

	checkIns, err := e.src.CheckInsSince(ctx, in.PatientID(), in.TenantID(), in.AsOf.AddDate(0, 0, -e.cfg.CheckInWindowDays))
	if err != nil {
		return f, av, fmt.Errorf("querying check-ins: %w", err)
	}
	av.CheckIns = len(checkIns) > 0
	f.TotalCheckIns30Days = len(checkIns)
	if len(checkIns) == 0 {
		return f, av, nil
	}

	recentCutoff := in.AsOf.AddDate(0, 0, -e.cfg.CheckInRecentDays)

	var completed30, completed7, completedPrev, negativeMood int
	for _, ci := range checkIns {
		if e.cfg.MatchesAny(ci.MoodText, e.cfg.NegativeMoodKeywords) {
			negativeMood++
		}
		if ci.Status != domain.CheckInCompleted {
			continue
		}
		completed30++
		if ci.RecordedAt.After(recentCutoff) {
			completed7++
		} else {
			completedPrev++
		}
	}

	f.CheckInRate30Days = float64(completed30) / float64(e.cfg.CheckInWindowDays)
	f.CheckInRate7Days = float64(completed7) / float64(e.cfg.CheckInRecentDays)

	// Walk newest-first: missed increments, completed breaks, anything
	// else (pending) is skipped without breaking or incrementing.
	for _, ci := range checkIns {
		if ci.Status == domain.CheckInMissed {
			f.ConsecutiveMissed++
			continue
		}
		if ci.Status == domain.CheckInCompleted {
			break
		}
	}

	previousRate := float64(completedPrev) / float64(e.cfg.PreviousPeriodDays)
	f.EngagementDropDetected = (previousRate - f.CheckInRate7Days) > e.cfg.EngagementDropDelta

	f.NegativeMoodTrend = float64(negativeMood) > e.cfg.NegativeMoodFraction*float64(len(checkIns))

	e.log.WithFields(logrus.Fields{
		"patient_id":         in.PatientID(),
		"rate_30d":           f.CheckInRate30Days,
		"consecutive_missed": f.ConsecutiveMissed,
		"drop_detected":      f.EngagementDropDetected,
	}).Debug("Extracted engagement features")

	return f, av, nil
}
