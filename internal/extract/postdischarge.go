package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// PostDischargeExtractor derives follow-up and ordered-service features.
type PostDischargeExtractor struct {
	cfg          *riskmodel.Config
	src          domain.AppointmentSource
	instructions domain.InstructionConfirmationSource
	log          *logrus.Logger
}

// NewPostDischargeExtractor creates a post-discharge feature extractor.
func NewPostDischargeExtractor(cfg *riskmodel.Config, src domain.AppointmentSource, instructions domain.InstructionConfirmationSource, logger *logrus.Logger) *PostDischargeExtractor {
	return &PostDischargeExtractor{cfg: cfg, src: src, instructions: instructions, log: logger}
}

// Extract builds the post-discharge feature record. The earliest upcoming
// appointment drives the follow-up timing; a same-day follow-up does not
// count as within the early window because a zero day count reads as
// absent.
func (e *PostDischargeExtractor) Extract(ctx context.Context, in Input) (domain.PostDischargeFeatures, domain.DataAvailability, error) {
	var (
		f  domain.PostDischargeFeatures
		av domain.DataAvailability
	)

	appts, err := e.src.UpcomingAppointments(ctx, in.PatientID(), in.TenantID(), in.AsOf)
	if err != nil {
		return f, av, fmt.Errorf("querying upcoming appointments: %w", err)
	}
	av.Appointments = appts != nil

	var earliest *time.Time
	for _, a := range appts {
		if a.Status == "cancelled" {
			continue
		}
		f.PendingAppointmentCount++
		when := a.ScheduledAt
		if earliest == nil || when.Before(*earliest) {
			earliest = &when
		}
	}
	if earliest != nil {
		f.FollowUpScheduled = true
		f.DaysUntilFollowUp = riskmodel.DaysUntil(in.AsOf, *earliest)
	}
	f.FollowUpWithin7Days = e.cfg.FollowUpWithinSoonWindow(f.DaysUntilFollowUp)

	services, err := e.src.ServicesOrdered(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying ordered services: %w", err)
	}
	if services != nil {
		f.HomeHealthOrdered = services.HomeHealth
		f.DMEOrdered = services.DME
	}

	confirmed, err := e.instructions.Confirmed(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("checking instruction confirmation: %w", err)
	}
	f.InstructionsConfirmed = confirmed

	e.log.WithFields(logrus.Fields{
		"patient_id":          in.PatientID(),
		"follow_up_scheduled": f.FollowUpScheduled,
		"days_until":          f.DaysUntilFollowUp,
	}).Debug("Extracted post-discharge features")

	return f, av, nil
}
