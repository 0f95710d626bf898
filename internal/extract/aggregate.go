package extract

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// Aggregator fans the seven extractors out in parallel, joins on
// completion and scores data completeness. No extractor observes
// another's output; a single store failure fails the whole extraction.
type Aggregator struct {
	cfg *riskmodel.Config
	log *logrus.Logger

	clinical      *ClinicalExtractor
	medication    *MedicationExtractor
	postDischarge *PostDischargeExtractor
	social        *SocialExtractor
	functional    *FunctionalExtractor
	engagement    *EngagementExtractor
	selfReport    *SelfReportExtractor
}

// NewAggregator creates the feature aggregator.
func NewAggregator(
	cfg *riskmodel.Config,
	logger *logrus.Logger,
	clinical *ClinicalExtractor,
	medication *MedicationExtractor,
	postDischarge *PostDischargeExtractor,
	social *SocialExtractor,
	functional *FunctionalExtractor,
	engagement *EngagementExtractor,
	selfReport *SelfReportExtractor,
) *Aggregator {
	return &Aggregator{
		cfg:           cfg,
		log:           logger,
		clinical:      clinical,
		medication:    medication,
		postDischarge: postDischarge,
		social:        social,
		functional:    functional,
		engagement:    engagement,
		selfReport:    selfReport,
	}
}

// Aggregate runs all seven extractors and merges their outputs into one
// feature vector with a completeness score.
func (a *Aggregator) Aggregate(ctx context.Context, in Input) (*domain.FeatureVector, error) {
	var (
		fv  domain.FeatureVector
		avs [7]domain.DataAvailability
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		fv.Clinical, avs[0], err = a.clinical.Extract(gctx, in)
		return err
	})
	g.Go(func() (err error) {
		fv.Medication, avs[1], err = a.medication.Extract(gctx, in)
		return err
	})
	g.Go(func() (err error) {
		fv.PostDischarge, avs[2], err = a.postDischarge.Extract(gctx, in)
		return err
	})
	g.Go(func() (err error) {
		fv.Social, avs[3], err = a.social.Extract(gctx, in)
		return err
	})
	g.Go(func() (err error) {
		fv.Functional, avs[4], err = a.functional.Extract(gctx, in)
		return err
	})
	g.Go(func() (err error) {
		fv.Engagement, avs[5], err = a.engagement.Extract(gctx, in)
		return err
	})
	g.Go(func() (err error) {
		fv.SelfReported, avs[6], err = a.selfReport.Extract(gctx, in)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}

	for _, av := range avs {
		fv.Availability = mergeAvailability(fv.Availability, av)
	}
	fv.CompletenessScore, fv.MissingFields = a.scoreCompleteness(fv.Availability)
	fv.SourcesAvailable = availableSources(fv.Availability)

	a.log.WithFields(logrus.Fields{
		"patient_id":         in.PatientID(),
		"completeness_score": fv.CompletenessScore,
		"missing_fields":     fv.MissingFields,
	}).Info("Aggregated feature vector")

	return &fv, nil
}

// scoreCompleteness computes round(presentWeight/totalWeight*100) over
// the critical-field table. A field is present when its source data
// existed; false and zero feature values still count as present.
func (a *Aggregator) scoreCompleteness(av domain.DataAvailability) (int, []string) {
	var presentWeight, totalWeight float64
	missing := make([]string, 0)

	for _, cf := range a.cfg.CriticalFields {
		totalWeight += cf.Weight
		if cf.Present(av) {
			presentWeight += cf.Weight
		} else {
			missing = append(missing, cf.Name)
		}
	}
	if totalWeight == 0 {
		return 0, missing
	}
	return int(math.Round(presentWeight / totalWeight * 100)), missing
}

func mergeAvailability(a, b domain.DataAvailability) domain.DataAvailability {
	return domain.DataAvailability{
		Vitals:           a.Vitals || b.Vitals,
		Labs:             a.Labs || b.Labs,
		Comorbidities:    a.Comorbidities || b.Comorbidities,
		AdmissionHistory: a.AdmissionHistory || b.AdmissionHistory,
		Medications:      a.Medications || b.Medications,
		Appointments:     a.Appointments || b.Appointments,
		SDOH:             a.SDOH || b.SDOH,
		Assessment:       a.Assessment || b.Assessment,
		CheckIns:         a.CheckIns || b.CheckIns,
		SelfReports:      a.SelfReports || b.SelfReports,
	}
}

func availableSources(av domain.DataAvailability) []string {
	sources := make([]string, 0, 10)
	add := func(name string, ok bool) {
		if ok {
			sources = append(sources, name)
		}
	}
	add("vitals", av.Vitals)
	add("labs", av.Labs)
	add("comorbidities", av.Comorbidities)
	add("admission_history", av.AdmissionHistory)
	add("medications", av.Medications)
	add("appointments", av.Appointments)
	add("sdoh", av.SDOH)
	add("assessment", av.Assessment)
	add("check_ins", av.CheckIns)
	add("self_reports", av.SelfReports)
	return sources
}
