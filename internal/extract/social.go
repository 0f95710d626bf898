package extract

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

// SocialExtractor derives social-determinants features from the SDOH
// survey snapshot and the rurality lookup.
type SocialExtractor struct {
	cfg  *riskmodel.Config
	src  domain.SDOHSource
	ruca domain.RucaResolver
	log  *logrus.Logger
}

// NewSocialExtractor creates a social-determinants feature extractor.
func NewSocialExtractor(cfg *riskmodel.Config, src domain.SDOHSource, ruca domain.RucaResolver, logger *logrus.Logger) *SocialExtractor {
	return &SocialExtractor{cfg: cfg, src: src, ruca: ruca, log: logger}
}

// Extract builds the social feature record. When no survey exists the
// record stays at its zero values and only the availability flag drops;
// the rurality resolver already falls back to the ZIP prefix heuristic
// when the lookup table has no row.
func (e *SocialExtractor) Extract(ctx context.Context, in Input) (domain.SocialFeatures, domain.DataAvailability, error) {
	var (
		f  domain.SocialFeatures
		av domain.DataAvailability
	)
	f.RuralCategory = domain.RuralUrban
	f.InsuranceCategory = riskmodel.CategorizeInsurance("")

	ind, err := e.src.Indicators(ctx, in.PatientID(), in.TenantID())
	if err != nil {
		return f, av, fmt.Errorf("querying sdoh indicators: %w", err)
	}
	if ind == nil {
		return f, av, nil
	}
	av.SDOH = true

	f.LivesAlone = ind.LivesAlone
	f.HasCaregiver = ind.HasCaregiver
	f.TransportationBarrier = ind.TransportationBarrier
	f.FoodInsecurity = ind.FoodInsecurity
	f.HousingInstability = ind.HousingInstability
	f.InsuranceCategory = riskmodel.CategorizeInsurance(ind.InsuranceType)
	f.HealthLiteracyLimited = e.cfg.HealthLiteracyLimited(ind.HealthLiteracyScore)

	if ind.ZipCode != "" {
		rural, err := e.ruca.Resolve(ctx, ind.ZipCode)
		if err != nil {
			return f, av, fmt.Errorf("resolving rurality for zip %s: %w", ind.ZipCode, err)
		}
		f.RuralCategory = rural
	}
	f.DistanceToCareRiskWeight = e.cfg.DistanceToCareWeight(ind.HospitalDistanceMiles, ind.PCPDistanceMiles, f.RuralCategory)

	f.SociallyIsolated = ind.DaysAloneMentions > e.cfg.DaysAloneIsolatedAbove
	f.LimitedFamilyContact = ind.FamilyContactMentions < e.cfg.FamilyContactLimitedBelow

	e.log.WithFields(logrus.Fields{
		"patient_id":     in.PatientID(),
		"rural_category": f.RuralCategory,
		"distance_weight": f.DistanceToCareRiskWeight,
	}).Debug("Extracted social features")

	return f, av, nil
}
