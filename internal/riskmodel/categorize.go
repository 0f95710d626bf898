package riskmodel

import (
	"strings"
	"time"

	"github.com/readmit-risk-server/internal/domain"
)

// CategorizeLengthOfStay buckets an inpatient stay. An absent or zero LOS
// is deliberately treated as normal, not as too short.
func (c *Config) CategorizeLengthOfStay(days int) domain.LOSCategory {
	switch {
	case days == 0:
		return domain.LOSNormal
	case days < c.LOSTooShortBelow:
		return domain.LOSTooShort
	case days <= c.LOSNormalMax:
		return domain.LOSNormal
	case days <= c.LOSExtendedMax:
		return domain.LOSExtended
	default:
		return domain.LOSProlonged
	}
}

// CategorizeCognitive buckets a cognitive-impairment assessment score.
// An absent or zero score means no impairment was recorded.
func (c *Config) CategorizeCognitive(score int) domain.CognitiveSeverity {
	switch {
	case score == 0:
		return domain.CognitiveNone
	case score < c.CognitiveMildBelow:
		return domain.CognitiveNone
	case score < c.CognitiveModerateBelow:
		return domain.CognitiveMild
	case score < c.CognitiveSevereBelow:
		return domain.CognitiveModerate
	default:
		return domain.CognitiveSevere
	}
}

// VitalsStable reports whether a vitals set is stable. Each vital passes
// when it is absent (zero) or within range; a missing reading is never
// counted as out of range. A nil reading is therefore stable.
func (c *Config) VitalsStable(v *domain.VitalsReading) bool {
	if v == nil {
		return true
	}
	inRange := func(val, min, max float64) bool {
		return val == 0 || (val >= min && val <= max)
	}
	if !inRange(v.Systolic, c.SystolicMin, c.SystolicMax) {
		return false
	}
	if !inRange(v.Diastolic, c.DiastolicMin, c.DiastolicMax) {
		return false
	}
	if !inRange(v.HeartRate, c.HeartRateMin, c.HeartRateMax) {
		return false
	}
	if v.OxygenSaturation != 0 && v.OxygenSaturation < c.OxygenSatMin {
		return false
	}
	return true
}

// LabsConcerning flags a lab panel. Unlike vitals this uses presence
// checks: a reported zero is a real value, only a nil pointer is missing.
func (c *Config) LabsConcerning(p *domain.LabPanel) bool {
	if p == nil {
		return false
	}
	if p.EGFR != nil && *p.EGFR < c.EGFRConcernBelow {
		return true
	}
	if p.Hemoglobin != nil && *p.Hemoglobin < c.HemoglobinConcernBelow {
		return true
	}
	if p.Sodium != nil && (*p.Sodium < c.SodiumConcernBelow || *p.Sodium > c.SodiumConcernAbove) {
		return true
	}
	if p.Glucose != nil && (*p.Glucose < c.GlucoseConcernBelow || *p.Glucose > c.GlucoseConcernAbove) {
		return true
	}
	return false
}

// FallRiskScore computes the composite fall risk score. Order matters:
// the falls multiplier and its cap apply before the bonuses, and the
// final cap applies last.
func (c *Config) FallRiskScore(falls, mobilityRisk, cognitiveRisk int, mobilityNotes string) int {
	score := falls * 2
	if score > c.FallBaseCap {
		score = c.FallBaseCap
	}
	if mobilityRisk > c.FallMobilityBonusGT {
		score += 2
	}
	if cognitiveRisk > c.FallCognitiveBonusGT {
		score++
	}
	if c.MatchesAny(mobilityNotes, c.WalkingAidKeywords) {
		score++
	}
	if score > c.FallScoreCap {
		score = c.FallScoreCap
	}
	return score
}

// DistanceToCareWeight accumulates the hospital and PCP distance band
// weights, then applies the rural multiplier, then the cap. The multiply
// step must happen before the cap.
func (c *Config) DistanceToCareWeight(hospitalMiles, pcpMiles float64, rural domain.RuralCategory) float64 {
	weight := bandWeight(hospitalMiles, c.HospitalDistanceBands) + bandWeight(pcpMiles, c.PCPDistanceBands)

	switch rural {
	case domain.RuralIsolated:
		weight *= c.IsolatedRuralFactor
	case domain.RuralSmall:
		weight *= c.SmallRuralFactor
	}

	if weight > c.DistanceWeightCap {
		weight = c.DistanceWeightCap
	}
	return weight
}

func bandWeight(miles float64, bands []DistanceBand) float64 {
	for _, b := range bands {
		if miles > b.AboveMiles {
			return b.Weight
		}
	}
	return 0
}

// FollowUpWithinSoonWindow reports whether a follow-up lands inside the
// early window. A zero daysUntil is treated as absent, so a same-day
// follow-up is deliberately not counted.
func (c *Config) FollowUpWithinSoonWindow(daysUntil int) bool {
	if daysUntil == 0 {
		return false
	}
	return daysUntil <= c.FollowUpSoonDays
}

// CategorizeRUCA maps a primary RUCA code to a rural category.
func CategorizeRUCA(code int) domain.RuralCategory {
	switch {
	case code >= 1 && code <= 3:
		return domain.RuralUrban
	case code >= 4 && code <= 6:
		return domain.RuralLarge
	case code >= 7 && code <= 9:
		return domain.RuralSmall
	case code == 10:
		return domain.RuralIsolated
	default:
		return domain.RuralUrban
	}
}

// RuralFallbackFromZip is the heuristic used when no RUCA lookup row
// exists. High-plains and frontier ZIP prefixes lean rural; everything
// else is assumed urban.
func RuralFallbackFromZip(zip string) domain.RuralCategory {
	if len(zip) < 3 {
		return domain.RuralUrban
	}
	switch zip[:2] {
	case "59", "82", "83", "88": // MT, WY, ID, NM frontier ranges
		return domain.RuralIsolated
	case "57", "58", "67", "69": // SD, ND, rural KS/NE
		return domain.RuralSmall
	case "50", "51", "52", "66", "68":
		return domain.RuralLarge
	default:
		return domain.RuralUrban
	}
}

// CategorizeInsurance normalizes a raw insurance type string.
func CategorizeInsurance(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "medicare":
		return "medicare"
	case "medicaid":
		return "medicaid"
	case "dual", "medicare-medicaid", "dual_eligible":
		return "dual_eligible"
	case "commercial", "private", "employer":
		return "commercial"
	case "uninsured", "self-pay", "self_pay", "none", "":
		return "uninsured"
	default:
		return "other"
	}
}

// HealthLiteracyLimited reports whether an assessed literacy score falls
// below the concern threshold. A zero score means not assessed.
func (c *Config) HealthLiteracyLimited(score int) bool {
	return score != 0 && score < c.HealthLiteracyLimitedBelow
}

// IsCHFCode reports whether a diagnosis code is congestive heart failure.
func (c *Config) IsCHFCode(code string) bool {
	return hasAnyPrefix(code, c.CHFCodePrefixes)
}

// IsCOPDCode reports whether a diagnosis code is COPD.
func (c *Config) IsCOPDCode(code string) bool {
	return hasAnyPrefix(code, c.COPDCodePrefixes)
}

// IsHighRiskDiagnosis reports whether a primary diagnosis code belongs to
// the high-readmission-risk set.
func (c *Config) IsHighRiskDiagnosis(code string) bool {
	return hasAnyPrefix(code, c.HighRiskCodePrefixes)
}

func hasAnyPrefix(code string, prefixes []string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether text contains any keyword, case-insensitively.
func (c *Config) MatchesAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DaysBetween returns whole days from a to b, truncated toward zero.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// DaysUntil returns whole days from now until t, truncated toward zero.
func DaysUntil(now, t time.Time) int {
	return DaysBetween(now, t)
}
