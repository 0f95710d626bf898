package service

// CalibrateConfidence scales the judge's self-reported confidence by the
// fraction of critical data that was actually present. A judge that is
// 90% sure on 60% of the data yields 0.54: missing data should lower
// certainty even when the judge does not know what it did not see.
func CalibrateConfidence(judgeConfidence float64, completenessScore int) float64 {
	c := judgeConfidence * float64(completenessScore) / 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
