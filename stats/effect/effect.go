// Package effect contains the point-estimate and confidence-interval
// estimators for absolute and ratio treatment effects.
package effect

import (
	"math"

	"abx/domain/core"
	"abx/domain/experiment"
	"abx/stats/numeric"
)

// DefaultConfidence is the conventional two-sided confidence level.
const DefaultConfidence = 0.95

// denominator values closer to zero than this make a per-unit ratio
// numerically meaningless
const epsilon = 1e-12

// DiffInMeans computes Welch's unequal-variance interval for the difference
// of means, point estimate mean(b) - mean(a). When both arms have zero
// variance the interval degenerates to the point estimate instead of
// failing; a constant metric is a legitimate (if uninformative) outcome.
func DiffInMeans(a, b []float64, confidence float64) (experiment.EstimationResult, error) {
	var zero experiment.EstimationResult
	if err := validateConfidence(confidence); err != nil {
		return zero, err
	}
	nA, nB := len(a), len(b)
	if nA < 2 || nB < 2 {
		return zero, core.InsufficientDataError("need at least 2 observations per arm, have %d and %d", nA, nB)
	}

	meanA, meanB := numeric.Mean(a), numeric.Mean(b)
	varA, varB := numeric.SampleVariance(a), numeric.SampleVariance(b)
	diff := meanB - meanA
	se := numeric.WelchSE(varA, varB, nA, nB)

	res := experiment.EstimationResult{
		Estimate:   diff,
		StdErr:     se,
		Confidence: confidence,
		NA:         nA,
		NB:         nB,
		DF:         math.Inf(1),
	}
	if se == 0 {
		res.Lower, res.Upper = diff, diff
		return res, nil
	}

	df := numeric.WelchDF(varA, varB, nA, nB)
	q := numeric.TQuantile(1-(1-confidence)/2, df)
	res.DF = df
	res.Lower = diff - q*se
	res.Upper = diff + q*se
	return res, nil
}

// RatioOfMeans estimates the difference of two ratio-of-means metrics
// (e.g. clicks/sessions) between arm A and arm B via the first-order delta
// method, Welch-combined across arms. Every per-unit denominator and each
// arm's mean denominator must be bounded away from zero.
func RatioOfMeans(numA, denA, numB, denB []float64, confidence float64) (experiment.EstimationResult, error) {
	var zero experiment.EstimationResult
	if err := validateConfidence(confidence); err != nil {
		return zero, err
	}

	ratioA, varRatioA, nA, err := ratioStats(numA, denA, "arm a")
	if err != nil {
		return zero, err
	}
	ratioB, varRatioB, nB, err := ratioStats(numB, denB, "arm b")
	if err != nil {
		return zero, err
	}

	diff := ratioB - ratioA
	se := math.Sqrt(varRatioA + varRatioB)

	res := experiment.EstimationResult{
		Estimate:   diff,
		StdErr:     se,
		Confidence: confidence,
		NA:         nA,
		NB:         nB,
		DF:         math.Inf(1),
	}
	if se == 0 {
		res.Lower, res.Upper = diff, diff
		return res, nil
	}

	df := welchDF(varRatioA, varRatioB, nA, nB)
	q := numeric.TQuantile(1-(1-confidence)/2, df)
	res.DF = df
	res.Lower = diff - q*se
	res.Upper = diff + q*se
	return res, nil
}

// ratioStats computes one arm's ratio of means and its delta-method
// variance. The variance terms are already scaled by the sample size, so
// they combine by plain addition across arms.
func ratioStats(num, den []float64, arm string) (ratio, varRatio float64, n int, err error) {
	if len(num) != len(den) {
		return 0, 0, 0, core.ShapeMismatchError("%s numerator has %d values, denominator has %d", arm, len(num), len(den))
	}
	if len(num) < 2 {
		return 0, 0, 0, core.InsufficientDataError("%s needs at least 2 observations, has %d", arm, len(num))
	}
	for i, d := range den {
		if math.Abs(d) < epsilon {
			return 0, 0, 0, core.DivisionUndefinedError("%s denominator at index %d is zero (%v)", arm, i, d)
		}
	}

	n = len(num)
	meanNum := numeric.Mean(num)
	meanDen := numeric.Mean(den)
	if math.Abs(meanDen) < epsilon {
		return 0, 0, 0, core.DivisionUndefinedError("%s mean denominator is zero (%v)", arm, meanDen)
	}

	ratio = meanNum / meanDen

	varNum := numeric.SampleVariance(num) / float64(n)
	varDen := numeric.SampleVariance(den) / float64(n)
	cov := numeric.SampleCovariance(num, den) / float64(n)

	// Gradient of meanNum/meanDen is [1/meanDen, -meanNum/meanDen^2].
	varRatio = (varNum + ratio*ratio*varDen - 2*ratio*cov) / (meanDen * meanDen)
	if varRatio < 0 {
		// First-order approximation can go slightly negative for tightly
		// coupled numerator/denominator pairs; clamp at zero.
		varRatio = 0
	}
	return ratio, varRatio, n, nil
}

// welchDF is the Welch-Satterthwaite df for variance terms that already
// include the 1/n scaling.
func welchDF(varA, varB float64, nA, nB int) float64 {
	den := varA*varA/float64(nA-1) + varB*varB/float64(nB-1)
	if den <= 0 {
		return math.Inf(1)
	}
	return (varA + varB) * (varA + varB) / den
}

func validateConfidence(confidence float64) error {
	if !(confidence > 0 && confidence < 1) {
		return core.InvalidCountError("confidence must lie in (0, 1), got %v", confidence)
	}
	return nil
}
