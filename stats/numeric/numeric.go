// Package numeric is the shared numerical backbone of the analysis engine:
// sample moments, Welch variance combination and distribution lookups. All
// estimators build on these routines so that edge-case behavior (empty
// samples, degenerate variances, extreme tail probabilities) is decided in
// exactly one place.
package numeric

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the sample mean, or 0 for an empty sample.
func Mean(values []float64) float64 {
	m, err := mstats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// SampleVariance returns the unbiased (n-1) sample variance, or 0 when
// fewer than two observations are available.
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	v, err := mstats.SampleVariance(values)
	if err != nil {
		return 0
	}
	return v
}

// SampleCovariance returns the unbiased (n-1) sample covariance of two
// aligned samples, or 0 when fewer than two pairs are available.
func SampleCovariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	c, err := mstats.Covariance(x, y)
	if err != nil {
		return 0
	}
	return c
}

// PooledVariance returns the pooled (equal-variance) estimate for two
// samples with the given variances and sizes.
func PooledVariance(varA, varB float64, nA, nB int) float64 {
	if nA+nB <= 2 {
		return 0
	}
	return (float64(nA-1)*varA + float64(nB-1)*varB) / float64(nA+nB-2)
}

// WelchSE returns the unequal-variance standard error of a mean difference.
func WelchSE(varA, varB float64, nA, nB int) float64 {
	return math.Sqrt(varA/float64(nA) + varB/float64(nB))
}

// WelchDF returns the Welch-Satterthwaite degrees of freedom. A degenerate
// denominator (both variances zero) yields +Inf, which TQuantile treats as
// the normal limit.
func WelchDF(varA, varB float64, nA, nB int) float64 {
	a := varA / float64(nA)
	b := varB / float64(nB)
	den := a*a/float64(nA-1) + b*b/float64(nB-1)
	if den <= 0 {
		return math.Inf(1)
	}
	return (a + b) * (a + b) / den
}

// NormalCDF returns the standard normal CDF at x.
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile returns the standard normal quantile (inverse CDF) at p.
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// TQuantile returns the Student's t quantile at p for the given degrees of
// freedom, falling back to the normal quantile for infinite df.
func TQuantile(p, df float64) float64 {
	if math.IsInf(df, 1) {
		return NormalQuantile(p)
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return dist.Quantile(p)
}

// TCDF returns the Student's t CDF at x for the given degrees of freedom.
func TCDF(x, df float64) float64 {
	if math.IsInf(df, 1) {
		return NormalCDF(x)
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return dist.CDF(x)
}

// ChiSquarePValue returns the upper-tail probability of a chi-square
// statistic with df degrees of freedom.
func ChiSquarePValue(statistic float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	dist := distuv.ChiSquared{K: float64(df)}
	return dist.Survival(statistic)
}

// BetaQuantile returns the quantile of a Beta(alpha, beta) distribution.
func BetaQuantile(p, alpha, beta float64) float64 {
	dist := distuv.Beta{Alpha: alpha, Beta: beta}
	return dist.Quantile(p)
}

// ClopperPearson returns the exact two-sided binomial interval for the
// success probability, by inverting Beta tail probabilities. The boundary
// cases pin the interval to 0 and 1 respectively.
func ClopperPearson(successes, trials int64, alpha float64) (lower, upper float64) {
	s := float64(successes)
	n := float64(trials)
	lower = 0
	upper = 1
	if successes > 0 {
		lower = BetaQuantile(alpha/2, s, n-s+1)
	}
	if successes < trials {
		upper = BetaQuantile(1-alpha/2, s+1, n-s)
	}
	return lower, upper
}
