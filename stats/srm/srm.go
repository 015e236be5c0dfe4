// Package srm implements the sample-ratio-mismatch guardrail: a chi-square
// goodness-of-fit test of observed group allocation against the intended
// split. SRM is the canonical symptom of a broken randomizer, so even small
// but systematic skews must reach significance; no multiple-comparison
// correction is applied here, that is a caller responsibility.
package srm

import (
	"math"

	"abx/domain/core"
	"abx/domain/experiment"
	"abx/stats/numeric"
)

// Test runs the chi-square goodness-of-fit test of observed counts against
// expected allocation ratios. The ratios must be strictly positive, one per
// group, and sum to 1.
func Test(observed []int64, expected []float64) (experiment.SRMResult, error) {
	var zero experiment.SRMResult
	if len(observed) != len(expected) {
		return zero, core.ShapeMismatchError("observed has %d groups, expected ratios have %d", len(observed), len(expected))
	}
	if len(observed) < 2 {
		return zero, core.ShapeMismatchError("need at least 2 groups, have %d", len(observed))
	}

	var total int64
	for i, n := range observed {
		if n < 0 {
			return zero, core.InvalidCountError("observed count for group %d is negative: %d", i, n)
		}
		total += n
	}
	if total == 0 {
		return zero, core.InsufficientDataError("all observed counts are zero")
	}

	sum := 0.0
	for i, r := range expected {
		if r <= 0 || r >= 1 {
			return zero, core.InvalidCountError("expected ratio for group %d must lie in (0, 1), got %v", i, r)
		}
		sum += r
	}
	if math.Abs(sum-1) > 1e-9 {
		return zero, core.InvalidCountError("expected ratios must sum to 1, got %v", sum)
	}

	statistic := 0.0
	for i, n := range observed {
		e := float64(total) * expected[i]
		d := float64(n) - e
		statistic += d * d / e
	}
	df := len(observed) - 1

	return experiment.SRMResult{
		Statistic: statistic,
		PValue:    numeric.ChiSquarePValue(statistic, df),
		DF:        df,
		Observed:  append([]int64(nil), observed...),
		Expected:  append([]float64(nil), expected...),
	}, nil
}

// TestDataset runs the SRM test over a dataset's group counts, with the
// expected ratio given per group label in the dataset's first-appearance
// order.
func TestDataset(ds *experiment.Dataset, expected map[experiment.Group]float64) (experiment.SRMResult, error) {
	groups := ds.Groups()
	counts := ds.GroupCounts()

	observed := make([]int64, 0, len(groups))
	ratios := make([]float64, 0, len(groups))
	for _, g := range groups {
		r, ok := expected[g]
		if !ok {
			return experiment.SRMResult{}, core.ShapeMismatchError("no expected ratio for group %q", g)
		}
		observed = append(observed, counts[g])
		ratios = append(ratios, r)
	}
	if len(expected) != len(groups) {
		return experiment.SRMResult{}, core.ShapeMismatchError("expected ratios name %d groups, dataset has %d", len(expected), len(groups))
	}
	return Test(observed, ratios)
}
