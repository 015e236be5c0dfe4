// Package cuped implements CUPED/CUPAC variance reduction: a linear
// covariate adjustment Y' = Y - theta*(X - mean(X)) with
// theta = Cov(Y,X)/Var(X) estimated pooled across the full dataset, never
// per group, so no differential bias is injected between arms.
// Mean-centering keeps the adjusted metric's mean equal to the original.
package cuped

import (
	"math"

	"abx/domain/core"
	"abx/domain/experiment"
	"abx/ports"
	"abx/stats/numeric"
)

// Adjustment is the outcome of one CUPED pass: the fitted coefficient, the
// dataset with the variance-reduced metric, and the units that had to be
// excluded from coefficient estimation because their covariate was missing.
// Dropped units keep their original metric value; callers must inspect
// DroppedUnits rather than assume full coverage.
type Adjustment struct {
	Theta        float64
	Adjusted     *experiment.Dataset
	DroppedUnits []core.UnitID
}

// AdjustWithSeries applies CUPED using a covariate series aligned row by
// row with the dataset. NaN entries mark missing covariate values.
func AdjustWithSeries(ds *experiment.Dataset, covariate []float64) (*Adjustment, error) {
	if len(covariate) != ds.Len() {
		return nil, core.ShapeMismatchError("covariate has %d values, dataset has %d records", len(covariate), ds.Len())
	}
	return adjust(ds, covariate)
}

// AdjustWithBaseline applies CUPED using the dataset's declared baseline
// column.
func AdjustWithBaseline(ds *experiment.Dataset) (*Adjustment, error) {
	baseline, ok := ds.Baseline()
	if !ok {
		return nil, core.SchemaError("dataset has no baseline column to adjust with")
	}
	return adjust(ds, baseline)
}

// AdjustWithProvider fetches one covariate per unit from the provider and
// applies CUPED. Every unit must be covered; a gap fails the adjustment.
func AdjustWithProvider(ds *experiment.Dataset, provider ports.CovariateProvider) (*Adjustment, error) {
	units := ds.Units()
	values, err := provider.Covariates(units)
	if err != nil {
		return nil, err
	}
	covariate := make([]float64, len(units))
	var missing []core.UnitID
	for i, u := range units {
		v, ok := values[u]
		if !ok {
			missing = append(missing, u)
			continue
		}
		covariate[i] = v
	}
	if len(missing) > 0 {
		return nil, core.CoverageError("covariate provider omitted %d unit(s), first missing %q", len(missing), missing[0])
	}
	return adjust(ds, covariate)
}

func adjust(ds *experiment.Dataset, covariate []float64) (*Adjustment, error) {
	units := ds.Units()
	metric := ds.Metric()

	// Complete pairs only: units with a missing covariate are excluded
	// from theta estimation and reported, never silently imputed.
	var ys, xs []float64
	var dropped []core.UnitID
	for i, x := range covariate {
		if math.IsNaN(x) {
			dropped = append(dropped, units[i])
			continue
		}
		if math.IsInf(x, 0) {
			return nil, core.SchemaError("covariate for unit %q is infinite", units[i])
		}
		ys = append(ys, metric[i])
		xs = append(xs, x)
	}
	if len(xs) < 2 {
		return nil, core.InsufficientDataError("need at least 2 units with covariate values, have %d", len(xs))
	}

	varX := numeric.SampleVariance(xs)
	theta := 0.0
	if varX > 0 {
		// Degenerate covariate keeps theta at zero: no adjustment, not
		// a failure.
		theta = numeric.SampleCovariance(ys, xs) / varX
	}
	meanX := numeric.Mean(xs)

	adjusted := make([]float64, len(metric))
	for i, y := range metric {
		x := covariate[i]
		if math.IsNaN(x) {
			adjusted[i] = y
			continue
		}
		adjusted[i] = y - theta*(x-meanX)
	}

	out, err := ds.WithMetric(adjusted)
	if err != nil {
		return nil, err
	}
	return &Adjustment{Theta: theta, Adjusted: out, DroppedUnits: dropped}, nil
}
