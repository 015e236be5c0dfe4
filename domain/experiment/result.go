package experiment

import (
	"encoding/json"
	"math"
)

// EstimationResult is the immutable outcome of one effect estimation call:
// a point estimate with its standard error, a two-sided confidence interval
// and the per-arm sample sizes that produced it.
type EstimationResult struct {
	Estimate   float64 `json:"estimate"`
	StdErr     float64 `json:"std_err"`
	Lower      float64 `json:"ci_low"`
	Upper      float64 `json:"ci_high"`
	Confidence float64 `json:"confidence"`
	NA         int     `json:"n_a"`
	NB         int     `json:"n_b"`
	DF         float64 `json:"df,omitempty"`
}

// MarshalJSON emits a null df when the degrees of freedom are infinite
// (degenerate zero-variance intervals); JSON has no encoding for Inf.
func (r EstimationResult) MarshalJSON() ([]byte, error) {
	type alias EstimationResult
	out := struct {
		alias
		DF *float64 `json:"df"`
	}{alias: alias(r)}
	if !math.IsInf(r.DF, 0) {
		out.DF = &r.DF
	}
	return json.Marshal(out)
}

// SRMResult reports a sample-ratio-mismatch goodness-of-fit test.
type SRMResult struct {
	Statistic float64   `json:"chi2"`
	PValue    float64   `json:"p_value"`
	DF        int       `json:"df"`
	Observed  []int64   `json:"observed"`
	Expected  []float64 `json:"expected"`
}

// SequentialBounds is a confidence-sequence snapshot at the current
// cumulative observation count. It is recomputed on every query from the
// running sufficient statistics; nothing is persisted between calls.
type SequentialBounds struct {
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"ci_low"`
	Upper    float64 `json:"ci_high"`
	Trials   int64   `json:"trials"`
}
