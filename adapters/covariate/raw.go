// Package covariate provides the CovariateProvider implementations used
// for CUPED (raw pre-period baselines) and CUPAC (model-predicted
// covariates).
package covariate

import (
	"math"

	"abx/domain/core"
)

// RawBaseline serves a pre-period metric column keyed by unit id. It is the
// plain-CUPED provider: no model, just a lookup.
type RawBaseline struct {
	values map[core.UnitID]float64
}

// NewRawBaseline copies the given keyed column. Non-finite values are
// rejected up front so a gap can never masquerade as a number.
func NewRawBaseline(values map[core.UnitID]float64) (*RawBaseline, error) {
	if len(values) == 0 {
		return nil, core.SchemaError("raw baseline provider needs at least one value")
	}
	copied := make(map[core.UnitID]float64, len(values))
	for unit, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.SchemaError("baseline value for unit %q is not finite: %v", unit, v)
		}
		copied[unit] = v
	}
	return &RawBaseline{values: copied}, nil
}

// Covariates returns one value per requested unit, or a coverage error
// naming the gap. Partial results are never returned.
func (p *RawBaseline) Covariates(units []core.UnitID) (map[core.UnitID]float64, error) {
	out := make(map[core.UnitID]float64, len(units))
	var missing []core.UnitID
	for _, u := range units {
		v, ok := p.values[u]
		if !ok {
			missing = append(missing, u)
			continue
		}
		out[u] = v
	}
	if len(missing) > 0 {
		return nil, core.CoverageError("baseline missing for %d of %d unit(s), first missing %q", len(missing), len(units), missing[0])
	}
	return out, nil
}
