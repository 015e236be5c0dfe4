package covariate

import (
	"math"

	"abx/domain/core"
)

// Regressor is the minimal prediction surface a CUPAC model must expose:
// one numeric prediction per feature row. Models are trained elsewhere; the
// provider only calls Predict.
type Regressor interface {
	Predict(features [][]float64) ([]float64, error)
}

// ModelProvider generates CUPAC covariates from a pre-trained regressor and
// a numeric feature table keyed by unit id.
type ModelProvider struct {
	model    Regressor
	features map[core.UnitID][]float64
	width    int
}

// NewModelProvider validates the feature table (non-empty, consistent row
// width, finite values) and returns a provider around the model.
func NewModelProvider(model Regressor, features map[core.UnitID][]float64) (*ModelProvider, error) {
	if model == nil {
		return nil, core.SchemaError("model must not be nil")
	}
	if len(features) == 0 {
		return nil, core.SchemaError("feature table needs at least one row")
	}

	width := -1
	copied := make(map[core.UnitID][]float64, len(features))
	for unit, row := range features {
		if width == -1 {
			width = len(row)
		}
		if len(row) != width || width == 0 {
			return nil, core.SchemaError("feature row for unit %q has %d columns, expected %d", unit, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, core.SchemaError("feature %d for unit %q is not finite: %v", j, unit, v)
			}
		}
		copied[unit] = append([]float64(nil), row...)
	}
	return &ModelProvider{model: model, features: copied, width: width}, nil
}

// Covariates predicts one covariate per requested unit. Units without
// features, a prediction count mismatch, or non-finite predictions all fail
// explicitly; a silently defaulted prediction would bias the adjustment.
func (p *ModelProvider) Covariates(units []core.UnitID) (map[core.UnitID]float64, error) {
	matrix := make([][]float64, 0, len(units))
	var missing []core.UnitID
	for _, u := range units {
		row, ok := p.features[u]
		if !ok {
			missing = append(missing, u)
			continue
		}
		matrix = append(matrix, row)
	}
	if len(missing) > 0 {
		return nil, core.CoverageError("features missing for %d of %d unit(s), first missing %q", len(missing), len(units), missing[0])
	}

	predictions, err := p.model.Predict(matrix)
	if err != nil {
		return nil, core.Wrap(err, "model prediction failed")
	}
	if len(predictions) != len(units) {
		return nil, core.CoverageError("model returned %d predictions for %d units", len(predictions), len(units))
	}

	out := make(map[core.UnitID]float64, len(units))
	for i, u := range units {
		v := predictions[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.CoverageError("model prediction for unit %q is not finite: %v", u, v)
		}
		out[u] = v
	}
	return out, nil
}
