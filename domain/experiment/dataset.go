package experiment

import (
	"math"

	"abx/domain/core"
)

// Group is an arm label within an experiment.
type Group string

// Conventional two-arm labels. Datasets are not restricted to these; any
// set of at least two distinct labels is valid.
const (
	GroupControl   Group = "control"
	GroupTreatment Group = "treatment"
)

// Columns is the raw tabular input for a Dataset. Units, Groups and Metric
// are required and must be aligned row by row. Exposed and Baseline are
// optional columns; a NaN in Baseline marks a missing value.
type Columns struct {
	Units    []core.UnitID
	Groups   []Group
	Metric   []float64
	Exposed  []bool
	Baseline []float64
}

// Dataset is a validated, immutable view over unit-level experiment records.
// All accessors return copies; nothing outside this package can mutate the
// underlying columns.
type Dataset struct {
	units    []core.UnitID
	groups   []Group
	metric   []float64
	exposed  []bool
	baseline []float64
}

// New builds a Dataset from raw columns and validates it. The input slices
// are copied, so callers may reuse their buffers.
func New(cols Columns) (*Dataset, error) {
	d := &Dataset{
		units:  append([]core.UnitID(nil), cols.Units...),
		groups: append([]Group(nil), cols.Groups...),
		metric: append([]float64(nil), cols.Metric...),
	}
	if cols.Exposed != nil {
		d.exposed = append([]bool(nil), cols.Exposed...)
	}
	if cols.Baseline != nil {
		d.baseline = append([]float64(nil), cols.Baseline...)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the structural contract: required columns present and
// aligned, at least two distinct group labels, fully numeric metric, unique
// unit identifiers. It names the first violated condition and never drops
// rows.
func (d *Dataset) Validate() error {
	n := len(d.units)
	if n == 0 {
		return core.SchemaError("dataset has no records")
	}
	if len(d.groups) != n {
		return core.SchemaError("group column has %d values, expected %d", len(d.groups), n)
	}
	if len(d.metric) != n {
		return core.SchemaError("metric column has %d values, expected %d", len(d.metric), n)
	}
	if d.exposed != nil && len(d.exposed) != n {
		return core.SchemaError("exposed column has %d values, expected %d", len(d.exposed), n)
	}
	if d.baseline != nil && len(d.baseline) != n {
		return core.SchemaError("baseline column has %d values, expected %d", len(d.baseline), n)
	}

	seen := make(map[core.UnitID]struct{}, n)
	for i, u := range d.units {
		if u == "" {
			return core.SchemaError("unit id at row %d is empty", i)
		}
		if _, dup := seen[u]; dup {
			return core.SchemaError("duplicate unit id %q", u)
		}
		seen[u] = struct{}{}
	}

	distinct := make(map[Group]struct{}, 2)
	for i, g := range d.groups {
		if g == "" {
			return core.SchemaError("group label at row %d (unit %q) is empty", i, d.units[i])
		}
		distinct[g] = struct{}{}
	}
	if len(distinct) < 2 {
		return core.SchemaError("group column has %d distinct label(s), need at least 2", len(distinct))
	}

	for i, v := range d.metric {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.SchemaError("metric value for unit %q is not finite: %v", d.units[i], v)
		}
	}
	// NaN is the missing-value marker in the baseline column; infinities
	// are never valid.
	for i, v := range d.baseline {
		if math.IsInf(v, 0) {
			return core.SchemaError("baseline value for unit %q is infinite", d.units[i])
		}
	}
	return nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.units)
}

// HasExposure reports whether an exposure column was declared.
func (d *Dataset) HasExposure() bool {
	return d.exposed != nil
}

// HasBaseline reports whether a baseline covariate column was declared.
func (d *Dataset) HasBaseline() bool {
	return d.baseline != nil
}

// Groups returns the distinct group labels in order of first appearance.
func (d *Dataset) Groups() []Group {
	seen := make(map[Group]struct{})
	var out []Group
	for _, g := range d.groups {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

// GroupCounts returns the number of records per group label.
func (d *Dataset) GroupCounts() map[Group]int64 {
	counts := make(map[Group]int64)
	for _, g := range d.groups {
		counts[g]++
	}
	return counts
}

// Units returns a copy of the unit identifier column.
func (d *Dataset) Units() []core.UnitID {
	return append([]core.UnitID(nil), d.units...)
}

// Metric returns a copy of the metric column.
func (d *Dataset) Metric() []float64 {
	return append([]float64(nil), d.metric...)
}

// Baseline returns a copy of the baseline column and whether it exists.
func (d *Dataset) Baseline() ([]float64, bool) {
	if d.baseline == nil {
		return nil, false
	}
	return append([]float64(nil), d.baseline...), true
}

// MetricByGroup returns the metric sample for one group label.
func (d *Dataset) MetricByGroup(g Group) []float64 {
	var out []float64
	for i, label := range d.groups {
		if label == g {
			out = append(out, d.metric[i])
		}
	}
	return out
}

// FilterExposed returns a new Dataset restricted to records with a true
// exposure flag. When no exposure column is declared the dataset is
// returned unchanged (it is immutable, so sharing is safe).
func (d *Dataset) FilterExposed() (*Dataset, error) {
	if d.exposed == nil {
		return d, nil
	}
	cols := Columns{}
	for i, keep := range d.exposed {
		if !keep {
			continue
		}
		cols.Units = append(cols.Units, d.units[i])
		cols.Groups = append(cols.Groups, d.groups[i])
		cols.Metric = append(cols.Metric, d.metric[i])
		cols.Exposed = append(cols.Exposed, true)
		if d.baseline != nil {
			cols.Baseline = append(cols.Baseline, d.baseline[i])
		}
	}
	return New(cols)
}

// WithMetric returns a new Dataset sharing every column except the metric,
// which is replaced by the given values. Used by covariate adjustment to
// produce the variance-reduced metric without mutating the source.
func (d *Dataset) WithMetric(metric []float64) (*Dataset, error) {
	if len(metric) != len(d.units) {
		return nil, core.SchemaError("replacement metric has %d values, expected %d", len(metric), len(d.units))
	}
	return New(Columns{
		Units:    d.units,
		Groups:   d.groups,
		Metric:   metric,
		Exposed:  d.exposed,
		Baseline: d.baseline,
	})
}
