package experiment

import (
	"math"
	"testing"

	"abx/domain/core"
)

func twoArmColumns() Columns {
	return Columns{
		Units:  []core.UnitID{"u1", "u2", "u3", "u4"},
		Groups: []Group{GroupControl, GroupTreatment, GroupControl, GroupTreatment},
		Metric: []float64{1, 2, 3, 4},
	}
}

func TestNewValidatesContract(t *testing.T) {
	if _, err := New(twoArmColumns()); err != nil {
		t.Fatalf("valid columns rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Columns)
	}{
		{"empty", func(c *Columns) { *c = Columns{} }},
		{"group length", func(c *Columns) { c.Groups = c.Groups[:2] }},
		{"metric length", func(c *Columns) { c.Metric = c.Metric[:3] }},
		{"duplicate unit", func(c *Columns) { c.Units[1] = "u1" }},
		{"empty unit", func(c *Columns) { c.Units[0] = "" }},
		{"single group", func(c *Columns) {
			for i := range c.Groups {
				c.Groups[i] = GroupControl
			}
		}},
		{"empty group label", func(c *Columns) { c.Groups[2] = "" }},
		{"nan metric", func(c *Columns) { c.Metric[0] = math.NaN() }},
		{"inf metric", func(c *Columns) { c.Metric[3] = math.Inf(1) }},
		{"exposed length", func(c *Columns) { c.Exposed = []bool{true} }},
		{"inf baseline", func(c *Columns) { c.Baseline = []float64{1, 2, math.Inf(-1), 4} }},
	}
	for _, tc := range cases {
		cols := twoArmColumns()
		tc.mutate(&cols)
		_, err := New(cols)
		if err == nil {
			t.Fatalf("%s: expected schema error", tc.name)
		}
		if !core.HasCode(err, core.CodeSchemaViolation) {
			t.Fatalf("%s: expected %s, got %v", tc.name, core.CodeSchemaViolation, err)
		}
	}
}

func TestBaselineNaNIsAllowed(t *testing.T) {
	cols := twoArmColumns()
	cols.Baseline = []float64{1, math.NaN(), 3, 4}
	ds, err := New(cols)
	if err != nil {
		t.Fatalf("NaN baseline should validate (missing marker): %v", err)
	}
	baseline, ok := ds.Baseline()
	if !ok || !math.IsNaN(baseline[1]) {
		t.Fatalf("expected NaN preserved in baseline copy")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	ds, err := New(twoArmColumns())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	metric := ds.Metric()
	metric[0] = 99
	if ds.Metric()[0] == 99 {
		t.Fatalf("mutating the returned metric slice must not affect the dataset")
	}
	units := ds.Units()
	units[0] = "hacked"
	if ds.Units()[0] == "hacked" {
		t.Fatalf("mutating the returned units slice must not affect the dataset")
	}
}

func TestGroupsAndCounts(t *testing.T) {
	ds, err := New(twoArmColumns())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	groups := ds.Groups()
	if len(groups) != 2 || groups[0] != GroupControl || groups[1] != GroupTreatment {
		t.Fatalf("unexpected groups %v", groups)
	}
	counts := ds.GroupCounts()
	if counts[GroupControl] != 2 || counts[GroupTreatment] != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
	sample := ds.MetricByGroup(GroupTreatment)
	if len(sample) != 2 || sample[0] != 2 || sample[1] != 4 {
		t.Fatalf("unexpected treatment sample %v", sample)
	}
}

func TestFilterExposed(t *testing.T) {
	cols := twoArmColumns()
	cols.Exposed = []bool{true, false, true, true}
	ds, err := New(cols)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	filtered, err := ds.FilterExposed()
	if err != nil {
		t.Fatalf("FilterExposed: %v", err)
	}
	if filtered.Len() != 3 {
		t.Fatalf("expected 3 exposed records, got %d", filtered.Len())
	}
	if ds.Len() != 4 {
		t.Fatalf("source dataset must be unchanged, got %d records", ds.Len())
	}

	// Without an exposure column the same dataset comes back.
	plain, err := New(twoArmColumns())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	same, err := plain.FilterExposed()
	if err != nil {
		t.Fatalf("FilterExposed: %v", err)
	}
	if same != plain {
		t.Fatalf("expected identical dataset when no exposure column is declared")
	}
}

func TestWithMetric(t *testing.T) {
	ds, err := New(twoArmColumns())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	adjusted, err := ds.WithMetric([]float64{10, 20, 30, 40})
	if err != nil {
		t.Fatalf("WithMetric: %v", err)
	}
	if adjusted.Metric()[0] != 10 || ds.Metric()[0] != 1 {
		t.Fatalf("WithMetric must not mutate the source")
	}
	if _, err := ds.WithMetric([]float64{1}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}
