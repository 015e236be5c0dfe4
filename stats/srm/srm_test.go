package srm

import (
	"math"
	"testing"

	"abx/domain/core"
	"abx/domain/experiment"
	"abx/internal/testkit"
)

func TestBalancedSplitPasses(t *testing.T) {
	res, err := Test([]int64{500, 500}, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if res.Statistic > 1e-12 {
		t.Fatalf("a perfectly balanced split has statistic 0, got %v", res.Statistic)
	}
	if math.Abs(res.PValue-1) > 1e-9 {
		t.Fatalf("expected p=1, got %v", res.PValue)
	}
	if res.DF != 1 {
		t.Fatalf("expected df=1, got %d", res.DF)
	}
}

func TestGrossMismatchIsDecisive(t *testing.T) {
	res, err := Test([]int64{300, 700}, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	// Statistic is (300-500)^2/500 + (700-500)^2/500 = 160.
	if math.Abs(res.Statistic-160) > 1e-9 {
		t.Fatalf("expected statistic 160, got %v", res.Statistic)
	}
	if res.PValue >= 0.001 {
		t.Fatalf("300/700 against 50/50 must alert, p=%v", res.PValue)
	}
}

func TestUnequalIntendedSplit(t *testing.T) {
	// 900/100 observed against an intended 90/10 is exactly on target.
	res, err := Test([]int64{900, 100}, []float64{0.9, 0.1})
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if res.Statistic > 1e-12 {
		t.Fatalf("on-target 90/10 split has statistic 0, got %v", res.Statistic)
	}
}

func TestThreeGroups(t *testing.T) {
	res, err := Test([]int64{340, 330, 330}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if res.DF != 2 {
		t.Fatalf("expected df=2 for 3 groups, got %d", res.DF)
	}
	if res.PValue < 0.5 {
		t.Fatalf("near-balanced 3-way split should be unremarkable, p=%v", res.PValue)
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name     string
		observed []int64
		expected []float64
		code     string
	}{
		{"cardinality", []int64{1, 2}, []float64{0.5, 0.3, 0.2}, core.CodeShapeMismatch},
		{"single group", []int64{10}, []float64{1}, core.CodeShapeMismatch},
		{"negative count", []int64{-1, 10}, []float64{0.5, 0.5}, core.CodeInvalidCount},
		{"ratio at zero", []int64{5, 5}, []float64{0, 1}, core.CodeInvalidCount},
		{"ratios off sum", []int64{5, 5}, []float64{0.5, 0.4}, core.CodeInvalidCount},
		{"all zero counts", []int64{0, 0}, []float64{0.5, 0.5}, core.CodeInsufficientData},
	}
	for _, tc := range cases {
		_, err := Test(tc.observed, tc.expected)
		if !core.HasCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}
}

func TestTestDataset(t *testing.T) {
	ds, err := testkit.Generate(testkit.DefaultConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Generation alternates arms, so the split is exactly 50/50.
	res, err := TestDataset(ds, map[experiment.Group]float64{
		experiment.GroupControl:   0.5,
		experiment.GroupTreatment: 0.5,
	})
	if err != nil {
		t.Fatalf("TestDataset: %v", err)
	}
	if res.Statistic > 1e-12 {
		t.Fatalf("alternating assignment has statistic 0, got %v", res.Statistic)
	}

	_, err = TestDataset(ds, map[experiment.Group]float64{experiment.GroupControl: 1})
	if !core.HasCode(err, core.CodeShapeMismatch) {
		t.Fatalf("expected %s for a missing group ratio, got %v", core.CodeShapeMismatch, err)
	}
}
