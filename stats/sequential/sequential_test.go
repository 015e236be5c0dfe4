package sequential

import (
	"testing"

	"abx/domain/core"
	"abx/internal/testkit"
	"abx/stats/numeric"
)

func TestBernoulliCIBracketsTheRate(t *testing.T) {
	res, err := BernoulliCI(140, 500, 0.05)
	if err != nil {
		t.Fatalf("BernoulliCI: %v", err)
	}
	rate := 140.0 / 500.0
	if res.Estimate != rate {
		t.Fatalf("expected estimate %v, got %v", rate, res.Estimate)
	}
	if !(0 < res.Lower && res.Lower < rate && rate < res.Upper && res.Upper < 1) {
		t.Fatalf("interval [%v, %v] must be interior and bracket %v", res.Lower, res.Upper, rate)
	}
	if res.Trials != 500 {
		t.Fatalf("expected trials 500, got %d", res.Trials)
	}
}

func TestBernoulliCIWiderThanFixedHorizon(t *testing.T) {
	res, err := BernoulliCI(140, 500, 0.05)
	if err != nil {
		t.Fatalf("BernoulliCI: %v", err)
	}
	lower, upper := numeric.ClopperPearson(140, 500, 0.05)
	if res.Upper-res.Lower <= upper-lower {
		t.Fatalf("anytime interval [%v,%v] must be wider than fixed-horizon [%v,%v]",
			res.Lower, res.Upper, lower, upper)
	}
}

func TestBernoulliCIWidthShrinks(t *testing.T) {
	sizes := []int64{10, 100, 1000, 10000}
	prev := 2.0
	for _, n := range sizes {
		successes := int64(float64(n) * 0.3)
		res, err := BernoulliCI(successes, n, 0.05)
		if err != nil {
			t.Fatalf("BernoulliCI at n=%d: %v", n, err)
		}
		width := res.Upper - res.Lower
		if width >= prev {
			t.Fatalf("width must shrink with trials: %v at n=%d, previous %v", width, n, prev)
		}
		prev = width
	}
}

func TestBernoulliCIBoundaryCounts(t *testing.T) {
	res, err := BernoulliCI(0, 50, 0.05)
	if err != nil {
		t.Fatalf("BernoulliCI: %v", err)
	}
	if res.Lower != 0 || res.Upper <= 0 {
		t.Fatalf("zero successes should pin lower=0 with a positive upper, got [%v, %v]", res.Lower, res.Upper)
	}
	res, err = BernoulliCI(50, 50, 0.05)
	if err != nil {
		t.Fatalf("BernoulliCI: %v", err)
	}
	if res.Upper != 1 || res.Lower >= 1 {
		t.Fatalf("all successes should pin upper=1 with lower below 1, got [%v, %v]", res.Lower, res.Upper)
	}
}

func TestBernoulliCICoverageUnderPeeking(t *testing.T) {
	if testing.Short() {
		t.Skip("monte carlo coverage study")
	}
	const (
		p       = 0.3
		streams = 200
		length  = 500
		alpha   = 0.05
	)
	covered := 0
	for s := 0; s < streams; s++ {
		draws := testkit.BernoulliStream(p, length, int64(1000+s))
		var successes int64
		ok := true
		// Inspect at every prefix, the adversarial peeking pattern.
		for i, hit := range draws {
			if hit {
				successes++
			}
			res, err := BernoulliCI(successes, int64(i+1), alpha)
			if err != nil {
				t.Fatalf("BernoulliCI: %v", err)
			}
			if p < res.Lower || p > res.Upper {
				ok = false
				break
			}
		}
		if ok {
			covered++
		}
	}
	// The sequence is conservative, so empirical coverage should clear the
	// nominal level with room to spare.
	rate := float64(covered) / float64(streams)
	if rate < 1-alpha {
		t.Fatalf("coverage %v fell below the nominal %v", rate, 1-alpha)
	}
}

func TestDiffCI(t *testing.T) {
	res, err := DiffCI(140, 500, 170, 500, 0.05)
	if err != nil {
		t.Fatalf("DiffCI: %v", err)
	}
	want := 170.0/500.0 - 140.0/500.0
	if res.Estimate != want {
		t.Fatalf("expected estimate %v, got %v", want, res.Estimate)
	}
	if !(res.Lower < want && want < res.Upper) {
		t.Fatalf("interval [%v, %v] must bracket %v", res.Lower, res.Upper, want)
	}
	if res.Lower < -1 || res.Upper > 1 {
		t.Fatalf("difference bounds must stay in [-1, 1], got [%v, %v]", res.Lower, res.Upper)
	}
	if res.Trials != 1000 {
		t.Fatalf("expected pooled trials 1000, got %d", res.Trials)
	}
}

func TestDiffCIExtremeArms(t *testing.T) {
	res, err := DiffCI(0, 30, 30, 30, 0.05)
	if err != nil {
		t.Fatalf("DiffCI: %v", err)
	}
	if res.Estimate != 1 {
		t.Fatalf("expected estimate 1, got %v", res.Estimate)
	}
	if res.Upper > 1 || res.Lower < -1 {
		t.Fatalf("bounds must be clamped to [-1, 1], got [%v, %v]", res.Lower, res.Upper)
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name              string
		successes, trials int64
		alpha             float64
	}{
		{"zero trials", 0, 0, 0.05},
		{"negative successes", -1, 10, 0.05},
		{"successes exceed trials", 11, 10, 0.05},
		{"alpha zero", 5, 10, 0},
		{"alpha one", 5, 10, 1},
	}
	for _, tc := range cases {
		if _, err := BernoulliCI(tc.successes, tc.trials, tc.alpha); !core.HasCode(err, core.CodeInvalidCount) {
			t.Fatalf("%s: expected %s, got %v", tc.name, core.CodeInvalidCount, err)
		}
	}
	if _, err := DiffCI(-1, 10, 5, 10, 0.05); !core.HasCode(err, core.CodeInvalidCount) {
		t.Fatalf("expected %s from the control arm, got %v", core.CodeInvalidCount, err)
	}
}

func TestSpendScheduleSumsBelowAlpha(t *testing.T) {
	// Partial sums of alpha/((e+1)(e+2)) telescope to alpha*(1 - 1/(E+2)).
	const alpha = 0.05
	total := 0.0
	for e := 0; e < 40; e++ {
		total += alpha / float64((e+1)*(e+2))
	}
	if total >= alpha {
		t.Fatalf("spending schedule overspends: %v >= %v", total, alpha)
	}
	if alpha-total > 1e-3 {
		t.Fatalf("schedule should approach alpha, partial sum %v", total)
	}
}
