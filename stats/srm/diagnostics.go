package srm

import (
	"math"
	"sort"

	"abx/domain/core"
	"abx/domain/experiment"
	"abx/stats/numeric"
)

const (
	naToken    = "<NA>"
	otherToken = "__OTHER__"

	// Only a decisive mismatch is worth root-causing; above this the
	// per-feature scan produces noise.
	srmAlertThreshold = 0.001

	suspectAlpha = 0.05
	maxCategories = 20
)

// Suspect names one feature category whose split across arms deviates from
// the overall allocation, a likely contributor to a sample ratio mismatch.
type Suspect struct {
	Feature  string             `json:"feature"`
	Category string             `json:"category"`
	PValue   float64            `json:"p_value"`
	Observed map[string]float64 `json:"obs"`
	Expected map[string]float64 `json:"exp"`
}

// Diagnosis is the outcome of an SRM root-cause scan.
type Diagnosis struct {
	SRM      experiment.SRMResult `json:"srm"`
	Suspects []Suspect            `json:"suspects"`
}

// Diagnose runs the overall SRM test and, when the mismatch is decisive
// (p < 0.001), scans the supplied categorical feature columns for
// categories whose arm split deviates from the rest of the data. Each
// feature column must be aligned row by row with the group labels. Exactly
// two distinct groups are supported.
func Diagnose(groups []experiment.Group, expected []float64, features map[string][]string) (*Diagnosis, error) {
	labels := distinctGroups(groups)
	if len(labels) != 2 {
		return nil, core.ShapeMismatchError("diagnostics need exactly 2 groups, have %d", len(labels))
	}
	for name, col := range features {
		if len(col) != len(groups) {
			return nil, core.ShapeMismatchError("feature %q has %d values, group column has %d", name, len(col), len(groups))
		}
	}

	observed := make([]int64, 2)
	for _, g := range groups {
		if g == labels[0] {
			observed[0]++
		} else {
			observed[1]++
		}
	}
	overall, err := Test(observed, expected)
	if err != nil {
		return nil, err
	}

	diag := &Diagnosis{SRM: overall, Suspects: []Suspect{}}
	if overall.PValue >= srmAlertThreshold || len(features) == 0 {
		return diag, nil
	}

	groupTotals := [2]float64{float64(observed[0]), float64(observed[1])}
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		col := prepareFeature(features[name])
		for _, category := range categoriesOf(col) {
			if category == otherToken {
				continue
			}
			var inCat [2]float64
			for i, v := range col {
				if v != category {
					continue
				}
				if groups[i] == labels[0] {
					inCat[0]++
				} else {
					inCat[1]++
				}
			}
			total := inCat[0] + inCat[1]
			if total == 0 {
				continue
			}

			p, exp := twoByTwoPValue(inCat, groupTotals)
			if math.IsNaN(p) || p >= suspectAlpha {
				continue
			}
			diag.Suspects = append(diag.Suspects, Suspect{
				Feature:  name,
				Category: category,
				PValue:   p,
				Observed: map[string]float64{
					string(labels[0]): inCat[0],
					string(labels[1]): inCat[1],
				},
				Expected: map[string]float64{
					string(labels[0]): exp[0],
					string(labels[1]): exp[1],
				},
			})
		}
	}

	sort.Slice(diag.Suspects, func(i, j int) bool {
		return diag.Suspects[i].PValue < diag.Suspects[j].PValue
	})
	return diag, nil
}

// prepareFeature normalizes a feature column: empty strings become an
// explicit NA token and only the most frequent categories are kept, the
// rest collapsing into an OTHER bucket.
func prepareFeature(col []string) []string {
	counts := make(map[string]int)
	normalized := make([]string, len(col))
	for i, v := range col {
		if v == "" {
			v = naToken
		}
		normalized[i] = v
		counts[v]++
	}
	if len(counts) <= maxCategories {
		return normalized
	}

	type cat struct {
		value string
		n     int
	}
	ranked := make([]cat, 0, len(counts))
	for v, n := range counts {
		ranked = append(ranked, cat{v, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].value < ranked[j].value
	})
	keep := make(map[string]struct{}, maxCategories)
	for _, c := range ranked[:maxCategories] {
		keep[c.value] = struct{}{}
	}
	for i, v := range normalized {
		if _, ok := keep[v]; !ok {
			normalized[i] = otherToken
		}
	}
	return normalized
}

func categoriesOf(col []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range col {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// twoByTwoPValue runs a chi-square independence test (df=1, no continuity
// correction) on the category-vs-rest split across the two arms, returning
// the p-value and the expected in-category counts per arm.
func twoByTwoPValue(inCat, totals [2]float64) (float64, [2]float64) {
	table := [2][2]float64{
		{inCat[0], totals[0] - inCat[0]},
		{inCat[1], totals[1] - inCat[1]},
	}
	grand := totals[0] + totals[1]
	colTotals := [2]float64{inCat[0] + inCat[1], grand - inCat[0] - inCat[1]}

	statistic := 0.0
	var expected [2]float64
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			e := totals[r] * colTotals[c] / grand
			if c == 0 {
				expected[r] = e
			}
			if e == 0 {
				return math.NaN(), expected
			}
			d := table[r][c] - e
			statistic += d * d / e
		}
	}
	return numeric.ChiSquarePValue(statistic, 1), expected
}

func distinctGroups(groups []experiment.Group) []experiment.Group {
	seen := make(map[experiment.Group]struct{})
	var out []experiment.Group
	for _, g := range groups {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
