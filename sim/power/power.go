// Package power estimates the power of the two-sample tests, either by
// closed-form normal approximation or by Monte Carlo simulation of the full
// test procedure. It is a pure consumer of the estimator contracts and
// introduces no new statistics of its own.
package power

import (
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"abx/domain/core"
	"abx/stats/numeric"
)

// MinReps is the floor on Monte Carlo repetitions; below this the power
// estimate itself is too noisy to act on.
const MinReps = 1000

// MeanParams describes a two-sample mean comparison scenario.
type MeanParams struct {
	MeanControl   float64
	MeanTreatment float64
	StdControl    float64
	StdTreatment  float64
	NControl      int
	NTreatment    int
}

// PropParams describes a two-sample conversion-rate scenario.
type PropParams struct {
	PControl   float64
	PTreatment float64
	NControl   int
	NTreatment int
}

// MCConfig controls a Monte Carlo power run. Workers defaults to the
// number of CPUs; results are deterministic for a fixed Seed and worker
// count, because each repetition chunk derives its own source.
type MCConfig struct {
	Alpha    float64
	TwoSided bool
	Reps     int
	Seed     int64
	Workers  int
}

// MeanWelch approximates the power of Welch's test for a mean difference
// using a normal approximation to the t-statistic under the alternative.
// Accurate for moderate-to-large samples.
func MeanWelch(p MeanParams, alpha float64, twoSided bool) (float64, error) {
	if err := validateMean(p); err != nil {
		return 0, err
	}
	if err := validateAlpha(alpha); err != nil {
		return 0, err
	}

	se := math.Sqrt(p.StdControl*p.StdControl/float64(p.NControl) + p.StdTreatment*p.StdTreatment/float64(p.NTreatment))
	delta := (p.MeanTreatment - p.MeanControl) / se
	return normalPower(delta, alpha, twoSided), nil
}

// PropNormal approximates the power of the z-test for a difference in
// proportions.
func PropNormal(p PropParams, alpha float64, twoSided bool) (float64, error) {
	if err := validateProp(p); err != nil {
		return 0, err
	}
	if err := validateAlpha(alpha); err != nil {
		return 0, err
	}

	variance := p.PControl*(1-p.PControl)/float64(p.NControl) + p.PTreatment*(1-p.PTreatment)/float64(p.NTreatment)
	if variance <= 0 {
		return 0, core.InsufficientDataError("variance is zero; probabilities are degenerate for the given sample sizes")
	}
	delta := (p.PTreatment - p.PControl) / math.Sqrt(variance)
	return normalPower(delta, alpha, twoSided), nil
}

// MeanMC estimates the power of Welch's t-test by simulating normal
// outcomes for both arms and applying the full test per repetition.
func MeanMC(p MeanParams, cfg MCConfig) (float64, error) {
	if err := validateMean(p); err != nil {
		return 0, err
	}
	return runMC(cfg, func(rng *rand.Rand) bool {
		meanC, varC := sampleNormalMoments(rng, p.MeanControl, p.StdControl, p.NControl)
		meanT, varT := sampleNormalMoments(rng, p.MeanTreatment, p.StdTreatment, p.NTreatment)

		se := numeric.WelchSE(varC, varT, p.NControl, p.NTreatment)
		if se <= 0 {
			// Degenerate simulation counts as no rejection.
			return false
		}
		tStat := (meanT - meanC) / se
		df := numeric.WelchDF(varC, varT, p.NControl, p.NTreatment)
		if cfg.TwoSided {
			crit := numeric.TQuantile(1-cfg.Alpha/2, df)
			return math.Abs(tStat) > crit
		}
		crit := numeric.TQuantile(1-cfg.Alpha, df)
		return tStat > crit
	})
}

// PropMC estimates the power of the pooled z-test for a difference in
// proportions by simulating binomial outcomes per arm.
func PropMC(p PropParams, cfg MCConfig) (float64, error) {
	if err := validateProp(p); err != nil {
		return 0, err
	}
	return runMC(cfg, func(rng *rand.Rand) bool {
		scC := sampleBinomial(rng, p.NControl, p.PControl)
		scT := sampleBinomial(rng, p.NTreatment, p.PTreatment)

		nC, nT := float64(p.NControl), float64(p.NTreatment)
		uplift := float64(scT)/nT - float64(scC)/nC
		pooled := float64(scC+scT) / (nC + nT)
		se := math.Sqrt(pooled * (1 - pooled) * (1/nC + 1/nT))
		if se <= 0 {
			return false
		}
		zStat := uplift / se
		if cfg.TwoSided {
			crit := numeric.NormalQuantile(1 - cfg.Alpha/2)
			return math.Abs(zStat) > crit
		}
		crit := numeric.NormalQuantile(1 - cfg.Alpha)
		return zStat > crit
	})
}

// runMC fans the repetitions out across workers. Each chunk gets a source
// derived from Seed and the chunk index, so the rejection count is
// reproducible independent of scheduling.
func runMC(cfg MCConfig, rejectOnce func(*rand.Rand) bool) (float64, error) {
	if err := validateAlpha(cfg.Alpha); err != nil {
		return 0, err
	}
	if cfg.Reps < MinReps {
		return 0, core.InvalidCountError("Monte Carlo repetitions must be at least %d for stability, got %d", MinReps, cfg.Reps)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Reps {
		workers = cfg.Reps
	}

	counts := make([]int, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		chunkStart := w * cfg.Reps / workers
		chunkEnd := (w + 1) * cfg.Reps / workers
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(chunkStart)))
			rejected := 0
			for r := chunkStart; r < chunkEnd; r++ {
				if rejectOnce(rng) {
					rejected++
				}
			}
			counts[w] = rejected
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	return float64(total) / float64(cfg.Reps), nil
}

// sampleNormalMoments draws one arm and returns its sample mean and
// unbiased variance.
func sampleNormalMoments(rng *rand.Rand, mean, std float64, n int) (float64, float64) {
	sum := 0.0
	values := make([]float64, n)
	for i := range values {
		v := rng.NormFloat64()*std + mean
		values[i] = v
		sum += v
	}
	sampleMean := sum / float64(n)
	ss := 0.0
	for _, v := range values {
		d := v - sampleMean
		ss += d * d
	}
	return sampleMean, ss / float64(n-1)
}

func sampleBinomial(rng *rand.Rand, n int, p float64) int {
	successes := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			successes++
		}
	}
	return successes
}

func normalPower(delta, alpha float64, twoSided bool) float64 {
	if twoSided {
		crit := numeric.NormalQuantile(1 - alpha/2)
		return (1 - numeric.NormalCDF(crit-delta)) + numeric.NormalCDF(-crit-delta)
	}
	crit := numeric.NormalQuantile(1 - alpha)
	return 1 - numeric.NormalCDF(crit-delta)
}

func validateMean(p MeanParams) error {
	if p.NControl <= 1 || p.NTreatment <= 1 {
		return core.InsufficientDataError("sample sizes must exceed 1, got %d and %d", p.NControl, p.NTreatment)
	}
	if p.StdControl <= 0 || p.StdTreatment <= 0 {
		return core.InvalidCountError("standard deviations must be positive, got %v and %v", p.StdControl, p.StdTreatment)
	}
	return nil
}

func validateProp(p PropParams) error {
	if p.NControl <= 1 || p.NTreatment <= 1 {
		return core.InsufficientDataError("sample sizes must exceed 1, got %d and %d", p.NControl, p.NTreatment)
	}
	if p.PControl < 0 || p.PControl > 1 || p.PTreatment < 0 || p.PTreatment > 1 {
		return core.InvalidCountError("probabilities must lie in [0, 1], got %v and %v", p.PControl, p.PTreatment)
	}
	return nil
}

func validateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return core.InvalidCountError("alpha must lie in (0, 1), got %v", alpha)
	}
	return nil
}
