package realization

import (
	"fmt"

	"latticegas/internal/sims/clg"
	"latticegas/pkg/lattice"
)

// CompareDensity is the particle density of both lattices in CompareRules.
const CompareDensity = 0.6

// RuleComparison holds the activity of two CLG lattices advanced side by side.
type RuleComparison struct {
	Times      []int     `json:"t"`
	Parallel   []float64 `json:"parallel"`
	Randomized []float64 `json:"randomized"`
}

// CompareRules advances two independent CLG lattices of the given length at
// density 0.6, one under the parallel rule and one under the randomized rule,
// one step at a time for timesteps steps. Activity is sampled before the
// update whenever t is a multiple of every.
func CompareRules(length, timesteps, every int, rng *lattice.RNG) (RuleComparison, error) {
	var out RuleComparison
	if every <= 0 {
		return out, fmt.Errorf("%w: sampling interval %d must be positive", lattice.ErrConfiguration, every)
	}
	if timesteps < 0 {
		return out, fmt.Errorf("%w: negative timestep count %d", lattice.ErrConfiguration, timesteps)
	}
	n := int(float64(length) * CompareDensity)
	par, err := clg.New(length, n, rng)
	if err != nil {
		return out, err
	}
	rnd, err := clg.New(length, n, rng)
	if err != nil {
		return out, err
	}

	for t := 0; t < timesteps; t++ {
		if t%every == 0 {
			out.Times = append(out.Times, t)
			out.Parallel = append(out.Parallel, clg.Activity(par))
			out.Randomized = append(out.Randomized, clg.Activity(rnd))
		}
		if _, err := clg.Advance(par, 1, clg.Parallel, rng); err != nil {
			return out, err
		}
		if _, err := clg.Advance(rnd, 1, clg.Randomized, rng); err != nil {
			return out, err
		}
	}
	return out, nil
}
