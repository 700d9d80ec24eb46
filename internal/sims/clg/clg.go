// Package clg implements the Conserved Lattice Gas on a periodic chain.
//
// Each site holds at most one particle. An occupied site is active when
// exactly one of its two neighbours is occupied; an active particle hops into
// its single empty neighbour. All hops of a timestep are computed from the
// state at the start of the step and applied together.
package clg

import (
	"fmt"

	"latticegas/pkg/lattice"
)

// Rule selects the update variant.
type Rule uint8

const (
	// Parallel moves every active particle that survives competition resolution.
	Parallel Rule = iota
	// Randomized moves a single uniformly chosen active particle per timestep.
	Randomized
)

func (r Rule) String() string {
	if r == Randomized {
		return "randomized"
	}
	return "parallel"
}

// Direction is the hop offset of an active particle: -1 (left) or +1 (right).
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// New places n particles on l sites uniformly at random without replacement.
func New(l, n int, rng *lattice.RNG) (*lattice.Ring, error) {
	ring, err := lattice.NewRing(l)
	if err != nil {
		return nil, err
	}
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: particle count N=%d must not be negative", lattice.ErrConfiguration, n)
	case n > l:
		return nil, fmt.Errorf("%w: CLG density cannot exceed 1 (N=%d > L=%d)", lattice.ErrConfiguration, n, l)
	}
	sites := ring.Sites()
	if n == l {
		for i := range sites {
			sites[i] = 1
		}
		return ring, nil
	}
	for _, idx := range rng.Sample(l, n) {
		sites[idx] = 1
	}
	return ring, nil
}

// Validate reports ErrConfiguration when any site violates the exclusion constraint.
func Validate(r *lattice.Ring) error {
	if r == nil || r.Len() == 0 {
		return fmt.Errorf("%w: empty lattice", lattice.ErrConfiguration)
	}
	for i, v := range r.Sites() {
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: CLG site %d holds %d particles", lattice.ErrConfiguration, i, v)
		}
	}
	return nil
}

// IsActive reports whether site i is occupied with exactly one occupied neighbour.
func IsActive(r *lattice.Ring, i int) bool {
	sites := r.Sites()
	if sites[i] == 0 {
		return false
	}
	return (sites[r.Right(i)] == 1) != (sites[r.Left(i)] == 1)
}

// ActiveSites returns the active site indices in increasing order.
func ActiveSites(r *lattice.Ring) []int {
	var active []int
	for i := range r.Sites() {
		if IsActive(r, i) {
			active = append(active, i)
		}
	}
	return active
}

// EmptyNeighbor returns the hop direction of an active site: left when the
// right neighbour is occupied, right otherwise.
func EmptyNeighbor(r *lattice.Ring, site int) Direction {
	if r.Sites()[r.Right(site)] == 1 {
		return Left
	}
	return Right
}

// Target returns the site an active particle at site would hop into.
func Target(r *lattice.Ring, site int) int {
	return r.Wrap(site + int(EmptyNeighbor(r, site)))
}

// Activity returns the fraction of active sites.
func Activity(r *lattice.Ring) float64 {
	if r.Len() == 0 {
		return 0
	}
	return float64(len(ActiveSites(r))) / float64(r.Len())
}

// Advance applies up to timesteps synchronous updates in place and returns the
// number of steps taken. It stops early once no site is active.
func Advance(r *lattice.Ring, timesteps int, rule Rule, rng *lattice.RNG) (int, error) {
	if timesteps < 0 {
		return 0, fmt.Errorf("%w: negative timestep count %d", lattice.ErrConfiguration, timesteps)
	}
	if err := Validate(r); err != nil {
		return 0, err
	}
	var moves []move
	for t := 0; t < timesteps; t++ {
		var ok bool
		moves, ok = step(r, rule, rng, moves[:0])
		if !ok {
			return t, nil
		}
	}
	return timesteps, nil
}

type move struct{ from, to int }

// step performs one timestep. It returns false when the lattice is absorbing.
func step(r *lattice.Ring, rule Rule, rng *lattice.RNG, moves []move) ([]move, bool) {
	active := ActiveSites(r)
	if len(active) == 0 {
		return moves, false
	}

	var movers []int
	if rule == Randomized {
		movers = []int{active[rng.IntN(len(active))]}
	} else {
		movers = ResolveCompetition(active, r, rng)
	}

	// Targets are read from the pre-step state before any particle moves.
	for _, site := range movers {
		moves = append(moves, move{from: site, to: Target(r, site)})
	}
	sites := r.Sites()
	for _, m := range moves {
		sites[m.from]--
		sites[m.to]++
	}
	return moves, true
}
