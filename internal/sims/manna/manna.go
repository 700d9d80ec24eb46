// Package manna implements the Manna sandpile on a periodic chain.
//
// Sites hold any number of particles. A site is active when its occupancy
// exceeds the threshold Z; on each timestep every active site sheds its excess
// (occupancy - Z) to its two neighbours, with the share sent right drawn
// uniformly from 0..excess. All sites topple from the same pre-step state.
package manna

import (
	"fmt"

	"latticegas/pkg/lattice"
)

// New drops n particles on l sites, choosing each site uniformly at random
// with replacement.
func New(l, n int, rng *lattice.RNG) (*lattice.Ring, error) {
	ring, err := lattice.NewRing(l)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: particle count N=%d must not be negative", lattice.ErrConfiguration, n)
	}
	sites := ring.Sites()
	for p := 0; p < n; p++ {
		sites[rng.IntN(l)]++
	}
	return ring, nil
}

// Validate reports ErrConfiguration for an empty lattice or negative occupancy.
func Validate(r *lattice.Ring) error {
	if r == nil || r.Len() == 0 {
		return fmt.Errorf("%w: empty lattice", lattice.ErrConfiguration)
	}
	for i, v := range r.Sites() {
		if v < 0 {
			return fmt.Errorf("%w: Manna site %d holds %d particles", lattice.ErrConfiguration, i, v)
		}
	}
	return nil
}

// ActiveSites returns, in increasing order, the sites whose occupancy exceeds z.
func ActiveSites(r *lattice.Ring, z int) ([]int, error) {
	if err := lattice.ValidateThreshold(z); err != nil {
		return nil, err
	}
	return activeSites(r, z), nil
}

func activeSites(r *lattice.Ring, z int) []int {
	var active []int
	for i, v := range r.Sites() {
		if v > z {
			active = append(active, i)
		}
	}
	return active
}

// Activity returns the fraction of sites whose occupancy exceeds z.
func Activity(r *lattice.Ring, z int) (float64, error) {
	active, err := ActiveSites(r, z)
	if err != nil {
		return 0, err
	}
	return float64(len(active)) / float64(r.Len()), nil
}

// Updater advances a Manna lattice. It owns the scratch buffer used to apply
// all topplings of a timestep at once, so one Updater serves one lattice.
type Updater struct {
	z   int
	rng *lattice.RNG
	nxt []int
}

// NewUpdater validates the threshold and returns an Updater.
func NewUpdater(z int, rng *lattice.RNG) (*Updater, error) {
	if err := lattice.ValidateThreshold(z); err != nil {
		return nil, err
	}
	return &Updater{z: z, rng: rng}, nil
}

// Threshold returns the activity threshold Z.
func (u *Updater) Threshold() int { return u.z }

// Advance applies up to timesteps synchronous updates in place and returns the
// number of steps taken. It stops early once no site is active.
func (u *Updater) Advance(r *lattice.Ring, timesteps int) (int, error) {
	if timesteps < 0 {
		return 0, fmt.Errorf("%w: negative timestep count %d", lattice.ErrConfiguration, timesteps)
	}
	if err := Validate(r); err != nil {
		return 0, err
	}
	for t := 0; t < timesteps; t++ {
		if !u.step(r) {
			return t, nil
		}
	}
	return timesteps, nil
}

func (u *Updater) step(r *lattice.Ring) bool {
	cur := r.Sites()
	active := activeSites(r, u.z)
	if len(active) == 0 {
		return false
	}
	u.nxt = r.Snapshot(u.nxt)
	for _, site := range active {
		excess := cur[site] - u.z
		right := u.rng.IntRange(0, excess)
		left := excess - right
		u.nxt[site] -= excess
		u.nxt[r.Right(site)] += right
		u.nxt[r.Left(site)] += left
	}
	copy(cur, u.nxt)
	return true
}

// Advance is a convenience wrapper that builds a throwaway Updater.
func Advance(r *lattice.Ring, timesteps, z int, rng *lattice.RNG) (int, error) {
	u, err := NewUpdater(z, rng)
	if err != nil {
		return 0, err
	}
	return u.Advance(r, timesteps)
}
