// Package engine dispatches the lattice operations on a model tag so callers
// can drive either model through one surface.
package engine

import (
	"fmt"

	"latticegas/internal/cid"
	"latticegas/internal/sims/clg"
	"latticegas/internal/sims/manna"
	"latticegas/pkg/lattice"
)

// Options configures the model-specific parts of the dynamics.
type Options struct {
	// Threshold is the Manna activity threshold Z. Ignored for CLG.
	Threshold int
	// Randomized selects the one-mover-per-step CLG rule. Ignored for Manna.
	Randomized bool
	// CID selects the Manna CID normalization.
	CID cid.Options
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Threshold: lattice.DefaultThreshold}
}

// Dynamics binds a model, its options and a random source. A Dynamics keeps
// scratch buffers and must serve a single realization.
type Dynamics struct {
	model lattice.Model
	opts  Options
	rng   *lattice.RNG
	manna *manna.Updater
}

// New validates the model and options and returns a Dynamics.
func New(model lattice.Model, opts Options, rng *lattice.RNG) (*Dynamics, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	d := &Dynamics{model: model, opts: opts, rng: rng}
	if model == lattice.Manna {
		u, err := manna.NewUpdater(opts.Threshold, rng)
		if err != nil {
			return nil, err
		}
		d.manna = u
	}
	return d, nil
}

// Create builds a randomized initial lattice of l sites holding n particles.
func (d *Dynamics) Create(l, n int) (*lattice.Ring, error) {
	if d.model == lattice.CLG {
		return clg.New(l, n, d.rng)
	}
	return manna.New(l, n, d.rng)
}

// ActiveSites returns the active sites of r in increasing order.
func (d *Dynamics) ActiveSites(r *lattice.Ring) []int {
	if d.model == lattice.CLG {
		return clg.ActiveSites(r)
	}
	active, _ := manna.ActiveSites(r, d.manna.Threshold())
	return active
}

// Advance applies up to timesteps updates to r and returns the number taken.
func (d *Dynamics) Advance(r *lattice.Ring, timesteps int) (int, error) {
	if d.model == lattice.CLG {
		rule := clg.Parallel
		if d.opts.Randomized {
			rule = clg.Randomized
		}
		return clg.Advance(r, timesteps, rule, d.rng)
	}
	return d.manna.Advance(r, timesteps)
}

// Activity returns the fraction of active sites of r.
func (d *Dynamics) Activity(r *lattice.Ring) float64 {
	if r.Len() == 0 {
		return 0
	}
	return float64(len(d.ActiveSites(r))) / float64(r.Len())
}

// CID returns the Computable Information Density of r.
func (d *Dynamics) CID(r *lattice.Ring) (float64, error) {
	return cid.Compute(r.Sites(), d.model, d.opts.CID, d.rng)
}

// CreateLattice builds a randomized initial lattice for model.
func CreateLattice(model lattice.Model, l, n int, rng *lattice.RNG) (*lattice.Ring, error) {
	d, err := New(model, DefaultOptions(), rng)
	if err != nil {
		return nil, err
	}
	return d.Create(l, n)
}

// FindActiveSites returns the active sites of r under model. z is the Manna
// threshold and is ignored for CLG.
func FindActiveSites(r *lattice.Ring, model lattice.Model, z int) ([]int, error) {
	switch model {
	case lattice.CLG:
		return clg.ActiveSites(r), nil
	case lattice.Manna:
		return manna.ActiveSites(r, z)
	}
	return nil, model.Validate()
}

// Advance applies up to timesteps updates to r under model.
func Advance(r *lattice.Ring, model lattice.Model, timesteps int, opts Options, rng *lattice.RNG) (int, error) {
	d, err := New(model, opts, rng)
	if err != nil {
		return 0, err
	}
	return d.Advance(r, timesteps)
}

// Activity returns the fraction of active sites of r under model.
func Activity(r *lattice.Ring, model lattice.Model, z int) (float64, error) {
	if r.Len() == 0 {
		return 0, fmt.Errorf("%w: empty lattice", lattice.ErrConfiguration)
	}
	active, err := FindActiveSites(r, model, z)
	if err != nil {
		return 0, err
	}
	return float64(len(active)) / float64(r.Len()), nil
}

// CID returns the Computable Information Density of r under model.
func CID(r *lattice.Ring, model lattice.Model, opts cid.Options, rng *lattice.RNG) (float64, error) {
	return cid.Compute(r.Sites(), model, opts, rng)
}
