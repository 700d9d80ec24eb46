package core

import "sort"

// Size describes the dimensions of a rendered simulation buffer. For the
// one-dimensional lattice models W is the number of sites and H the number of
// timesteps kept in the space-time history.
type Size struct {
	W int
	H int
}

// Sim defines the minimal contract a viewer-driven lattice simulation must implement.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// Observer exposes the live observables of a lattice simulation.
type Observer interface {
	// Tick is the number of timesteps applied since the last Reset.
	Tick() int
	// Activity is the current fraction of active sites.
	Activity() float64
	// Total is the number of particles on the lattice.
	Total() int
	// ActiveSites lists the indices of the currently active sites.
	ActiveSites() []int
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) Sim

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

// Names returns the registered simulation names in sorted order.
func Names() []string {
	names := make([]string, 0, len(sims))
	for name := range sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
