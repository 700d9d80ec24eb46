package clg

import (
	"latticegas/internal/core"
	"latticegas/pkg/lattice"
)

// World adapts a CLG lattice to the viewer Sim contract. Cells returns a
// scrolling space-time diagram with the newest timestep in the top row.
type World struct {
	cfg     Config
	ring    *lattice.Ring
	rng     *lattice.RNG
	history *core.History
	row     []uint8
	tick    int
}

// NewWithConfig returns a World configured from the provided options. Sizes
// outside the valid CLG range are clamped.
func NewWithConfig(cfg Config) *World {
	if cfg.Sites <= 0 {
		cfg.Sites = 1
	}
	if cfg.Particles < 0 {
		cfg.Particles = 0
	}
	if cfg.Particles > cfg.Sites {
		cfg.Particles = cfg.Sites
	}
	w := &World{cfg: cfg, history: core.NewHistory(cfg.Sites, cfg.History)}
	w.Reset(cfg.Seed)
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string {
	if w.cfg.Rule == Randomized {
		return "clg-random"
	}
	return "clg"
}

// Size reports the space-time buffer dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.history.W, H: w.history.H} }

// Cells exposes the space-time buffer.
func (w *World) Cells() []uint8 { return w.history.Cells() }

// Reset places the particles again using deterministic randomness.
func (w *World) Reset(seed int64) {
	w.rng = lattice.NewRNG(seed)
	ring, err := New(w.cfg.Sites, w.cfg.Particles, w.rng)
	if err != nil {
		// NewWithConfig clamps the sizes, so New cannot fail here.
		panic(err)
	}
	w.ring = ring
	w.tick = 0
	w.history.Clear()
	w.pushRow()
}

// Step advances the lattice by one timestep. Absorbing states are left as is.
func (w *World) Step() {
	taken, err := Advance(w.ring, 1, w.cfg.Rule, w.rng)
	if err != nil {
		return
	}
	w.tick += taken
	w.pushRow()
}

func (w *World) pushRow() {
	w.row = w.ring.Cells(w.row)
	w.history.Push(w.row)
}

// Tick reports the number of timesteps applied since Reset.
func (w *World) Tick() int { return w.tick }

// Activity reports the current fraction of active sites.
func (w *World) Activity() float64 { return Activity(w.ring) }

// Total reports the number of particles.
func (w *World) Total() int { return w.ring.Total() }

// ActiveSites lists the currently active sites.
func (w *World) ActiveSites() []int { return ActiveSites(w.ring) }

// Parameters describes the configuration for the HUD and CLI.
func (w *World) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				core.IntParam("sites", "Sites", w.cfg.Sites),
				core.IntParam("particles", "Particles", w.cfg.Particles),
				core.FloatParam("density", "Density", float64(w.cfg.Particles)/float64(w.cfg.Sites)),
				core.Int64Param("seed", "Seed", w.cfg.Seed),
			},
		},
		{
			Name: "Dynamics",
			Params: []core.Parameter{
				core.BoolParam("randomized", "Randomized rule", w.cfg.Rule == Randomized),
				core.IntParam("history", "History rows", w.cfg.History),
			},
		},
	}}
}

func init() {
	core.Register("clg", func(cfg map[string]string) core.Sim {
		return NewWithConfig(FromMap(cfg))
	})
	core.Register("clg-random", func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		c.Rule = Randomized
		return NewWithConfig(c)
	})
}
