package manna

import (
	"latticegas/internal/core"
	"latticegas/pkg/lattice"
)

// World adapts a Manna lattice to the viewer Sim contract.
type World struct {
	cfg     Config
	ring    *lattice.Ring
	updater *Updater
	history *core.History
	row     []uint8
	tick    int
}

// NewWithConfig returns a World configured from the provided options.
func NewWithConfig(cfg Config) *World {
	if cfg.Sites <= 0 {
		cfg.Sites = 1
	}
	if cfg.Particles < 0 {
		cfg.Particles = 0
	}
	if cfg.Threshold < 1 {
		cfg.Threshold = lattice.DefaultThreshold
	}
	w := &World{cfg: cfg, history: core.NewHistory(cfg.Sites, cfg.History)}
	w.Reset(cfg.Seed)
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "manna" }

// Size reports the space-time buffer dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.history.W, H: w.history.H} }

// Cells exposes the space-time buffer. Occupancies above 255 are clamped.
func (w *World) Cells() []uint8 { return w.history.Cells() }

// Reset redistributes the particles using deterministic randomness.
func (w *World) Reset(seed int64) {
	rng := lattice.NewRNG(seed)
	ring, err := New(w.cfg.Sites, w.cfg.Particles, rng)
	if err != nil {
		panic(err)
	}
	updater, err := NewUpdater(w.cfg.Threshold, rng)
	if err != nil {
		panic(err)
	}
	w.ring = ring
	w.updater = updater
	w.tick = 0
	w.history.Clear()
	w.pushRow()
}

// Step advances the lattice by one timestep.
func (w *World) Step() {
	taken, err := w.updater.Advance(w.ring, 1)
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
func (w *World) Activity() float64 {
	return float64(len(activeSites(w.ring, w.cfg.Threshold))) / float64(w.ring.Len())
}

// Total reports the number of particles.
func (w *World) Total() int { return w.ring.Total() }

// ActiveSites lists the currently active sites.
func (w *World) ActiveSites() []int { return activeSites(w.ring, w.cfg.Threshold) }

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
				core.IntParam("z", "Threshold Z", w.cfg.Threshold),
				core.IntParam("history", "History rows", w.cfg.History),
			},
		},
	}}
}

func init() {
	core.Register("manna", func(cfg map[string]string) core.Sim {
		return NewWithConfig(FromMap(cfg))
	})
}
