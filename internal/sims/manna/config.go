package manna

import (
	"strconv"

	"latticegas/pkg/lattice"
)

// Config controls the interactive Manna simulation.
type Config struct {
	Sites     int
	Particles int
	Threshold int
	History   int
	Seed      int64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{Sites: 256, Particles: 256, Threshold: lattice.DefaultThreshold, History: 256, Seed: 1337}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["sites"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Sites = parsed
		}
	}
	if v, ok := cfg["particles"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Particles = parsed
		}
	}
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.Particles = int(parsed * float64(c.Sites))
		}
	}
	if v, ok := cfg["z"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 {
			c.Threshold = parsed
		}
	}
	if v, ok := cfg["history"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.History = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}
