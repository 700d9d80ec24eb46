package clg

import "strconv"

// Config controls the interactive CLG simulation.
type Config struct {
	Sites     int
	Particles int
	History   int
	Seed      int64
	Rule      Rule
}

// DefaultConfig returns the standard configuration: 256 sites at density 0.6.
func DefaultConfig() Config {
	return Config{Sites: 256, Particles: 154, History: 256, Seed: 1337, Rule: Parallel}
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
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Particles = int(parsed * float64(c.Sites))
		}
	}
	if c.Particles > c.Sites {
		c.Particles = c.Sites
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
	if v, ok := cfg["randomized"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil && parsed {
			c.Rule = Randomized
		}
	}
	return c
}
