// Package config loads batch run configurations from YAML. Documents are
// checked against an embedded JSON Schema before decoding, then validated
// semantically.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"latticegas/internal/cid"
	"latticegas/internal/engine"
	"latticegas/internal/realization"
	"latticegas/pkg/lattice"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema.json"

// RunConfig describes a batch of realizations.
type RunConfig struct {
	// Model is "clg" or "manna".
	Model string `yaml:"model"`
	// Sites is the lattice length L.
	Sites int `yaml:"sites"`
	// Particles lists the particle counts N, one trajectory each.
	Particles []int `yaml:"particles"`
	// Checkpoints lists the time increments between samples.
	Checkpoints []int `yaml:"checkpoints"`
	// Realizations is the ensemble size R.
	Realizations int `yaml:"realizations"`
	// Workers bounds the number of realizations run at once. 0 means NumCPU.
	Workers int `yaml:"workers"`
	// Seed seeds realization 0; realization i uses Seed+i.
	Seed int64 `yaml:"seed"`
	// Threshold is the Manna activity threshold Z.
	Threshold int `yaml:"threshold"`
	// Randomized selects the one-mover CLG rule.
	Randomized bool `yaml:"randomized"`
	// Observable is "cid" or "activity".
	Observable string `yaml:"observable"`

	CID    CIDConfig    `yaml:"cid"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// CIDConfig selects the Manna CID normalization.
type CIDConfig struct {
	Shuffle bool `yaml:"shuffle"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	// Dir receives realization and ensemble files.
	Dir string `yaml:"dir"`
	// Index is an optional SQLite database path. Relative paths resolve
	// against Dir.
	Index string `yaml:"index"`
	// Trajectories enables compressed per-realization lattice snapshots.
	Trajectories bool `yaml:"trajectories"`
	// KeepRealizations keeps realization CSVs after aggregation.
	KeepRealizations bool `yaml:"keep_realizations"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() RunConfig {
	particles := make([]int, 0, 11)
	for n := 0; n <= 1000; n += 100 {
		particles = append(particles, n)
	}
	return RunConfig{
		Model:        string(lattice.CLG),
		Sites:        1000,
		Particles:    particles,
		Checkpoints:  []int{1000},
		Realizations: 8,
		Workers:      runtime.NumCPU(),
		Seed:         1,
		Threshold:    lattice.DefaultThreshold,
		Observable:   string(realization.CID),
		Output: OutputConfig{
			Dir:              "out",
			KeepRealizations: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path, checks it against the schema, decodes it over Default
// and validates the result.
func Load(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, err
	}
	return Parse(raw)
}

// Parse is Load for an in-memory document.
func Parse(raw []byte) (RunConfig, error) {
	cfg := Default()
	if err := checkSchema(raw); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func checkSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so numbers reach the validator as float64.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", lattice.ErrConfiguration, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	return s, nil
}

// Validate runs the semantic checks the schema cannot express.
func (c RunConfig) Validate() error {
	if c.Realizations < 1 {
		return fmt.Errorf("%w: need at least one realization, got %d", lattice.ErrConfiguration, c.Realizations)
	}
	if len(c.Particles) == 0 {
		return fmt.Errorf("%w: no particle counts", lattice.ErrConfiguration)
	}
	if len(c.Checkpoints) == 0 {
		return fmt.Errorf("%w: no checkpoints", lattice.ErrConfiguration)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: empty output directory", lattice.ErrConfiguration)
	}
	p, err := c.Params()
	if err != nil {
		return err
	}
	return p.Validate()
}

// Params converts the configuration into realization parameters.
func (c RunConfig) Params() (realization.Params, error) {
	model, err := lattice.ParseModel(c.Model)
	if err != nil {
		return realization.Params{}, err
	}
	obs, err := realization.ParseObservable(c.Observable)
	if err != nil {
		return realization.Params{}, err
	}
	return realization.Params{
		Model:       model,
		Sites:       c.Sites,
		Particles:   c.Particles,
		Checkpoints: c.Checkpoints,
		Observable:  obs,
		Options: engine.Options{
			Threshold:  c.Threshold,
			Randomized: c.Randomized,
			CID:        cid.Options{Shuffle: c.CID.Shuffle},
		},
	}, nil
}
