package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latticegas/internal/realization"
	"latticegas/pkg/lattice"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "clg", cfg.Model)
	assert.Len(t, cfg.Particles, 11)
	assert.Equal(t, 1000, cfg.Particles[10])
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := `
model: manna
sites: 200
particles: [100, 200, 400]
checkpoints: [50, 50]
realizations: 4
seed: 42
threshold: 3
observable: activity
cid:
  shuffle: true
output:
  dir: results
  index: runs.db
  trajectories: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "manna", cfg.Model)
	assert.Equal(t, 200, cfg.Sites)
	assert.Equal(t, []int{100, 200, 400}, cfg.Particles)
	assert.Equal(t, []int{50, 50}, cfg.Checkpoints)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.True(t, cfg.CID.Shuffle)
	assert.True(t, cfg.Output.Trajectories)
	assert.True(t, cfg.Output.KeepRealizations, "unset fields keep defaults")
	assert.Greater(t, cfg.Workers, 0)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, lattice.Manna, p.Model)
	assert.Equal(t, realization.Activity, p.Observable)
	assert.Equal(t, 3, p.Options.Threshold)
	assert.True(t, p.Options.CID.Shuffle)
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown model":     "model: ising\n",
		"unknown field":     "lattice: 12\n",
		"zero sites":        "sites: 0\n",
		"negative particle": "particles: [10, -1]\n",
		"zero checkpoint":   "checkpoints: [0]\n",
		"bad observable":    "observable: entropy\n",
		"bad log level":     "log:\n  level: loud\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.ErrorIs(t, err, lattice.ErrConfiguration, name)
	}
}

func TestParseRejectsOvercrowdedCLG(t *testing.T) {
	_, err := Parse([]byte("model: clg\nsites: 10\nparticles: [5, 11]\n"))
	assert.ErrorIs(t, err, lattice.ErrConfiguration)

	cfg, err := Parse([]byte("model: manna\nsites: 10\nparticles: [5, 11]\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{5, 11}, cfg.Particles)
}

func TestParseEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Sites, cfg.Sites)
}
