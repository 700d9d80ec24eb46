package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latticegas/internal/ensemble"
	"latticegas/internal/realization"
	"latticegas/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "latticegas version "+version+"\n", out)
}

func TestSimsListsRegisteredModels(t *testing.T) {
	out, err := execute(t, "sims")
	require.NoError(t, err)
	for _, name := range []string{"clg\n", "clg-random\n", "manna\n"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "particles")
}

func TestRunAggregatePlot(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "run",
		"--model", "clg", "--sites", "30", "--particles", "10,15,20",
		"--checkpoints", "10,10", "--realizations", "3", "--workers", "2",
		"--observable", "activity", "--out", dir, "--index", "runs.db", "--plot",
		"--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "3 realizations")
	assert.Contains(t, out, "figure:")

	_, err = os.Stat(filepath.Join(dir, "clg_figure.png"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)

	// Re-aggregate from the kept realization files.
	require.NoError(t, os.Remove(filepath.Join(dir, ensemble.FileName)))
	_, err = execute(t, "aggregate", "--dir", dir, "--realizations", "3", "--sites", "30", "--remove")
	require.NoError(t, err)
	s, err := ensemble.ReadCSV(filepath.Join(dir, ensemble.FileName))
	require.NoError(t, err)
	assert.Len(t, s.Rows, 9)
	assert.Equal(t, 30, s.Sites)
	_, err = os.Stat(store.RealizationPath(dir, 0))
	assert.True(t, os.IsNotExist(err))

	fig := filepath.Join(dir, "again.png")
	_, err = execute(t, "plot", "--ensemble", filepath.Join(dir, ensemble.FileName),
		"--out", fig, "--observable", "activity", "--analytical")
	require.NoError(t, err)
	caption, err := os.ReadFile(filepath.Join(dir, "again.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(caption), "{10,15,20} Particles")
	assert.Contains(t, string(caption), "for 3 separate times")
}

func TestRunConfigFileWithOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "run.yaml")
	doc := "model: manna\nsites: 20\nparticles: [10, 30]\ncheckpoints: [5]\nrealizations: 2\nobservable: cid\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0o644))

	out := filepath.Join(dir, "results")
	_, err := execute(t, "run", "--config", cfgPath, "--out", out, "--realizations", "1", "--log-level", "error")
	require.NoError(t, err)

	tab, err := store.ReadRealization(store.RealizationPath(out, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, tab.Particles)
	_, err = os.Stat(store.RealizationPath(out, 1))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "run", "--model", "ising", "--out", t.TempDir())
	assert.Error(t, err)
	_, err = execute(t, "run", "--sites", "5", "--particles", "6", "--out", t.TempDir())
	assert.Error(t, err)
}

func TestCompareJSON(t *testing.T) {
	out, err := execute(t, "compare", "--length", "50", "--timesteps", "20", "--every", "5", "--json")
	require.NoError(t, err)
	var res realization.RuleComparison
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []int{0, 5, 10, 15}, res.Times)
	assert.Len(t, res.Parallel, 4)

	out, err = execute(t, "compare", "--length", "50", "--timesteps", "10", "--every", "5")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "t"))
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestDescribe(t *testing.T) {
	s := ensemble.Summary{Rows: []ensemble.Row{
		{T: 0, N: 1, Count: 4}, {T: 0, N: 2, Count: 4},
		{T: 50, N: 1, Count: 4}, {T: 50, N: 2, Count: 4},
		{T: 150, N: 1, Count: 4}, {T: 150, N: 2, Count: 4},
	}}
	particles, checkpoints, r := describe(s)
	assert.Equal(t, []int{1, 2}, particles)
	assert.Equal(t, []int{50, 100}, checkpoints)
	assert.Equal(t, 4, r)
}
