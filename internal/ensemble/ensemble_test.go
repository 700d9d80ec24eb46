package ensemble

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latticegas/internal/realization"
	"latticegas/internal/store"
)

func writeRealizations(t *testing.T, dir string) {
	t.Helper()
	times := []int{0, 10}
	runs := [][]realization.Trajectory{
		{
			{N: 5, Times: times, Values: []float64{1, 2}},
			{N: 10, Times: times, Values: []float64{0.5, 0.5}},
		},
		{
			{N: 5, Times: times, Values: []float64{3, 4}},
			{N: 10, Times: times, Values: []float64{0.5, 1.5}},
		},
	}
	for i, trs := range runs {
		require.NoError(t, store.WriteRealization(store.RealizationPath(dir, i), trs))
	}
}

func TestLoadAndSummarize(t *testing.T) {
	dir := t.TempDir()
	writeRealizations(t, dir)

	e, err := Load(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 10}, e.Particles)
	assert.Equal(t, []int{0, 10}, e.Times)
	assert.Equal(t, []float64{2, 4}, e.Values[1][0])

	s := Summarize(e, 20)
	require.Len(t, s.Rows, 4)
	assert.Equal(t, Row{T: 0, N: 5, Density: 0.25, Mean: 2, Std: 1, Count: 2}, s.Rows[0])
	assert.Equal(t, Row{T: 10, N: 10, Density: 0.5, Mean: 1, Std: 0.5, Count: 2}, s.Rows[3])
	assert.Equal(t, []int{0, 10}, s.Times())
	assert.Len(t, s.At(10), 2)
}

func TestSummaryCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeRealizations(t, dir)
	e, err := Load(dir, 2)
	require.NoError(t, err)
	s := Summarize(e, 20)

	path := filepath.Join(dir, FileName)
	require.NoError(t, WriteCSV(path, s))
	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestLoadRejectsMismatchedLayouts(t *testing.T) {
	dir := t.TempDir()
	writeRealizations(t, dir)
	other := []realization.Trajectory{{N: 7, Times: []int{0, 10}, Values: []float64{1, 1}}}
	require.NoError(t, store.WriteRealization(store.RealizationPath(dir, 2), other))

	_, err := Load(dir, 3)
	assert.Error(t, err)

	_, err = Load(dir, 4)
	assert.Error(t, err, "missing realization file")
}

func TestRemoveRealizations(t *testing.T) {
	dir := t.TempDir()
	writeRealizations(t, dir)
	require.NoError(t, RemoveRealizations(dir, 3))
	_, err := os.Stat(store.RealizationPath(dir, 0))
	assert.True(t, os.IsNotExist(err))
}
