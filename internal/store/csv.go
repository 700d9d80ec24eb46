// Package store persists realizations: CSV tables, a SQLite run index and
// zstd-compressed lattice trajectories.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"latticegas/internal/realization"
)

// RealizationPath returns the CSV path of realization i inside dir.
func RealizationPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("realization%d.csv", i))
}

// Table is a realization read back from disk. Values[ti][ni] is the sample
// at Times[ti] for Particles[ni].
type Table struct {
	Particles []int
	Times     []int
	Values    [][]float64
}

// WriteRealization writes one realization as CSV: a "t" column followed by
// one column per particle count, one row per checkpoint. All trajectories
// must share the same times.
func WriteRealization(path string, trs []realization.Trajectory) error {
	if len(trs) == 0 {
		return fmt.Errorf("write %s: no trajectories", path)
	}
	times := trs[0].Times
	for _, tr := range trs {
		if len(tr.Values) != len(times) {
			return fmt.Errorf("write %s: N=%d has %d values for %d checkpoints", path, tr.N, len(tr.Values), len(times))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	header := make([]string, 0, len(trs)+1)
	header = append(header, "t")
	for _, tr := range trs {
		header = append(header, strconv.Itoa(tr.N))
	}
	_ = w.Write(header)

	row := make([]string, len(header))
	for ti, t := range times {
		row[0] = strconv.Itoa(t)
		for ni, tr := range trs {
			row[ni+1] = strconv.FormatFloat(tr.Values[ti], 'g', -1, 64)
		}
		_ = w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadRealization parses a file produced by WriteRealization.
func ReadRealization(path string) (Table, error) {
	var tab Table
	f, err := os.Open(path)
	if err != nil {
		return tab, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return tab, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "t" {
		return tab, fmt.Errorf("read %s: missing header", path)
	}

	for _, h := range records[0][1:] {
		n, err := strconv.Atoi(h)
		if err != nil {
			return tab, fmt.Errorf("read %s: column %q: %w", path, h, err)
		}
		tab.Particles = append(tab.Particles, n)
	}
	for line, rec := range records[1:] {
		t, err := strconv.Atoi(rec[0])
		if err != nil {
			return tab, fmt.Errorf("read %s: line %d: %w", path, line+2, err)
		}
		vals := make([]float64, len(rec)-1)
		for i, s := range rec[1:] {
			if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
				return tab, fmt.Errorf("read %s: line %d: %w", path, line+2, err)
			}
		}
		tab.Times = append(tab.Times, t)
		tab.Values = append(tab.Values, vals)
	}
	return tab, nil
}
