// Package ensemble merges realization files into per-cell statistics.
package ensemble

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"latticegas/internal/store"
)

// FileName is the ensemble table written next to the realizations.
const FileName = "ensemble.csv"

// Ensemble holds every realization's value for each (t, N) cell.
// Values[ti][ni] lists one value per realization.
type Ensemble struct {
	Particles []int
	Times     []int
	Values    [][][]float64
}

// FromTables merges realization tables that share the same layout.
func FromTables(tabs []store.Table) (*Ensemble, error) {
	if len(tabs) == 0 {
		return nil, errors.New("ensemble: no realizations")
	}
	first := tabs[0]
	e := &Ensemble{
		Particles: slices.Clone(first.Particles),
		Times:     slices.Clone(first.Times),
		Values:    make([][][]float64, len(first.Times)),
	}
	for ti := range e.Values {
		e.Values[ti] = make([][]float64, len(e.Particles))
	}
	for r, tab := range tabs {
		if !slices.Equal(tab.Particles, e.Particles) || !slices.Equal(tab.Times, e.Times) {
			return nil, fmt.Errorf("ensemble: realization %d has a different layout", r)
		}
		for ti, row := range tab.Values {
			for ni, v := range row {
				e.Values[ti][ni] = append(e.Values[ti][ni], v)
			}
		}
	}
	return e, nil
}

// Load reads realization0.csv through realization<r-1>.csv from dir.
func Load(dir string, r int) (*Ensemble, error) {
	tabs := make([]store.Table, 0, r)
	for i := 0; i < r; i++ {
		tab, err := store.ReadRealization(store.RealizationPath(dir, i))
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, tab)
	}
	return FromTables(tabs)
}

// Row is the summary of one (t, N) cell.
type Row struct {
	T       int
	N       int
	Density float64
	Mean    float64
	Std     float64
	Count   int
}

// Summary is the ensemble reduced to mean and population standard deviation.
type Summary struct {
	Sites int
	Rows  []Row
}

// Summarize reduces e. sites converts particle counts into densities.
func Summarize(e *Ensemble, sites int) Summary {
	s := Summary{Sites: sites, Rows: make([]Row, 0, len(e.Times)*len(e.Particles))}
	for ti, t := range e.Times {
		for ni, n := range e.Particles {
			vals := e.Values[ti][ni]
			row := Row{T: t, N: n, Count: len(vals)}
			if sites > 0 {
				row.Density = float64(n) / float64(sites)
			}
			if len(vals) > 0 {
				row.Mean, row.Std = stat.PopMeanStdDev(vals, nil)
			}
			s.Rows = append(s.Rows, row)
		}
	}
	return s
}

// Times returns the distinct checkpoint times in row order.
func (s Summary) Times() []int {
	var out []int
	for _, r := range s.Rows {
		if !slices.Contains(out, r.T) {
			out = append(out, r.T)
		}
	}
	return out
}

// At returns the rows of checkpoint t in particle order.
func (s Summary) At(t int) []Row {
	var out []Row
	for _, r := range s.Rows {
		if r.T == t {
			out = append(out, r)
		}
	}
	return out
}

var header = []string{"t", "n", "density", "mean", "std", "count"}

// WriteCSV writes s in long form, one row per cell.
func WriteCSV(path string, s Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write(header)
	for _, r := range s.Rows {
		_ = w.Write([]string{
			strconv.Itoa(r.T),
			strconv.Itoa(r.N),
			strconv.FormatFloat(r.Density, 'g', -1, 64),
			strconv.FormatFloat(r.Mean, 'g', -1, 64),
			strconv.FormatFloat(r.Std, 'g', -1, 64),
			strconv.Itoa(r.Count),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV parses a file written by WriteCSV. Sites is recovered from the
// first row with a non-zero density.
func ReadCSV(path string) (Summary, error) {
	var s Summary
	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return s, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 || !slices.Equal(records[0], header) {
		return s, fmt.Errorf("read %s: unexpected header", path)
	}
	for line, rec := range records[1:] {
		var r Row
		var errs []error
		var err error
		r.T, err = strconv.Atoi(rec[0])
		errs = append(errs, err)
		r.N, err = strconv.Atoi(rec[1])
		errs = append(errs, err)
		r.Density, err = strconv.ParseFloat(rec[2], 64)
		errs = append(errs, err)
		r.Mean, err = strconv.ParseFloat(rec[3], 64)
		errs = append(errs, err)
		r.Std, err = strconv.ParseFloat(rec[4], 64)
		errs = append(errs, err)
		r.Count, err = strconv.Atoi(rec[5])
		errs = append(errs, err)
		if err := errors.Join(errs...); err != nil {
			return s, fmt.Errorf("read %s: line %d: %w", path, line+2, err)
		}
		if s.Sites == 0 && r.Density > 0 {
			s.Sites = int(float64(r.N)/r.Density + 0.5)
		}
		s.Rows = append(s.Rows, r)
	}
	return s, nil
}

// RemoveRealizations deletes realization0.csv through realization<r-1>.csv.
// Missing files are ignored.
func RemoveRealizations(dir string, r int) error {
	for i := 0; i < r; i++ {
		if err := os.Remove(store.RealizationPath(dir, i)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
