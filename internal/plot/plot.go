// Package plot renders ensemble summaries as PNG figures.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"latticegas/internal/ensemble"
	"latticegas/internal/realization"
	"latticegas/pkg/lattice"
)

// Options controls a figure.
type Options struct {
	Model      lattice.Model
	Observable realization.Observable
	// Analytical overlays the mean-field CLG activity curve for densities
	// of one half and above.
	Analytical bool
	Width      int
	Height     int
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

// Title returns the figure title for a model.
func Title(m lattice.Model) string {
	return m.Title() + " on a Chain"
}

// AnalyticalActivity is the mean-field CLG activity (2/x)(2x-1)(1-x) at
// density x. It is zero below one half.
func AnalyticalActivity(x float64) float64 {
	if x < 0.5 || x > 1 {
		return 0
	}
	return (2 / x) * (2*x - 1) * (1 - x)
}

// Figure renders s as a PNG into w: one mean series per checkpoint plotted
// against density, with dashed mean±std envelopes.
func Figure(w io.Writer, s ensemble.Summary, opts Options) error {
	if err := opts.Model.Validate(); err != nil {
		return err
	}
	times := s.Times()
	if len(times) == 0 {
		return errors.New("plot: empty summary")
	}

	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	xlo, xhi := math.Inf(1), math.Inf(-1)
	for i, t := range times {
		rows := s.At(t)
		xs := make([]float64, len(rows))
		mean := make([]float64, len(rows))
		upper := make([]float64, len(rows))
		lower := make([]float64, len(rows))
		for j, r := range rows {
			xs[j] = r.Density
			mean[j] = r.Mean
			upper[j] = r.Mean + r.Std
			lower[j] = r.Mean - r.Std
			lo, hi = math.Min(lo, lower[j]), math.Max(hi, upper[j])
			xlo, xhi = math.Min(xlo, xs[j]), math.Max(xhi, xs[j])
		}
		color := palette[i%len(palette)]
		series = append(series,
			chart.ContinuousSeries{
				Name:    "t=" + strconv.Itoa(t),
				XValues: xs,
				YValues: mean,
				Style:   chart.Style{StrokeColor: color, StrokeWidth: 2, DotColor: color, DotWidth: 3},
			},
			chart.ContinuousSeries{
				XValues: xs,
				YValues: upper,
				Style:   chart.Style{StrokeColor: color.WithAlpha(120), StrokeWidth: 1, StrokeDashArray: []float64{4, 3}},
			},
			chart.ContinuousSeries{
				XValues: xs,
				YValues: lower,
				Style:   chart.Style{StrokeColor: color.WithAlpha(120), StrokeWidth: 1, StrokeDashArray: []float64{4, 3}},
			},
		)
	}

	if opts.Analytical && opts.Model == lattice.CLG && xhi > 0.5 {
		const steps = 50
		xs := make([]float64, 0, steps+1)
		ys := make([]float64, 0, steps+1)
		for k := 0; k <= steps; k++ {
			x := 0.5 + (xhi-0.5)*float64(k)/steps
			xs = append(xs, x)
			ys = append(ys, AnalyticalActivity(x))
			hi = math.Max(hi, ys[len(ys)-1])
			lo = math.Min(lo, ys[len(ys)-1])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "mean field",
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 2},
		})
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 1000
	}
	graph := chart.Chart{
		Title:  Title(opts.Model),
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Density",
			Range: padRange(xlo, xhi),
			ValueFormatter: func(v interface{}) string {
				return strconv.FormatFloat(v.(float64), 'f', 2, 64)
			},
		},
		YAxis: chart.YAxis{
			Name:  opts.Observable.Label(),
			Range: padRange(lo, hi),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return graph.Render(chart.PNG, w)
}

// padRange widens degenerate ranges so the chart always has a non-zero span.
func padRange(lo, hi float64) *chart.ContinuousRange {
	if hi-lo < 1e-9 {
		lo, hi = lo-0.5, hi+0.5
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// Save writes the figure to path and the caption next to it as
// <path without extension>.txt.
func Save(path string, s ensemble.Summary, opts Options, caption string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Figure(f, s, opts); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if caption == "" {
		return nil
	}
	txt := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
	return os.WriteFile(txt, []byte(caption+"\n"), 0o644)
}

// FileName is the default figure name for a model.
func FileName(m lattice.Model) string { return string(m) + "_figure.png" }

func braceList(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Caption describes how a figure's data was produced.
func Caption(sites int, particles, checkpoints []int, realizations int, model lattice.Model, obs realization.Observable) (string, error) {
	var rules string
	switch model {
	case lattice.CLG:
		rules = "CLG"
	case lattice.Manna:
		rules = "Manna"
	default:
		return "", model.Validate()
	}
	total := 0
	for _, t := range checkpoints {
		total += t
	}
	measured := "CID"
	if obs == realization.Activity {
		measured = "activity"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Particles\nhave been distributed on a discrete ring with %d sites. ", braceList(particles), sites)
	fmt.Fprintf(&b, "Those particles have been randomly distributed for %d separate times.\n", realizations)
	fmt.Fprintf(&b, "Each distribution has been individually propagated according to the %s rules to a total number of %d updates.\n", rules, total)
	fmt.Fprintf(&b, "The %s has been measured and plotted after the following time intervals - %s. ", measured, braceList(checkpoints))
	b.WriteString("The different\nrealizations of each unique density enabled the computation of the standard deviation for each density. ")
	b.WriteString("It is\nplotted as the dashed envelope of that density.")
	return b.String(), nil
}
