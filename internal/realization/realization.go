// Package realization drives a single realization: one randomized initial
// lattice per particle count, advanced through a list of checkpoints with an
// observable sampled at each one.
package realization

import (
	"context"
	"fmt"
	"strings"

	"latticegas/internal/engine"
	"latticegas/pkg/lattice"
)

// Observable names the quantity sampled at each checkpoint.
type Observable string

const (
	CID      Observable = "cid"
	Activity Observable = "activity"
)

// ParseObservable converts a case-insensitive name into an Observable.
func ParseObservable(s string) (Observable, error) {
	o := Observable(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case CID, Activity:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown observable %q", lattice.ErrConfiguration, s)
}

// Label is the axis label used for the observable in figures.
func (o Observable) Label() string {
	if o == Activity {
		return "Activity"
	}
	return "Computable Information Density"
}

// Params describes one realization.
type Params struct {
	Model       lattice.Model
	Sites       int
	Particles   []int
	Checkpoints []int
	Observable  Observable
	Options     engine.Options
}

// Validate checks the parameters before any lattice is built.
func (p Params) Validate() error {
	if err := p.Model.Validate(); err != nil {
		return err
	}
	if p.Sites <= 0 {
		return fmt.Errorf("%w: lattice length L=%d must be positive", lattice.ErrConfiguration, p.Sites)
	}
	for _, n := range p.Particles {
		if n < 0 {
			return fmt.Errorf("%w: particle count N=%d must not be negative", lattice.ErrConfiguration, n)
		}
		if p.Model == lattice.CLG && n > p.Sites {
			return fmt.Errorf("%w: CLG cannot hold N=%d particles on L=%d sites", lattice.ErrConfiguration, n, p.Sites)
		}
	}
	if p.Model == lattice.Manna {
		if err := lattice.ValidateThreshold(p.Options.Threshold); err != nil {
			return err
		}
	}
	if _, err := ParseObservable(string(p.Observable)); err != nil {
		return err
	}
	_, err := Checkpoints(p.Checkpoints)
	return err
}

// Checkpoints turns a list of time increments into the cumulative sampling
// times, starting at 0.
func Checkpoints(increments []int) ([]int, error) {
	times := make([]int, 1, len(increments)+1)
	for i, dt := range increments {
		if dt <= 0 {
			return nil, fmt.Errorf("%w: checkpoint increment %d is %d", lattice.ErrConfiguration, i, dt)
		}
		times = append(times, times[i]+dt)
	}
	return times, nil
}

// Trajectory holds the observable sampled at each checkpoint for one
// particle count.
type Trajectory struct {
	N      int
	Times  []int
	Values []float64
}

// Sample is handed to a Sink at every checkpoint. Sites is a copy owned by
// the receiver.
type Sample struct {
	N     int
	T     int
	Value float64
	Sites []int
}

// Sink receives checkpoint samples as they are produced.
type Sink interface {
	Sample(Sample) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Sample) error

func (f SinkFunc) Sample(s Sample) error { return f(s) }

// Measure evaluates the observable on r.
func Measure(d *engine.Dynamics, r *lattice.Ring, o Observable) (float64, error) {
	if o == Activity {
		return d.Activity(r), nil
	}
	return d.CID(r)
}

// Run executes one realization and returns one trajectory per particle
// count, in the order of p.Particles. sink may be nil. Cancellation is
// observed between checkpoints.
func Run(ctx context.Context, p Params, rng *lattice.RNG, sink Sink) ([]Trajectory, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	times, _ := Checkpoints(p.Checkpoints)

	out := make([]Trajectory, 0, len(p.Particles))
	for _, n := range p.Particles {
		d, err := engine.New(p.Model, p.Options, rng)
		if err != nil {
			return nil, err
		}
		r, err := d.Create(p.Sites, n)
		if err != nil {
			return nil, err
		}

		tr := Trajectory{N: n, Times: times, Values: make([]float64, 0, len(times))}
		for i, t := range times {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if i > 0 {
				if _, err := d.Advance(r, p.Checkpoints[i-1]); err != nil {
					return nil, err
				}
			}
			v, err := Measure(d, r, p.Observable)
			if err != nil {
				return nil, fmt.Errorf("N=%d t=%d: %w", n, t, err)
			}
			tr.Values = append(tr.Values, v)
			if sink != nil {
				if err := sink.Sample(Sample{N: n, T: t, Value: v, Sites: r.Snapshot(nil)}); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, tr)
	}
	return out, nil
}
