// Package cid computes the Computable Information Density of a lattice
// configuration from its LZ78 pattern count.
package cid

import (
	"fmt"
	"math"
	"strings"

	"latticegas/pkg/lattice"
)

// MaxSymbol is the largest single-digit symbol; Manna occupancies above it
// are clamped before pattern counting.
const MaxSymbol = 9

// Options selects the normalization for Manna configurations.
type Options struct {
	// Shuffle normalizes by the pattern count of a random permutation of the
	// configuration's own symbols instead of by the sequence length.
	Shuffle bool
}

// Encode renders a configuration as a digit string. CLG sites must be 0 or 1;
// Manna sites must be non-negative and are clamped to MaxSymbol. The input is
// never modified.
func Encode(sites []int, model lattice.Model) (string, error) {
	if err := model.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(sites))
	for i, v := range sites {
		switch {
		case v < 0:
			return "", fmt.Errorf("%w: site %d holds %d particles", lattice.ErrConfiguration, i, v)
		case model == lattice.CLG && v > 1:
			return "", fmt.Errorf("%w: CLG site %d holds %d particles", lattice.ErrConfiguration, i, v)
		case v > MaxSymbol:
			v = MaxSymbol
		}
		b.WriteByte(byte('0' + v))
	}
	return b.String(), nil
}

// Compute returns the CID of a lattice configuration.
func Compute(sites []int, model lattice.Model, opts Options, rng *lattice.RNG) (float64, error) {
	symbols, err := Encode(sites, model)
	if err != nil {
		return 0, err
	}
	return fromSymbols(symbols, model, opts, rng)
}

// FromSymbols returns the CID of an already encoded configuration.
func FromSymbols(symbols string, model lattice.Model, opts Options, rng *lattice.RNG) (float64, error) {
	if err := model.Validate(); err != nil {
		return 0, err
	}
	limit := byte('0' + MaxSymbol)
	if model == lattice.CLG {
		limit = '1'
	}
	for i := 0; i < len(symbols); i++ {
		if symbols[i] < '0' || symbols[i] > limit {
			return 0, fmt.Errorf("%w: invalid %s symbol %q at %d", lattice.ErrConfiguration, model, symbols[i], i)
		}
	}
	return fromSymbols(symbols, model, opts, rng)
}

func fromSymbols(symbols string, model lattice.Model, opts Options, rng *lattice.RNG) (float64, error) {
	np, err := entropy(Count(symbols), "configuration")
	if err != nil {
		return 0, err
	}

	switch {
	case model == lattice.CLG:
		return ratio(np, RandomBinary(len(symbols), rng))
	case opts.Shuffle:
		return ratio(np, Shuffled(symbols, rng))
	default:
		return np / float64(len(symbols)), nil
	}
}

func ratio(np float64, reference string) (float64, error) {
	nr, err := entropy(Count(reference), "reference")
	if err != nil {
		return 0, err
	}
	return np / nr, nil
}

// entropy returns n*log2(n), failing when n <= 1 since the term vanishes.
func entropy(n int, what string) (float64, error) {
	if n <= 1 {
		return 0, fmt.Errorf("%w: %s has %d LZ78 pattern(s)", lattice.ErrDegenerateInput, what, n)
	}
	f := float64(n)
	return f * math.Log2(f), nil
}

// RandomBinary draws a uniform random 0/1 string of length n.
func RandomBinary(n int, rng *lattice.RNG) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = '0'
		if rng.Bool() {
			buf[i] = '1'
		}
	}
	return string(buf)
}

// Shuffled returns a uniformly random permutation of symbols.
func Shuffled(symbols string, rng *lattice.RNG) string {
	idx := make([]int, len(symbols))
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(idx)
	buf := make([]byte, len(symbols))
	for i, j := range idx {
		buf[i] = symbols[j]
	}
	return string(buf)
}
