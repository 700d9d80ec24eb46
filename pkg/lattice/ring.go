package lattice

import "fmt"

// Ring stores the site occupancies of a one-dimensional periodic lattice.
// Site L-1 is adjacent to site 0. A Ring is owned by exactly one realization
// and must not be shared between goroutines.
type Ring struct {
	sites []int
}

// NewRing allocates an empty lattice with l sites.
func NewRing(l int) (*Ring, error) {
	if l <= 0 {
		return nil, fmt.Errorf("%w: lattice size L=%d must be positive", ErrConfiguration, l)
	}
	return &Ring{sites: make([]int, l)}, nil
}

// RingOf copies the provided occupancies into a new lattice.
func RingOf(sites ...int) *Ring {
	r := &Ring{sites: make([]int, len(sites))}
	copy(r.sites, sites)
	return r
}

// Len returns the number of sites.
func (r *Ring) Len() int { return len(r.sites) }

// Sites exposes the backing slice so the updater can read/write values directly.
func (r *Ring) Sites() []int { return r.sites }

// Wrap maps any integer index onto [0, L).
func (r *Ring) Wrap(i int) int {
	l := len(r.sites)
	return (i%l + l) % l
}

// At returns the occupancy of site i with periodic wrapping.
func (r *Ring) At(i int) int { return r.sites[r.Wrap(i)] }

// Left returns the index of the left neighbour of site i.
func (r *Ring) Left(i int) int { return r.Wrap(i - 1) }

// Right returns the index of the right neighbour of site i.
func (r *Ring) Right(i int) int { return r.Wrap(i + 1) }

// Total returns the number of particles on the lattice.
func (r *Ring) Total() int {
	n := 0
	for _, v := range r.sites {
		n += v
	}
	return n
}

// Clone returns an independent copy of the lattice.
func (r *Ring) Clone() *Ring { return RingOf(r.sites...) }

// Snapshot copies the occupancies into dst, growing it when needed.
func (r *Ring) Snapshot(dst []int) []int {
	if cap(dst) < len(r.sites) {
		dst = make([]int, len(r.sites))
	}
	dst = dst[:len(r.sites)]
	copy(dst, r.sites)
	return dst
}

// Cells renders occupancies as bytes for display, clamping at 255.
func (r *Ring) Cells(dst []uint8) []uint8 {
	if cap(dst) < len(r.sites) {
		dst = make([]uint8, len(r.sites))
	}
	dst = dst[:len(r.sites)]
	for i, v := range r.sites {
		switch {
		case v < 0:
			dst[i] = 0
		case v > 255:
			dst[i] = 255
		default:
			dst[i] = uint8(v)
		}
	}
	return dst
}
