package clg

import "latticegas/pkg/lattice"

// ResolveCompetition removes one site from every pair of active sites that
// would hop into the same empty site this timestep. Each contested site is
// settled by one unbiased coin flip. active must be sorted ascending and
// computed from r; neither argument is modified.
//
// Contenders for an interior empty site are consecutive entries two apart.
// Contention for the seam sites L-1 and 0 pairs 0 with L-2 and 1 with L-1,
// which the index difference cannot see, so those pairs are tested explicitly.
func ResolveCompetition(active []int, r *lattice.Ring, rng *lattice.RNG) []int {
	l := r.Len()
	isActive := make([]bool, l)
	for _, s := range active {
		isActive[s] = true
	}
	excluded := make([]bool, l)
	settled := make([]bool, l)

	resolve := func(a, b int) {
		if a == b || !isActive[a] || !isActive[b] {
			return
		}
		target := Target(r, a)
		if target != Target(r, b) || settled[target] {
			return
		}
		settled[target] = true
		if rng.Bool() {
			excluded[a] = true
		} else {
			excluded[b] = true
		}
	}

	for i := 0; i+1 < len(active); i++ {
		if active[i+1]-active[i] == 2 {
			resolve(active[i], active[i+1])
		}
	}
	if l > 2 {
		resolve(0, l-2)
		resolve(1, l-1)
	}

	out := make([]int, 0, len(active))
	for _, s := range active {
		if !excluded[s] {
			out = append(out, s)
		}
	}
	return out
}
