package clg

import (
	"errors"
	"slices"
	"testing"

	"latticegas/pkg/lattice"
)

func TestFullyOccupiedLatticeIsAbsorbing(t *testing.T) {
	ring, err := New(4, 4, lattice.NewRNG(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if active := ActiveSites(ring); len(active) != 0 {
		t.Fatalf("expected no active sites on a full lattice, got %v", active)
	}
	taken, err := Advance(ring, 10, Parallel, lattice.NewRNG(1))
	if err != nil || taken != 0 {
		t.Fatalf("Advance = %d, %v; want 0, nil", taken, err)
	}
	if !slices.Equal(ring.Sites(), []int{1, 1, 1, 1}) {
		t.Fatalf("full lattice changed: %v", ring.Sites())
	}
}

func TestNewRejectsDensityAboveOne(t *testing.T) {
	if _, err := New(4, 5, lattice.NewRNG(1)); !errors.Is(err, lattice.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if _, err := New(4, -1, lattice.NewRNG(1)); !errors.Is(err, lattice.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestNewPlacesDistinctParticles(t *testing.T) {
	ring, err := New(100, 37, lattice.NewRNG(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ring.Total() != 37 {
		t.Fatalf("Total = %d, want 37", ring.Total())
	}
	if err := Validate(ring); err != nil {
		t.Fatalf("exclusion violated: %v", err)
	}
}

func TestActiveSitesMixedLattice(t *testing.T) {
	ring := lattice.RingOf(1, 1, 0, 1, 0, 1)
	// Site 0 has two occupied neighbours and site 3 two empty ones.
	want := []int{1, 5}
	if got := ActiveSites(ring); !slices.Equal(got, want) {
		t.Fatalf("ActiveSites = %v, want %v", got, want)
	}
	if EmptyNeighbor(ring, 1) != Right || EmptyNeighbor(ring, 5) != Left {
		t.Fatal("unexpected hop directions")
	}
	resolved := ResolveCompetition(want, ring, lattice.NewRNG(1))
	if !slices.Equal(resolved, want) {
		t.Fatalf("no pair competes, yet resolution returned %v", resolved)
	}
	if got := Activity(ring); got != 2.0/6.0 {
		t.Fatalf("Activity = %f, want %f", got, 2.0/6.0)
	}
}

func TestResolveCompetitionInteriorPair(t *testing.T) {
	ring := lattice.RingOf(1, 1, 0, 1, 1, 0, 0, 0)
	active := ActiveSites(ring)
	if !slices.Equal(active, []int{0, 1, 3, 4}) {
		t.Fatalf("ActiveSites = %v", active)
	}

	outcomes := map[int]int{}
	for seed := int64(0); seed < 64; seed++ {
		got := ResolveCompetition(active, ring, lattice.NewRNG(seed))
		if len(got) != 3 || !slices.Contains(got, 0) || !slices.Contains(got, 4) {
			t.Fatalf("seed %d: resolution %v must keep 0 and 4 and drop one of 1,3", seed, got)
		}
		if slices.Contains(got, 1) {
			outcomes[1]++
		} else {
			outcomes[3]++
		}
	}
	if outcomes[1] == 0 || outcomes[3] == 0 {
		t.Fatalf("coin flip never favoured one side: %v", outcomes)
	}
	if !slices.Equal(active, []int{0, 1, 3, 4}) {
		t.Fatal("ResolveCompetition must not modify its input")
	}
}

func TestResolveCompetitionSeamPairs(t *testing.T) {
	cases := []struct {
		name   string
		sites  []int
		seam   [2]int
		inside [2]int
	}{
		// 0 and L-2 both hop into L-1.
		{name: "zero and L-2", sites: []int{1, 1, 0, 1, 1, 0}, seam: [2]int{0, 4}, inside: [2]int{1, 3}},
		// 1 and L-1 both hop into 0.
		{name: "one and L-1", sites: []int{0, 1, 1, 0, 1, 1}, seam: [2]int{1, 5}, inside: [2]int{2, 4}},
	}
	for _, tc := range cases {
		ring := lattice.RingOf(tc.sites...)
		active := ActiveSites(ring)
		for seed := int64(0); seed < 32; seed++ {
			got := ResolveCompetition(active, ring, lattice.NewRNG(seed))
			if len(got) != 2 {
				t.Fatalf("%s seed %d: expected two survivors, got %v", tc.name, seed, got)
			}
			if slices.Contains(got, tc.seam[0]) == slices.Contains(got, tc.seam[1]) {
				t.Fatalf("%s seed %d: exactly one of %v must survive, got %v", tc.name, seed, tc.seam, got)
			}
			if slices.Contains(got, tc.inside[0]) == slices.Contains(got, tc.inside[1]) {
				t.Fatalf("%s seed %d: exactly one of %v must survive, got %v", tc.name, seed, tc.inside, got)
			}
		}
	}
}

func TestResolveCompetitionSeamPairIsAlsoInterior(t *testing.T) {
	// On L=4, sites 0 and 2 are two apart and also the (0, L-2) seam pair.
	// Both hop into site 1, which must be settled by a single flip.
	ring := lattice.RingOf(1, 0, 1, 1)
	active := ActiveSites(ring)
	if !slices.Equal(active, []int{0, 2}) {
		t.Fatalf("ActiveSites = %v, want [0 2]", active)
	}
	seen := map[int]bool{}
	for seed := int64(0); seed < 200; seed++ {
		got := ResolveCompetition(active, ring, lattice.NewRNG(seed))
		if len(got) != 1 || (got[0] != 0 && got[0] != 2) {
			t.Fatalf("seed %d: expected exactly one of [0 2] to survive, got %v", seed, got)
		}
		seen[got[0]] = true
	}
	if !seen[0] || !seen[2] {
		t.Fatalf("coin flip never favoured one side: %v", seen)
	}
}

func TestResolvedMoversNeverShareTarget(t *testing.T) {
	rng := lattice.NewRNG(99)
	for trial := 0; trial < 300; trial++ {
		l := 3 + rng.IntN(40)
		ring, err := New(l, rng.IntN(l+1), rng)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		movers := ResolveCompetition(ActiveSites(ring), ring, rng)
		targets := map[int]int{}
		for _, s := range movers {
			target := Target(ring, s)
			if ring.Sites()[target] != 0 {
				t.Fatalf("trial %d: site %d targets occupied site %d in %v", trial, s, target, ring.Sites())
			}
			if other, dup := targets[target]; dup {
				t.Fatalf("trial %d: sites %d and %d both target %d in %v", trial, other, s, target, ring.Sites())
			}
			targets[target] = s
		}
	}
}

func TestParallelStepMovesFromSnapshot(t *testing.T) {
	ring := lattice.RingOf(1, 1, 0, 0, 0, 0)
	taken, err := Advance(ring, 1, Parallel, lattice.NewRNG(1))
	if err != nil || taken != 1 {
		t.Fatalf("Advance = %d, %v", taken, err)
	}
	if want := []int{0, 0, 1, 0, 0, 1}; !slices.Equal(ring.Sites(), want) {
		t.Fatalf("after one step %v, want %v", ring.Sites(), want)
	}
}

func TestAdvanceStopsAtAbsorbingState(t *testing.T) {
	ring := lattice.RingOf(1, 1, 0, 0, 0, 0, 0, 0)
	taken, err := Advance(ring, 5, Parallel, lattice.NewRNG(1))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if taken != 1 {
		t.Fatalf("taken = %d, want 1", taken)
	}
	frozen := slices.Clone(ring.Sites())
	for i := 0; i < 3; i++ {
		if taken, _ := Advance(ring, 4, Parallel, lattice.NewRNG(int64(i))); taken != 0 {
			t.Fatalf("absorbing lattice advanced %d steps", taken)
		}
		if !slices.Equal(frozen, ring.Sites()) {
			t.Fatalf("absorbing lattice changed: %v -> %v", frozen, ring.Sites())
		}
	}
}

func TestAdvanceConservesAndExcludes(t *testing.T) {
	for _, rule := range []Rule{Parallel, Randomized} {
		rng := lattice.NewRNG(2024)
		ring, err := New(200, 130, rng)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for step := 0; step < 400; step++ {
			if _, err := Advance(ring, 1, rule, rng); err != nil {
				t.Fatalf("%s step %d: %v", rule, step, err)
			}
			if ring.Total() != 130 {
				t.Fatalf("%s step %d: total %d, want 130", rule, step, ring.Total())
			}
			if err := Validate(ring); err != nil {
				t.Fatalf("%s step %d: %v", rule, step, err)
			}
		}
	}
}

func TestRandomizedRuleMovesOneParticle(t *testing.T) {
	rng := lattice.NewRNG(8)
	ring, err := New(60, 40, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for step := 0; step < 50; step++ {
		if len(ActiveSites(ring)) == 0 {
			break
		}
		before := slices.Clone(ring.Sites())
		if _, err := Advance(ring, 1, Randomized, rng); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		changed := 0
		for i := range before {
			if before[i] != ring.Sites()[i] {
				changed++
			}
		}
		if changed != 2 {
			t.Fatalf("step %d: randomized rule changed %d sites, want 2", step, changed)
		}
	}
}

func TestAdvanceDeterministic(t *testing.T) {
	run := func() []int {
		rng := lattice.NewRNG(77)
		ring, err := New(128, 80, rng)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := Advance(ring, 200, Parallel, rng); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		return slices.Clone(ring.Sites())
	}
	if !slices.Equal(run(), run()) {
		t.Fatal("equal seeds produced different trajectories")
	}
}

func TestAdvanceRejectsInvalidInput(t *testing.T) {
	if _, err := Advance(lattice.RingOf(1, 2, 0), 1, Parallel, lattice.NewRNG(1)); !errors.Is(err, lattice.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if _, err := Advance(lattice.RingOf(1, 1, 0), -1, Parallel, lattice.NewRNG(1)); !errors.Is(err, lattice.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestWorldResetDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sites = 64
	cfg.Particles = 40
	cfg.History = 8
	world := NewWithConfig(cfg)

	world.Step()
	world.Step()
	first := slices.Clone(world.Cells())

	world.Reset(cfg.Seed)
	world.Step()
	world.Step()
	if !slices.Equal(first, world.Cells()) {
		t.Fatal("Reset with the same seed not deterministic")
	}
	if world.Size().W != 64 || world.Size().H != 8 {
		t.Fatalf("Size = %+v", world.Size())
	}
	if world.Total() != 40 {
		t.Fatalf("Total = %d, want 40", world.Total())
	}
}

func TestFromMapClampsParticles(t *testing.T) {
	c := FromMap(map[string]string{"sites": "10", "particles": "25", "randomized": "true"})
	if c.Particles != 10 || c.Rule != Randomized {
		t.Fatalf("FromMap = %+v", c)
	}
}
