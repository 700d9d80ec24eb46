package core

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestHistoryPushScrollsDown(t *testing.T) {
	h := NewHistory(3, 3)
	h.Push([]uint8{1, 1, 1})
	h.Push([]uint8{2, 0, 2})

	want := []uint8{
		2, 0, 2,
		1, 1, 1,
		0, 0, 0,
	}
	if !slices.Equal(h.Cells(), want) {
		t.Fatalf("cells = %v, want %v", h.Cells(), want)
	}

	h.Clear()
	if !slices.Equal(h.Cells(), make([]uint8, 9)) {
		t.Fatalf("cells after Clear = %v", h.Cells())
	}
}

func TestNewHistoryClampsSize(t *testing.T) {
	h := NewHistory(0, -2)
	if h.W != 1 || h.H != 1 || len(h.Cells()) != 1 {
		t.Fatalf("history = %dx%d (%d cells), want 1x1", h.W, h.H, len(h.Cells()))
	}
}

func TestFixedStepAccumulates(t *testing.T) {
	now := time.Unix(0, 0)
	fs := NewFixedStep(10)
	fs.now = func() time.Time { return now }

	if !fs.ShouldStep() {
		t.Fatal("first call should step immediately")
	}
	if fs.ShouldStep() {
		t.Fatal("no time passed, should not step")
	}
	now = now.Add(60 * time.Millisecond)
	if fs.ShouldStep() {
		t.Fatal("stepped before the interval elapsed")
	}
	now = now.Add(60 * time.Millisecond)
	if !fs.ShouldStep() {
		t.Fatal("did not step after the interval elapsed")
	}
}

func TestFixedStepDefaults(t *testing.T) {
	fs := NewFixedStep(0)
	if got := fs.Interval(); got != time.Second/60 {
		t.Fatalf("interval = %v, want 1/60s", got)
	}
}

func TestFixedStepWaitHonoursContext(t *testing.T) {
	fs := NewFixedStep(1)
	if err := fs.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := fs.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
}

func TestFixedStepWaitStopsWhenBehind(t *testing.T) {
	fs := NewFixedStep(1000)
	clock := time.Unix(0, 0)
	fs.now = func() time.Time { return clock }
	fs.ShouldStep()
	// A full second behind: every tick is already due.
	clock = clock.Add(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fs.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait = %v, want canceled", err)
	}
}

type stubSim struct{ name string }

func (s stubSim) Name() string   { return s.name }
func (s stubSim) Size() Size     { return Size{W: 1, H: 1} }
func (s stubSim) Reset(int64)    {}
func (s stubSim) Step()          {}
func (s stubSim) Cells() []uint8 { return []uint8{0} }

func TestRegisterIgnoresInvalidEntries(t *testing.T) {
	before := len(Sims())
	Register("", func(map[string]string) Sim { return stubSim{} })
	Register("nil-factory", nil)
	if len(Sims()) != before {
		t.Fatalf("registry grew from %d to %d", before, len(Sims()))
	}

	Register("zz-stub", func(map[string]string) Sim { return stubSim{name: "zz-stub"} })
	t.Cleanup(func() { delete(sims, "zz-stub") })
	names := Names()
	if names[len(names)-1] != "zz-stub" || !slices.IsSorted(names) {
		t.Fatalf("names = %v", names)
	}
}

func TestParamHelpers(t *testing.T) {
	if p := FloatParam("density", "Density", 0.5); p.Value != "0.5" || p.Type != ParamTypeFloat {
		t.Fatalf("FloatParam = %+v", p)
	}
	if p := BoolParam("randomized", "Randomized", true); p.Value != "true" {
		t.Fatalf("BoolParam = %+v", p)
	}
	if p := Int64Param("seed", "Seed", -3); p.Value != "-3" || p.Type != ParamTypeInt {
		t.Fatalf("Int64Param = %+v", p)
	}
}
