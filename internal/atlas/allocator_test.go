package atlas

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/gogpu/gv/gpucore"
)

func checkDisjoint(t *testing.T, a *Allocator) {
	t.Helper()
	slots := a.Slots()
	for i := range slots {
		r := slots[i].Region()
		if r.X < 0 || r.Y < 0 || r.X+r.Width > a.width || r.Y+r.Height > a.height {
			t.Fatalf("slot %v outside %dx%d", slots[i], a.width, a.height)
		}
		for j := i + 1; j < len(slots); j++ {
			if r.Overlaps(slots[j].Region()) {
				t.Fatalf("live slots overlap: %v and %v", slots[i], slots[j])
			}
		}
		for _, f := range a.free {
			if r.Overlaps(f) {
				t.Fatalf("live slot %v overlaps free rect %v", slots[i], f)
			}
		}
	}
}

func TestAllocateBestFit(t *testing.T) {
	a := New(64, 64)
	s1, err := a.Allocate(32, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if s1.Region() != (gpucore.Region{X: 0, Y: 0, Width: 32, Height: 16}) {
		t.Errorf("first slot = %v, want origin", s1.Region())
	}

	// The 32x16 strip right of s1 is the smallest rect that fits.
	s2, err := a.Allocate(30, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := s2.Region(); got.X != 32 || got.Y != 0 {
		t.Errorf("second slot = %v, want best fit at (32,0)", got)
	}
	checkDisjoint(t, a)
}

func TestAllocateFull(t *testing.T) {
	a := New(16, 16)
	if _, err := a.Allocate(16, 16); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := a.Allocate(1, 1); !errors.Is(err, ErrFull) {
		t.Errorf("Allocate on full atlas: err = %v, want ErrFull", err)
	}
	if _, err := a.Allocate(0, 4); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Allocate(0,4): err = %v, want ErrInvalidSize", err)
	}
}

func TestFreeMergesSpace(t *testing.T) {
	a := New(32, 32)
	var slots []*Slot
	for i := 0; i < 4; i++ {
		s, err := a.Allocate(16, 16)
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		slots = append(slots, s)
	}
	for _, s := range slots {
		if !a.Free(s) {
			t.Fatalf("Free(%v) = false", s)
		}
	}
	if a.Free(slots[0]) {
		t.Error("double Free returned true")
	}
	if _, err := a.Allocate(32, 32); err != nil {
		t.Errorf("full-size allocation after freeing everything: %v", err)
	}
}

func TestRetainRelease(t *testing.T) {
	a := New(32, 32)
	s, _ := a.Allocate(8, 8)
	a.Retain(s)
	a.Release(s)
	if !s.Live() {
		t.Fatal("slot freed while still referenced")
	}
	a.Release(s)
	if s.Live() {
		t.Error("slot still live at zero references")
	}
	if a.Len() != 0 {
		t.Errorf("Len = %d, want 0", a.Len())
	}
}

func TestGrowRepacks(t *testing.T) {
	a := New(32, 32)
	var slots []*Slot
	for {
		s, err := a.Allocate(10, 6)
		if err != nil {
			break
		}
		slots = append(slots, s)
	}
	before := len(slots)

	moves, err := a.Grow(64, 64)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if len(moves) != before {
		t.Errorf("moves = %d, want %d", len(moves), before)
	}
	for _, s := range slots {
		if s.Generation() != 1 {
			t.Errorf("slot generation = %d, want 1", s.Generation())
		}
	}
	checkDisjoint(t, a)

	if _, err := a.Allocate(10, 6); err != nil {
		t.Errorf("Allocate after Grow: %v", err)
	}
	if _, err := a.Grow(16, 16); !errors.Is(err, ErrShrink) {
		t.Errorf("Grow smaller: err = %v, want ErrShrink", err)
	}
}

func TestAllocateFreeFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := New(256, 256)
	var live []*Slot
	for i := 0; i < 5000; i++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			k := rng.Intn(len(live))
			a.Free(live[k])
			live = append(live[:k], live[k+1:]...)
		} else {
			s, err := a.Allocate(1+rng.Intn(40), 1+rng.Intn(40))
			if err == nil {
				live = append(live, s)
			} else if !errors.Is(err, ErrFull) {
				t.Fatalf("Allocate: %v", err)
			}
		}
		if i%50 == 0 {
			checkDisjoint(t, a)
		}
	}
	checkDisjoint(t, a)
	if a.Len() != len(live) {
		t.Errorf("Len = %d, want %d", a.Len(), len(live))
	}
}
