// Package atlas packs rectangles into a fixed-size texture area.
//
// Allocator is a guillotine packer: free space is a list of disjoint
// rectangles kept sorted by height, allocation takes the best-fitting
// free rectangle and splits the remainder along the shorter leftover
// axis. Freed rectangles are merged back with neighbours that share a
// full edge.
//
// Allocator is not safe for concurrent use.
package atlas

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gv/gpucore"
)

var (
	// ErrFull is returned when no free rectangle can hold the request.
	ErrFull = errors.New("atlas: no free rectangle fits")

	// ErrInvalidSize is returned for non-positive allocation sizes.
	ErrInvalidSize = errors.New("atlas: invalid allocation size")

	// ErrShrink is returned when Grow is asked for a smaller area.
	ErrShrink = errors.New("atlas: cannot shrink")
)

// Slot is an allocated rectangle. Its coordinates stay valid until the
// allocator grows, which bumps the slot's generation.
type Slot struct {
	region     gpucore.Region
	generation uint64
	refs       int
	seq        uint64
	live       bool
}

// Region returns the slot rectangle.
func (s *Slot) Region() gpucore.Region { return s.region }

// Generation returns the allocator generation the coordinates belong to.
func (s *Slot) Generation() uint64 { return s.generation }

// Refs returns the reference count.
func (s *Slot) Refs() int { return s.refs }

// Live reports whether the slot still owns its rectangle.
func (s *Slot) Live() bool { return s.live }

func (s *Slot) String() string {
	r := s.region
	return fmt.Sprintf("Slot(%d,%d %dx%d gen=%d)", r.X, r.Y, r.Width, r.Height, s.generation)
}

// Move records where Grow relocated a slot.
type Move struct {
	Slot *Slot
	From gpucore.Region
	To   gpucore.Region
}

// Allocator hands out non-overlapping rectangles inside a width x height area.
type Allocator struct {
	width, height int
	free          []gpucore.Region
	live          map[*Slot]struct{}
	generation    uint64
	seq           uint64
	usedArea      int
}

// New creates an allocator covering a width x height area.
func New(width, height int) *Allocator {
	a := &Allocator{
		width:  width,
		height: height,
		live:   make(map[*Slot]struct{}),
	}
	if width > 0 && height > 0 {
		a.free = []gpucore.Region{{Width: width, Height: height}}
	}
	return a
}

// Size returns the current area dimensions.
func (a *Allocator) Size() (width, height int) { return a.width, a.height }

// Generation returns the number of times the allocator has grown.
func (a *Allocator) Generation() uint64 { return a.generation }

// Len returns the number of live slots.
func (a *Allocator) Len() int { return len(a.live) }

// Occupancy returns the fraction of the area covered by live slots.
func (a *Allocator) Occupancy() float64 {
	total := a.width * a.height
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// Allocate reserves a w x h rectangle with a reference count of one.
func (a *Allocator) Allocate(w, h int) (*Slot, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	r, ok := a.take(w, h)
	if !ok {
		return nil, ErrFull
	}
	a.seq++
	s := &Slot{region: r, generation: a.generation, refs: 1, seq: a.seq, live: true}
	a.live[s] = struct{}{}
	a.usedArea += w * h
	return s, nil
}

// take carves a w x h rectangle out of the best-fitting free rectangle.
func (a *Allocator) take(w, h int) (gpucore.Region, bool) {
	best := -1
	bestArea := 0
	for i, fr := range a.free {
		if fr.Width < w || fr.Height < h {
			continue
		}
		area := fr.Width * fr.Height
		if best < 0 || area < bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return gpucore.Region{}, false
	}

	fr := a.free[best]
	a.free = append(a.free[:best], a.free[best+1:]...)

	leftW, leftH := fr.Width-w, fr.Height-h
	var right, bottom gpucore.Region
	if leftW < leftH {
		right = gpucore.Region{X: fr.X + w, Y: fr.Y, Width: leftW, Height: h}
		bottom = gpucore.Region{X: fr.X, Y: fr.Y + h, Width: fr.Width, Height: leftH}
	} else {
		right = gpucore.Region{X: fr.X + w, Y: fr.Y, Width: leftW, Height: fr.Height}
		bottom = gpucore.Region{X: fr.X, Y: fr.Y + h, Width: w, Height: leftH}
	}
	a.insertFree(right)
	a.insertFree(bottom)

	return gpucore.Region{X: fr.X, Y: fr.Y, Width: w, Height: h}, true
}

// insertFree adds r to the free list, keeping it sorted by height then width.
func (a *Allocator) insertFree(r gpucore.Region) {
	if r.Empty() {
		return
	}
	i := sort.Search(len(a.free), func(i int) bool {
		f := a.free[i]
		if f.Height != r.Height {
			return f.Height > r.Height
		}
		return f.Width >= r.Width
	})
	a.free = append(a.free, gpucore.Region{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = r
}

// Free returns the slot's rectangle to free space regardless of its
// reference count. It reports false for slots that are already dead or
// belong to another allocator.
func (a *Allocator) Free(s *Slot) bool {
	if s == nil || !s.live {
		return false
	}
	if _, ok := a.live[s]; !ok {
		return false
	}
	delete(a.live, s)
	s.live = false
	s.refs = 0
	a.usedArea -= s.region.Width * s.region.Height
	a.insertFree(s.region)
	a.merge()
	return true
}

// Retain increments the slot's reference count.
func (a *Allocator) Retain(s *Slot) {
	if s != nil && s.live {
		s.refs++
	}
}

// Release decrements the reference count and frees the slot at zero.
func (a *Allocator) Release(s *Slot) {
	if s == nil || !s.live {
		return
	}
	s.refs--
	if s.refs <= 0 {
		a.Free(s)
	}
}

// merge joins free rectangles that share a full edge until none do.
func (a *Allocator) merge() {
	for merged := true; merged; {
		merged = false
	outer:
		for i := 0; i < len(a.free); i++ {
			for j := i + 1; j < len(a.free); j++ {
				if m, ok := join(a.free[i], a.free[j]); ok {
					a.free = append(a.free[:j], a.free[j+1:]...)
					a.free = append(a.free[:i], a.free[i+1:]...)
					a.insertFree(m)
					merged = true
					break outer
				}
			}
		}
	}
}

func join(p, q gpucore.Region) (gpucore.Region, bool) {
	if p.X == q.X && p.Width == q.Width {
		if p.Y+p.Height == q.Y {
			return gpucore.Region{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height + q.Height}, true
		}
		if q.Y+q.Height == p.Y {
			return gpucore.Region{X: p.X, Y: q.Y, Width: p.Width, Height: p.Height + q.Height}, true
		}
	}
	if p.Y == q.Y && p.Height == q.Height {
		if p.X+p.Width == q.X {
			return gpucore.Region{X: p.X, Y: p.Y, Width: p.Width + q.Width, Height: p.Height}, true
		}
		if q.X+q.Width == p.X {
			return gpucore.Region{X: q.X, Y: p.Y, Width: p.Width + q.Width, Height: p.Height}, true
		}
	}
	return gpucore.Region{}, false
}

// Grow enlarges the area to width x height and re-packs every live slot,
// in allocation order, with the same algorithm. All slot coordinates are
// rewritten and their generation advances. The returned moves tell the
// owner where to re-blit texels. On failure the allocator is unchanged.
func (a *Allocator) Grow(width, height int) ([]Move, error) {
	if width < a.width || height < a.height {
		return nil, fmt.Errorf("%w: %dx%d -> %dx%d", ErrShrink, a.width, a.height, width, height)
	}

	slots := a.Slots()
	next := New(width, height)
	placed := make([]gpucore.Region, len(slots))
	for i, s := range slots {
		r, ok := next.take(s.region.Width, s.region.Height)
		if !ok {
			return nil, ErrFull
		}
		placed[i] = r
	}

	a.width, a.height = width, height
	a.free = next.free
	a.generation++
	moves := make([]Move, len(slots))
	for i, s := range slots {
		moves[i] = Move{Slot: s, From: s.region, To: placed[i]}
		s.region = placed[i]
		s.generation = a.generation
	}
	return moves, nil
}

// Slots returns the live slots in allocation order.
func (a *Allocator) Slots() []*Slot {
	out := make([]*Slot, 0, len(a.live))
	for s := range a.live {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// FreeRegions returns a copy of the free list.
func (a *Allocator) FreeRegions() []gpucore.Region {
	return append([]gpucore.Region(nil), a.free...)
}
