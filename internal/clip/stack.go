// Package clip tracks nested stencil clip regions.
//
// Every pushed region owns one stencil level. The region's mesh is drawn
// with the increment op at reference depth, which only touches pixels whose
// stencil already equals the previous depth, so a pixel reaches depth n
// exactly when it lies inside all n regions. Popping draws the same mesh
// with the decrement op to restore the previous level.
package clip

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/internal/tess"
)

// MaxDepth is the number of nested regions an 8-bit stencil buffer can
// represent.
const MaxDepth = 255

var (
	// ErrUnderflow is returned by Pop on an empty stack.
	ErrUnderflow = errors.New("clip: pop on empty stack")

	// ErrDepthExceeded is returned by Push when the stack is full.
	ErrDepthExceeded = errors.New("clip: maximum clip depth exceeded")
)

// Unbounded is the bounds of an empty stack.
var Unbounded = geom.Rect{
	Min: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	Max: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
}

// Frame is one stencil level.
type Frame struct {
	// Ref is the stencil reference of the level, equal to its depth.
	Ref uint32

	// Mesh paints the stencil mask of the region.
	Mesh tess.Mesh

	// Bounds is the device-space intersection of this region and every
	// region below it.
	Bounds geom.Rect
}

// Stack is a stack of clip frames. The zero value is not usable; call
// NewStack.
type Stack struct {
	frames   []Frame
	maxDepth int
}

// NewStack returns an empty stack holding at most maxDepth frames.
// Values outside 1..MaxDepth select MaxDepth.
func NewStack(maxDepth int) *Stack {
	if maxDepth <= 0 || maxDepth > MaxDepth {
		maxDepth = MaxDepth
	}
	return &Stack{
		frames:   make([]Frame, 0, 8),
		maxDepth: maxDepth,
	}
}

// Push adds a region whose device-space mesh and bounds are given and
// returns the frame to draw with the increment stencil op.
func (s *Stack) Push(mesh tess.Mesh, bounds geom.Rect) (Frame, error) {
	if len(s.frames) >= s.maxDepth {
		return Frame{}, fmt.Errorf("%w (limit %d)", ErrDepthExceeded, s.maxDepth)
	}
	f := Frame{
		Ref:    uint32(len(s.frames) + 1),
		Mesh:   mesh,
		Bounds: s.Bounds().Intersect(bounds),
	}
	s.frames = append(s.frames, f)
	return f, nil
}

// Pop removes the top frame and returns it so its mesh can be drawn with
// the decrement stencil op.
func (s *Stack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrUnderflow
	}
	last := len(s.frames) - 1
	f := s.frames[last]
	s.frames[last] = Frame{}
	s.frames = s.frames[:last]
	return f, nil
}

// Depth returns the number of active frames, which is also the stencil
// reference that draws must test against.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// MaxDepth returns the configured depth limit.
func (s *Stack) MaxDepth() int {
	return s.maxDepth
}

// Bounds returns the intersection of all active regions, or Unbounded
// when the stack is empty.
func (s *Stack) Bounds() geom.Rect {
	if len(s.frames) == 0 {
		return Unbounded
	}
	return s.frames[len(s.frames)-1].Bounds
}

// Top returns the innermost frame.
func (s *Stack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Reset drops every frame.
func (s *Stack) Reset() {
	clear(s.frames)
	s.frames = s.frames[:0]
}
