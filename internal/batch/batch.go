// Package batch groups tessellated draws into the fewest backend draw
// calls that preserve submission order.
//
// A batch is closed whenever the incoming draw's Key differs from the
// active one or the draw would push the batch past its vertex or index
// limit. Batches are never merged or reordered, so A, B, A yields three
// batches.
package batch

import (
	"fmt"

	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/cache"
)

// Key is the resource state shared by every draw in a batch.
type Key struct {
	Texture   gpucore.TextureID
	Blend     gpucore.BlendMode
	ClipDepth uint32
	Stencil   gpucore.StencilMode
}

func (k Key) String() string {
	return fmt.Sprintf("tex=%d blend=%d depth=%d stencil=%d", k.Texture, k.Blend, k.ClipDepth, k.Stencil)
}

// Batch is one future draw call.
type Batch struct {
	Key      Key
	Vertices []gpucore.Vertex
	Indices  []uint32

	// Refs are the atlas lookups the batch samples. They are checked
	// against the cache before the batch is drawn.
	Refs []cache.Ref
}

// Empty reports whether the batch draws nothing.
func (b *Batch) Empty() bool { return len(b.Indices) == 0 }

// Limits bounds the size of a single batch.
type Limits struct {
	MaxVertices int
	MaxIndices  int
}

// DefaultLimits returns the limits used when the backend imposes none
// tighter.
func DefaultLimits() Limits {
	return Limits{MaxVertices: 1 << 16, MaxIndices: 3 << 16}
}

// LimitsFor clamps the default limits to what fits in one backend buffer.
func LimitsFor(l gpucore.Limits) Limits {
	out := DefaultLimits()
	if l.MaxBufferSize > 0 {
		out.MaxVertices = min(out.MaxVertices, l.MaxBufferSize/gpucore.VertexStride)
		out.MaxIndices = min(out.MaxIndices, l.MaxBufferSize/4)
	}
	return out.normalized()
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxVertices <= 0 {
		l.MaxVertices = d.MaxVertices
	}
	if l.MaxIndices <= 0 {
		l.MaxIndices = d.MaxIndices
	}
	l.MaxVertices = max(l.MaxVertices, 3)
	l.MaxIndices = max(l.MaxIndices-l.MaxIndices%3, 3)
	return l
}

// Builder accumulates batches for one frame.
type Builder struct {
	limits  Limits
	batches []Batch
	active  *Batch
}

// NewBuilder returns an empty builder. Non-positive limits select
// DefaultLimits.
func NewBuilder(limits Limits) *Builder {
	return &Builder{limits: limits.normalized()}
}

// Limits returns the builder's effective limits.
func (b *Builder) Limits() Limits { return b.limits }

// Len returns the number of batches started this frame, including the
// active one.
func (b *Builder) Len() int { return len(b.batches) }

// Submit appends a triangle list under key. Indices refer to vertices.
// refs are recorded on every batch the submission lands in.
func (b *Builder) Submit(vertices []gpucore.Vertex, indices []uint32, key Key, refs ...cache.Ref) error {
	if len(indices) == 0 {
		return nil
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("batch: index count %d is not a multiple of 3", len(indices))
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			return fmt.Errorf("batch: index %d out of range (%d vertices)", i, len(vertices))
		}
	}

	b.FlushIfNeeded(key)
	if len(vertices) <= b.limits.MaxVertices && len(indices) <= b.limits.MaxIndices {
		if b.active == nil || !b.fits(len(vertices), len(indices)) {
			b.start(key)
		}
		b.append(vertices, indices, refs)
		return nil
	}
	b.split(vertices, indices, key, refs)
	return nil
}

// split spreads an oversized submission over several batches, cutting at
// triangle boundaries and copying only the vertices each part uses.
func (b *Builder) split(vertices []gpucore.Vertex, indices []uint32, key Key, refs []cache.Ref) {
	remap := make(map[uint32]uint32)
	if b.active == nil {
		b.start(key)
	}
	b.addRefs(refs)
	for t := 0; t < len(indices); t += 3 {
		tri := indices[t : t+3]
		need := 0
		for _, i := range tri {
			if _, ok := remap[i]; !ok {
				need++
			}
		}
		if !b.fits(need, 3) {
			b.start(key)
			b.addRefs(refs)
			clear(remap)
		}
		for _, i := range tri {
			j, ok := remap[i]
			if !ok {
				j = uint32(len(b.active.Vertices))
				b.active.Vertices = append(b.active.Vertices, vertices[i])
				remap[i] = j
			}
			b.active.Indices = append(b.active.Indices, j)
		}
	}
}

func (b *Builder) fits(nv, ni int) bool {
	return len(b.active.Vertices)+nv <= b.limits.MaxVertices &&
		len(b.active.Indices)+ni <= b.limits.MaxIndices
}

func (b *Builder) start(key Key) {
	b.batches = append(b.batches, Batch{Key: key})
	b.active = &b.batches[len(b.batches)-1]
}

func (b *Builder) append(vertices []gpucore.Vertex, indices []uint32, refs []cache.Ref) {
	base := uint32(len(b.active.Vertices))
	b.active.Vertices = append(b.active.Vertices, vertices...)
	for _, i := range indices {
		b.active.Indices = append(b.active.Indices, base+i)
	}
	b.addRefs(refs)
}

func (b *Builder) addRefs(refs []cache.Ref) {
	for _, r := range refs {
		if !r.Empty() {
			b.active.Refs = append(b.active.Refs, r)
		}
	}
}

// FlushIfNeeded closes the active batch when its key differs from key and
// reports whether it did.
func (b *Builder) FlushIfNeeded(key Key) bool {
	if b.active == nil || b.active.Key == key {
		return false
	}
	b.active = nil
	return true
}

// Flush closes the active batch unconditionally.
func (b *Builder) Flush() {
	b.active = nil
}

// EndFrame returns the frame's non-empty batches in creation order and
// resets the builder.
func (b *Builder) EndFrame() []Batch {
	out := make([]Batch, 0, len(b.batches))
	for i := range b.batches {
		if !b.batches[i].Empty() {
			out = append(out, b.batches[i])
		}
	}
	b.batches = nil
	b.active = nil
	return out
}

// Reset drops everything submitted this frame.
func (b *Builder) Reset() {
	b.batches = nil
	b.active = nil
}
