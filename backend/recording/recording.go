// Package recording provides a GPU backend that executes nothing and
// records every call for inspection.
//
// It is the fake used by the renderer's own tests and is useful for
// debugging batching decisions: each frame's draws are kept with their
// vertex and index data decoded.
//
//	rec := recording.New()
//	r, _ := gv.NewRenderer(rec)
//	...
//	for _, d := range rec.LastFrame() {
//	    fmt.Println(d.Call.Texture, len(d.Vertices))
//	}
package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/gv/gpucore"
)

// Texture is a recorded texture with a CPU copy of its texels.
type Texture struct {
	Width, Height int
	Format        gpucore.TextureFormat
	Pix           []byte
	Writes        []gpucore.Region
	Destroyed     bool
}

// Draw is one recorded draw call with its decoded geometry.
type Draw struct {
	Call     gpucore.DrawCall
	Vertices []gpucore.Vertex
	Indices  []uint32
}

// Triangles returns the number of triangles drawn.
func (d Draw) Triangles() int { return len(d.Indices) / 3 }

// Backend records calls. It implements gpucore.Backend.
type Backend struct {
	limits gpucore.Limits

	textures map[gpucore.TextureID]*Texture
	buffers  map[gpucore.BufferID][]byte
	nextID   uint64

	pending []Draw
	frames  [][]Draw
	log     []string

	// Inject errors for failure-path tests. Nil means succeed.
	CreateTextureErr error
	WriteTextureErr  error
	DrawErr          error
	SubmitErr        error
}

// New returns a recording backend with default limits.
func New() *Backend {
	return NewWithLimits(gpucore.DefaultLimits())
}

// NewWithLimits returns a recording backend reporting the given limits.
func NewWithLimits(l gpucore.Limits) *Backend {
	return &Backend{
		limits:   l,
		textures: make(map[gpucore.TextureID]*Texture),
		buffers:  make(map[gpucore.BufferID][]byte),
	}
}

// Limits implements gpucore.Backend.
func (b *Backend) Limits() gpucore.Limits { return b.limits }

func (b *Backend) id() uint64 {
	b.nextID++
	return b.nextID
}

// CreateTexture implements gpucore.Backend.
func (b *Backend) CreateTexture(w, h int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if b.CreateTextureErr != nil {
		return gpucore.InvalidID, b.CreateTextureErr
	}
	if w <= 0 || h <= 0 || w > b.limits.MaxTextureDimension || h > b.limits.MaxTextureDimension {
		return gpucore.InvalidID, fmt.Errorf("recording: texture size %dx%d outside limits", w, h)
	}
	id := gpucore.TextureID(b.id())
	b.textures[id] = &Texture{Width: w, Height: h, Format: format, Pix: make([]byte, w*h*format.BytesPerPixel())}
	b.logf("create_texture %d %dx%d %v", id, w, h, format)
	return id, nil
}

// WriteTexture implements gpucore.Backend.
func (b *Backend) WriteTexture(id gpucore.TextureID, r gpucore.Region, data []byte) error {
	if b.WriteTextureErr != nil {
		return b.WriteTextureErr
	}
	t, ok := b.textures[id]
	if !ok || t.Destroyed {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	bpp := t.Format.BytesPerPixel()
	if r.X < 0 || r.Y < 0 || r.X+r.Width > t.Width || r.Y+r.Height > t.Height {
		return fmt.Errorf("recording: region %v outside %dx%d", r, t.Width, t.Height)
	}
	if len(data) != r.Width*r.Height*bpp {
		return fmt.Errorf("recording: %d bytes for region %v", len(data), r)
	}
	for y := 0; y < r.Height; y++ {
		dst := ((r.Y+y)*t.Width + r.X) * bpp
		copy(t.Pix[dst:dst+r.Width*bpp], data[y*r.Width*bpp:(y+1)*r.Width*bpp])
	}
	t.Writes = append(t.Writes, r)
	b.logf("write_texture %d %v", id, r)
	return nil
}

// DestroyTexture implements gpucore.Backend.
func (b *Backend) DestroyTexture(id gpucore.TextureID) {
	if t, ok := b.textures[id]; ok && !t.Destroyed {
		t.Destroyed = true
		b.logf("destroy_texture %d", id)
	}
}

// CreateBuffer implements gpucore.Backend.
func (b *Backend) CreateBuffer(usage gpucore.BufferUsage, data []byte) (gpucore.BufferID, error) {
	if len(data) > b.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("recording: buffer of %d bytes exceeds limit", len(data))
	}
	id := gpucore.BufferID(b.id())
	b.buffers[id] = append([]byte(nil), data...)
	b.logf("create_buffer %d %v %d", id, usage, len(data))
	return id, nil
}

// DestroyBuffer implements gpucore.Backend.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	delete(b.buffers, id)
}

// Draw implements gpucore.Backend.
func (b *Backend) Draw(call gpucore.DrawCall) error {
	if b.DrawErr != nil {
		return b.DrawErr
	}
	vb, ok := b.buffers[call.Vertices]
	if !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.Vertices)
	}
	ib, ok := b.buffers[call.Indices]
	if !ok {
		return fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.Indices)
	}
	if call.Texture != gpucore.InvalidID {
		if t, ok := b.textures[call.Texture]; !ok || t.Destroyed {
			return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, call.Texture)
		}
	}
	idx := gpucore.DecodeIndices(ib)
	if call.IndexCount > len(idx) {
		return errors.New("recording: index count exceeds index buffer")
	}
	b.pending = append(b.pending, Draw{
		Call:     call,
		Vertices: gpucore.DecodeVertices(vb),
		Indices:  idx[:call.IndexCount],
	})
	b.logf("draw tex=%d blend=%v stencil=%v ref=%d indices=%d", call.Texture, call.Blend, call.Stencil, call.StencilRef, call.IndexCount)
	return nil
}

// Submit implements gpucore.Backend.
func (b *Backend) Submit() error {
	if b.SubmitErr != nil {
		return b.SubmitErr
	}
	b.frames = append(b.frames, b.pending)
	b.pending = nil
	b.logf("submit")
	return nil
}

func (b *Backend) logf(format string, args ...any) {
	b.log = append(b.log, fmt.Sprintf(format, args...))
}

// Frames returns the draws of every submitted frame.
func (b *Backend) Frames() [][]Draw { return b.frames }

// LastFrame returns the draws of the most recent submitted frame.
func (b *Backend) LastFrame() []Draw {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

// Texture returns a recorded texture, or nil.
func (b *Backend) Texture(id gpucore.TextureID) *Texture { return b.textures[id] }

// LiveTextures counts textures not yet destroyed.
func (b *Backend) LiveTextures() int {
	n := 0
	for _, t := range b.textures {
		if !t.Destroyed {
			n++
		}
	}
	return n
}

// LiveBuffers counts buffers not yet destroyed.
func (b *Backend) LiveBuffers() int { return len(b.buffers) }

// Log returns a human-readable trace of every call.
func (b *Backend) Log() []string { return b.log }

var _ gpucore.Backend = (*Backend)(nil)
