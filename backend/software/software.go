// Package software provides a CPU implementation of the GPU Backend
// Interface.
//
// Triangles are scan converted at pixel centers without multisampling,
// textures are sampled bilinearly, and the clip stencil is an 8-bit
// buffer with the same contract as the GPU backends. The render target is
// an *image.RGBA holding premultiplied colors, which is the layout
// image.RGBA already uses.
//
// It is slow compared to a GPU but has no dependencies on a device, so it
// serves headless rendering, golden tests and machines without a GPU.
//
//	b := software.New(256, 256)
//	r, _ := gv.NewRenderer(b)
//	... draw a frame ...
//	png.Encode(w, b.Target())
package software

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/gogpu/gv/backend"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/blend"
)

func init() {
	backend.Register(backend.Software, func(width, height int) (gpucore.Backend, error) {
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("software: empty target %dx%d", width, height)
		}
		return New(width, height), nil
	})
}

type draw struct {
	call     gpucore.DrawCall
	vertices []gpucore.Vertex
	indices  []uint32
}

// Backend renders into an in-memory image. It implements gpucore.Backend.
type Backend struct {
	limits  gpucore.Limits
	target  *image.RGBA
	stencil []uint8

	textures map[gpucore.TextureID]*texture
	buffers  map[gpucore.BufferID][]byte
	nextID   uint64

	pending []draw
	logger  *slog.Logger
}

// New returns a backend drawing into a transparent width x height target.
func New(width, height int) *Backend {
	return NewWithLimits(width, height, gpucore.DefaultLimits())
}

// NewWithLimits is New with explicit device limits.
func NewWithLimits(width, height int, l gpucore.Limits) *Backend {
	return &Backend{
		limits:   l,
		target:   image.NewRGBA(image.Rect(0, 0, width, height)),
		stencil:  make([]uint8, width*height),
		textures: make(map[gpucore.TextureID]*texture),
		buffers:  make(map[gpucore.BufferID][]byte),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the backend logger. Nil silences it.
func (b *Backend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	b.logger = l
}

// Target returns the render target. Its pixels are premultiplied.
func (b *Backend) Target() *image.RGBA { return b.target }

// At returns the straight-alpha color of the target pixel at (x, y).
func (b *Backend) At(x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(b.target.RGBAAt(x, y)).(color.NRGBA)
}

// Limits implements gpucore.Backend.
func (b *Backend) Limits() gpucore.Limits { return b.limits }

func (b *Backend) id() uint64 {
	b.nextID++
	return b.nextID
}

// CreateTexture implements gpucore.Backend.
func (b *Backend) CreateTexture(w, h int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if w <= 0 || h <= 0 || w > b.limits.MaxTextureDimension || h > b.limits.MaxTextureDimension {
		return gpucore.InvalidID, fmt.Errorf("software: texture size %dx%d outside limits", w, h)
	}
	id := gpucore.TextureID(b.id())
	b.textures[id] = newTexture(w, h, format)
	return id, nil
}

// WriteTexture implements gpucore.Backend.
func (b *Backend) WriteTexture(id gpucore.TextureID, r gpucore.Region, data []byte) error {
	t, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.Width > t.width || r.Y+r.Height > t.height {
		return fmt.Errorf("software: region %v outside %dx%d", r, t.width, t.height)
	}
	bpp := t.format.BytesPerPixel()
	row := r.Width * bpp
	if len(data) != row*r.Height {
		return fmt.Errorf("software: %d bytes for region %v", len(data), r)
	}
	for y := 0; y < r.Height; y++ {
		dst := ((r.Y+y)*t.width + r.X) * bpp
		copy(t.pix[dst:dst+row], data[y*row:(y+1)*row])
	}
	return nil
}

// DestroyTexture implements gpucore.Backend.
func (b *Backend) DestroyTexture(id gpucore.TextureID) {
	delete(b.textures, id)
}

// CreateBuffer implements gpucore.Backend.
func (b *Backend) CreateBuffer(_ gpucore.BufferUsage, data []byte) (gpucore.BufferID, error) {
	if len(data) > b.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("software: buffer of %d bytes exceeds limit", len(data))
	}
	id := gpucore.BufferID(b.id())
	b.buffers[id] = append([]byte(nil), data...)
	return id, nil
}

// DestroyBuffer implements gpucore.Backend.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	delete(b.buffers, id)
}

// Draw implements gpucore.Backend. Geometry is decoded immediately and
// rasterized by Submit.
func (b *Backend) Draw(call gpucore.DrawCall) error {
	vb, ok := b.buffers[call.Vertices]
	if !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.Vertices)
	}
	ib, ok := b.buffers[call.Indices]
	if !ok {
		return fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.Indices)
	}
	if call.Texture != gpucore.InvalidID {
		if _, ok := b.textures[call.Texture]; !ok {
			return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, call.Texture)
		}
	}
	vs := gpucore.DecodeVertices(vb)
	idx := gpucore.DecodeIndices(ib)
	if call.IndexCount > len(idx) || call.IndexCount%3 != 0 {
		return fmt.Errorf("software: index count %d for %d indices", call.IndexCount, len(idx))
	}
	idx = idx[:call.IndexCount]
	for _, i := range idx {
		if int(i) >= len(vs) {
			return fmt.Errorf("software: index %d out of range of %d vertices", i, len(vs))
		}
	}
	b.pending = append(b.pending, draw{call: call, vertices: vs, indices: idx})
	return nil
}

// Submit implements gpucore.Backend. It rasterizes the pending draws in
// order and clears the stencil for the next frame.
func (b *Backend) Submit() error {
	triangles := 0
	for i := range b.pending {
		d := &b.pending[i]
		tex := b.textures[d.call.Texture]
		if d.call.Texture != gpucore.InvalidID && tex == nil {
			return fmt.Errorf("%w: texture %d destroyed before submit", gpucore.ErrUnknownResource, d.call.Texture)
		}
		for j := 0; j+2 < len(d.indices); j += 3 {
			b.triangle(d, tex, d.indices[j], d.indices[j+1], d.indices[j+2])
			triangles++
		}
	}
	b.logger.Debug("software: frame rasterized", "draws", len(b.pending), "triangles", triangles)
	b.pending = b.pending[:0]
	clear(b.stencil)
	return nil
}

func (b *Backend) triangle(d *draw, tex *texture, i0, i1, i2 uint32) {
	v := [3]gpucore.Vertex{d.vertices[i0], d.vertices[i1], d.vertices[i2]}
	pts := [3][2]float32{{v[0].X, v[0].Y}, {v[1].X, v[1].Y}, {v[2].X, v[2].Y}}
	area := cross(pts[0], pts[1], pts[2])
	if area == 0 {
		return
	}

	call := d.call
	fn := blend.For(call.Blend)
	size := b.target.Bounds().Size()
	scanTriangle(pts, size.X, size.Y, func(y, x0, x1 int) {
		row := y * size.X
		for x := x0; x < x1; x++ {
			s := &b.stencil[row+x]
			switch call.Stencil {
			case gpucore.StencilIncrement:
				if uint32(*s)+1 == call.StencilRef {
					*s++
				}
				continue
			case gpucore.StencilDecrement:
				if uint32(*s) == call.StencilRef && *s > 0 {
					*s--
				}
				continue
			case gpucore.StencilTest:
				if uint32(*s) != call.StencilRef {
					continue
				}
			}

			p := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			w0 := cross(pts[1], pts[2], p) / area
			w1 := cross(pts[2], pts[0], p) / area
			w2 := 1 - w0 - w1

			var c blend.Color
			for k := range 4 {
				f := float32(v[0].Color[k])*w0 + float32(v[1].Color[k])*w1 + float32(v[2].Color[k])*w2
				c[k] = uint8(min(max(f+0.5, 0), 255))
			}
			if tex != nil {
				u := v[0].U*w0 + v[1].U*w1 + v[2].U*w2
				vv := v[0].V*w0 + v[1].V*w1 + v[2].V*w2
				c = blend.Modulate(c, tex.sample(u, vv))
			}

			o := b.target.PixOffset(x, y)
			px := b.target.Pix[o : o+4 : o+4]
			out := fn(c, blend.Color{px[0], px[1], px[2], px[3]})
			copy(px, out[:])
		}
	})
}

// cross returns twice the signed area of triangle (a, b, c).
func cross(a, b, c [2]float32) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

var _ gpucore.Backend = (*Backend)(nil)
