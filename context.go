package gv

import (
	"errors"
	"fmt"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/batch"
	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/internal/clip"
	"github.com/gogpu/gv/internal/tess"
)

// state is the part of a Context that Save and Restore preserve.
type state struct {
	matrix geom.Matrix
	blend  gpucore.BlendMode

	// clipDepth is the clip stack depth when the state was saved. Clips
	// pushed above it are popped by Restore.
	clipDepth int
}

// Context records the drawing commands of one frame. It is created by
// Renderer.BeginFrame and finished by EndFrame or Discard.
//
// Drawing methods return an error for the primitive they were asked to
// draw. Primitive-level failures, such as a glyph that cannot be
// rasterized, skip the primitive and are also reported again, joined, by
// EndFrame. Failures that leave the frame unusable (atlas growth past the
// backend limit, backend errors) make every later call return the same
// error.
//
// A Context is not safe for concurrent use.
type Context struct {
	r        *Renderer
	viewport geom.Rect

	state   state
	saved   []state
	clips   *clip.Stack
	batches *batch.Builder

	errs   []error
	failed error
	ended  bool
}

// Renderer returns the renderer that opened the frame.
func (c *Context) Renderer() *Renderer { return c.r }

// Width returns the frame width in pixels.
func (c *Context) Width() int { return int(c.viewport.Width()) }

// Height returns the frame height in pixels.
func (c *Context) Height() int { return int(c.viewport.Height()) }

// Matrix returns the current user-to-device transform.
func (c *Context) Matrix() Matrix { return c.state.matrix }

// SetMatrix replaces the current transform.
func (c *Context) SetMatrix(m Matrix) { c.state.matrix = m }

// Transform applies m before the current transform.
func (c *Context) Transform(m Matrix) {
	c.state.matrix = c.state.matrix.Multiply(m)
}

// Translate moves the user-space origin.
func (c *Context) Translate(x, y float64) {
	c.Transform(geom.Translate(x, y))
}

// Scale scales user space.
func (c *Context) Scale(x, y float64) {
	c.Transform(geom.Scale(x, y))
}

// Rotate rotates user space by angle radians, clockwise on screen.
func (c *Context) Rotate(angle float64) {
	c.Transform(geom.Rotate(angle))
}

// WithTransform runs body with m applied, then restores the previous
// transform.
func (c *Context) WithTransform(m Matrix, body func(*Context) error) error {
	if err := c.check(); err != nil {
		return err
	}
	c.Save()
	c.Transform(m)
	err := body(c)
	return errors.Join(err, c.Restore())
}

// BlendMode returns the current blend mode.
func (c *Context) BlendMode() BlendMode { return c.state.blend }

// SetBlendMode sets the blend mode of later draws.
func (c *Context) SetBlendMode(m BlendMode) { c.state.blend = m }

// Save pushes the transform, blend mode and clip scope.
func (c *Context) Save() {
	s := c.state
	s.clipDepth = c.clips.Depth()
	c.saved = append(c.saved, s)
}

// Restore pops the state pushed by the matching Save, removing every clip
// added since. It returns ErrStackUnbalance without a matching Save.
func (c *Context) Restore() error {
	if err := c.check(); err != nil {
		return err
	}
	if len(c.saved) == 0 {
		return ErrStackUnbalance
	}
	s := c.saved[len(c.saved)-1]
	c.saved = c.saved[:len(c.saved)-1]
	for c.clips.Depth() > s.clipDepth {
		if err := c.popClip(); err != nil {
			return err
		}
	}
	c.state = s
	return nil
}

func (c *Context) check() error {
	if c.ended {
		return ErrFrameEnded
	}
	return c.failed
}

// record files err as a primitive-level or fatal failure and returns it.
func (c *Context) record(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cache.ErrBackend) && !errors.Is(err, ErrBackendSubmission) {
		err = fmt.Errorf("%w: %w", ErrBackendSubmission, err)
	}
	if fatal(err) {
		c.failed = err
		slogger().Warn("gv: frame failed", "err", err)
		return err
	}
	c.errs = append(c.errs, err)
	return err
}

func (c *Context) clipDepth() uint32 {
	return uint32(c.clips.Depth())
}

// clippedOut reports whether the active clips leave nothing visible.
func (c *Context) clippedOut() bool {
	return c.clips.Depth() > 0 && c.clips.Bounds().Intersect(c.viewport).Empty()
}

func (c *Context) drawKey(tex gpucore.TextureID) batch.Key {
	depth := c.clipDepth()
	st := gpucore.StencilIgnore
	if depth > 0 {
		st = gpucore.StencilTest
	}
	return batch.Key{Texture: tex, Blend: c.state.blend, ClipDepth: depth, Stencil: st}
}

func (c *Context) submit(m tess.Mesh, key batch.Key, refs ...cache.Ref) error {
	if m.Empty() {
		return nil
	}
	if err := c.batches.Submit(m.Vertices, m.Indices, key, refs...); err != nil {
		return fmt.Errorf("gv: %w", err)
	}
	return nil
}

// EndFrame validates, uploads and draws every batch in order, then
// submits the frame. It returns the fatal error that ended the frame
// early, or the joined primitive-level errors recorded while drawing.
func (c *Context) EndFrame() error {
	if c.ended {
		return ErrFrameEnded
	}
	defer c.finish()
	if c.failed != nil {
		return c.failed
	}

	batches := c.batches.EndFrame()
	backend := c.r.backend
	var buffers []gpucore.BufferID
	defer func() {
		for _, b := range buffers {
			backend.DestroyBuffer(b)
		}
	}()

	var vbuf, ibuf []byte
	draws := 0
	for i := range batches {
		b := &batches[i]
		if err := c.validate(b); err != nil {
			c.errs = append(c.errs, err)
			continue
		}
		vbuf = gpucore.EncodeVertices(vbuf[:0], b.Vertices)
		ibuf = gpucore.EncodeIndices(ibuf[:0], b.Indices)

		vb, err := backend.CreateBuffer(gpucore.BufferUsageVertex, vbuf)
		if err != nil {
			return fmt.Errorf("%w: vertex buffer: %w", ErrBackendSubmission, err)
		}
		buffers = append(buffers, vb)
		ib, err := backend.CreateBuffer(gpucore.BufferUsageIndex, ibuf)
		if err != nil {
			return fmt.Errorf("%w: index buffer: %w", ErrBackendSubmission, err)
		}
		buffers = append(buffers, ib)

		err = backend.Draw(gpucore.DrawCall{
			Vertices:   vb,
			Indices:    ib,
			IndexCount: len(b.Indices),
			Texture:    b.Key.Texture,
			Blend:      b.Key.Blend,
			Stencil:    b.Key.Stencil,
			StencilRef: b.Key.ClipDepth,
		})
		if err != nil {
			return fmt.Errorf("%w: draw: %w", ErrBackendSubmission, err)
		}
		draws++
	}
	if err := backend.Submit(); err != nil {
		return fmt.Errorf("%w: submit: %w", ErrBackendSubmission, err)
	}
	slogger().Debug("gv: frame submitted", "batches", len(batches), "draws", draws, "errors", len(c.errs))
	return errors.Join(c.errs...)
}

// validate checks that every atlas ref of b is still backed by a live
// texture.
func (c *Context) validate(b *batch.Batch) error {
	for _, ref := range b.Refs {
		if err := c.r.cache.Validate(ref); err != nil {
			return fmt.Errorf("gv: batch %v: %w", b.Key, err)
		}
	}
	return nil
}

// Discard abandons the frame without drawing. Atlas uploads already made
// stay valid.
func (c *Context) Discard() {
	if c.ended {
		return
	}
	c.batches.Reset()
	c.finish()
}

func (c *Context) finish() {
	c.ended = true
	c.clips.Reset()
	c.saved = nil
	c.r.endFrame(c)
}
