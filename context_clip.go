package gv

import (
	"errors"
	"fmt"

	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/batch"
	"github.com/gogpu/gv/internal/tess"
)

// Clip intersects the clip region with region, under the current
// transform, until the enclosing Restore or PopClip.
//
// Clips nest through the stencil buffer: a pixel stays visible only
// inside every active region.
func (c *Context) Clip(region *Path) error {
	return c.clip(region, NonZero)
}

// ClipEvenOdd is Clip with the even-odd fill rule.
func (c *Context) ClipEvenOdd(region *Path) error {
	return c.clip(region, EvenOdd)
}

// ClipRect clips to a user-space rectangle.
func (c *Context) ClipRect(r Rect) error {
	return c.clip(rectPath(r), NonZero)
}

func (c *Context) clip(region *Path, rule FillRule) error {
	if err := c.check(); err != nil {
		return err
	}
	var mesh tess.Mesh
	if region != nil {
		m, err := c.r.clipper.FillSolid(region, c.state.matrix, rule, tess.Paint{Color: White.vec()})
		if err != nil {
			return c.record(fmt.Errorf("gv: clip: %w", err))
		}
		mesh = m
	}
	bounds := meshBounds(mesh)

	f, err := c.clips.Push(mesh, bounds)
	if err != nil {
		return c.record(err)
	}
	stampDepth(f.Mesh, f.Ref)
	key := batch.Key{Texture: gpucore.InvalidID, Blend: gpucore.BlendSourceOver, ClipDepth: f.Ref, Stencil: gpucore.StencilIncrement}
	return c.record(c.submit(f.Mesh, key))
}

// PopClip removes the most recent clip added since the last Save. It
// returns ErrClipUnderflow when there is none.
func (c *Context) PopClip() error {
	if err := c.check(); err != nil {
		return err
	}
	floor := 0
	if n := len(c.saved); n > 0 {
		floor = c.saved[n-1].clipDepth
	}
	if c.clips.Depth() <= floor {
		return ErrClipUnderflow
	}
	return c.popClip()
}

func (c *Context) popClip() error {
	f, err := c.clips.Pop()
	if err != nil {
		return err
	}
	key := batch.Key{Texture: gpucore.InvalidID, Blend: gpucore.BlendSourceOver, ClipDepth: f.Ref, Stencil: gpucore.StencilDecrement}
	return c.record(c.submit(f.Mesh, key))
}

// WithClip runs body with region clipped in, then removes the clip and
// any state body saved without restoring.
func (c *Context) WithClip(region *Path, body func(*Context) error) error {
	if err := c.check(); err != nil {
		return err
	}
	depth := len(c.saved)
	c.Save()
	if err := c.Clip(region); err != nil {
		return errors.Join(err, c.Restore())
	}
	err := body(c)
	var rerr error
	for len(c.saved) > depth && rerr == nil {
		rerr = c.Restore()
	}
	return errors.Join(err, rerr)
}

// ClipBounds returns the device-space bounds of the active clips
// intersected with the frame.
func (c *Context) ClipBounds() Rect {
	return c.clips.Bounds().Intersect(c.viewport)
}

// ClipDepth returns the number of active clips.
func (c *Context) ClipDepth() int {
	return c.clips.Depth()
}

func stampDepth(m tess.Mesh, depth uint32) {
	for i := range m.Vertices {
		m.Vertices[i].ClipDepth = depth
	}
}

func meshBounds(m tess.Mesh) Rect {
	if len(m.Vertices) == 0 {
		return Rect{}
	}
	v := m.Vertices[0]
	r := Rect{Min: Point{X: float64(v.X), Y: float64(v.Y)}, Max: Point{X: float64(v.X), Y: float64(v.Y)}}
	for _, v := range m.Vertices[1:] {
		r.Min.X = min(r.Min.X, float64(v.X))
		r.Min.Y = min(r.Min.Y, float64(v.Y))
		r.Max.X = max(r.Max.X, float64(v.X))
		r.Max.Y = max(r.Max.Y, float64(v.Y))
	}
	return r
}

func rectPath(r Rect) *Path {
	p := NewPath()
	if !r.Empty() {
		p.Rectangle(r.Min.X, r.Min.Y, r.Width(), r.Height())
	}
	return p
}
