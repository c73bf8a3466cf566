package gv

import (
	"fmt"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/batch"
	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/internal/tess"
	"github.com/gogpu/gv/raster"
)

// Fill fills p with paint using paint.FillRule.
func (c *Context) Fill(p *Path, paint Paint) error {
	return c.fill(p, paint, paint.FillRule)
}

// FillEvenOdd fills p with paint using the even-odd rule.
func (c *Context) FillEvenOdd(p *Path, paint Paint) error {
	return c.fill(p, paint, EvenOdd)
}

func (c *Context) fill(p *Path, paint Paint, rule FillRule) error {
	if err := c.check(); err != nil {
		return err
	}
	if p == nil || c.clippedOut() {
		return nil
	}
	tp, tex, refs, err := c.resolvePaint(paint)
	if err != nil {
		return c.record(err)
	}
	mesh, err := c.r.adapter.Fill(p, c.state.matrix, rule, tp)
	if err != nil {
		return c.record(fmt.Errorf("gv: fill: %w", err))
	}
	return c.record(c.submit(mesh, c.drawKey(tex), refs...))
}

// Stroke outlines p with a butt-capped, miter-joined line of width w.
func (c *Context) Stroke(p *Path, paint Paint, w float64) error {
	return c.StrokeStyled(p, paint, DefaultStroke(w))
}

// StrokeStyled outlines p with s. The width is in user space.
func (c *Context) StrokeStyled(p *Path, paint Paint, s Stroke) error {
	if err := c.check(); err != nil {
		return err
	}
	if len(s.Dash) > 0 {
		return c.record(ErrDashNotSupported)
	}
	if p == nil || s.Width <= 0 || c.clippedOut() {
		return nil
	}
	tp, tex, refs, err := c.resolvePaint(paint)
	if err != nil {
		return c.record(err)
	}
	mesh, err := c.r.adapter.Stroke(p, c.state.matrix, s.style(), tp)
	if err != nil {
		return c.record(fmt.Errorf("gv: stroke: %w", err))
	}
	return c.record(c.submit(mesh, c.drawKey(tex), refs...))
}

// Clear replaces every pixel of region, in device space, with color.
// Clips, the transform and the blend mode are ignored. The zero Rect
// clears the whole frame.
func (c *Context) Clear(region Rect, color RGBA) error {
	if err := c.check(); err != nil {
		return err
	}
	r := c.viewport
	if region != (Rect{}) {
		r = region.Intersect(c.viewport)
	}
	if r.Empty() {
		return nil
	}
	mesh := tess.Rect(r, geom.Identity(), geom.Rect{}, tess.Paint{Color: color.vec()})
	key := batch.Key{Texture: gpucore.InvalidID, Blend: gpucore.BlendCopy, Stencil: gpucore.StencilIgnore}
	return c.record(c.submit(mesh, key))
}

// DrawImage draws img stretched over dst in user space.
func (c *Context) DrawImage(img *Image, dst Rect) error {
	if img == nil {
		return c.record(fmt.Errorf("%w: nil image", ErrInvalidImage))
	}
	return c.DrawImageArea(img, img.Bounds(), dst)
}

// DrawImageArea draws the src rectangle of img, in image pixels,
// stretched over dst in user space.
func (c *Context) DrawImageArea(img *Image, src, dst Rect) error {
	if err := c.check(); err != nil {
		return err
	}
	if img == nil {
		return c.record(fmt.Errorf("%w: nil image", ErrInvalidImage))
	}
	src = src.Intersect(img.Bounds())
	if src.Empty() || dst.Empty() || c.clippedOut() {
		return nil
	}
	tex, uv, refs, err := c.imageSource(img)
	if err != nil {
		return c.record(err)
	}
	w, h := float64(img.Width()), float64(img.Height())
	sub := geom.Rect{
		Min: geom.Pt(lerp(uv.Min.X, uv.Max.X, src.Min.X/w), lerp(uv.Min.Y, uv.Max.Y, src.Min.Y/h)),
		Max: geom.Pt(lerp(uv.Min.X, uv.Max.X, src.Max.X/w), lerp(uv.Min.Y, uv.Max.Y, src.Max.Y/h)),
	}
	mesh := tess.Rect(dst, c.state.matrix, sub, tess.Paint{Color: White.vec(), ClipDepth: c.clipDepth()})
	return c.record(c.submit(mesh, c.drawKey(tex), refs...))
}

// resolvePaint turns paint into vertex paint, uploading its image if any.
func (c *Context) resolvePaint(paint Paint) (tess.Paint, gpucore.TextureID, []cache.Ref, error) {
	tp := tess.Paint{Color: paint.Color.vec(), ClipDepth: c.clipDepth()}
	if paint.Image == nil {
		return tp, gpucore.InvalidID, nil, nil
	}
	tex, uv, refs, err := c.imageSource(paint.Image)
	if err != nil {
		return tess.Paint{}, 0, nil, err
	}
	rect := paint.ImageRect
	if rect.Empty() {
		rect = paint.Image.Bounds()
	}
	tp.Pattern = &tess.Pattern{
		Rect: rect,
		U0:   float32(uv.Min.X),
		V0:   float32(uv.Min.Y),
		U1:   float32(uv.Max.X),
		V1:   float32(uv.Max.Y),
	}
	return tp, tex, refs, nil
}

// imageSource returns the texture holding img and the uv rectangle of its
// texels.
func (c *Context) imageSource(img *Image) (gpucore.TextureID, geom.Rect, []cache.Ref, error) {
	if img.released || img.r != c.r {
		return 0, geom.Rect{}, nil, fmt.Errorf("%w: released or owned by another renderer", ErrInvalidImage)
	}
	if img.Dedicated() {
		return img.texture, geom.XYWH(0, 0, 1, 1), nil, nil
	}
	key := cache.ImageKey(img.id, img.Width(), img.Height())
	ref, err := c.r.cache.GetOrInsert(key, func() (raster.Bitmap, error) {
		return img.bitmap, nil
	})
	if err != nil {
		return 0, geom.Rect{}, nil, fmt.Errorf("gv: image %d: %w", img.id, err)
	}
	uv := geom.Rect{
		Min: geom.Pt(float64(ref.U0), float64(ref.V0)),
		Max: geom.Pt(float64(ref.U1), float64(ref.V1)),
	}
	return ref.Texture, uv, []cache.Ref{ref}, nil
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
