package gv

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/internal/tess"
	"github.com/gogpu/gv/raster"
	"github.com/gogpu/gv/text"
)

// DrawText draws layout with its top-left corner at (x, y) in user space.
// Glyphs are tinted with paint.Color; image paints are not applied to
// text. Underlines are drawn before a run's glyphs and strikethroughs
// after them.
//
// A glyph that cannot be rasterized is skipped and reported; the rest of
// the layout is still drawn.
func (c *Context) DrawText(layout *text.Layout, x, y float64, paint Paint) error {
	if err := c.check(); err != nil {
		return err
	}
	if layout == nil || c.clippedOut() {
		return nil
	}
	origin := geom.Pt(x, y)
	tp := tess.Paint{Color: paint.Color.vec(), ClipDepth: c.clipDepth()}

	var errs []error
	for li := range layout.Lines {
		for ri := range layout.Lines[li].Runs {
			run := &layout.Lines[li].Runs[ri]
			if run.Decoration.Has(text.Underline) {
				if err := c.decoration(run, text.Underline, origin, tp); err != nil {
					return err
				}
			}
			if err := c.glyphs(run, origin, tp); err != nil {
				if fatal(err) {
					return err
				}
				errs = append(errs, err)
			}
			if run.Decoration.Has(text.Strikethrough) {
				if err := c.decoration(run, text.Strikethrough, origin, tp); err != nil {
					return err
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Context) decoration(run *text.PositionedRun, d text.Decoration, origin geom.Point, tp tess.Paint) error {
	r := run.DecorationRect(d)
	r = geom.Rect{Min: r.Min.Add(origin), Max: r.Max.Add(origin)}
	mesh := tess.Rect(r, c.state.matrix, geom.Rect{}, tp)
	return c.record(c.submit(mesh, c.drawKey(0)))
}

// glyphs draws the glyphs of one run. Glyphs are rasterized at their
// device size; under a uniform scale that keeps axes and orientation the
// quads snap to whole pixels vertically and to subpixel bins
// horizontally.
func (c *Context) glyphs(run *text.PositionedRun, origin geom.Point, tp tess.Paint) error {
	if run.Face == nil {
		return nil
	}
	m := c.state.matrix
	scale := m.MeanScale()
	if scale == 0 {
		return nil
	}
	font := run.Face.Font()
	size := run.Face.Size() * scale
	size26 := int32(math.Round(size * 64))
	// Snapped quads are placed unscaled, so only a uniform scale snaps.
	snap := m.B == 0 && m.D == 0 && m.A > 0 && m.A == m.E

	var errs []error
	for _, g := range run.Glyphs {
		pen := geom.Pt(origin.X+run.X+g.X, origin.Y+run.Baseline+g.Y)
		dev := m.Apply(pen)

		var bin uint8
		whole := dev.X
		if snap {
			whole, bin = text.Subpixel(dev.X)
		}
		id := g.ID
		key := cache.GlyphKey(font.ID(), id, size26, bin)
		ref, err := c.r.cache.GetOrInsert(key, func() (raster.Bitmap, error) {
			return c.r.glyphs.RasterizeGlyph(font, id, size, text.BinOffset(bin))
		})
		if err != nil {
			err = c.record(fmt.Errorf("gv: glyph %d of %s: %w", id, run.Face, err))
			if fatal(err) {
				return err
			}
			errs = append(errs, err)
			continue
		}
		if ref.Empty() {
			continue
		}

		uv := geom.Rect{
			Min: geom.Pt(float64(ref.U0), float64(ref.V0)),
			Max: geom.Pt(float64(ref.U1), float64(ref.V1)),
		}
		var corners [4]geom.Point
		if snap {
			box := geom.XYWH(whole+float64(ref.Left), math.Round(dev.Y)+float64(ref.Top),
				float64(ref.Region.Width), float64(ref.Region.Height))
			corners = box.Corners()
		} else {
			box := geom.XYWH(float64(ref.Left)/scale, float64(ref.Top)/scale,
				float64(ref.Region.Width)/scale, float64(ref.Region.Height)/scale)
			corners = box.Corners()
			for i := range corners {
				corners[i] = m.Apply(pen.Add(corners[i]))
			}
		}
		if err := c.record(c.submit(tess.Quad(corners, uv, tp), c.drawKey(ref.Texture), ref)); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
