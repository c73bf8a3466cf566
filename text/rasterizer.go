package text

import (
	"image"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/gv/raster"
)

// SubpixelBins is the number of horizontal pen offsets a glyph is cached
// at. Positions are snapped to the nearest 1/SubpixelBins of a pixel.
const SubpixelBins = 4

// Subpixel splits a pen x coordinate into a whole pixel and a bin in
// [0, SubpixelBins).
func Subpixel(x float64) (whole float64, bin uint8) {
	q := math.Round(x * SubpixelBins)
	whole = math.Floor(q / SubpixelBins)
	return whole, uint8(q - whole*SubpixelBins)
}

// BinOffset returns the fractional pen offset of bin.
func BinOffset(bin uint8) float64 {
	return float64(bin) / SubpixelBins
}

// GlyphRasterizer renders glyph coverage into a premultiplied white
// bitmap placed relative to the pen.
type GlyphRasterizer interface {
	RasterizeGlyph(f *Font, glyph uint32, size, dx float64) (raster.Bitmap, error)
}

// OutlineRasterizer scan-converts sfnt outlines with x/image/vector. It
// handles TrueType and CFF glyphs; bitmap-only glyphs fail with
// ErrGlyphOutline.
type OutlineRasterizer struct{}

// RasterizeGlyph implements GlyphRasterizer. size is in pixels per em and
// dx is the pen's fractional x offset in [0, 1). Glyphs without an outline
// yield an empty bitmap.
func (OutlineRasterizer) RasterizeGlyph(f *Font, glyph uint32, size, dx float64) (raster.Bitmap, error) {
	segs, err := f.loadGlyph(glyph, size)
	if err != nil {
		return raster.Bitmap{}, err
	}
	if len(segs) == 0 {
		return raster.Bitmap{}, nil
	}

	b := segs.Bounds()
	minX := math.Floor(fixedToFloat(b.Min.X) + dx)
	minY := math.Floor(fixedToFloat(b.Min.Y))
	maxX := math.Ceil(fixedToFloat(b.Max.X) + dx)
	maxY := math.Ceil(fixedToFloat(b.Max.Y))
	w, h := int(maxX-minX), int(maxY-minY)
	if w <= 0 || h <= 0 {
		return raster.Bitmap{}, nil
	}

	ox, oy := float32(dx-minX), float32(-minY)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X)/64 + ox, float32(p.Y)/64 + oy
	}

	r := vector.NewRasterizer(w, h)
	for i, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				r.ClosePath()
			}
			r.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			r.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			x3, y3 := pt(s.Args[2])
			r.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	bmp := raster.NewBitmap(w, h)
	bmp.Left, bmp.Top = int(minX), int(minY)
	for i, a := range mask.Pix {
		bmp.Pix[4*i+0] = a
		bmp.Pix[4*i+1] = a
		bmp.Pix[4*i+2] = a
		bmp.Pix[4*i+3] = a
	}
	return bmp, nil
}
