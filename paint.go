package gv

import (
	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/tessellate"
)

// Geometry types shared with the geom package.
type (
	Point  = geom.Point
	Rect   = geom.Rect
	Matrix = geom.Matrix
	Path   = geom.Path
)

// NewPath returns an empty path.
func NewPath() *Path { return geom.NewPath() }

// Identity returns the identity matrix.
func Identity() Matrix { return geom.Identity() }

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return geom.Pt(x, y) }

// XYWH builds a rectangle from an origin and a size.
func XYWH(x, y, w, h float64) Rect { return geom.XYWH(x, y, w, h) }

// FillRule decides which regions of a self-intersecting path are inside.
type FillRule = tessellate.FillRule

// Fill rules.
const (
	NonZero = tessellate.NonZero
	EvenOdd = tessellate.EvenOdd
)

// BlendMode is how drawn pixels combine with the target.
type BlendMode = gpucore.BlendMode

// Blend modes.
const (
	BlendSourceOver = gpucore.BlendSourceOver
	BlendCopy       = gpucore.BlendCopy
	BlendAdd        = gpucore.BlendAdd
	BlendMultiply   = gpucore.BlendMultiply
	BlendScreen     = gpucore.BlendScreen
)

// Paint describes how shapes are colored.
type Paint struct {
	// Color is the solid color, or the tint of the image pattern.
	Color RGBA

	// Image, when set, fills the shape with the image stretched over
	// ImageRect in user space. Outside the rectangle the edge texels
	// repeat.
	Image     *Image
	ImageRect Rect

	// FillRule applies to Fill. FillEvenOdd ignores it.
	FillRule FillRule
}

// SolidPaint returns a paint of color c.
func SolidPaint(c RGBA) Paint {
	return Paint{Color: c}
}

// ImagePaint returns a paint stretching img over r.
func ImagePaint(img *Image, r Rect) Paint {
	return Paint{Color: White, Image: img, ImageRect: r}
}
