// Package tess adapts path geometry to the tessellation service and the
// service's triangles to the renderer's vertex format.
//
// The adapter makes no geometric decisions of its own: the fill rule is
// forwarded unchanged and degenerate input simply yields an empty mesh.
// Its job is the translation on both sides plus paint resolution, which
// means premultiplied vertex colors and, for image patterns, texture
// coordinates inside the pattern's atlas slot.
package tess

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/tessellate"
)

// Pattern maps a user-space rectangle onto a texture rectangle. Points
// outside Rect clamp to the nearest edge texel.
type Pattern struct {
	Rect           geom.Rect
	U0, V0, U1, V1 float32
}

// Paint is the resolved paint of one draw.
type Paint struct {
	// Color is straight-alpha RGBA in [0, 1]. With a pattern it tints the
	// sampled texels.
	Color [4]float32

	// Pattern, when set, gives every vertex a texture coordinate.
	Pattern *Pattern

	// ClipDepth is stamped on every vertex.
	ClipDepth uint32
}

// Mesh is renderer-ready geometry.
type Mesh struct {
	Vertices []gpucore.Vertex
	Indices  []uint32
}

// Empty reports whether the mesh has no triangles.
func (m Mesh) Empty() bool { return len(m.Indices) == 0 }

// Append adds o to m, rebasing o's indices.
func (m *Mesh) Append(o Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// Adapter drives a tessellation service.
type Adapter struct {
	svc tessellate.Service
}

// New returns an adapter over svc. A nil svc selects the default
// tessellator flattening with the given tolerance.
func New(svc tessellate.Service, tolerance float64) *Adapter {
	if svc == nil {
		t := tessellate.New()
		if tolerance > 0 {
			t.Tolerance = tolerance
		}
		svc = t
	}
	return &Adapter{svc: svc}
}

// Style selects how a path is turned into geometry.
type Style struct {
	// Stroke, when non-nil, outlines the path; otherwise it is filled
	// with Rule.
	Stroke *tessellate.StrokeStyle
	Rule   tessellate.FillRule
}

// Tessellate dispatches to Fill or Stroke.
func (a *Adapter) Tessellate(p *geom.Path, m geom.Matrix, style Style, paint Paint) (Mesh, error) {
	if style.Stroke != nil {
		return a.Stroke(p, m, *style.Stroke, paint)
	}
	return a.Fill(p, m, style.Rule, paint)
}

// Service returns the underlying tessellation service.
func (a *Adapter) Service() tessellate.Service { return a.svc }

// Fill tessellates the interior of p after mapping it through m from user
// to device space.
func (a *Adapter) Fill(p *geom.Path, m geom.Matrix, rule tessellate.FillRule, paint Paint) (Mesh, error) {
	if p.Len() == 0 {
		return Mesh{}, nil
	}
	tm, err := a.svc.Fill(tessellate.FromPath(p, m), rule)
	if err != nil {
		return Mesh{}, fmt.Errorf("tess: fill: %w", err)
	}
	return convert(tm, m, paint), nil
}

// FillSolid is Fill restricted to fully covered triangles. Anti-aliasing
// fringes are dropped, leaving the exact interior for stencil masks.
func (a *Adapter) FillSolid(p *geom.Path, m geom.Matrix, rule tessellate.FillRule, paint Paint) (Mesh, error) {
	if p.Len() == 0 {
		return Mesh{}, nil
	}
	tm, err := a.svc.Fill(tessellate.FromPath(p, m), rule)
	if err != nil {
		return Mesh{}, fmt.Errorf("tess: fill: %w", err)
	}
	return convert(solidOnly(tm), m, paint), nil
}

func solidOnly(tm tessellate.Mesh) tessellate.Mesh {
	kept := tm.Indices[:0:0]
	for i := 0; i+2 < len(tm.Indices); i += 3 {
		a, b, c := tm.Indices[i], tm.Indices[i+1], tm.Indices[i+2]
		if tm.Vertices[a].Coverage < 1 || tm.Vertices[b].Coverage < 1 || tm.Vertices[c].Coverage < 1 {
			continue
		}
		kept = append(kept, a, b, c)
	}
	tm.Indices = kept
	return tm
}

// Stroke tessellates the outline of p. The width is scaled by the mean
// scale of m.
func (a *Adapter) Stroke(p *geom.Path, m geom.Matrix, style tessellate.StrokeStyle, paint Paint) (Mesh, error) {
	if p.Len() == 0 || style.Width <= 0 {
		return Mesh{}, nil
	}
	style.Width *= m.MeanScale()
	tm, err := a.svc.Stroke(tessellate.FromPath(p, m), style)
	if err != nil {
		return Mesh{}, fmt.Errorf("tess: stroke: %w", err)
	}
	return convert(tm, m, paint), nil
}

// Quad emits two triangles over device-space corners given clockwise from
// the top-left, textured with the uv rectangle.
func Quad(corners [4]geom.Point, uv geom.Rect, paint Paint) Mesh {
	c := premultiply(paint.Color, 1)
	u0, v0 := float32(uv.Min.X), float32(uv.Min.Y)
	u1, v1 := float32(uv.Max.X), float32(uv.Max.Y)
	us := [4]float32{u0, u1, u1, u0}
	vs := [4]float32{v0, v0, v1, v1}
	m := Mesh{
		Vertices: make([]gpucore.Vertex, 4),
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
	for i, p := range corners {
		m.Vertices[i] = gpucore.Vertex{
			X: float32(p.X), Y: float32(p.Y),
			U: us[i], V: vs[i],
			Color:     c,
			ClipDepth: paint.ClipDepth,
		}
	}
	return m
}

// Rect emits a quad covering the user-space rectangle r mapped through m.
func Rect(r geom.Rect, m geom.Matrix, uv geom.Rect, paint Paint) Mesh {
	if r.Empty() {
		return Mesh{}
	}
	c := r.Corners()
	for i := range c {
		c[i] = m.Apply(c[i])
	}
	return Quad(c, uv, paint)
}

func convert(tm tessellate.Mesh, m geom.Matrix, paint Paint) Mesh {
	if tm.Empty() {
		return Mesh{}
	}
	var inv geom.Matrix
	pattern := paint.Pattern
	if pattern != nil {
		var ok bool
		if inv, ok = m.Invert(); !ok || pattern.Rect.Empty() {
			pattern = nil
		}
	}

	out := Mesh{
		Vertices: make([]gpucore.Vertex, len(tm.Vertices)),
		Indices:  append([]uint32(nil), tm.Indices...),
	}
	solid := premultiply(paint.Color, 1)
	for i, v := range tm.Vertices {
		gv := gpucore.Vertex{X: v.X, Y: v.Y, Color: solid, ClipDepth: paint.ClipDepth}
		if v.Coverage < 1 {
			gv.Color = premultiply(paint.Color, v.Coverage)
		}
		if pattern != nil {
			gv.U, gv.V = pattern.uv(inv.Apply(geom.Pt(float64(v.X), float64(v.Y))))
		}
		out.Vertices[i] = gv
	}
	return out
}

func (p *Pattern) uv(user geom.Point) (float32, float32) {
	s := clamp01(float32((user.X - p.Rect.Min.X) / p.Rect.Width()))
	t := clamp01(float32((user.Y - p.Rect.Min.Y) / p.Rect.Height()))
	return p.U0 + s*(p.U1-p.U0), p.V0 + t*(p.V1-p.V0)
}

func clamp01(x float32) float32 {
	return math32.Max(0, math32.Min(1, x))
}

// premultiply converts a straight color scaled by coverage to RGBA8.
func premultiply(c [4]float32, coverage float32) [4]uint8 {
	a := clamp01(c[3]) * clamp01(coverage)
	return [4]uint8{
		uint8(math32.Round(clamp01(c[0]) * a * 255)),
		uint8(math32.Round(clamp01(c[1]) * a * 255)),
		uint8(math32.Round(clamp01(c[2]) * a * 255)),
		uint8(math32.Round(a * 255)),
	}
}

// Premultiply exposes the color conversion used for every vertex.
func Premultiply(c [4]float32) [4]uint8 { return premultiply(c, 1) }
