package tessellate

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/gogpu/gv/geom"
)

// ErrInvalidStyle is returned for stroke styles that cannot be expanded.
var ErrInvalidStyle = errors.New("tessellate: invalid stroke style")

// Segment is one path command. P holds Verb.PointCount() points: the end
// point is last, control points come first.
type Segment struct {
	Verb geom.Verb
	P    [3]geom.Point
}

// FillRule decides which regions of a self-overlapping path are inside.
type FillRule uint8

// Fill rules.
const (
	NonZero FillRule = iota
	EvenOdd
)

func (r FillRule) inside(winding int) bool {
	if r == EvenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

func (r FillRule) String() string {
	if r == EvenOdd {
		return "evenodd"
	}
	return "nonzero"
}

// LineCap is the shape at the ends of open subpaths.
type LineCap uint8

// Line caps.
const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the shape where two segments meet.
type LineJoin uint8

// Line joins.
const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// StrokeStyle describes a stroke in device units.
type StrokeStyle struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
}

// Vertex is a mesh vertex. Coverage is one inside the shape and falls to
// zero across the feather fringe.
type Vertex struct {
	X, Y     float32
	Coverage float32
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Empty reports whether the mesh holds no triangles.
func (m Mesh) Empty() bool { return len(m.Indices) == 0 }

// Triangles returns the number of triangles.
func (m Mesh) Triangles() int { return len(m.Indices) / 3 }

// Bounds returns the bounding box of all vertices.
func (m Mesh) Bounds() geom.Rect {
	if len(m.Vertices) == 0 {
		return geom.Rect{}
	}
	minX, minY := m.Vertices[0].X, m.Vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range m.Vertices[1:] {
		minX, maxX = math32.Min(minX, v.X), math32.Max(maxX, v.X)
		minY, maxY = math32.Min(minY, v.Y), math32.Max(maxY, v.Y)
	}
	return geom.Rect{
		Min: geom.Pt(float64(minX), float64(minY)),
		Max: geom.Pt(float64(maxX), float64(maxY)),
	}
}

// Area returns the summed absolute area of all triangles weighted by
// their mean coverage.
func (m Mesh) Area() float64 {
	var a float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		p, q, r := m.Vertices[m.Indices[i]], m.Vertices[m.Indices[i+1]], m.Vertices[m.Indices[i+2]]
		cross := float64((q.X-p.X)*(r.Y-p.Y) - (q.Y-p.Y)*(r.X-p.X))
		if cross < 0 {
			cross = -cross
		}
		a += cross / 2 * float64(p.Coverage+q.Coverage+r.Coverage) / 3
	}
	return a
}

// Service is the tessellation capability.
type Service interface {
	// Fill tessellates the interior of segs under rule.
	Fill(segs []Segment, rule FillRule) (Mesh, error)

	// Stroke tessellates the outline of segs drawn with style.
	Stroke(segs []Segment, style StrokeStyle) (Mesh, error)
}

// FromPath converts a path into segments, mapping every point through m.
func FromPath(p *geom.Path, m geom.Matrix) []Segment {
	segs := make([]Segment, 0, p.Len())
	p.Walk(func(v geom.Verb, pts []geom.Point) bool {
		s := Segment{Verb: v}
		for i, pt := range pts {
			s.P[i] = m.Apply(pt)
		}
		segs = append(segs, s)
		return true
	})
	return segs
}
