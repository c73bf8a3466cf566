package geom

import "math"

// Verb identifies a path command.
type Verb uint8

// Path verbs. Each verb consumes a fixed number of points.
const (
	VerbMove  Verb = iota // 1 point
	VerbLine              // 1 point
	VerbQuad              // 2 points: control, end
	VerbCubic             // 3 points: control1, control2, end
	VerbClose             // 0 points
)

// PointCount returns how many points the verb consumes.
func (v Verb) PointCount() int {
	switch v {
	case VerbMove, VerbLine:
		return 1
	case VerbQuad:
		return 2
	case VerbCubic:
		return 3
	default:
		return 0
	}
}

func (v Verb) String() string {
	switch v {
	case VerbMove:
		return "move"
	case VerbLine:
		return "line"
	case VerbQuad:
		return "quad"
	case VerbCubic:
		return "cubic"
	case VerbClose:
		return "close"
	default:
		return "unknown"
	}
}

// Path is a sequence of subpaths made of line and Bezier segments.
// Verbs and points are stored in parallel slices.
//
// The zero value is an empty path ready to use.
type Path struct {
	verbs  []Verb
	points []Point
	start  Point
	open   bool
}

// NewPath creates an empty path.
func NewPath() *Path {
	return &Path{
		verbs:  make([]Verb, 0, 16),
		points: make([]Point, 0, 32),
	}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	pt := Pt(x, y)
	p.verbs = append(p.verbs, VerbMove)
	p.points = append(p.points, pt)
	p.start = pt
	p.open = true
}

// ensureOpen starts an implicit subpath at the last point, or at the
// origin for an empty path, so drawing verbs never dangle.
func (p *Path) ensureOpen() {
	if p.open {
		return
	}
	cur := p.start
	p.MoveTo(cur.X, cur.Y)
}

// LineTo adds a line from the current point to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.ensureOpen()
	p.verbs = append(p.verbs, VerbLine)
	p.points = append(p.points, Pt(x, y))
}

// QuadTo adds a quadratic Bezier curve.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.ensureOpen()
	p.verbs = append(p.verbs, VerbQuad)
	p.points = append(p.points, Pt(cx, cy), Pt(x, y))
}

// CubicTo adds a cubic Bezier curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.ensureOpen()
	p.verbs = append(p.verbs, VerbCubic)
	p.points = append(p.points, Pt(c1x, c1y), Pt(c2x, c2y), Pt(x, y))
}

// Close closes the current subpath.
func (p *Path) Close() {
	if !p.open {
		return
	}
	p.verbs = append(p.verbs, VerbClose)
	p.open = false
}

// Reset empties the path, keeping its storage.
func (p *Path) Reset() {
	p.verbs = p.verbs[:0]
	p.points = p.points[:0]
	p.start = Point{}
	p.open = false
}

// Len returns the number of verbs.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.verbs)
}

// Verbs returns the verb stream. The slice must not be modified.
func (p *Path) Verbs() []Verb { return p.verbs }

// Points returns the point stream. The slice must not be modified.
func (p *Path) Points() []Point { return p.points }

// Walk calls fn for every verb with the points that verb consumes.
// Walking stops early when fn returns false.
func (p *Path) Walk(fn func(v Verb, pts []Point) bool) {
	if p == nil {
		return
	}
	i := 0
	for _, v := range p.verbs {
		n := v.PointCount()
		if !fn(v, p.points[i:i+n]) {
			return
		}
		i += n
	}
}

// Transform returns a new path with every point mapped through m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{
		verbs:  append([]Verb(nil), p.verbs...),
		points: make([]Point, len(p.points)),
		start:  m.Apply(p.start),
		open:   p.open,
	}
	for i, pt := range p.points {
		out.points[i] = m.Apply(pt)
	}
	return out
}

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	return p.Transform(Identity())
}

// Bounds returns the bounding box of all points, control points included.
func (p *Path) Bounds() Rect {
	if p == nil || len(p.points) == 0 {
		return Rect{}
	}
	r := Rect{Min: p.points[0], Max: p.points[0]}
	for _, pt := range p.points[1:] {
		r.Min.X = math.Min(r.Min.X, pt.X)
		r.Min.Y = math.Min(r.Min.Y, pt.Y)
		r.Max.X = math.Max(r.Max.X, pt.X)
		r.Max.Y = math.Max(r.Max.Y, pt.Y)
	}
	return r
}
