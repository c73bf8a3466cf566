package tessellate

import (
	"fmt"
	"math"

	"github.com/gogpu/gv/geom"
)

// stroker expands flattened polylines into positively oriented polygons
// whose non-zero union is the stroke outline.
type stroker struct {
	hw    float64
	style StrokeStyle
	tol   float64
	out   [][]geom.Point
}

func strokePolygons(lines []polyline, style StrokeStyle, tol float64) ([][]geom.Point, error) {
	if style.Width < 0 || math.IsNaN(style.Width) || math.IsInf(style.Width, 0) {
		return nil, fmt.Errorf("%w: width %v", ErrInvalidStyle, style.Width)
	}
	if style.MiterLimit == 0 {
		style.MiterLimit = 4
	}
	if style.MiterLimit < 1 {
		return nil, fmt.Errorf("%w: miter limit %v < 1", ErrInvalidStyle, style.MiterLimit)
	}
	s := &stroker{hw: style.Width / 2, style: style, tol: tol}
	if s.hw == 0 {
		return nil, nil
	}
	for _, l := range lines {
		s.polyline(l)
	}
	return s.out, nil
}

func (s *stroker) add(poly ...geom.Point) {
	if len(poly) < 3 {
		return
	}
	if signedArea(poly) < 0 {
		for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
			poly[i], poly[j] = poly[j], poly[i]
		}
	}
	s.out = append(s.out, poly)
}

func (s *stroker) polyline(l polyline) {
	pts := l.pts
	n := len(pts)
	if n < 2 {
		return
	}

	segs := n - 1
	if l.closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%n]
		off := b.Sub(a).Normalize().Perp().Mul(s.hw)
		s.add(a.Add(off), b.Add(off), b.Sub(off), a.Sub(off))
	}

	if l.closed {
		for i := 0; i < n; i++ {
			s.join(pts[(i+n-1)%n], pts[i], pts[(i+1)%n])
		}
		return
	}
	for i := 1; i < n-1; i++ {
		s.join(pts[i-1], pts[i], pts[i+1])
	}
	s.cap(pts[0], pts[0].Sub(pts[1]).Normalize())
	s.cap(pts[n-1], pts[n-1].Sub(pts[n-2]).Normalize())
}

// join fills the wedge on the outer side of the corner at v.
func (s *stroker) join(prev, v, next geom.Point) {
	d0 := v.Sub(prev).Normalize()
	d1 := next.Sub(v).Normalize()
	cross := d0.Cross(d1)
	dot := d0.Dot(d1)
	if math.Abs(cross) < 1e-9 && dot > 0 {
		return
	}

	side := -1.0
	if cross < 0 {
		side = 1
	}
	n0 := d0.Perp().Mul(s.hw * side)
	n1 := d1.Perp().Mul(s.hw * side)
	p0, p1 := v.Add(n0), v.Add(n1)

	switch s.style.Join {
	case JoinRound:
		s.add(s.arc(v, n0, n1, math.Pi)...)
	case JoinMiter:
		// Miter length over half width is 1/cos(theta/2) = sqrt(2/(1+dot)).
		if 1+dot > 1e-12 && 2/(1+dot) <= s.style.MiterLimit*s.style.MiterLimit {
			tip := v.Add(n0.Add(n1).Mul(1 / (1 + dot)))
			s.add(v, p0, tip, p1)
			return
		}
		s.add(v, p0, p1)
	default:
		s.add(v, p0, p1)
	}
}

// cap adds the end cap at p; dir points away from the line.
func (s *stroker) cap(p, dir geom.Point) {
	n := dir.Perp().Mul(s.hw)
	switch s.style.Cap {
	case CapSquare:
		e := dir.Mul(s.hw)
		s.add(p.Add(n), p.Add(n).Add(e), p.Sub(n).Add(e), p.Sub(n))
	case CapRound:
		s.add(s.arc(p, n, n.Mul(-1), -math.Pi)...)
	}
}

// arc returns a fan polygon around c from c+from to c+to through the
// shorter angle. Opposite vectors sweep by half instead.
func (s *stroker) arc(c, from, to geom.Point, half float64) []geom.Point {
	a0 := math.Atan2(from.Y, from.X)
	sweep := math.Atan2(from.Cross(to), from.Dot(to))
	if math.Abs(math.Abs(sweep)-math.Pi) < 1e-9 {
		sweep = half
	}
	steps := arcSteps(s.hw, math.Abs(sweep), s.tol)
	poly := make([]geom.Point, 0, steps+2)
	poly = append(poly, c)
	for i := 0; i <= steps; i++ {
		sin, cos := math.Sincos(a0 + sweep*float64(i)/float64(steps))
		poly = append(poly, geom.Pt(c.X+s.hw*cos, c.Y+s.hw*sin))
	}
	return poly
}

// arcSteps picks a segment count keeping the chord error under tol.
func arcSteps(r, sweep, tol float64) int {
	if r <= tol {
		return 2
	}
	step := 2 * math.Acos(1-tol/r)
	n := int(math.Ceil(sweep / step))
	if n < 2 {
		n = 2
	}
	if n > 256 {
		n = 256
	}
	return n
}

func signedArea(poly []geom.Point) float64 {
	var a float64
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		a += p.Cross(q)
	}
	return a / 2
}
