package tessellate

import (
	"math"

	"github.com/gogpu/gv/geom"
)

// maxDepth bounds curve subdivision; 2^16 lines per curve is far beyond
// any useful tolerance.
const maxDepth = 16

// polyline is one flattened subpath.
type polyline struct {
	pts    []geom.Point
	closed bool
}

// flatten turns segments into polylines, replacing curves by lines that
// stay within tol of the curve. Consecutive duplicate points are dropped.
func flatten(segs []Segment, tol float64) []polyline {
	var out []polyline
	var cur polyline
	var last geom.Point

	push := func(p geom.Point) {
		if n := len(cur.pts); n > 0 && cur.pts[n-1] == p {
			return
		}
		cur.pts = append(cur.pts, p)
	}
	finish := func(closed bool) {
		if len(cur.pts) > 0 {
			cur.closed = closed
			out = append(out, cur)
		}
		cur = polyline{}
	}

	for _, s := range segs {
		if s.Verb != geom.VerbMove && s.Verb != geom.VerbClose && len(cur.pts) == 0 {
			push(last)
		}
		switch s.Verb {
		case geom.VerbMove:
			finish(false)
			last = s.P[0]
			push(last)
		case geom.VerbLine:
			push(s.P[0])
			last = s.P[0]
		case geom.VerbQuad:
			flattenQuad(last, s.P[0], s.P[1], tol, 0, push)
			last = s.P[1]
		case geom.VerbCubic:
			flattenCubic(last, s.P[0], s.P[1], s.P[2], tol, 0, push)
			last = s.P[2]
		case geom.VerbClose:
			if len(cur.pts) == 0 {
				continue
			}
			last = cur.pts[0]
			if n := len(cur.pts); n > 1 && cur.pts[n-1] == cur.pts[0] {
				cur.pts = cur.pts[:n-1]
			}
			finish(true)
		}
	}
	finish(false)
	return out
}

func flattenQuad(p0, p1, p2 geom.Point, tol float64, depth int, emit func(geom.Point)) {
	if depth >= maxDepth || distanceToLine(p1, p0, p2) <= tol {
		emit(p2)
		return
	}
	q0 := p0.Lerp(p1, 0.5)
	q1 := p1.Lerp(p2, 0.5)
	m := q0.Lerp(q1, 0.5)
	flattenQuad(p0, q0, m, tol, depth+1, emit)
	flattenQuad(m, q1, p2, tol, depth+1, emit)
}

func flattenCubic(p0, p1, p2, p3 geom.Point, tol float64, depth int, emit func(geom.Point)) {
	d := math.Max(distanceToLine(p1, p0, p3), distanceToLine(p2, p0, p3))
	if depth >= maxDepth || d <= tol {
		emit(p3)
		return
	}
	q0 := p0.Lerp(p1, 0.5)
	q1 := p1.Lerp(p2, 0.5)
	q2 := p2.Lerp(p3, 0.5)
	r0 := q0.Lerp(q1, 0.5)
	r1 := q1.Lerp(q2, 0.5)
	m := r0.Lerp(r1, 0.5)
	flattenCubic(p0, q0, r0, m, tol, depth+1, emit)
	flattenCubic(m, r1, q2, p3, tol, depth+1, emit)
}

// distanceToLine is the distance from p to the segment ab.
func distanceToLine(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-18 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}
