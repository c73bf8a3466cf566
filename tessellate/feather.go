package tessellate

import (
	"github.com/gogpu/gv/geom"
)

// winding returns the winding number of the edges around p.
func winding(edges []edge, p geom.Point) int {
	w := 0
	for _, e := range edges {
		if p.Y >= e.y0 && p.Y < e.y1 && e.xAt(p.Y) > p.X {
			w += e.dir
		}
	}
	return w
}

// feather appends a fringe of width f outside every boundary edge of the
// filled contours. Coverage is one on the outline and zero at the outer
// fringe edge. Convex corners are closed with a triangle.
func feather(m Mesh, contours [][]geom.Point, rule FillRule, f float64) Mesh {
	edges := edgesOf(contours)
	b := meshBuilder{vs: m.Vertices, idx: m.Indices}
	const probe = 1e-4

	for _, c := range contours {
		n := len(c)
		if n < 3 {
			continue
		}
		outs := make([]geom.Point, n) // outward normal of edge i (c[i] -> c[i+1]), zero when interior
		for i := 0; i < n; i++ {
			a, z := c[i], c[(i+1)%n]
			d := z.Sub(a)
			if d.Length() < eps {
				continue
			}
			nrm := d.Perp().Normalize()
			mid := a.Lerp(z, 0.5)
			plus := rule.inside(winding(edges, mid.Add(nrm.Mul(probe))))
			minus := rule.inside(winding(edges, mid.Sub(nrm.Mul(probe))))
			switch {
			case minus && !plus:
				outs[i] = nrm
			case plus && !minus:
				outs[i] = nrm.Mul(-1)
			default:
				continue
			}
			o := outs[i].Mul(f)
			i0 := b.vertex(a.X, a.Y, 1)
			i1 := b.vertex(z.X, z.Y, 1)
			i2 := b.vertex(z.X+o.X, z.Y+o.Y, 0)
			i3 := b.vertex(a.X+o.X, a.Y+o.Y, 0)
			b.idx = append(b.idx, i0, i1, i2, i0, i2, i3)
		}
		for i := 0; i < n; i++ {
			prev, next := outs[(i+n-1)%n], outs[i]
			if prev == (geom.Point{}) || next == (geom.Point{}) || prev == next {
				continue
			}
			v := c[i]
			p, q := prev.Mul(f), next.Mul(f)
			i0 := b.vertex(v.X, v.Y, 1)
			i1 := b.vertex(v.X+p.X, v.Y+p.Y, 0)
			i2 := b.vertex(v.X+q.X, v.Y+q.Y, 0)
			b.idx = append(b.idx, i0, i1, i2)
		}
	}
	return b.mesh()
}
