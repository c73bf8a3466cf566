package tessellate

import (
	"math"
	"sort"

	"github.com/gogpu/gv/geom"
)

// eps is the smallest band height and crossing offset considered.
const eps = 1e-9

// edge is a non-horizontal outline edge with y0 < y1. dir is +1 when the
// original edge pointed towards increasing y.
type edge struct {
	x0, y0, x1, y1 float64
	dir            int
}

func (e edge) xAt(y float64) float64 {
	if y <= e.y0 {
		return e.x0
	}
	if y >= e.y1 {
		return e.x1
	}
	return e.x0 + (e.x1-e.x0)*(y-e.y0)/(e.y1-e.y0)
}

// edgesOf builds the edge list of closed contours.
func edgesOf(contours [][]geom.Point) []edge {
	var edges []edge
	for _, c := range contours {
		n := len(c)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			a, b := c[i], c[(i+1)%n]
			switch {
			case a.Y < b.Y:
				edges = append(edges, edge{a.X, a.Y, b.X, b.Y, 1})
			case a.Y > b.Y:
				edges = append(edges, edge{b.X, b.Y, a.X, a.Y, -1})
			}
		}
	}
	return edges
}

// fillContours decomposes closed contours into trapezoids under rule.
func fillContours(contours [][]geom.Point, rule FillRule) Mesh {
	edges := edgesOf(contours)
	if len(edges) < 2 {
		return Mesh{}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].y0 < edges[j].y0 })

	ys := make([]float64, 0, len(edges)*2)
	for i, e := range edges {
		ys = append(ys, e.y0, e.y1)
		for j := i + 1; j < len(edges) && edges[j].y0 < e.y1; j++ {
			if y, ok := crossing(e, edges[j]); ok {
				ys = append(ys, y)
			}
		}
	}
	sort.Float64s(ys)
	ys = uniq(ys)

	var b meshBuilder
	type span struct {
		xa, xb, xm float64
		dir        int
	}
	var active []span
	first := 0
	for k := 0; k+1 < len(ys); k++ {
		ya, yb := ys[k], ys[k+1]
		if yb-ya < eps {
			continue
		}
		ym := (ya + yb) / 2

		active = active[:0]
		for first < len(edges) && edges[first].y1 <= ya {
			first++
		}
		for _, e := range edges[first:] {
			if e.y0 > ym {
				break
			}
			if e.y1 < ym {
				continue
			}
			active = append(active, span{e.xAt(ya), e.xAt(yb), e.xAt(ym), e.dir})
		}
		sort.Slice(active, func(i, j int) bool { return active[i].xm < active[j].xm })

		winding := 0
		var left span
		for _, s := range active {
			was := rule.inside(winding)
			winding += s.dir
			now := rule.inside(winding)
			switch {
			case !was && now:
				left = s
			case was && !now:
				b.trapezoid(ya, yb, left.xa, s.xa, left.xb, s.xb)
			}
		}
	}
	return b.mesh()
}

// crossing returns the y where two edges intersect strictly inside both.
func crossing(p, q edge) (float64, bool) {
	lo := math.Max(p.y0, q.y0)
	hi := math.Min(p.y1, q.y1)
	if hi-lo < eps {
		return 0, false
	}
	dlo := p.xAt(lo) - q.xAt(lo)
	dhi := p.xAt(hi) - q.xAt(hi)
	if (dlo > 0) == (dhi > 0) || dlo == 0 || dhi == 0 {
		return 0, false
	}
	t := dlo / (dlo - dhi)
	y := lo + t*(hi-lo)
	if y-lo < eps || hi-y < eps {
		return 0, false
	}
	return y, true
}

func uniq(ys []float64) []float64 {
	out := ys[:0]
	for i, y := range ys {
		if i == 0 || y-out[len(out)-1] >= eps {
			out = append(out, y)
		}
	}
	return out
}

// meshBuilder accumulates full-coverage triangles.
type meshBuilder struct {
	vs  []Vertex
	idx []uint32
}

func (b *meshBuilder) vertex(x, y float64, cov float32) uint32 {
	b.vs = append(b.vs, Vertex{X: float32(x), Y: float32(y), Coverage: cov})
	return uint32(len(b.vs) - 1)
}

// trapezoid emits the band between ya and yb bounded by the left edge
// (la at ya, lb at yb) and the right edge (ra, rb).
func (b *meshBuilder) trapezoid(ya, yb, la, ra, lb, rb float64) {
	if ra-la < eps && rb-lb < eps {
		return
	}
	i0 := b.vertex(la, ya, 1)
	i1 := b.vertex(ra, ya, 1)
	i2 := b.vertex(rb, yb, 1)
	i3 := b.vertex(lb, yb, 1)
	if ra-la >= eps {
		b.idx = append(b.idx, i0, i1, i2)
	}
	if rb-lb >= eps {
		b.idx = append(b.idx, i0, i2, i3)
	}
}

func (b *meshBuilder) mesh() Mesh {
	if len(b.idx) == 0 {
		return Mesh{}
	}
	return Mesh{Vertices: b.vs, Indices: b.idx}
}
