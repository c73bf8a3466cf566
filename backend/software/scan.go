package software

import "math"

// edge is a non-horizontal triangle side normalized to point down.
type edge struct {
	yMin, yMax float32
	xAtYMin    float32
	dxdy       float32
}

func newEdge(x0, y0, x1, y1 float32) (edge, bool) {
	if y0 > y1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}
	dy := y1 - y0
	if dy <= 0 {
		return edge{}, false
	}
	return edge{yMin: y0, yMax: y1, xAtYMin: x0, dxdy: (x1 - x0) / dy}, true
}

func (e edge) xAt(y float32) float32 {
	return e.xAtYMin + (y-e.yMin)*e.dxdy
}

// activeAt reports whether a scanline at y crosses the edge. The range is
// half-open so a vertex shared by two edges is counted once.
func (e edge) activeAt(y float32) bool {
	return y >= e.yMin && y < e.yMax
}

// scanTriangle calls span for every row of pixels whose centers fall inside
// the triangle, with the half-open column range [x0, x1). Rows and columns
// are limited to [0, w) x [0, h).
//
// Pixel centers on a shared edge belong to exactly one of the two
// triangles, so a mesh never covers a pixel twice.
func scanTriangle(p [3][2]float32, w, h int, span func(y, x0, x1 int)) {
	var edges [3]edge
	n := 0
	minY, maxY := p[0][1], p[0][1]
	for i := range 3 {
		a, b := p[i], p[(i+1)%3]
		if e, ok := newEdge(a[0], a[1], b[0], b[1]); ok {
			edges[n] = e
			n++
		}
		minY = min(minY, a[1])
		maxY = max(maxY, a[1])
	}
	if n < 2 {
		return
	}

	y0 := max(0, int(math.Ceil(float64(minY)-0.5)))
	y1 := min(h, int(math.Ceil(float64(maxY)-0.5)))
	for y := y0; y < y1; y++ {
		cy := float32(y) + 0.5
		var xs [2]float32
		k := 0
		for _, e := range edges[:n] {
			if e.activeAt(cy) && k < 2 {
				xs[k] = e.xAt(cy)
				k++
			}
		}
		if k != 2 {
			continue
		}
		if xs[0] > xs[1] {
			xs[0], xs[1] = xs[1], xs[0]
		}
		x0 := max(0, int(math.Ceil(float64(xs[0])-0.5)))
		x1 := min(w, int(math.Ceil(float64(xs[1])-0.5)))
		if x0 < x1 {
			span(y, x0, x1)
		}
	}
}
