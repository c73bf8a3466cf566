package geom

import "math"

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498307936

// Rectangle adds a closed axis-aligned rectangle.
func (p *Path) Rectangle(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Ellipse adds a closed ellipse built from four cubic curves.
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	ox, oy := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.Close()
}

// Circle adds a closed circle.
func (p *Path) Circle(cx, cy, r float64) {
	p.Ellipse(cx, cy, r, r)
}

// Arc adds a circular arc from angle1 to angle2 (radians). When the path
// has an open subpath the arc is connected to it with a line.
func (p *Path) Arc(cx, cy, r, angle1, angle2 float64) {
	for angle2 < angle1 {
		angle2 += 2 * math.Pi
	}
	n := int(math.Ceil((angle2 - angle1) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := (angle2 - angle1) / float64(n)

	sin, cos := math.Sincos(angle1)
	x0, y0 := cx+r*cos, cy+r*sin
	if p.open {
		p.LineTo(x0, y0)
	} else {
		p.MoveTo(x0, y0)
	}
	for i := 0; i < n; i++ {
		a1 := angle1 + float64(i)*step
		p.arcSegment(cx, cy, r, a1, a1+step)
	}
}

// arcSegment appends one cubic approximating an arc of at most 90 degrees.
func (p *Path) arcSegment(cx, cy, r, a1, a2 float64) {
	t := math.Tan((a2 - a1) / 2)
	alpha := math.Sin(a2-a1) * (math.Sqrt(4+3*t*t) - 1) / 3

	sin1, cos1 := math.Sincos(a1)
	sin2, cos2 := math.Sincos(a2)
	x1, y1 := cx+r*cos1, cy+r*sin1
	x2, y2 := cx+r*cos2, cy+r*sin2

	p.CubicTo(
		x1-alpha*r*sin1, y1+alpha*r*cos1,
		x2+alpha*r*sin2, y2-alpha*r*cos2,
		x2, y2,
	)
}

// RoundedRectangle adds a rectangle with corners of radius r, clamped to
// half the shorter side.
func (p *Path) RoundedRectangle(x, y, w, h, r float64) {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		p.Rectangle(x, y, w, h)
		return
	}
	p.MoveTo(x+r, y)
	p.Arc(x+w-r, y+r, r, -math.Pi/2, 0)
	p.Arc(x+w-r, y+h-r, r, 0, math.Pi/2)
	p.Arc(x+r, y+h-r, r, math.Pi/2, math.Pi)
	p.Arc(x+r, y+r, r, math.Pi, 3*math.Pi/2)
	p.Close()
}

// RectPath returns a new path holding a single rectangle.
func RectPath(r Rect) *Path {
	p := NewPath()
	p.Rectangle(r.Min.X, r.Min.Y, r.Width(), r.Height())
	return p
}
