package geom

import "math"

// Matrix is a 2D affine transformation in row-major order:
//
//	| A  B  C |
//	| D  E  F |
//
// mapping (x, y) to (A*x + B*y + C, D*x + E*y + F).
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate returns a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale returns a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate returns a rotation matrix (angle in radians, clockwise in y-down space).
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns m * other: other is applied first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// ApplyVector transforms a vector, ignoring translation.
func (m Matrix) ApplyVector(p Point) Point {
	return Point{X: m.A*p.X + m.B*p.Y, Y: m.D*p.X + m.E*p.Y}
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

// Invert returns the inverse and whether the matrix was invertible.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	inv := 1 / det
	return Matrix{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}, true
}

// MeanScale returns the geometric mean of the axis scale factors. Stroke
// widths are multiplied by it when a path is transformed before stroking.
func (m Matrix) MeanScale() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// IsIdentity reports whether m is the identity.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// IsAxisAligned reports whether m maps axis-aligned rectangles to
// axis-aligned rectangles.
func (m Matrix) IsAxisAligned() bool {
	return (m.B == 0 && m.D == 0) || (m.A == 0 && m.E == 0)
}

// ApplyRect returns the bounding box of r after transformation.
func (m Matrix) ApplyRect(r Rect) Rect {
	c := r.Corners()
	out := Rect{Min: m.Apply(c[0]), Max: m.Apply(c[0])}
	for _, p := range c[1:] {
		q := m.Apply(p)
		out.Min.X = math.Min(out.Min.X, q.X)
		out.Min.Y = math.Min(out.Min.Y, q.Y)
		out.Max.X = math.Max(out.Max.X, q.X)
		out.Max.Y = math.Max(out.Max.Y, q.Y)
	}
	return out
}
