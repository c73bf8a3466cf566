package gv

import "github.com/gogpu/gv/tessellate"

// LineCap is the shape of open stroke ends.
type LineCap = tessellate.LineCap

// Line caps.
const (
	CapButt   = tessellate.CapButt
	CapRound  = tessellate.CapRound
	CapSquare = tessellate.CapSquare
)

// LineJoin is the shape of stroke corners.
type LineJoin = tessellate.LineJoin

// Line joins.
const (
	JoinMiter = tessellate.JoinMiter
	JoinRound = tessellate.JoinRound
	JoinBevel = tessellate.JoinBevel
)

// Stroke describes an outline.
type Stroke struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64

	// Dash is accepted for API completeness; a non-empty pattern makes
	// StrokeStyled fail with ErrDashNotSupported.
	Dash       []float64
	DashOffset float64
}

// DefaultStroke returns a butt-capped, miter-joined stroke of width w
// with a miter limit of 10.
func DefaultStroke(w float64) Stroke {
	return Stroke{Width: w, Cap: CapButt, Join: JoinMiter, MiterLimit: 10}
}

// WithCap returns a copy with cap c.
func (s Stroke) WithCap(c LineCap) Stroke {
	s.Cap = c
	return s
}

// WithJoin returns a copy with join j.
func (s Stroke) WithJoin(j LineJoin) Stroke {
	s.Join = j
	return s
}

func (s Stroke) style() tessellate.StrokeStyle {
	return tessellate.StrokeStyle{Width: s.Width, Cap: s.Cap, Join: s.Join, MiterLimit: s.MiterLimit}
}
