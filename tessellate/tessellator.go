package tessellate

import (
	"fmt"
	"math"

	"github.com/gogpu/gv/geom"
)

// DefaultTolerance is the flattening tolerance in device pixels.
const DefaultTolerance = 0.25

// Tessellator is the default Service.
type Tessellator struct {
	// Tolerance is the maximum distance between a curve and its
	// flattened lines. Zero selects DefaultTolerance.
	Tolerance float64

	// Feather is the width of the anti-aliasing fringe in device pixels.
	// Zero disables it.
	Feather float64
}

// New returns a Tessellator with the default tolerance and no feather.
func New() *Tessellator {
	return &Tessellator{Tolerance: DefaultTolerance}
}

func (t *Tessellator) tolerance() float64 {
	if t == nil || t.Tolerance <= 0 {
		return DefaultTolerance
	}
	return t.Tolerance
}

// Fill implements Service.
func (t *Tessellator) Fill(segs []Segment, rule FillRule) (Mesh, error) {
	if rule > EvenOdd {
		return Mesh{}, fmt.Errorf("tessellate: unknown fill rule %d", rule)
	}
	if err := checkFinite(segs); err != nil {
		return Mesh{}, err
	}
	var contours [][]geom.Point
	for _, l := range flatten(segs, t.tolerance()) {
		if len(l.pts) >= 3 {
			contours = append(contours, l.pts)
		}
	}
	return t.finish(contours, rule), nil
}

// Stroke implements Service.
func (t *Tessellator) Stroke(segs []Segment, style StrokeStyle) (Mesh, error) {
	if err := checkFinite(segs); err != nil {
		return Mesh{}, err
	}
	polys, err := strokePolygons(flatten(segs, t.tolerance()), style, t.tolerance())
	if err != nil {
		return Mesh{}, err
	}
	return t.finish(polys, NonZero), nil
}

func (t *Tessellator) finish(contours [][]geom.Point, rule FillRule) Mesh {
	m := fillContours(contours, rule)
	if m.Empty() {
		return Mesh{}
	}
	if t != nil && t.Feather > 0 {
		m = feather(m, contours, rule, t.Feather)
	}
	return m
}

func checkFinite(segs []Segment) error {
	for _, s := range segs {
		for i := 0; i < s.Verb.PointCount(); i++ {
			p := s.P[i]
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				return fmt.Errorf("tessellate: non-finite point %v in %v segment", p, s.Verb)
			}
		}
	}
	return nil
}

var _ Service = (*Tessellator)(nil)
