package geom

import (
	"math"
	"testing"
)

func TestPathWalk(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.QuadTo(15, 5, 10, 10)
	p.CubicTo(8, 12, 2, 12, 0, 10)
	p.Close()

	want := []Verb{VerbMove, VerbLine, VerbQuad, VerbCubic, VerbClose}
	var got []Verb
	var npts int
	p.Walk(func(v Verb, pts []Point) bool {
		got = append(got, v)
		npts += len(pts)
		if len(pts) != v.PointCount() {
			t.Errorf("%v got %d points, want %d", v, len(pts), v.PointCount())
		}
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("verbs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("verb[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if npts != 7 {
		t.Errorf("points = %d, want 7", npts)
	}
}

func TestPathImplicitMove(t *testing.T) {
	p := NewPath()
	p.LineTo(5, 5)
	if p.Verbs()[0] != VerbMove {
		t.Fatalf("first verb = %v, want move", p.Verbs()[0])
	}

	p.Close()
	p.LineTo(1, 1)
	vs := p.Verbs()
	if vs[len(vs)-2] != VerbMove {
		t.Errorf("line after close should reopen with a move, got %v", vs)
	}
}

func TestPathTransformAndBounds(t *testing.T) {
	p := NewPath()
	p.Rectangle(0, 0, 10, 20)
	q := p.Transform(Translate(5, 5).Multiply(Scale(2, 2)))

	b := q.Bounds()
	want := XYWH(5, 5, 20, 40)
	if b != want {
		t.Errorf("Bounds = %v, want %v", b, want)
	}
	if p.Bounds() != XYWH(0, 0, 10, 20) {
		t.Errorf("Transform mutated the source path")
	}
}

func TestCircleBounds(t *testing.T) {
	p := NewPath()
	p.Circle(50, 50, 10)
	b := p.Bounds()
	if math.Abs(b.Min.X-40) > 1e-9 || math.Abs(b.Max.Y-60) > 1e-9 {
		t.Errorf("circle bounds = %v", b)
	}
}

func TestMatrix(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(1, 2), Pt(3, 4), Pt(4, 6)},
		{"scale", Scale(2, 3), Pt(3, 4), Pt(6, 12)},
		{"rotate90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		{"scale then translate", Translate(10, 0).Multiply(Scale(2, 2)), Pt(1, 1), Pt(12, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Apply(tt.in)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(3, -2).Multiply(Rotate(0.7)).Multiply(Scale(2, 0.5))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert reported singular matrix")
	}
	p := Pt(7, 11)
	got := inv.Apply(m.Apply(p))
	if math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 {
		t.Errorf("round trip = %v, want %v", got, p)
	}

	if _, ok := Scale(0, 1).Invert(); ok {
		t.Error("Invert of singular matrix reported ok")
	}
}

func TestRectIntersect(t *testing.T) {
	a := XYWH(0, 0, 10, 10)
	b := XYWH(5, 5, 10, 10)
	if got := a.Intersect(b); got != XYWH(5, 5, 5, 5) {
		t.Errorf("Intersect = %v", got)
	}
	if got := a.Intersect(XYWH(20, 20, 1, 1)); !got.Empty() {
		t.Errorf("disjoint Intersect = %v, want empty", got)
	}
}
