package tess

import (
	"testing"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/tessellate"
)

func TestFillSquare(t *testing.T) {
	p := geom.NewPath()
	p.Rectangle(0, 0, 10, 10)

	a := New(nil, 0)
	m, err := a.Fill(p, geom.Identity(), tessellate.NonZero, Paint{Color: [4]float32{1, 0, 0, 1}, ClipDepth: 3})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(m.Vertices) != 4 || len(m.Indices) != 6 {
		t.Fatalf("got %d vertices / %d indices, want 4 / 6", len(m.Vertices), len(m.Indices))
	}
	for i, v := range m.Vertices {
		if v.Color != [4]uint8{255, 0, 0, 255} {
			t.Errorf("vertex %d color = %v", i, v.Color)
		}
		if v.ClipDepth != 3 {
			t.Errorf("vertex %d clip depth = %d, want 3", i, v.ClipDepth)
		}
	}
}

func TestFillEmpty(t *testing.T) {
	a := New(nil, 0)
	tests := []struct {
		name string
		path func() *geom.Path
	}{
		{"no verbs", geom.NewPath},
		{"single point", func() *geom.Path {
			p := geom.NewPath()
			p.MoveTo(1, 1)
			return p
		}},
		{"collinear", func() *geom.Path {
			p := geom.NewPath()
			p.MoveTo(0, 0)
			p.LineTo(5, 5)
			p.LineTo(10, 10)
			p.Close()
			return p
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := a.Fill(tt.path(), geom.Identity(), tessellate.NonZero, Paint{Color: [4]float32{1, 1, 1, 1}})
			if err != nil {
				t.Fatalf("Fill: %v", err)
			}
			if !m.Empty() {
				t.Errorf("got %d indices, want empty mesh", len(m.Indices))
			}
		})
	}
}

func TestFillTransform(t *testing.T) {
	p := geom.NewPath()
	p.Rectangle(0, 0, 10, 10)

	m, err := New(nil, 0).Fill(p, geom.Translate(5, 7).Multiply(geom.Scale(2, 2)), tessellate.NonZero, Paint{Color: [4]float32{0, 0, 0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	minX, minY := float32(1e9), float32(1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	for _, v := range m.Vertices {
		minX, maxX = min(minX, v.X), max(maxX, v.X)
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
	}
	if minX != 5 || minY != 7 || maxX != 25 || maxY != 27 {
		t.Errorf("bounds = (%v,%v)-(%v,%v), want (5,7)-(25,27)", minX, minY, maxX, maxY)
	}
}

func TestPremultiply(t *testing.T) {
	tests := []struct {
		c    [4]float32
		cov  float32
		want [4]uint8
	}{
		{[4]float32{1, 1, 1, 1}, 1, [4]uint8{255, 255, 255, 255}},
		{[4]float32{1, 0, 0, 0.5}, 1, [4]uint8{128, 0, 0, 128}},
		{[4]float32{1, 1, 1, 1}, 0, [4]uint8{0, 0, 0, 0}},
		{[4]float32{2, -1, 0, 1}, 1, [4]uint8{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		if got := premultiply(tt.c, tt.cov); got != tt.want {
			t.Errorf("premultiply(%v, %v) = %v, want %v", tt.c, tt.cov, got, tt.want)
		}
	}
}

func TestPatternUV(t *testing.T) {
	p := geom.NewPath()
	p.Rectangle(0, 0, 10, 20)
	paint := Paint{
		Color:   [4]float32{1, 1, 1, 1},
		Pattern: &Pattern{Rect: geom.XYWH(0, 0, 10, 20), U0: 0.25, V0: 0.5, U1: 0.75, V1: 1},
	}
	m, err := New(nil, 0).Fill(p, geom.Scale(3, 3), tessellate.NonZero, paint)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range m.Vertices {
		wantU := float32(0.25)
		if v.X > 0 {
			wantU = 0.75
		}
		wantV := float32(0.5)
		if v.Y > 0 {
			wantV = 1
		}
		if v.U != wantU || v.V != wantV {
			t.Errorf("vertex (%v,%v) uv = (%v,%v), want (%v,%v)", v.X, v.Y, v.U, v.V, wantU, wantV)
		}
	}
}

func TestStrokeScalesWidth(t *testing.T) {
	p := geom.NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	style := tessellate.StrokeStyle{Width: 2, Cap: tessellate.CapButt, Join: tessellate.JoinMiter, MiterLimit: 4}

	m, err := New(nil, 0).Stroke(p, geom.Scale(2, 2), style, Paint{Color: [4]float32{1, 1, 1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	minY, maxY := float32(1e9), float32(-1e9)
	for _, v := range m.Vertices {
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
	}
	if minY != -2 || maxY != 2 {
		t.Errorf("stroke y extent = [%v, %v], want [-2, 2]", minY, maxY)
	}
}

func TestQuad(t *testing.T) {
	m := Rect(geom.XYWH(1, 2, 3, 4), geom.Identity(), geom.XYWH(0, 0, 0.5, 0.5), Paint{Color: [4]float32{1, 1, 1, 1}, ClipDepth: 1})
	if len(m.Vertices) != 4 || len(m.Indices) != 6 {
		t.Fatalf("got %d/%d, want 4/6", len(m.Vertices), len(m.Indices))
	}
	if v := m.Vertices[2]; v.X != 4 || v.Y != 6 || v.U != 0.5 || v.V != 0.5 {
		t.Errorf("bottom-right vertex = %+v", v)
	}
	if !Rect(geom.Rect{}, geom.Identity(), geom.Rect{}, Paint{}).Empty() {
		t.Error("empty rect produced geometry")
	}
}

func TestAppend(t *testing.T) {
	var m Mesh
	q := Quad([4]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, geom.Rect{}, Paint{})
	m.Append(q)
	m.Append(q)
	if m.Indices[6] != 4 || m.Indices[11] != 7 {
		t.Errorf("second quad indices = %v, want rebased by 4", m.Indices[6:])
	}
}

func TestTessellateDispatch(t *testing.T) {
	p := geom.NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	a := New(nil, 0.1)

	filled, err := a.Tessellate(p, geom.Identity(), Style{}, Paint{})
	if err != nil {
		t.Fatal(err)
	}
	if !filled.Empty() {
		t.Errorf("filling an open line produced %d indices", len(filled.Indices))
	}

	stroked, err := a.Tessellate(p, geom.Identity(), Style{Stroke: &tessellate.StrokeStyle{Width: 1, MiterLimit: 4}}, Paint{})
	if err != nil {
		t.Fatal(err)
	}
	if stroked.Empty() {
		t.Error("stroking a line produced no geometry")
	}
}

func TestFillSolidDropsFringe(t *testing.T) {
	p := geom.NewPath()
	p.Rectangle(10, 10, 10, 10)
	a := New(&tessellate.Tessellator{Feather: 1}, 0)

	full, err := a.Fill(p, geom.Identity(), tessellate.NonZero, Paint{Color: [4]float32{1, 1, 1, 1}})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	solid, err := a.FillSolid(p, geom.Identity(), tessellate.NonZero, Paint{Color: [4]float32{1, 1, 1, 1}})
	if err != nil {
		t.Fatalf("FillSolid: %v", err)
	}
	if len(solid.Indices) >= len(full.Indices) {
		t.Fatalf("FillSolid kept %d indices, Fill has %d; want the fringe dropped", len(solid.Indices), len(full.Indices))
	}
	for _, i := range solid.Indices {
		v := solid.Vertices[i]
		if v.X < 10 || v.X > 20 || v.Y < 10 || v.Y > 20 {
			t.Errorf("vertex (%v,%v) outside the shape", v.X, v.Y)
		}
		if v.Color[3] != 255 {
			t.Errorf("vertex (%v,%v) alpha = %d, want 255", v.X, v.Y, v.Color[3])
		}
	}
}
