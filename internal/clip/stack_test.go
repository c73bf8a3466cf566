package clip

import (
	"errors"
	"testing"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/internal/tess"
)

func square(x, y, size float64) (tess.Mesh, geom.Rect) {
	r := geom.XYWH(x, y, size, size)
	return tess.Rect(r, geom.Identity(), geom.Rect{}, tess.Paint{}), r
}

func TestNewStack(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, MaxDepth},
		{-3, MaxDepth},
		{1000, MaxDepth},
		{4, 4},
	}
	for _, tt := range tests {
		s := NewStack(tt.in)
		if s.MaxDepth() != tt.want {
			t.Errorf("NewStack(%d).MaxDepth() = %d, want %d", tt.in, s.MaxDepth(), tt.want)
		}
		if s.Depth() != 0 {
			t.Errorf("Depth() = %d, want 0", s.Depth())
		}
		if s.Bounds() != Unbounded {
			t.Errorf("Bounds() = %v, want Unbounded", s.Bounds())
		}
	}
}

func TestPushIntersects(t *testing.T) {
	s := NewStack(0)

	tests := []struct {
		name       string
		x, y, size float64
		wantRef    uint32
		wantBounds geom.Rect
	}{
		{"outer", 10, 10, 50, 1, geom.XYWH(10, 10, 50, 50)},
		{"overlapping", 30, 30, 50, 2, geom.XYWH(30, 30, 30, 30)},
		{"disjoint", 200, 200, 10, 3, geom.Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := s.Push(square(tt.x, tt.y, tt.size))
			if err != nil {
				t.Fatalf("Push: %v", err)
			}
			if f.Ref != tt.wantRef {
				t.Errorf("Ref = %d, want %d", f.Ref, tt.wantRef)
			}
			if f.Bounds != tt.wantBounds || s.Bounds() != tt.wantBounds {
				t.Errorf("Bounds = %v, want %v", f.Bounds, tt.wantBounds)
			}
			if f.Mesh.Empty() {
				t.Error("frame lost its mesh")
			}
		})
	}
}

func TestPopRestores(t *testing.T) {
	s := NewStack(0)
	outer, _ := s.Push(square(0, 0, 100))
	inner, _ := s.Push(square(50, 50, 100))

	got, err := s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if got.Ref != inner.Ref {
		t.Errorf("popped Ref = %d, want %d", got.Ref, inner.Ref)
	}
	if s.Bounds() != outer.Bounds {
		t.Errorf("Bounds after pop = %v, want %v", s.Bounds(), outer.Bounds)
	}
	if top, ok := s.Top(); !ok || top.Ref != 1 {
		t.Errorf("Top = %v, %v; want ref 1", top.Ref, ok)
	}

	if _, err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	if s.Bounds() != Unbounded {
		t.Errorf("Bounds on empty stack = %v", s.Bounds())
	}
}

func TestPopUnderflow(t *testing.T) {
	s := NewStack(0)
	if _, err := s.Pop(); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("Pop on empty stack = %v, want ErrUnderflow", err)
	}
	if _, err := s.Push(square(0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Pop(); !errors.Is(err, ErrUnderflow) {
		t.Errorf("second Pop = %v, want ErrUnderflow", err)
	}
}

func TestDepthExceeded(t *testing.T) {
	s := NewStack(2)
	for i := 0; i < 2; i++ {
		if _, err := s.Push(square(0, 0, 10)); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	before := s.Bounds()
	if _, err := s.Push(square(5, 5, 10)); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("Push past limit = %v, want ErrDepthExceeded", err)
	}
	if s.Depth() != 2 || s.Bounds() != before {
		t.Errorf("stack mutated by failed push: depth %d bounds %v", s.Depth(), s.Bounds())
	}
}

func TestReset(t *testing.T) {
	s := NewStack(0)
	for i := 0; i < 5; i++ {
		s.Push(square(0, 0, 10))
	}
	s.Reset()
	if s.Depth() != 0 {
		t.Errorf("Depth after Reset = %d", s.Depth())
	}
	if _, err := s.Pop(); !errors.Is(err, ErrUnderflow) {
		t.Errorf("Pop after Reset = %v", err)
	}
}
