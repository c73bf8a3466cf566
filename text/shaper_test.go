package text

import (
	"math"
	"testing"
)

func shapeString(t *testing.T, s string, dir Direction) Run {
	t.Helper()
	runes := []rune(s)
	run, err := NewGoTextShaper().Shape(Input{
		Text:      runes,
		End:       len(runes),
		Face:      DefaultFont().Face(16),
		Direction: dir,
	})
	if err != nil {
		t.Fatalf("Shape(%q): %v", s, err)
	}
	return run
}

func TestGoTextShaperLTR(t *testing.T) {
	run := shapeString(t, "Hello", LeftToRight)
	if len(run.Glyphs) != 5 {
		t.Fatalf("got %d glyphs, want 5", len(run.Glyphs))
	}
	var sum float64
	for i, g := range run.Glyphs {
		if g.Cluster != i {
			t.Errorf("glyph %d cluster = %d", i, g.Cluster)
		}
		if g.ID == 0 {
			t.Errorf("glyph %d is .notdef", i)
		}
		if i > 0 && g.X <= run.Glyphs[i-1].X {
			t.Errorf("glyph %d x = %v does not advance", i, g.X)
		}
		sum += g.Advance
	}
	if run.Advance <= 0 || math.Abs(run.Advance-sum) > 1e-9 {
		t.Errorf("Advance = %v, sum of glyph advances = %v", run.Advance, sum)
	}
}

func TestGoTextShaperRTL(t *testing.T) {
	run := shapeString(t, "abc", RightToLeft)
	if len(run.Glyphs) != 3 {
		t.Fatalf("got %d glyphs, want 3", len(run.Glyphs))
	}
	for i, want := range []int{2, 1, 0} {
		if run.Glyphs[i].Cluster != want {
			t.Errorf("glyph %d cluster = %d, want %d", i, run.Glyphs[i].Cluster, want)
		}
	}
	if run.Direction != RightToLeft {
		t.Errorf("Direction = %v", run.Direction)
	}
}

func TestGoTextShaperSubrange(t *testing.T) {
	runes := []rune("one two")
	run, err := NewGoTextShaper().Shape(Input{Text: runes, Start: 4, End: 7, Face: DefaultFont().Face(12)})
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Glyphs) != 3 || run.Glyphs[0].Cluster != 4 {
		t.Fatalf("got %d glyphs starting at cluster %d, want 3 at 4", len(run.Glyphs), run.Glyphs[0].Cluster)
	}
}

func TestGoTextShaperErrors(t *testing.T) {
	s := NewGoTextShaper()
	if _, err := s.Shape(Input{Text: []rune("x"), End: 1}); err != ErrNoFace {
		t.Errorf("missing face: err = %v, want ErrNoFace", err)
	}
	if _, err := s.Shape(Input{Text: []rune("x"), End: 5, Face: DefaultFont().Face(12)}); err == nil {
		t.Error("out of range run accepted")
	}
	run, err := s.Shape(Input{Text: []rune("x"), Face: DefaultFont().Face(12)})
	if err != nil || len(run.Glyphs) != 0 {
		t.Errorf("empty run = %v glyphs, %v", len(run.Glyphs), err)
	}
}
