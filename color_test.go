package gv

import (
	"image/color"
	"math"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#ff0000", Red},
		{"00ff00", Green},
		{"#00f", Blue},
		{"#ffffff80", NRGBA(1, 1, 1, 128.0/255)},
		{"fff0", NRGBA(1, 1, 1, 0)},
		{"#12", Black},
		{"zzzzzz", Black},
		{"", Black},
	}
	for _, tt := range tests {
		if got := Hex(tt.in); got != tt.want {
			t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorRoundTrip(t *testing.T) {
	c := FromColor(color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	got := c.Color().(color.NRGBA)
	if got != (color.NRGBA{R: 10, G: 20, B: 30, A: 40}) {
		t.Errorf("round trip = %v", got)
	}
	if got := NRGBA(2, -1, 0.5, 1).Color().(color.NRGBA); got.R != 255 || got.G != 0 {
		t.Errorf("out of range components not clamped: %v", got)
	}
}

func TestLerpAndAlpha(t *testing.T) {
	mid := Black.Lerp(White, 0.5)
	if math.Abs(mid.R-0.5) > 1e-12 || mid.A != 1 {
		t.Errorf("Lerp = %v", mid)
	}
	if a := Red.WithAlpha(0.25); a.A != 0.25 || a.R != 1 {
		t.Errorf("WithAlpha = %v", a)
	}
}
