package text

import "github.com/gogpu/gv/geom"

// Decoration is a set of lines drawn with a run.
type Decoration uint8

const (
	// Underline is drawn below the baseline before the run's glyphs.
	Underline Decoration = 1 << iota
	// Strikethrough is drawn through the run after its glyphs.
	Strikethrough
)

// Has reports whether d includes all of o.
func (d Decoration) Has(o Decoration) bool { return d&o == o }

// Alignment positions lines inside the layout width.
type Alignment uint8

const (
	// AlignStart aligns lines to the left edge, or the right edge for a
	// right-to-left base direction.
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

// PositionedRun is a shaped run placed in a layout.
type PositionedRun struct {
	Run

	// X is the left edge of the run and Baseline its baseline, both
	// relative to the layout origin.
	X, Baseline float64

	Decoration Decoration
}

// DecorationRect returns the rectangle of decoration d (Underline or
// Strikethrough) relative to the layout origin.
func (r *PositionedRun) DecorationRect(d Decoration) geom.Rect {
	m := r.Metrics()
	offset, thickness := m.UnderlineOffset, m.UnderlineThickness
	if d == Strikethrough {
		offset, thickness = m.StrikethroughOffset, m.StrikethroughThickness
	}
	top := r.Baseline + offset - thickness/2
	return geom.XYWH(r.X, top, r.Advance, thickness)
}

// Line is one laid-out line. Runs are in visual order.
type Line struct {
	Runs []PositionedRun

	// Start and End are the rune range of the line in Layout.Text.
	Start, End int

	// Top is the top of the line box and Baseline the baseline, both
	// relative to the layout origin.
	Top, Baseline float64

	Width   float64
	Metrics Metrics
}

// Layout is positioned text ready to draw. The origin is the top-left
// corner of the first line box.
type Layout struct {
	Text  []rune
	Lines []Line

	Width, Height float64
}

// Bounds returns the layout box.
func (l *Layout) Bounds() geom.Rect {
	return geom.XYWH(0, 0, l.Width, l.Height)
}

// GlyphCount returns the total number of glyphs.
func (l *Layout) GlyphCount() int {
	n := 0
	for i := range l.Lines {
		for j := range l.Lines[i].Runs {
			n += len(l.Lines[i].Runs[j].Glyphs)
		}
	}
	return n
}
