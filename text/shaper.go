package text

// Direction is the progression of a run.
type Direction uint8

const (
	// LeftToRight is the default direction.
	LeftToRight Direction = iota
	// RightToLeft is used for Arabic, Hebrew and similar scripts.
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// Input is one run of text in a single face and direction.
type Input struct {
	// Text is the paragraph the run belongs to. Only Text[Start:End] is
	// shaped; the rest is context.
	Text       []rune
	Start, End int

	Face      *Face
	Direction Direction

	// Language is a BCP 47 tag. Empty selects "en".
	Language string
}

// Glyph is a positioned glyph. X and Y are relative to the run origin on
// the baseline, y-down.
type Glyph struct {
	ID      uint32
	X, Y    float64
	Advance float64

	// Cluster is the index in Input.Text of the first rune the glyph
	// belongs to.
	Cluster int
}

// Run is a shaped run. Glyphs are in visual order, left to right.
type Run struct {
	Face      *Face
	Direction Direction
	Glyphs    []Glyph
	Advance   float64

	// Start and End are the rune range the run was shaped from.
	Start, End int
}

// Metrics returns the run face's metrics.
func (r *Run) Metrics() Metrics {
	if r.Face == nil {
		return Metrics{}
	}
	return r.Face.Metrics()
}

// Shaper converts runs of text into glyphs.
type Shaper interface {
	Shape(in Input) (Run, error)
}
