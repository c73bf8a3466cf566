package text

import (
	"fmt"
	"unicode"
)

type span struct {
	start, end int
	face       *Face
	deco       Decoration
}

type lineRange struct {
	start, end int
}

// LayoutBuilder accumulates styled text and lays it out.
//
//	layout, err := text.NewLayoutBuilder(shaper, face).
//		MaxWidth(200).
//		Text("Hello, ").
//		Span("world", bold, text.Underline).
//		Build()
//
// Paragraphs are separated by '\n'. With a positive MaxWidth, lines break
// greedily after white space, or inside a word that alone is wider than
// the limit.
type LayoutBuilder struct {
	shaper   Shaper
	face     *Face
	maxWidth float64
	align    Alignment
	base     Direction
	lang     string
	spacing  float64

	text  []rune
	spans []span
}

// NewLayoutBuilder returns a builder shaping with shaper. face is used for
// text added without one and may be nil if every span names its face.
func NewLayoutBuilder(shaper Shaper, face *Face) *LayoutBuilder {
	return &LayoutBuilder{shaper: shaper, face: face, spacing: 1}
}

// MaxWidth sets the wrap width. Zero or less disables wrapping.
func (b *LayoutBuilder) MaxWidth(w float64) *LayoutBuilder {
	b.maxWidth = w
	return b
}

// Align sets the line alignment.
func (b *LayoutBuilder) Align(a Alignment) *LayoutBuilder {
	b.align = a
	return b
}

// Direction sets the base paragraph direction.
func (b *LayoutBuilder) Direction(d Direction) *LayoutBuilder {
	b.base = d
	return b
}

// Language sets the BCP 47 language passed to the shaper.
func (b *LayoutBuilder) Language(tag string) *LayoutBuilder {
	b.lang = tag
	return b
}

// LineSpacing scales the baseline-to-baseline distance. Values <= 0
// select 1.
func (b *LayoutBuilder) LineSpacing(f float64) *LayoutBuilder {
	if f <= 0 {
		f = 1
	}
	b.spacing = f
	return b
}

// Text appends s in the default face without decoration.
func (b *LayoutBuilder) Text(s string) *LayoutBuilder {
	return b.Span(s, nil, 0)
}

// Span appends s in face with decoration deco. A nil face selects the
// builder's default.
func (b *LayoutBuilder) Span(s string, face *Face, deco Decoration) *LayoutBuilder {
	start := len(b.text)
	b.text = append(b.text, []rune(s)...)
	if len(b.text) > start {
		b.spans = append(b.spans, span{start: start, end: len(b.text), face: face, deco: deco})
	}
	return b
}

// Build shapes and positions the accumulated text.
func (b *LayoutBuilder) Build() (*Layout, error) {
	if b.shaper == nil {
		return nil, ErrNoShaper
	}
	for i := range b.spans {
		if b.spans[i].face == nil {
			if b.face == nil {
				return nil, ErrNoFace
			}
			b.spans[i].face = b.face
		}
	}

	layout := &Layout{Text: b.text}
	var y float64
	for _, para := range b.paragraphs() {
		ranges, err := b.wrap(para)
		if err != nil {
			return nil, err
		}
		for _, r := range ranges {
			line, err := b.line(r)
			if err != nil {
				return nil, err
			}
			line.Top = y
			line.Baseline = y + line.Metrics.Ascent
			for i := range line.Runs {
				line.Runs[i].Baseline = line.Baseline
			}
			y += line.Metrics.LineHeight() * b.spacing
			layout.Width = max(layout.Width, line.Width)
			layout.Lines = append(layout.Lines, line)
		}
	}
	layout.Height = y
	b.alignLines(layout)

	slogger().Debug("text: layout built", "runes", len(b.text), "lines", len(layout.Lines))
	return layout, nil
}

func (b *LayoutBuilder) paragraphs() []lineRange {
	if len(b.text) == 0 {
		return nil
	}
	var out []lineRange
	start := 0
	for i, r := range b.text {
		if r == '\n' {
			out = append(out, lineRange{start, i})
			start = i + 1
		}
	}
	return append(out, lineRange{start, len(b.text)})
}

func (b *LayoutBuilder) wrap(para lineRange) ([]lineRange, error) {
	if b.maxWidth <= 0 || para.start == para.end {
		return []lineRange{para}, nil
	}
	adv, err := b.measure(para)
	if err != nil {
		return nil, err
	}

	var out []lineRange
	start, lastBreak := para.start, -1
	var width float64
	for i := para.start; i < para.end; i++ {
		w := adv[i-para.start]
		if unicode.IsSpace(b.text[i]) {
			width += w
			lastBreak = i + 1
			continue
		}
		if width+w > b.maxWidth && i > start {
			if lastBreak > start {
				out = append(out, lineRange{start, lastBreak})
				start = lastBreak
			} else {
				out = append(out, lineRange{start, i})
				start = i
			}
			lastBreak = -1
			width = 0
			for j := start; j < i; j++ {
				width += adv[j-para.start]
			}
		}
		width += w
	}
	return append(out, lineRange{start, para.end}), nil
}

// measure returns the advance of every rune in r. Glyph advances are
// credited to the first rune of their cluster.
func (b *LayoutBuilder) measure(r lineRange) ([]float64, error) {
	adv := make([]float64, r.end-r.start)
	for _, p := range b.pieces(r.start, r.end) {
		run, err := b.shape(p.start, p.end, p.face, b.base)
		if err != nil {
			return nil, err
		}
		for _, g := range run.Glyphs {
			if g.Cluster >= r.start && g.Cluster < r.end {
				adv[g.Cluster-r.start] += g.Advance
			}
		}
	}
	return adv, nil
}

// pieces intersects [start, end) with the spans.
func (b *LayoutBuilder) pieces(start, end int) []span {
	var out []span
	for _, s := range b.spans {
		lo, hi := max(s.start, start), min(s.end, end)
		if lo < hi {
			out = append(out, span{start: lo, end: hi, face: s.face, deco: s.deco})
		}
	}
	return out
}

func (b *LayoutBuilder) line(r lineRange) (Line, error) {
	line := Line{Start: r.start, End: r.end}
	end := r.end
	for end > r.start && unicode.IsSpace(b.text[end-1]) {
		end--
	}

	var (
		runs   []PositionedRun
		levels []int
	)
	for _, br := range bidiRuns(b.text[r.start:end], b.base) {
		for _, p := range b.pieces(r.start+br.start, r.start+br.end) {
			run, err := b.shape(p.start, p.end, p.face, br.direction())
			if err != nil {
				return Line{}, err
			}
			runs = append(runs, PositionedRun{Run: run, Decoration: p.deco})
			levels = append(levels, br.level)
		}
	}

	var x float64
	for _, k := range visualOrder(levels) {
		pr := runs[k]
		pr.X = x
		x += pr.Advance
		line.Runs = append(line.Runs, pr)
		line.Metrics = maxMetrics(line.Metrics, pr.Metrics())
	}
	line.Width = x
	if len(line.Runs) == 0 {
		if f := b.faceAt(r.start); f != nil {
			line.Metrics = f.Metrics()
		}
	}
	return line, nil
}

func (b *LayoutBuilder) shape(start, end int, face *Face, dir Direction) (Run, error) {
	run, err := b.shaper.Shape(Input{
		Text:      b.text,
		Start:     start,
		End:       end,
		Face:      face,
		Direction: dir,
		Language:  b.lang,
	})
	if err != nil {
		return Run{}, fmt.Errorf("text: shape [%d, %d): %w", start, end, err)
	}
	return run, nil
}

// faceAt returns the face of the span containing rune i, or of the
// nearest span before it.
func (b *LayoutBuilder) faceAt(i int) *Face {
	face := b.face
	for _, s := range b.spans {
		if s.start > i {
			break
		}
		face = s.face
	}
	return face
}

func (b *LayoutBuilder) alignLines(l *Layout) {
	box := l.Width
	if b.maxWidth > 0 {
		box = b.maxWidth
	}
	align := b.align
	if b.base == RightToLeft {
		switch align {
		case AlignStart:
			align = AlignEnd
		case AlignEnd:
			align = AlignStart
		}
	}
	for i := range l.Lines {
		line := &l.Lines[i]
		var dx float64
		switch align {
		case AlignCenter:
			dx = (box - line.Width) / 2
		case AlignEnd:
			dx = box - line.Width
		}
		if dx == 0 {
			continue
		}
		for j := range line.Runs {
			line.Runs[j].X += dx
		}
	}
}

func maxMetrics(a, b Metrics) Metrics {
	return Metrics{
		Ascent:                 max(a.Ascent, b.Ascent),
		Descent:                max(a.Descent, b.Descent),
		LineGap:                max(a.LineGap, b.LineGap),
		UnderlineOffset:        max(a.UnderlineOffset, b.UnderlineOffset),
		UnderlineThickness:     max(a.UnderlineThickness, b.UnderlineThickness),
		StrikethroughOffset:    min(a.StrikethroughOffset, b.StrikethroughOffset),
		StrikethroughThickness: max(a.StrikethroughThickness, b.StrikethroughThickness),
	}
}
