package text

import (
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// GoTextShaper shapes with the HarfBuzz port from go-text/typesetting:
// ligatures, kerning, mark positioning and complex scripts.
//
// GoTextShaper is safe for concurrent use. HarfbuzzShaper keeps a mutable
// buffer, so instances are pooled.
type GoTextShaper struct {
	pool sync.Pool
}

// NewGoTextShaper returns a ready shaper.
func NewGoTextShaper() *GoTextShaper {
	return &GoTextShaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Shape implements Shaper.
func (s *GoTextShaper) Shape(in Input) (Run, error) {
	if in.Face == nil {
		return Run{}, ErrNoFace
	}
	if in.Start < 0 || in.End > len(in.Text) || in.Start > in.End {
		return Run{}, fmt.Errorf("text: run [%d, %d) outside text of %d runes", in.Start, in.End, len(in.Text))
	}
	run := Run{Face: in.Face, Direction: in.Direction, Start: in.Start, End: in.End}
	if in.Start == in.End {
		return run, nil
	}

	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	dir := di.DirectionLTR
	if in.Direction == RightToLeft {
		dir = di.DirectionRTL
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(shaping.Input{
		Text:      in.Text,
		RunStart:  in.Start,
		RunEnd:    in.End,
		Direction: dir,
		Face:      in.Face.font.goTextFace(),
		Size:      floatToFixed(in.Face.size),
		Script:    detectScript(in.Text[in.Start:in.End]),
		Language:  language.NewLanguage(lang),
	})
	s.pool.Put(hb)

	run.Glyphs = make([]Glyph, len(out.Glyphs))
	var x float64
	for i, g := range out.Glyphs {
		adv := fixedToFloat(g.Advance)
		run.Glyphs[i] = Glyph{
			ID:      uint32(g.GlyphID),
			X:       x + fixedToFloat(g.XOffset),
			Y:       -fixedToFloat(g.YOffset),
			Advance: adv,
			Cluster: g.ClusterIndex,
		}
		x += adv
	}
	run.Advance = x
	return run, nil
}

// detectScript returns the script of the first rune that has one.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if s := language.LookupScript(r); s != language.Common && s != language.Inherited && s != language.Unknown {
			return s
		}
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
