package text

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var nextFontID atomic.Uint64

// Font is a parsed font file. It is safe for concurrent use and should be
// shared: every Face of it shares the parsed tables and the cache keys of
// its glyphs.
type Font struct {
	id   uint64
	name string

	shaping *font.Font
	outline *sfnt.Font

	// buf is the sfnt scratch buffer; sfnt.Buffer is not safe for
	// concurrent use.
	mu  sync.Mutex
	buf sfnt.Buffer
}

// ParseFont parses TrueType or OpenType data. The data is not retained
// beyond the parsed tables.
func ParseFont(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	outline, err := sfnt.Parse(bytes.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}

	f := &Font{
		id:      nextFontID.Add(1),
		shaping: face.Font,
		outline: outline,
	}
	if name, err := outline.Name(&f.buf, sfnt.NameIDFamily); err == nil {
		f.name = name
	}
	return f, nil
}

var (
	defaultFontOnce sync.Once
	defaultFont     *Font
)

// DefaultFont returns Go Regular, parsed once.
func DefaultFont() *Font {
	defaultFontOnce.Do(func() {
		f, err := ParseFont(goregular.TTF)
		if err != nil {
			panic("text: embedded Go Regular font is invalid: " + err.Error())
		}
		defaultFont = f
	})
	return defaultFont
}

// ID identifies the font in glyph cache keys. IDs are unique within the
// process.
func (f *Font) ID() uint64 { return f.id }

// Name returns the family name, or "" when the font has none.
func (f *Font) Name() string { return f.name }

// Face returns a face of f at size pixels per em.
func (f *Font) Face(size float64) *Face {
	return newFace(f, size)
}

// loadGlyph returns the y-down outline of glyph at size pixels per em.
// The returned segments are owned by the caller.
func (f *Font) loadGlyph(glyph uint32, size float64) (sfnt.Segments, error) {
	if glyph > math.MaxUint16 {
		return nil, fmt.Errorf("%w: glyph %d out of range", ErrGlyphOutline, glyph)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	segs, err := f.outline.LoadGlyph(&f.buf, sfnt.GlyphIndex(glyph), fixed.Int26_6(size*64), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: glyph %d: %v", ErrGlyphOutline, glyph, err)
	}
	return append(sfnt.Segments(nil), segs...), nil
}

// goTextFace returns a new go-text face. font.Face caches per-call state
// and must not be shared between goroutines.
func (f *Font) goTextFace() *font.Face {
	return font.NewFace(f.shaping)
}
