package text

import "errors"

// Sentinel errors for the text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrInvalidFont is returned when font data cannot be parsed.
	ErrInvalidFont = errors.New("text: invalid font data")

	// ErrNoFace is returned when text is added without a face and the
	// builder has no default.
	ErrNoFace = errors.New("text: no face")

	// ErrNoShaper is returned by a LayoutBuilder without a shaper.
	ErrNoShaper = errors.New("text: no shaper")

	// ErrGlyphOutline is returned when a glyph outline cannot be loaded.
	ErrGlyphOutline = errors.New("text: cannot load glyph outline")
)
