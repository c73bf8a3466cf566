package text

import (
	"fmt"

	"github.com/go-text/typesetting/font"
)

// Metrics are the vertical metrics of a face in pixels. Offsets are
// relative to the baseline in y-down space, so an underline below the
// baseline has a positive offset and a strikethrough a negative one.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64

	UnderlineOffset    float64
	UnderlineThickness float64

	StrikethroughOffset    float64
	StrikethroughThickness float64
}

// LineHeight is the baseline-to-baseline distance.
func (m Metrics) LineHeight() float64 {
	return m.Ascent + m.Descent + m.LineGap
}

// Face is a font at a pixel size.
type Face struct {
	font    *Font
	size    float64
	metrics Metrics
}

func newFace(f *Font, size float64) *Face {
	return &Face{font: f, size: size, metrics: faceMetrics(f.goTextFace(), size)}
}

// Font returns the face's font.
func (f *Face) Font() *Font { return f.font }

// Size returns the size in pixels per em.
func (f *Face) Size() float64 { return f.size }

// Metrics returns the face's vertical metrics.
func (f *Face) Metrics() Metrics { return f.metrics }

func (f *Face) String() string {
	return fmt.Sprintf("%s %gpx", f.font.name, f.size)
}

func faceMetrics(face *font.Face, size float64) Metrics {
	upem := float64(face.Upem())
	if upem == 0 {
		upem = 1000
	}
	scale := size / upem

	var m Metrics
	if ext, ok := face.FontHExtents(); ok {
		m.Ascent = float64(ext.Ascender) * scale
		m.Descent = -float64(ext.Descender) * scale
		m.LineGap = float64(ext.LineGap) * scale
	} else {
		m.Ascent = 0.8 * size
		m.Descent = 0.2 * size
	}

	m.UnderlineOffset = -float64(face.LineMetric(font.UnderlinePosition)) * scale
	m.UnderlineThickness = float64(face.LineMetric(font.UnderlineThickness)) * scale
	m.StrikethroughOffset = -float64(face.LineMetric(font.StrikethroughPosition)) * scale
	m.StrikethroughThickness = float64(face.LineMetric(font.StrikethroughThickness)) * scale

	if m.UnderlineThickness <= 0 {
		m.UnderlineThickness = size / 14
	}
	if m.UnderlineOffset <= 0 {
		m.UnderlineOffset = m.Descent / 2
	}
	if m.StrikethroughThickness <= 0 {
		m.StrikethroughThickness = m.UnderlineThickness
	}
	if m.StrikethroughOffset >= 0 {
		m.StrikethroughOffset = -m.Ascent / 3
	}
	return m
}
