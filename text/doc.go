// Package text shapes strings into positioned glyph runs and rasterizes
// glyph outlines for the atlas.
//
// The pieces are:
//
//   - Font and Face: a parsed font file and a face of it at a pixel size,
//     with the line and decoration metrics of that size.
//   - Shaper: turns one directional run of text into glyphs. GoTextShaper
//     implements it with the HarfBuzz port from go-text/typesetting.
//   - LayoutBuilder: splits text into paragraphs and bidi runs, wraps
//     lines to a width and positions every run on its baseline.
//   - GlyphRasterizer: renders one glyph to a coverage bitmap.
//     OutlineRasterizer scan-converts sfnt outlines.
//
// Coordinates are y-down with the baseline at y = 0 for glyphs and the
// top-left corner of the first line at the origin for layouts.
package text
