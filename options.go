package gv

import (
	"github.com/gogpu/gv/internal/batch"
	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/internal/clip"
	"github.com/gogpu/gv/raster"
	"github.com/gogpu/gv/tessellate"
	"github.com/gogpu/gv/text"
)

// Option configures a Renderer.
//
// Example:
//
//	r, err := gv.NewRenderer(backend,
//	    gv.WithTolerance(0.1),
//	    gv.WithAntialias(true),
//	)
type Option func(*options)

// AtlasConfig controls the shared glyph and image atlas.
type AtlasConfig struct {
	// InitialSize is the side of the atlas texture in texels.
	InitialSize int

	// MaxSize caps atlas growth. Zero means the backend's maximum texture
	// dimension.
	MaxSize int

	// Padding is the transparent border around every entry.
	Padding int

	// AllowGrow lets the atlas double when eviction cannot make room.
	AllowGrow bool

	// RetainPixels keeps CPU copies of atlas entries so growth can
	// re-upload them without rasterizing again.
	RetainPixels bool
}

// DefaultAtlasConfig returns a 1024x1024 growable atlas.
func DefaultAtlasConfig() AtlasConfig {
	d := cache.DefaultConfig()
	return AtlasConfig{
		InitialSize:  d.InitialSize,
		MaxSize:      d.MaxSize,
		Padding:      d.Padding,
		AllowGrow:    d.AllowGrow,
		RetainPixels: d.RetainPixels,
	}
}

func (c AtlasConfig) cacheConfig() cache.Config {
	return cache.Config{
		InitialSize:  c.InitialSize,
		MaxSize:      c.MaxSize,
		Padding:      c.Padding,
		AllowGrow:    c.AllowGrow,
		RetainPixels: c.RetainPixels,
	}
}

// DefaultMaxImageAtlasSize is the largest image side stored in the
// shared atlas. Larger images get a texture of their own.
const DefaultMaxImageAtlasSize = 256

type options struct {
	atlas           AtlasConfig
	tolerance       float64
	maxClipDepth    int
	antialias       bool
	batchLimits     batch.Limits
	maxImageAtlas   int
	shaper          text.Shaper
	tessellator     tessellate.Service
	glyphRasterizer text.GlyphRasterizer
	imageRasterizer raster.ImageRasterizer
}

func defaultOptions() options {
	return options{
		atlas:         DefaultAtlasConfig(),
		tolerance:     tessellate.DefaultTolerance,
		maxClipDepth:  clip.MaxDepth,
		maxImageAtlas: DefaultMaxImageAtlasSize,
	}
}

func (o *options) validate() error {
	if o.tolerance <= 0 {
		return &ConfigError{Field: "tolerance", Reason: "must be positive"}
	}
	if o.maxClipDepth < 1 || o.maxClipDepth > clip.MaxDepth {
		return &ConfigError{Field: "max clip depth", Reason: "must be in [1, 255]"}
	}
	if o.batchLimits.MaxVertices < 0 || o.batchLimits.MaxIndices < 0 {
		return &ConfigError{Field: "batch limits", Reason: "must not be negative"}
	}
	if o.maxImageAtlas < 0 {
		return &ConfigError{Field: "max image atlas size", Reason: "must not be negative"}
	}
	return nil
}

// WithAtlasConfig replaces the atlas configuration.
func WithAtlasConfig(c AtlasConfig) Option {
	return func(o *options) {
		o.atlas = c
	}
}

// WithTolerance sets the curve flattening tolerance in device pixels.
func WithTolerance(t float64) Option {
	return func(o *options) {
		o.tolerance = t
	}
}

// WithMaxClipDepth limits how deeply clips may nest.
func WithMaxClipDepth(n int) Option {
	return func(o *options) {
		o.maxClipDepth = n
	}
}

// WithShaper replaces the default shaper, a GoTextShaper behind a
// CachingShaper. Wrap s with text.NewCachingShaper to keep caching.
func WithShaper(s text.Shaper) Option {
	return func(o *options) {
		o.shaper = s
	}
}

// WithTessellator replaces the default tessellator. Tolerance and
// antialias options do not apply to a custom tessellator.
func WithTessellator(t tessellate.Service) Option {
	return func(o *options) {
		o.tessellator = t
	}
}

// WithAntialias adds a one pixel coverage fringe to filled and stroked
// geometry.
func WithAntialias(enabled bool) Option {
	return func(o *options) {
		o.antialias = enabled
	}
}

// WithBatchLimits caps the vertices and indices of a single draw call.
// Zero values derive the limit from the backend's buffer size.
func WithBatchLimits(maxVertices, maxIndices int) Option {
	return func(o *options) {
		o.batchLimits = batch.Limits{MaxVertices: maxVertices, MaxIndices: maxIndices}
	}
}

// WithMaxImageAtlasSize sets the largest image side stored in the shared
// atlas. Zero keeps every image out of the atlas.
func WithMaxImageAtlasSize(n int) Option {
	return func(o *options) {
		o.maxImageAtlas = n
	}
}

// WithGlyphRasterizer replaces the default outline rasterizer.
func WithGlyphRasterizer(g text.GlyphRasterizer) Option {
	return func(o *options) {
		o.glyphRasterizer = g
	}
}

// WithImageRasterizer replaces the default image converter.
func WithImageRasterizer(r raster.ImageRasterizer) Option {
	return func(o *options) {
		o.imageRasterizer = r
	}
}
