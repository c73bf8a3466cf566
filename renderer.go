package gv

import (
	"errors"
	"fmt"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/batch"
	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/internal/clip"
	"github.com/gogpu/gv/internal/tess"
	"github.com/gogpu/gv/raster"
	"github.com/gogpu/gv/tessellate"
	"github.com/gogpu/gv/text"
)

// Renderer turns drawing commands into backend draw calls. It owns the
// glyph and image atlas, which persists across frames, and hands out one
// Context per frame.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	backend gpucore.Backend
	opts    options

	cache   *cache.Cache
	adapter *tess.Adapter
	// clipper tessellates clip regions without an anti-aliasing fringe.
	clipper *tess.Adapter
	shaper  text.Shaper
	glyphs  text.GlyphRasterizer
	images  raster.ImageRasterizer
	limits  batch.Limits

	frame *Context
	// retired holds dedicated image textures released mid-frame.
	retired []gpucore.TextureID
	closed  bool
}

// NewRenderer creates a renderer drawing through backend.
func NewRenderer(backend gpucore.Backend, opts ...Option) (*Renderer, error) {
	if backend == nil {
		return nil, errors.New("gv: nil backend")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	c, err := cache.New(backend, o.atlas.cacheConfig())
	if err != nil {
		return nil, fmt.Errorf("gv: atlas: %w", err)
	}

	svc, clipSvc := o.tessellator, o.tessellator
	if svc == nil {
		t := tessellate.New()
		t.Tolerance = o.tolerance
		clipSvc = t
		if o.antialias {
			ft := *t
			ft.Feather = 1
			svc = &ft
		} else {
			svc = t
		}
	}

	r := &Renderer{
		backend: backend,
		opts:    o,
		cache:   c,
		adapter: tess.New(svc, o.tolerance),
		clipper: tess.New(clipSvc, o.tolerance),
		shaper:  o.shaper,
		glyphs:  o.glyphRasterizer,
		images:  o.imageRasterizer,
	}
	if r.shaper == nil {
		r.shaper = text.NewCachingShaper(text.NewGoTextShaper(), 0)
	}
	if r.glyphs == nil {
		r.glyphs = text.OutlineRasterizer{}
	}
	if r.images == nil {
		r.images = raster.Images{}
	}

	r.limits = batch.LimitsFor(backend.Limits())
	if o.batchLimits.MaxVertices > 0 {
		r.limits.MaxVertices = min(r.limits.MaxVertices, o.batchLimits.MaxVertices)
	}
	if o.batchLimits.MaxIndices > 0 {
		r.limits.MaxIndices = min(r.limits.MaxIndices, o.batchLimits.MaxIndices)
	}

	trackBackend(backend)
	slogger().Info("gv: renderer created",
		"backend", fmt.Sprintf("%T", backend),
		"maxTexture", backend.Limits().MaxTextureDimension,
		"atlas", o.atlas.InitialSize)
	return r, nil
}

// Backend returns the renderer's backend.
func (r *Renderer) Backend() gpucore.Backend { return r.backend }

// Shaper returns the text shaper.
func (r *Renderer) Shaper() text.Shaper { return r.shaper }

// NewLayoutBuilder starts a text layout shaped by the renderer's shaper.
func (r *Renderer) NewLayoutBuilder(face *text.Face) *text.LayoutBuilder {
	return text.NewLayoutBuilder(r.shaper, face)
}

// MaxTextureSize returns the backend's maximum texture dimension.
func (r *Renderer) MaxTextureSize() int {
	return r.backend.Limits().MaxTextureDimension
}

// AtlasStats reports glyph and image atlas activity.
type AtlasStats struct {
	Entries   int
	Size      int
	Hits      int
	Misses    int
	Evictions int
	Grows     int
}

// AtlasStats returns atlas counters.
func (r *Renderer) AtlasStats() AtlasStats {
	s := r.cache.Stats()
	return AtlasStats{
		Entries:   r.cache.Len(),
		Size:      r.cache.Size(),
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
		Grows:     s.Grows,
	}
}

// BeginFrame opens a frame covering a width x height target. Only one
// frame may be open at a time.
func (r *Renderer) BeginFrame(width, height int) (*Context, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.frame != nil {
		return nil, ErrFrameInProgress
	}
	if width <= 0 || height <= 0 {
		return nil, &ConfigError{Field: "frame size", Reason: fmt.Sprintf("%dx%d is empty", width, height)}
	}
	c := &Context{
		r:        r,
		viewport: geom.XYWH(0, 0, float64(width), float64(height)),
		state:    state{matrix: geom.Identity(), blend: gpucore.BlendSourceOver},
		clips:    clip.NewStack(r.opts.maxClipDepth),
		batches:  batch.NewBuilder(r.limits),
	}
	r.frame = c
	return c, nil
}

// Close releases the atlas texture. An open frame is discarded.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	if r.frame != nil {
		r.frame.Discard()
	}
	r.destroyRetired()
	r.cache.Close()
	untrackBackend(r.backend)
	r.closed = true
}

func (r *Renderer) endFrame(c *Context) {
	if r.frame == c {
		r.frame = nil
	}
	r.destroyRetired()
	r.cache.EndFrame()
}

func (r *Renderer) destroyRetired() {
	for _, t := range r.retired {
		r.backend.DestroyTexture(t)
	}
	r.retired = r.retired[:0]
}
