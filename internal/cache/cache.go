package cache

import (
	"errors"
	"fmt"

	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/atlas"
	"github.com/gogpu/gv/raster"
)

// Kind tells glyph keys from image keys. Both share one LRU.
type Kind uint8

// Content kinds.
const (
	KindGlyph Kind = iota + 1
	KindImage
)

// Key identifies cached content. Glyph keys combine font identity, glyph
// id, size in 1/64 px and the horizontal subpixel bin. Image keys use the
// image identity and the requested texel size.
type Key struct {
	Kind     Kind
	Source   uint64
	Glyph    uint32
	Size     int32
	Subpixel uint8
	Width    int32
	Height   int32
}

// GlyphKey builds a glyph key.
func GlyphKey(font uint64, glyph uint32, size26_6 int32, subpixel uint8) Key {
	return Key{Kind: KindGlyph, Source: font, Glyph: glyph, Size: size26_6, Subpixel: subpixel}
}

// ImageKey builds an image key.
func ImageKey(image uint64, width, height int) Key {
	return Key{Kind: KindImage, Source: image, Width: int32(width), Height: int32(height)}
}

// Ref locates an entry's texels for the current frame.
type Ref struct {
	Texture gpucore.TextureID
	Region  gpucore.Region

	// U0, V0, U1, V1 are Region in normalized texture coordinates.
	U0, V0, U1, V1 float32

	// Left and Top are the bitmap's placement relative to the pen.
	Left, Top int

	// Epoch is the frame the ref was issued in.
	Epoch uint64
}

// Empty reports whether the ref has no texels (for example a space glyph).
func (r Ref) Empty() bool { return r.Region.Empty() }

// Stats counts cache activity since creation.
type Stats struct {
	Hits, Misses, Refreshes int
	Evictions, Grows        int
}

type entry struct {
	key      Key
	slot     *atlas.Slot
	node     *lruNode[Key]
	inFlight bool
	stale    bool
	left     int
	top      int
	pixels   []byte // padded texels when Config.RetainPixels is set
}

// Cache maps content keys to atlas slots on one backend texture.
type Cache struct {
	backend gpucore.Backend
	cfg     Config
	limit   int
	maxSize int

	alloc   *atlas.Allocator
	texture gpucore.TextureID
	size    int

	entries map[Key]*entry
	lru     lruList[Key]

	live    map[gpucore.TextureID]struct{}
	retired []gpucore.TextureID
	epoch   uint64
	stats   Stats
}

// New creates a cache drawing its texture from backend. The texture is
// created lazily on the first insertion.
func New(backend gpucore.Backend, cfg Config) (*Cache, error) {
	if backend == nil {
		return nil, errors.New("cache: nil backend")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := backend.Limits().MaxTextureDimension
	if cfg.InitialSize > limit {
		return nil, &ConfigError{Field: "InitialSize", Reason: fmt.Sprintf("exceeds backend limit %d", limit)}
	}
	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = limit
	}
	return &Cache{
		backend: backend,
		cfg:     cfg,
		limit:   limit,
		maxSize: maxSize,
		size:    cfg.InitialSize,
		alloc:   atlas.New(cfg.InitialSize, cfg.InitialSize),
		entries: make(map[Key]*entry),
		live:    make(map[gpucore.TextureID]struct{}),
		epoch:   1,
	}, nil
}

// Texture returns the current atlas texture, or InvalidID before the
// first insertion.
func (c *Cache) Texture() gpucore.TextureID { return c.texture }

// Size returns the side of the atlas texture.
func (c *Cache) Size() int { return c.size }

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns activity counters.
func (c *Cache) Stats() Stats { return c.stats }

// Epoch returns the current frame epoch.
func (c *Cache) Epoch() uint64 { return c.epoch }

// Contains reports whether key is cached.
func (c *Cache) Contains(key Key) bool {
	_, ok := c.entries[key]
	return ok
}

// InFlight reports whether key is cached and referenced this frame.
func (c *Cache) InFlight(key Key) bool {
	e, ok := c.entries[key]
	return ok && e.inFlight
}

// GetOrInsert returns the entry for key, calling rasterize only when the
// key is missing or its texels were invalidated. The entry is marked in
// flight until EndFrame.
func (c *Cache) GetOrInsert(key Key, rasterize func() (raster.Bitmap, error)) (Ref, error) {
	if e, ok := c.entries[key]; ok {
		if !e.stale {
			c.stats.Hits++
			c.touch(e)
			return c.ref(e), nil
		}
		if err := c.refresh(e, rasterize); err != nil {
			return Ref{}, err
		}
		c.touch(e)
		return c.ref(e), nil
	}

	c.stats.Misses++
	bmp, err := rasterizeChecked(rasterize)
	if err != nil {
		return Ref{}, err
	}

	e := &entry{key: key, left: bmp.Left, top: bmp.Top}
	if !bmp.Empty() {
		if err := c.place(e, bmp); err != nil {
			return Ref{}, err
		}
	}
	e.node = c.lru.PushFront(key)
	e.inFlight = true
	c.entries[key] = e
	return c.ref(e), nil
}

func rasterizeChecked(rasterize func() (raster.Bitmap, error)) (raster.Bitmap, error) {
	bmp, err := rasterize()
	if err != nil {
		return raster.Bitmap{}, fmt.Errorf("%w: %w", ErrRasterizationFailed, err)
	}
	if bmp.Empty() {
		return bmp, nil
	}
	if err := bmp.Validate(); err != nil {
		return raster.Bitmap{}, fmt.Errorf("%w: %w", ErrRasterizationFailed, err)
	}
	return bmp, nil
}

// refresh re-rasterizes a stale entry into its slot, or into a new slot
// when the bitmap size changed.
func (c *Cache) refresh(e *entry, rasterize func() (raster.Bitmap, error)) error {
	bmp, err := rasterizeChecked(rasterize)
	if err != nil {
		return err
	}
	c.stats.Refreshes++
	e.left, e.top = bmp.Left, bmp.Top
	p := c.cfg.Padding
	if e.slot != nil {
		r := e.slot.Region()
		if r.Width == bmp.Width+2*p && r.Height == bmp.Height+2*p {
			if err := c.upload(e, bmp); err != nil {
				return err
			}
			e.stale = false
			return nil
		}
		c.alloc.Free(e.slot)
		e.slot = nil
	}
	e.stale = false
	if bmp.Empty() {
		return nil
	}
	// Keep the entry out of eviction while making room for itself.
	e.inFlight = true
	if err := c.place(e, bmp); err != nil {
		// A slotless entry would read as a cached empty bitmap.
		c.drop(e)
		return err
	}
	return nil
}

// place allocates a slot for bmp and uploads it.
func (c *Cache) place(e *entry, bmp raster.Bitmap) error {
	p := c.cfg.Padding
	slot, err := c.allocate(bmp.Width+2*p, bmp.Height+2*p)
	if err != nil {
		return err
	}
	e.slot = slot
	if err := c.upload(e, bmp); err != nil {
		c.alloc.Free(slot)
		e.slot = nil
		e.pixels = nil
		return err
	}
	return nil
}

// upload writes bmp, surrounded by a transparent border, into e's slot.
func (c *Cache) upload(e *entry, bmp raster.Bitmap) error {
	p := c.cfg.Padding
	r := e.slot.Region()
	data := bmp.Pix
	if p > 0 {
		data = make([]byte, r.Width*r.Height*4)
		for y := 0; y < bmp.Height; y++ {
			dst := ((y+p)*r.Width + p) * 4
			copy(data[dst:dst+bmp.Width*4], bmp.Pix[y*bmp.Width*4:(y+1)*bmp.Width*4])
		}
	}
	if c.cfg.RetainPixels {
		e.pixels = data
	}
	if err := c.backend.WriteTexture(c.texture, r, data); err != nil {
		return fmt.Errorf("%w: upload %v: %w", ErrBackend, r, err)
	}
	return nil
}

// allocate obtains a w x h slot, evicting and then growing on pressure.
func (c *Cache) allocate(w, h int) (*atlas.Slot, error) {
	if w > c.maxSize || h > c.maxSize {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, w, h, c.maxSize)
	}
	if err := c.ensureTexture(); err != nil {
		return nil, err
	}

	slot, err := c.alloc.Allocate(w, h)
	if !errors.Is(err, atlas.ErrFull) {
		return slot, err
	}

	for {
		victim := c.oldestEvictable()
		if victim == nil {
			break
		}
		c.evict(victim)
		if slot, err = c.alloc.Allocate(w, h); err == nil {
			return slot, nil
		}
	}

	if err := c.grow(w, h); err != nil {
		return nil, err
	}
	slot, err = c.alloc.Allocate(w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d after growth to %d", ErrAtlasFull, w, h, c.size)
	}
	return slot, nil
}

func (c *Cache) ensureTexture() error {
	if c.texture != gpucore.InvalidID {
		return nil
	}
	tex, err := c.backend.CreateTexture(c.size, c.size, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		return fmt.Errorf("%w: create atlas texture: %w", ErrBackend, err)
	}
	c.texture = tex
	c.live[tex] = struct{}{}
	slogger().Debug("atlas texture created", "size", c.size)
	return nil
}

// oldestEvictable returns the least recently used entry that owns a slot
// and is not in flight.
func (c *Cache) oldestEvictable() *entry {
	var victim *entry
	c.lru.Back(func(k Key) bool {
		e := c.entries[k]
		if e.inFlight || e.slot == nil {
			return true
		}
		victim = e
		return false
	})
	return victim
}

func (c *Cache) evict(e *entry) {
	c.drop(e)
	c.stats.Evictions++
	slogger().Debug("atlas entry evicted", "kind", e.key.Kind, "source", e.key.Source, "glyph", e.key.Glyph)
}

func (c *Cache) drop(e *entry) {
	if e.slot != nil {
		c.alloc.Free(e.slot)
		e.slot = nil
	}
	c.lru.Remove(e.node)
	delete(c.entries, e.key)
}

// grow doubles the atlas until a w x h request fits.
func (c *Cache) grow(w, h int) error {
	if !c.cfg.AllowGrow {
		return fmt.Errorf("%w: %dx%d, growth disabled", ErrAtlasFull, w, h)
	}
	next := c.size * 2
	for next < w || next < h {
		next *= 2
	}
	if next > c.limit {
		return fmt.Errorf("%w: %d > %d", ErrGrowthExceedsLimit, next, c.limit)
	}
	if next > c.maxSize {
		return fmt.Errorf("%w: %dx%d at maximum size %d", ErrAtlasFull, w, h, c.size)
	}

	tex, err := c.backend.CreateTexture(next, next, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		return fmt.Errorf("%w: create grown atlas texture: %w", ErrBackend, err)
	}
	moves, err := c.alloc.Grow(next, next)
	if err != nil {
		c.backend.DestroyTexture(tex)
		return fmt.Errorf("cache: re-pack atlas: %w", err)
	}

	c.retired = append(c.retired, c.texture)
	c.texture = tex
	c.live[tex] = struct{}{}
	c.size = next
	c.stats.Grows++
	slogger().Debug("atlas grown", "size", next, "entries", len(moves))

	bySlot := make(map[*atlas.Slot]*entry, len(c.entries))
	for _, e := range c.entries {
		if e.slot != nil {
			bySlot[e.slot] = e
		}
	}
	var blitErr error
	for _, m := range moves {
		e := bySlot[m.Slot]
		if e == nil {
			continue
		}
		if e.pixels == nil {
			e.stale = true
			continue
		}
		if err := c.backend.WriteTexture(c.texture, m.To, e.pixels); err != nil {
			e.stale = true
			if blitErr == nil {
				blitErr = fmt.Errorf("%w: re-blit %v: %w", ErrBackend, m.To, err)
			}
		}
	}
	return blitErr
}

func (c *Cache) touch(e *entry) {
	c.lru.MoveToFront(e.node)
	e.inFlight = true
}

func (c *Cache) ref(e *entry) Ref {
	r := Ref{Left: e.left, Top: e.top, Epoch: c.epoch}
	if e.slot == nil {
		return r
	}
	p := c.cfg.Padding
	s := e.slot.Region()
	r.Texture = c.texture
	r.Region = gpucore.Region{X: s.X + p, Y: s.Y + p, Width: s.Width - 2*p, Height: s.Height - 2*p}
	inv := 1 / float32(c.size)
	r.U0 = float32(r.Region.X) * inv
	r.V0 = float32(r.Region.Y) * inv
	r.U1 = float32(r.Region.X+r.Region.Width) * inv
	r.V1 = float32(r.Region.Y+r.Region.Height) * inv
	return r
}

// Validate reports whether ref may still be drawn: it must come from the
// current frame and name a texture that has not been destroyed.
func (c *Cache) Validate(ref Ref) error {
	if ref.Empty() {
		return nil
	}
	if ref.Epoch != c.epoch {
		return fmt.Errorf("%w: epoch %d, current %d", ErrStaleRef, ref.Epoch, c.epoch)
	}
	if _, ok := c.live[ref.Texture]; !ok {
		return fmt.Errorf("%w: texture %d destroyed", ErrStaleRef, ref.Texture)
	}
	return nil
}

// EndFrame clears in-flight markers, destroys textures retired by growth
// and advances the epoch.
func (c *Cache) EndFrame() {
	for _, e := range c.entries {
		e.inFlight = false
	}
	for _, t := range c.retired {
		delete(c.live, t)
		c.backend.DestroyTexture(t)
	}
	c.retired = c.retired[:0]
	c.epoch++
}

// Remove drops every entry whose key matches fn, skipping entries in flight.
// It returns the number of entries removed.
func (c *Cache) Remove(fn func(Key) bool) int {
	n := 0
	for k, e := range c.entries {
		if e.inFlight || !fn(k) {
			continue
		}
		c.drop(e)
		n++
	}
	return n
}

// Close destroys every texture the cache owns.
func (c *Cache) Close() {
	for t := range c.live {
		c.backend.DestroyTexture(t)
	}
	c.live = make(map[gpucore.TextureID]struct{})
	c.retired = nil
	c.entries = make(map[Key]*entry)
	c.lru = lruList[Key]{}
	c.texture = gpucore.InvalidID
	c.alloc = atlas.New(c.size, c.size)
}
