package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gv/gpucore"
)

type texture struct {
	tex    hal.Texture
	view   hal.TextureView
	bind   hal.BindGroup
	width  int
	height int
	format gpucore.TextureFormat
}

type buffer struct {
	buf   hal.Buffer
	usage gpucore.BufferUsage
	size  int
}

// Backend renders through a hal device. It implements gpucore.Backend.
//
// A Backend is not safe for concurrent use.
type Backend struct {
	cfg    Config
	limits gpucore.Limits

	device   hal.Device
	queue    hal.Queue
	instance hal.Instance // nil when the device belongs to someone else
	owned    bool

	pipelines *pipelineCache
	uniform   hal.Buffer
	white     *texture

	colorTex     hal.Texture
	colorView    hal.TextureView
	stencilTex   hal.Texture
	stencilView  hal.TextureView
	targetLoaded bool

	textures map[gpucore.TextureID]*texture
	buffers  map[gpucore.BufferID]*buffer
	nextID   uint64

	pending []gpucore.DrawCall
	target  *image.RGBA
	frames  uint64
	closed  bool
	logger  *slog.Logger
}

// NewWithDevice returns a Backend drawing with device and queue, which the
// caller keeps ownership of. limits describes the device.
func NewWithDevice(device hal.Device, queue hal.Queue, limits gputypes.Limits, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if device == nil || queue == nil {
		return nil, fmt.Errorf("wgpu: nil device or queue")
	}
	b := &Backend{
		cfg:      cfg,
		limits:   limitsFrom(limits),
		device:   device,
		queue:    queue,
		textures: make(map[gpucore.TextureID]*texture),
		buffers:  make(map[gpucore.BufferID]*buffer),
		target:   image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		logger:   slog.New(slog.DiscardHandler),
	}
	if cfg.Width > b.limits.MaxTextureDimension || cfg.Height > b.limits.MaxTextureDimension {
		return nil, &ConfigError{Field: "Width/Height", Reason: fmt.Sprintf("exceeds device limit %d", b.limits.MaxTextureDimension)}
	}
	if err := b.init(); err != nil {
		b.release()
		return nil, err
	}
	return b, nil
}

func limitsFrom(l gputypes.Limits) gpucore.Limits {
	out := gpucore.Limits{
		MaxTextureDimension: int(l.MaxTextureDimension2D),
		MaxBufferSize:       math.MaxInt32,
	}
	if l.MaxBufferSize < uint64(out.MaxBufferSize) {
		out.MaxBufferSize = int(l.MaxBufferSize) //nolint:gosec // bounded above
	}
	return out
}

func (b *Backend) init() error {
	pc, err := newPipelineCache(b.device, b.cfg)
	if err != nil {
		return err
	}
	b.pipelines = pc

	b.uniform, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.cfg.label("viewport"),
		Size:  viewportSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create viewport buffer: %w", err)
	}
	var u [viewportSize]byte
	binary.LittleEndian.PutUint32(u[0:], math.Float32bits(float32(b.cfg.Width)))
	binary.LittleEndian.PutUint32(u[4:], math.Float32bits(float32(b.cfg.Height)))
	if err := b.queue.WriteBuffer(b.uniform, 0, u[:]); err != nil {
		return fmt.Errorf("wgpu: write viewport: %w", err)
	}

	b.white, err = b.newTexture("white", 1, 1, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		return err
	}
	err = b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: b.white.tex, MipLevel: 0},
		[]byte{255, 255, 255, 255},
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write white texture: %w", err)
	}
	return b.createTargets()
}

// createTargets allocates the color target and its stencil attachment.
func (b *Backend) createTargets() error {
	w, h := uint32(b.cfg.Width), uint32(b.cfg.Height) //nolint:gosec // validated positive
	var err error
	b.colorTex, err = b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         b.cfg.label("target"),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create target: %w", err)
	}
	b.colorView, err = b.device.CreateTextureView(b.colorTex, &hal.TextureViewDescriptor{
		Label: b.cfg.label("target_view"),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create target view: %w", err)
	}
	b.stencilTex, err = b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         b.cfg.label("stencil"),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        stencilFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create stencil: %w", err)
	}
	b.stencilView, err = b.device.CreateTextureView(b.stencilTex, &hal.TextureViewDescriptor{
		Label: b.cfg.label("stencil_view"),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create stencil view: %w", err)
	}
	return nil
}

// SetLogger sets the backend logger. Nil silences it.
func (b *Backend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	b.logger = l
}

// Config returns the configuration the backend was created with.
func (b *Backend) Config() Config { return b.cfg }

// Target returns the last frame read back from the GPU. It is only
// updated when Config.Readback is set. Its pixels are premultiplied.
func (b *Backend) Target() *image.RGBA { return b.target }

// At returns the straight-alpha color of the target pixel at (x, y).
func (b *Backend) At(x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(b.target.RGBAAt(x, y)).(color.NRGBA)
}

// Limits implements gpucore.Backend.
func (b *Backend) Limits() gpucore.Limits { return b.limits }

func (b *Backend) id() uint64 {
	b.nextID++
	return b.nextID
}

// deviceFormat is the hal format backing a texture format. R8 coverage
// is expanded to RGBA so the shader samples (c, c, c, c).
func deviceFormat(f gpucore.TextureFormat) gputypes.TextureFormat {
	if f == gpucore.TextureFormatBGRA8Unorm {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

func (b *Backend) newTexture(label string, w, h int, format gpucore.TextureFormat) (*texture, error) {
	df := deviceFormat(format)
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         b.cfg.label(label),
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // checked against limits
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        df,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %s: %w", label, err)
	}
	t := &texture{tex: tex, width: w, height: h, format: format}
	t.view, err = b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         b.cfg.label(label + "_view"),
		Format:        df,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.destroyTexture(t)
		return nil, fmt.Errorf("wgpu: create texture view %s: %w", label, err)
	}
	t.bind, err = b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  b.cfg.label(label + "_bind"),
		Layout: b.pipelines.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.uniform.NativeHandle(), Offset: 0, Size: viewportSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: b.pipelines.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		b.destroyTexture(t)
		return nil, fmt.Errorf("wgpu: create bind group %s: %w", label, err)
	}
	return t, nil
}

func (b *Backend) destroyTexture(t *texture) {
	if t.bind != nil {
		b.device.DestroyBindGroup(t.bind)
	}
	if t.view != nil {
		b.device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		b.device.DestroyTexture(t.tex)
	}
}

// CreateTexture implements gpucore.Backend.
func (b *Backend) CreateTexture(w, h int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if b.closed {
		return gpucore.InvalidID, ErrClosed
	}
	if w <= 0 || h <= 0 || w > b.limits.MaxTextureDimension || h > b.limits.MaxTextureDimension {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture size %dx%d outside limits", w, h)
	}
	id := gpucore.TextureID(b.id())
	t, err := b.newTexture(fmt.Sprintf("texture_%d", id), w, h, format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	// Textures start transparent.
	err = b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		make([]byte, w*h*4),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)}, //nolint:gosec // checked against limits
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},            //nolint:gosec // checked against limits
	)
	if err != nil {
		b.destroyTexture(t)
		return gpucore.InvalidID, fmt.Errorf("wgpu: clear texture %d: %w", id, err)
	}
	b.textures[id] = t
	b.logger.Debug("wgpu: texture created", "id", id, "width", w, "height", h, "format", format)
	return id, nil
}

// WriteTexture implements gpucore.Backend.
func (b *Backend) WriteTexture(id gpucore.TextureID, r gpucore.Region, data []byte) error {
	if b.closed {
		return ErrClosed
	}
	t, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if r.Empty() || r.X < 0 || r.Y < 0 || r.X+r.Width > t.width || r.Y+r.Height > t.height {
		return fmt.Errorf("wgpu: region %v outside %dx%d", r, t.width, t.height)
	}
	if len(data) != r.Width*r.Height*t.format.BytesPerPixel() {
		return fmt.Errorf("wgpu: %d bytes for region %v", len(data), r)
	}
	if t.format == gpucore.TextureFormatR8Unorm {
		data = expandCoverage(data)
	}
	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(r.X), Y: uint32(r.Y)}, //nolint:gosec // validated non-negative
		},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(r.Width * 4), RowsPerImage: uint32(r.Height)}, //nolint:gosec // validated
		&hal.Extent3D{Width: uint32(r.Width), Height: uint32(r.Height), DepthOrArrayLayers: 1},             //nolint:gosec // validated
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture %d: %w", id, err)
	}
	return nil
}

// expandCoverage turns R8 coverage into premultiplied RGBA (c, c, c, c).
func expandCoverage(src []byte) []byte {
	dst := make([]byte, len(src)*4)
	for i, c := range src {
		dst[i*4+0] = c
		dst[i*4+1] = c
		dst[i*4+2] = c
		dst[i*4+3] = c
	}
	return dst
}

// DestroyTexture implements gpucore.Backend.
func (b *Backend) DestroyTexture(id gpucore.TextureID) {
	t, ok := b.textures[id]
	if !ok {
		return
	}
	delete(b.textures, id)
	b.destroyTexture(t)
}

// CreateBuffer implements gpucore.Backend.
func (b *Backend) CreateBuffer(usage gpucore.BufferUsage, data []byte) (gpucore.BufferID, error) {
	if b.closed {
		return gpucore.InvalidID, ErrClosed
	}
	if len(data) > b.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("wgpu: buffer of %d bytes exceeds limit", len(data))
	}
	var hu gputypes.BufferUsage = gputypes.BufferUsageCopyDst
	if usage&gpucore.BufferUsageVertex != 0 {
		hu |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		hu |= gputypes.BufferUsageIndex
	}
	// Buffer writes must be a multiple of four bytes.
	size := (len(data) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	id := gpucore.BufferID(b.id())
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.cfg.label(fmt.Sprintf("%s_%d", usage, id)),
		Size:  uint64(size), //nolint:gosec // bounded by limits
		Usage: hu,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer: %w", err)
	}
	if len(data) > 0 {
		padded := data
		if len(data) != size {
			padded = make([]byte, size)
			copy(padded, data)
		}
		if err := b.queue.WriteBuffer(buf, 0, padded); err != nil {
			b.device.DestroyBuffer(buf)
			return gpucore.InvalidID, fmt.Errorf("wgpu: write buffer: %w", err)
		}
	}
	b.buffers[id] = &buffer{buf: buf, usage: usage, size: len(data)}
	return id, nil
}

// DestroyBuffer implements gpucore.Backend.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	buf, ok := b.buffers[id]
	if !ok {
		return
	}
	delete(b.buffers, id)
	b.device.DestroyBuffer(buf.buf)
}

// Draw implements gpucore.Backend. Draws are encoded by Submit.
func (b *Backend) Draw(call gpucore.DrawCall) error {
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.buffers[call.Vertices]; !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.Vertices)
	}
	ib, ok := b.buffers[call.Indices]
	if !ok {
		return fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.Indices)
	}
	if call.Texture != gpucore.InvalidID {
		if _, ok := b.textures[call.Texture]; !ok {
			return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, call.Texture)
		}
	}
	if call.IndexCount < 0 || call.IndexCount*4 > ib.size || call.IndexCount%3 != 0 {
		return fmt.Errorf("wgpu: index count %d for %d index bytes", call.IndexCount, ib.size)
	}
	if _, err := b.pipelines.get(keyFor(call)); err != nil {
		return err
	}
	b.pending = append(b.pending, call)
	return nil
}

// Close releases every device object. The device itself is destroyed
// only when the backend opened it.
func (b *Backend) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.release()
}

func (b *Backend) release() {
	for id, t := range b.textures {
		b.destroyTexture(t)
		delete(b.textures, id)
	}
	for id, buf := range b.buffers {
		b.device.DestroyBuffer(buf.buf)
		delete(b.buffers, id)
	}
	if b.white != nil {
		b.destroyTexture(b.white)
		b.white = nil
	}
	if b.stencilView != nil {
		b.device.DestroyTextureView(b.stencilView)
	}
	if b.stencilTex != nil {
		b.device.DestroyTexture(b.stencilTex)
	}
	if b.colorView != nil {
		b.device.DestroyTextureView(b.colorView)
	}
	if b.colorTex != nil {
		b.device.DestroyTexture(b.colorTex)
	}
	b.stencilView, b.stencilTex, b.colorView, b.colorTex = nil, nil, nil, nil
	if b.uniform != nil {
		b.device.DestroyBuffer(b.uniform)
		b.uniform = nil
	}
	if b.pipelines != nil {
		b.pipelines.destroy()
		b.pipelines = nil
	}
	b.pending = nil
	if b.owned {
		b.device.Destroy()
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
}

var _ gpucore.Backend = (*Backend)(nil)
