package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gv/gpucore"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	device, queue := createNoopDevice(t)
	cfg := DefaultConfig(64, 32)
	cfg.Readback = false
	b, err := NewWithDevice(device, queue, gputypes.DefaultLimits(), cfg)
	if err != nil {
		t.Fatalf("NewWithDevice: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

// quad uploads one two-triangle quad and returns its buffers.
func quad(t *testing.T, b *Backend) (gpucore.BufferID, gpucore.BufferID) {
	t.Helper()
	vs := []gpucore.Vertex{
		{X: 0, Y: 0, Color: [4]uint8{255, 0, 0, 255}},
		{X: 10, Y: 0, Color: [4]uint8{255, 0, 0, 255}},
		{X: 10, Y: 10, Color: [4]uint8{255, 0, 0, 255}},
		{X: 0, Y: 10, Color: [4]uint8{255, 0, 0, 255}},
	}
	vb, err := b.CreateBuffer(gpucore.BufferUsageVertex, gpucore.EncodeVertices(nil, vs))
	if err != nil {
		t.Fatalf("CreateBuffer(vertex): %v", err)
	}
	ib, err := b.CreateBuffer(gpucore.BufferUsageIndex, gpucore.EncodeIndices(nil, []uint32{0, 1, 2, 0, 2, 3}))
	if err != nil {
		t.Fatalf("CreateBuffer(index): %v", err)
	}
	return vb, ib
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"default", func(*Config) {}, ""},
		{"zero width", func(c *Config) { c.Width = 0 }, "Width"},
		{"negative height", func(c *Config) { c.Height = -1 }, "Height"},
		{"bad shader format", func(c *Config) { c.ShaderFormat = 7 }, "ShaderFormat"},
		{"zero timeout", func(c *Config) { c.SubmitTimeout = 0 }, "SubmitTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig(10, 10)
			tt.mutate(&c)
			err := c.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestNewWithDevice(t *testing.T) {
	b := newTestBackend(t)
	if got := b.Limits().MaxTextureDimension; got != int(gputypes.DefaultLimits().MaxTextureDimension2D) {
		t.Errorf("MaxTextureDimension = %d, want %d", got, gputypes.DefaultLimits().MaxTextureDimension2D)
	}
	if b.white == nil || b.white.bind == nil {
		t.Fatal("white texture not created")
	}
	if got := b.Target().Bounds().Size(); got.X != 64 || got.Y != 32 {
		t.Errorf("target size = %v, want 64x32", got)
	}
}

func TestNewWithDeviceErrors(t *testing.T) {
	device, queue := createNoopDevice(t)
	if _, err := NewWithDevice(nil, queue, gputypes.DefaultLimits(), DefaultConfig(4, 4)); err == nil {
		t.Error("nil device: want error")
	}
	if _, err := NewWithDevice(device, queue, gputypes.DefaultLimits(), DefaultConfig(0, 4)); err == nil {
		t.Error("empty target: want error")
	}
	limits := gputypes.DefaultLimits()
	limits.MaxTextureDimension2D = 16
	_, err := NewWithDevice(device, queue, limits, DefaultConfig(32, 4))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("target above limit: got %v, want *ConfigError", err)
	}
}

func TestTextureLifecycle(t *testing.T) {
	b := newTestBackend(t)

	id, err := b.CreateTexture(8, 8, gpucore.TextureFormatR8Unorm)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := b.WriteTexture(id, gpucore.Region{X: 2, Y: 2, Width: 2, Height: 2}, []byte{1, 2, 3, 4}); err != nil {
		t.Errorf("WriteTexture: %v", err)
	}
	if err := b.WriteTexture(id, gpucore.Region{X: 7, Y: 7, Width: 2, Height: 2}, []byte{1, 2, 3, 4}); err == nil {
		t.Error("WriteTexture outside texture: want error")
	}
	if err := b.WriteTexture(id, gpucore.Region{Width: 2, Height: 2}, []byte{1, 2, 3}); err == nil {
		t.Error("WriteTexture short data: want error")
	}

	b.DestroyTexture(id)
	b.DestroyTexture(id)
	err = b.WriteTexture(id, gpucore.Region{Width: 1, Height: 1}, []byte{1})
	if !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("WriteTexture after destroy = %v, want ErrUnknownResource", err)
	}

	if _, err := b.CreateTexture(0, 4, gpucore.TextureFormatRGBA8Unorm); err == nil {
		t.Error("CreateTexture 0x4: want error")
	}
	if _, err := b.CreateTexture(b.Limits().MaxTextureDimension+1, 4, gpucore.TextureFormatRGBA8Unorm); err == nil {
		t.Error("CreateTexture above limit: want error")
	}
}

func TestExpandCoverage(t *testing.T) {
	got := expandCoverage([]byte{0, 128, 255})
	want := []byte{0, 0, 0, 0, 128, 128, 128, 128, 255, 255, 255, 255}
	if string(got) != string(want) {
		t.Errorf("expandCoverage = %v, want %v", got, want)
	}
}

func TestDrawValidation(t *testing.T) {
	b := newTestBackend(t)
	vb, ib := quad(t, b)

	tests := []struct {
		name string
		call gpucore.DrawCall
		ok   bool
	}{
		{"valid", gpucore.DrawCall{Vertices: vb, Indices: ib, IndexCount: 6}, true},
		{"unknown vertices", gpucore.DrawCall{Vertices: 999, Indices: ib, IndexCount: 6}, false},
		{"unknown indices", gpucore.DrawCall{Vertices: vb, Indices: 999, IndexCount: 6}, false},
		{"unknown texture", gpucore.DrawCall{Vertices: vb, Indices: ib, IndexCount: 6, Texture: 999}, false},
		{"too many indices", gpucore.DrawCall{Vertices: vb, Indices: ib, IndexCount: 9}, false},
		{"partial triangle", gpucore.DrawCall{Vertices: vb, Indices: ib, IndexCount: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Draw(tt.call)
			if (err == nil) != tt.ok {
				t.Errorf("Draw() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
	if len(b.pending) != 1 {
		t.Errorf("pending = %d, want 1", len(b.pending))
	}
}

func TestSubmit(t *testing.T) {
	b := newTestBackend(t)
	vb, ib := quad(t, b)
	tex, err := b.CreateTexture(4, 4, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}

	calls := []gpucore.DrawCall{
		{Vertices: vb, Indices: ib, IndexCount: 6, Stencil: gpucore.StencilIncrement, StencilRef: 1},
		{Vertices: vb, Indices: ib, IndexCount: 6, Stencil: gpucore.StencilTest, StencilRef: 1},
		{Vertices: vb, Indices: ib, IndexCount: 6, Texture: tex, Blend: gpucore.BlendScreen, Stencil: gpucore.StencilTest, StencilRef: 1},
		{Vertices: vb, Indices: ib, IndexCount: 6, Stencil: gpucore.StencilDecrement, StencilRef: 1},
	}
	for _, c := range calls {
		if err := b.Draw(c); err != nil {
			t.Fatalf("Draw(%+v): %v", c, err)
		}
	}
	if err := b.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(b.pending) != 0 {
		t.Errorf("pending after Submit = %d, want 0", len(b.pending))
	}
	if got := len(b.pipelines.pipelines); got != 4 {
		t.Errorf("pipelines = %d, want 4", got)
	}
	if !b.targetLoaded {
		t.Error("target should be loaded after the first frame")
	}

	b.DestroyBuffer(vb)
	b.DestroyBuffer(ib)
	if len(b.buffers) != 0 {
		t.Errorf("buffers = %d, want 0", len(b.buffers))
	}
	if err := b.Submit(); err != nil {
		t.Errorf("empty Submit: %v", err)
	}
}

func TestSubmitDestroyedTexture(t *testing.T) {
	b := newTestBackend(t)
	vb, ib := quad(t, b)
	tex, err := b.CreateTexture(4, 4, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := b.Draw(gpucore.DrawCall{Vertices: vb, Indices: ib, IndexCount: 6, Texture: tex}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	b.DestroyTexture(tex)
	if err := b.Submit(); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("Submit = %v, want ErrUnknownResource", err)
	}
	if len(b.pending) != 0 {
		t.Errorf("pending after failed Submit = %d, want 0", len(b.pending))
	}
	if err := b.Submit(); err != nil {
		t.Errorf("Submit after failure: %v", err)
	}
}

func TestSubmitReadback(t *testing.T) {
	device, queue := createNoopDevice(t)
	b, err := NewWithDevice(device, queue, gputypes.DefaultLimits(), DefaultConfig(5, 3))
	if err != nil {
		t.Fatalf("NewWithDevice: %v", err)
	}
	t.Cleanup(b.Close)

	// The noop staging buffer reads back as zeros, so stale pixels must go.
	for i := range b.target.Pix {
		b.target.Pix[i] = 0xAA
	}
	if err := b.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for y := range 3 {
		for x := range 5 {
			if got := b.Target().RGBAAt(x, y); got.A != 0 || got.R != 0 {
				t.Fatalf("pixel (%d,%d) = %v, want transparent", x, y, got)
			}
		}
	}
}

func TestClosed(t *testing.T) {
	b := newTestBackend(t)
	b.Close()
	b.Close()
	if _, err := b.CreateTexture(1, 1, gpucore.TextureFormatRGBA8Unorm); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateTexture = %v, want ErrClosed", err)
	}
	if _, err := b.CreateBuffer(gpucore.BufferUsageVertex, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateBuffer = %v, want ErrClosed", err)
	}
	if err := b.Submit(); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit = %v, want ErrClosed", err)
	}
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		call gpucore.DrawCall
		want pipelineKey
	}{
		{gpucore.DrawCall{Blend: gpucore.BlendAdd}, pipelineKey{gpucore.BlendAdd, gpucore.StencilIgnore}},
		{gpucore.DrawCall{Blend: gpucore.BlendCopy, Stencil: gpucore.StencilTest}, pipelineKey{gpucore.BlendCopy, gpucore.StencilTest}},
		{gpucore.DrawCall{Blend: gpucore.BlendCopy, Stencil: gpucore.StencilIncrement}, pipelineKey{gpucore.BlendSourceOver, gpucore.StencilIncrement}},
		{gpucore.DrawCall{Blend: gpucore.BlendScreen, Stencil: gpucore.StencilDecrement}, pipelineKey{gpucore.BlendSourceOver, gpucore.StencilDecrement}},
	}
	for _, tt := range tests {
		if got := keyFor(tt.call); got != tt.want {
			t.Errorf("keyFor(%v/%v) = %+v, want %+v", tt.call.Blend, tt.call.Stencil, got, tt.want)
		}
	}
}

func TestStencilState(t *testing.T) {
	tests := []struct {
		mode    gpucore.StencilMode
		ref     uint32
		compare gputypes.CompareFunction
		pass    hal.StencilOperation
		mask    uint32
		wantRef uint32
	}{
		{gpucore.StencilIgnore, 3, gputypes.CompareFunctionAlways, hal.StencilOperationKeep, 0, 3},
		{gpucore.StencilTest, 3, gputypes.CompareFunctionEqual, hal.StencilOperationKeep, 0, 3},
		{gpucore.StencilIncrement, 3, gputypes.CompareFunctionEqual, hal.StencilOperationIncrementClamp, 0xFF, 2},
		{gpucore.StencilDecrement, 3, gputypes.CompareFunctionEqual, hal.StencilOperationDecrementClamp, 0xFF, 3},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			face := stencilFace(tt.mode)
			if face.Compare != tt.compare {
				t.Errorf("Compare = %v, want %v", face.Compare, tt.compare)
			}
			if face.PassOp != tt.pass {
				t.Errorf("PassOp = %v, want %v", face.PassOp, tt.pass)
			}
			if face.FailOp != hal.StencilOperationKeep {
				t.Errorf("FailOp = %v, want Keep", face.FailOp)
			}
			if got := stencilWriteMask(tt.mode); got != tt.mask {
				t.Errorf("write mask = %#x, want %#x", got, tt.mask)
			}
			if got := stencilReference(gpucore.DrawCall{Stencil: tt.mode, StencilRef: tt.ref}); got != tt.wantRef {
				t.Errorf("reference = %d, want %d", got, tt.wantRef)
			}
		})
	}
}

func TestBlendState(t *testing.T) {
	tests := []struct {
		mode     gpucore.BlendMode
		src, dst gputypes.BlendFactor
	}{
		{gpucore.BlendSourceOver, gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha},
		{gpucore.BlendCopy, gputypes.BlendFactorOne, gputypes.BlendFactorZero},
		{gpucore.BlendAdd, gputypes.BlendFactorOne, gputypes.BlendFactorOne},
		{gpucore.BlendMultiply, gputypes.BlendFactorDst, gputypes.BlendFactorOneMinusSrcAlpha},
		{gpucore.BlendScreen, gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrc},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			bs := blendState(tt.mode)
			if bs.Color.SrcFactor != tt.src || bs.Color.DstFactor != tt.dst {
				t.Errorf("color = %v/%v, want %v/%v", bs.Color.SrcFactor, bs.Color.DstFactor, tt.src, tt.dst)
			}
		})
	}
}

func TestCompileSPIRV(t *testing.T) {
	words, err := compileSPIRV(shaderSource)
	if err != nil {
		t.Fatalf("compileSPIRV: %v", err)
	}
	const magic = 0x07230203
	if len(words) == 0 || words[0] != magic {
		t.Fatalf("SPIR-V header = %v, want magic %#x", words[:min(1, len(words))], magic)
	}
}

type fakeProvider struct {
	device, queue any
}

func (fakeProvider) Device() gpucontext.Device             { return nil }
func (fakeProvider) Queue() gpucontext.Queue               { return nil }
func (fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p fakeProvider) HalDevice() any                      { return p.device }
func (p fakeProvider) HalQueue() any                       { return p.queue }

func (fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "fake"}
}

// plainProvider exposes no hal objects.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestNewFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)
	cfg := DefaultConfig(8, 8)
	cfg.Readback = false

	b, err := NewFromProvider(fakeProvider{device: device, queue: queue}, cfg)
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	if b.owned {
		t.Error("shared device must not be owned")
	}
	b.Close()

	if _, err := NewFromProvider(fakeProvider{device: "x", queue: queue}, cfg); !errors.Is(err, ErrNoHalAccess) {
		t.Errorf("bad device: got %v, want ErrNoHalAccess", err)
	}
	if _, err := NewFromProvider(plainProvider{}, cfg); !errors.Is(err, ErrNoHalAccess) {
		t.Errorf("no hal access: got %v, want ErrNoHalAccess", err)
	}
}
