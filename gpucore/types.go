package gpucore

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing no resource. A DrawCall whose
// Texture is InvalidID is untextured.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageVertex indicates the buffer holds encoded vertices.
	BufferUsageVertex BufferUsage = 1 << iota

	// BufferUsageIndex indicates the buffer holds uint32 indices.
	BufferUsageIndex
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageIndex:
		return "index"
	default:
		return "mixed"
	}
}

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit premultiplied RGBA.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatBGRA8Unorm is 8-bit premultiplied BGRA.
	TextureFormatBGRA8Unorm

	// TextureFormatR8Unorm is a single 8-bit coverage channel.
	TextureFormatR8Unorm
)

// BytesPerPixel returns the texel size of the format.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatR8Unorm:
		return 1
	default:
		return 4
	}
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	case TextureFormatR8Unorm:
		return "r8unorm"
	default:
		return "unknown"
	}
}

// Region is an integer rectangle inside a texture.
type Region struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the region covers no texels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether two regions share at least one texel.
func (r Region) Overlaps(o Region) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// BlendMode selects how a draw's premultiplied color combines with the target.
type BlendMode uint8

// Blend modes.
const (
	// BlendSourceOver is premultiplied source-over: src + dst*(1-srcA).
	BlendSourceOver BlendMode = iota

	// BlendCopy replaces the destination: src.
	BlendCopy

	// BlendAdd sums source and destination, saturating.
	BlendAdd

	// BlendMultiply is src*dst + src*(1-dstA) + dst*(1-srcA).
	BlendMultiply

	// BlendScreen is src + dst - src*dst.
	BlendScreen
)

func (b BlendMode) String() string {
	switch b {
	case BlendSourceOver:
		return "source-over"
	case BlendCopy:
		return "copy"
	case BlendAdd:
		return "add"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	default:
		return "unknown"
	}
}

// StencilMode selects how a draw interacts with the clip stencil.
type StencilMode uint8

// Stencil modes, see the package documentation for the exact contract.
const (
	StencilIgnore StencilMode = iota
	StencilTest
	StencilIncrement
	StencilDecrement
)

func (s StencilMode) String() string {
	switch s {
	case StencilIgnore:
		return "ignore"
	case StencilTest:
		return "test"
	case StencilIncrement:
		return "increment"
	case StencilDecrement:
		return "decrement"
	default:
		return "unknown"
	}
}

// WritesColor reports whether draws in this mode affect the color target.
func (s StencilMode) WritesColor() bool {
	return s == StencilIgnore || s == StencilTest
}
