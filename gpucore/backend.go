package gpucore

import "errors"

// ErrUnknownResource is returned by backends for ids they did not create
// or already destroyed.
var ErrUnknownResource = errors.New("gpucore: unknown resource id")

// Limits reports the capabilities the renderer must stay within.
type Limits struct {
	// MaxTextureDimension is the largest width or height of a 2D texture.
	MaxTextureDimension int

	// MaxBufferSize is the largest buffer, in bytes.
	MaxBufferSize int
}

// DefaultLimits matches the WebGPU default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxTextureDimension: 8192,
		MaxBufferSize:       256 << 20,
	}
}

// DrawCall is one indexed triangle-list draw.
type DrawCall struct {
	Vertices   BufferID
	Indices    BufferID
	IndexCount int

	// Texture is sampled with the vertex uv, or InvalidID for untextured
	// draws, which behave as if sampling an opaque white texel.
	Texture TextureID

	Blend      BlendMode
	Stencil    StencilMode
	StencilRef uint32
}

// Backend is the GPU Backend Interface.
//
// Calls are made from a single goroutine. Draw calls between two Submit
// calls form one frame and must reach the target in the order issued.
// Buffers created during a frame may be destroyed by the caller right
// after Submit returns.
type Backend interface {
	// Limits reports device limits.
	Limits() Limits

	// CreateTexture allocates a texture. Its initial content is transparent.
	CreateTexture(width, height int, format TextureFormat) (TextureID, error)

	// WriteTexture replaces the texels of region with data, tightly packed
	// rows of region.Width texels.
	WriteTexture(id TextureID, region Region, data []byte) error

	// DestroyTexture releases a texture. Unknown ids are ignored.
	DestroyTexture(id TextureID)

	// CreateBuffer uploads data into a new buffer.
	CreateBuffer(usage BufferUsage, data []byte) (BufferID, error)

	// DestroyBuffer releases a buffer. Unknown ids are ignored.
	DestroyBuffer(id BufferID)

	// Draw records one draw call.
	Draw(call DrawCall) error

	// Submit executes every draw recorded since the previous Submit.
	Submit() error
}
