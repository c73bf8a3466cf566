// Package gpucore defines the GPU Backend Interface the renderer draws
// through.
//
// The renderer never calls a GPU API directly. Everything it needs from a
// device is expressed by [Backend]: create and write textures, upload
// vertex and index buffers, and issue one indexed draw per batch. Concrete
// implementations live under backend/ (wgpu, software, recording) and tests
// are free to supply their own.
//
// # Vertex layout
//
// Every draw uses the same interleaved [Vertex] layout, [VertexStride]
// bytes per vertex:
//
//	offset 0   position   2 x float32
//	offset 8   uv         2 x float32
//	offset 16  color      4 x uint8, premultiplied RGBA
//	offset 20  clip depth uint32
//
// Indices are uint32.
//
// # Stencil contract
//
// Clipping uses an 8-bit stencil buffer cleared to zero at frame start.
// [StencilTest] draws only where stencil == StencilRef. [StencilIncrement]
// writes no color and increments the stencil where it equals
// StencilRef-1; [StencilDecrement] writes no color and decrements where it
// equals StencilRef. [StencilIgnore] draws unconditionally.
package gpucore
