// Package wgpu implements the GPU Backend Interface over gogpu/wgpu/hal.
//
// One render pipeline exists per (blend mode, stencil mode) pair. They are
// created lazily and share a single shader, embedded as WGSL, which maps
// pixel coordinates to clip space and multiplies the vertex color by the
// bound texture. Untextured draws bind a 1x1 opaque white texture.
//
// The render target is an offscreen RGBA8 texture with a
// Depth24PlusStencil8 attachment. Color is preserved across frames and
// stencil is cleared at the start of each one. When Config.Readback is set
// Submit copies the frame into Target.
//
// Opening a device:
//
//	b, err := wgpu.Open(wgpu.DefaultConfig(800, 600))
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
// Sharing the device of a host application instead:
//
//	b, err := wgpu.NewFromProvider(provider, wgpu.DefaultConfig(w, h))
//
// The provider must expose HalDevice and HalQueue, as gogpu does.
//
// # Blend modes
//
// SourceOver, Copy, Add and Screen map exactly to fixed-function blending.
// Multiply omits the src*(1-dstA) term, which only matters where the
// destination is not opaque.
package wgpu
