// Package gv renders 2D vector graphics and text through a GPU backend.
//
// # Overview
//
// gv turns paths, strokes, images and shaped text into textured triangle
// meshes and hands them to a small GPU Backend Interface
// (gpucore.Backend) as a handful of draw calls per frame. Geometry is
// tessellated on the CPU; glyphs and small images share one atlas texture
// that persists across frames. Clipping nests through the stencil buffer.
//
// # Quick Start
//
//	backend := software.New(512, 512)
//	r, err := gv.NewRenderer(backend)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	ctx, err := r.BeginFrame(512, 512)
//	if err != nil {
//	    return err
//	}
//	ctx.Clear(gv.Rect{}, gv.White)
//	p := gv.NewPath()
//	p.Circle(256, 256, 100)
//	ctx.Fill(p, gv.SolidPaint(gv.Red))
//	return ctx.EndFrame()
//
// # Frames
//
// A Renderer hands out one Context at a time. Drawing calls append
// geometry to batches in the order they are made; a new batch starts
// whenever the texture, blend mode or clip state changes. EndFrame
// uploads and draws every batch, then submits.
//
// # Backends
//
//   - backend/wgpu draws through gogpu/wgpu's hal layer
//   - backend/software rasterizes triangles on the CPU into an image.RGBA
//   - backend/recording records calls for tests and debugging
//
// # Coordinate System
//
// Origin (0,0) is the top-left corner of the frame, X grows right and Y
// grows down. Angles are in radians.
package gv

// Version is the library version.
const Version = "0.1.0"
