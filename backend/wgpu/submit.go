package wgpu

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gv/gpucore"
)

const (
	// copyPitchAlignment is the row alignment required for texture to
	// buffer copies.
	copyPitchAlignment = 256

	pollInterval = 100 * time.Microsecond
)

// Submit implements gpucore.Backend. It encodes the pending draws into one
// render pass, submits it, waits for the GPU and, when Config.Readback is
// set, copies the target into Target.
func (b *Backend) Submit() error {
	if b.closed {
		return ErrClosed
	}
	pending := b.pending
	b.pending = b.pending[:0]

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: b.cfg.label("encoder"),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(b.cfg.label("frame")); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	colorLoad := gputypes.LoadOpLoad
	if !b.targetLoaded {
		colorLoad = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: b.cfg.label("pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       b.colorView,
			LoadOp:     colorLoad,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              b.stencilView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})

	draws := 0
	for _, call := range pending {
		ok, err := b.record(rp, call)
		if err != nil {
			rp.End()
			encoder.DiscardEncoding()
			return err
		}
		if ok {
			draws++
		}
	}
	rp.End()

	var staging hal.Buffer
	var pitch uint32
	if b.cfg.Readback {
		staging, pitch, err = b.encodeReadback(encoder)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		defer b.device.DestroyBuffer(staging)
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	idx, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := b.wait(idx); err != nil {
		return err
	}
	b.targetLoaded = true
	b.frames++

	if staging != nil {
		if err := b.readback(staging, pitch); err != nil {
			return err
		}
	}
	b.logger.Debug("wgpu: frame submitted", "frame", b.frames, "draws", draws)
	return nil
}

// record encodes one draw. It reports false for draws that cannot affect
// the frame, and fails for draws whose resources are gone.
func (b *Backend) record(rp hal.RenderPassEncoder, call gpucore.DrawCall) (bool, error) {
	if call.IndexCount == 0 {
		return false, nil
	}
	// No stencil value is one below zero.
	if call.Stencil == gpucore.StencilIncrement && call.StencilRef == 0 {
		return false, nil
	}
	vb, ok := b.buffers[call.Vertices]
	if !ok {
		return false, fmt.Errorf("%w: vertex buffer %d destroyed before submit", gpucore.ErrUnknownResource, call.Vertices)
	}
	ib, ok := b.buffers[call.Indices]
	if !ok {
		return false, fmt.Errorf("%w: index buffer %d destroyed before submit", gpucore.ErrUnknownResource, call.Indices)
	}
	tex := b.white
	if call.Texture != gpucore.InvalidID {
		if tex, ok = b.textures[call.Texture]; !ok {
			return false, fmt.Errorf("%w: texture %d destroyed before submit", gpucore.ErrUnknownResource, call.Texture)
		}
	}
	pipeline, err := b.pipelines.get(keyFor(call))
	if err != nil {
		return false, fmt.Errorf("wgpu: pipeline: %w", err)
	}

	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, tex.bind, nil)
	rp.SetStencilReference(stencilReference(call))
	rp.SetVertexBuffer(0, vb.buf, 0)
	rp.SetIndexBuffer(ib.buf, gputypes.IndexFormatUint32, 0)
	rp.DrawIndexed(uint32(call.IndexCount), 1, 0, 0, 0) //nolint:gosec // validated by Draw
	return true, nil
}

// encodeReadback records a copy of the target into a new staging buffer.
func (b *Backend) encodeReadback(encoder hal.CommandEncoder) (hal.Buffer, uint32, error) {
	w, h := uint32(b.cfg.Width), uint32(b.cfg.Height) //nolint:gosec // validated positive
	pitch := (w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.cfg.label("staging"),
		Size:  uint64(pitch) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(b.colorTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: b.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: b.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return staging, pitch, nil
}

// wait blocks until the queue has completed submission idx.
func (b *Backend) wait(idx uint64) error {
	deadline := time.Now().Add(b.cfg.SubmitTimeout)
	for b.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d", ErrGPUTimeout, idx)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// readback copies the staging buffer into the target, dropping row
// padding.
func (b *Backend) readback(staging hal.Buffer, pitch uint32) error {
	h := b.cfg.Height
	size := uint64(pitch) * uint64(h) //nolint:gosec // validated positive
	m, err := b.device.MapBuffer(staging, 0, size)
	if err != nil {
		return fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	defer func() {
		if err := b.device.UnmapBuffer(staging); err != nil {
			b.logger.Warn("wgpu: unmap staging buffer", "err", err)
		}
	}()
	data := unsafe.Slice((*byte)(m.Ptr), size)
	row := b.cfg.Width * 4
	for y := range h {
		copy(b.target.Pix[y*b.target.Stride:y*b.target.Stride+row], data[y*int(pitch):])
	}
	return nil
}
