package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gv/gpucore"
)

//go:embed shader.wgsl
var shaderSource string

const (
	targetFormat  = gputypes.TextureFormatRGBA8Unorm
	stencilFormat = gputypes.TextureFormatDepth24PlusStencil8
	viewportSize  = 16
)

// pipelineKey identifies one render pipeline variant.
type pipelineKey struct {
	blend   gpucore.BlendMode
	stencil gpucore.StencilMode
}

// keyFor normalizes a draw's modes. Draws that write no color share one
// pipeline per stencil mode regardless of blend mode.
func keyFor(call gpucore.DrawCall) pipelineKey {
	k := pipelineKey{blend: call.Blend, stencil: call.Stencil}
	if !k.stencil.WritesColor() {
		k.blend = gpucore.BlendSourceOver
	}
	return k
}

// pipelineCache owns the shader, layouts, sampler and every pipeline
// variant created so far.
type pipelineCache struct {
	device hal.Device
	cfg    Config

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler

	pipelines map[pipelineKey]hal.RenderPipeline
}

func newPipelineCache(device hal.Device, cfg Config) (*pipelineCache, error) {
	pc := &pipelineCache{
		device:    device,
		cfg:       cfg,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
	if err := pc.init(); err != nil {
		pc.destroy()
		return nil, err
	}
	return pc, nil
}

func (pc *pipelineCache) init() error {
	src, err := shaderModuleSource(pc.cfg.ShaderFormat)
	if err != nil {
		return err
	}
	shader, err := pc.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  pc.cfg.label("shader"),
		Source: src,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module: %w", err)
	}
	pc.shader = shader

	// Binding 0: viewport uniform (vertex)
	// Binding 1: texture (fragment)
	// Binding 2: sampler (fragment)
	bindLayout, err := pc.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: pc.cfg.label("bind_layout"),
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	pc.bindLayout = bindLayout

	pipeLayout, err := pc.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            pc.cfg.label("pipe_layout"),
		BindGroupLayouts: []hal.BindGroupLayout{pc.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	pc.pipeLayout = pipeLayout

	sampler, err := pc.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        pc.cfg.label("sampler"),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create sampler: %w", err)
	}
	pc.sampler = sampler
	return nil
}

// shaderModuleSource returns the shader in the requested form.
func shaderModuleSource(f ShaderFormat) (hal.ShaderSource, error) {
	if f != ShaderSPIRV {
		return hal.ShaderSource{WGSL: shaderSource}, nil
	}
	spirv, err := compileSPIRV(shaderSource)
	if err != nil {
		return hal.ShaderSource{}, err
	}
	return hal.ShaderSource{SPIRV: spirv}, nil
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	b, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile shader: %w", err)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}

// get returns the pipeline for k, creating it on first use.
func (pc *pipelineCache) get(k pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := pc.pipelines[k]; ok {
		return p, nil
	}

	bs := blendState(k.blend)
	writeMask := gputypes.ColorWriteMaskAll
	if !k.stencil.WritesColor() {
		writeMask = gputypes.ColorWriteMaskNone
	}
	face := stencilFace(k.stencil)

	p, err := pc.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  pc.cfg.label(fmt.Sprintf("pipeline_%s_%s", k.blend, k.stencil)),
		Layout: pc.pipeLayout,
		Vertex: hal.VertexState{
			Module:     pc.shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     pc.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					Blend:     &bs,
					WriteMask: writeMask,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            stencilFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   0xFF,
			StencilWriteMask:  stencilWriteMask(k.stencil),
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %s/%s: %w", k.blend, k.stencil, err)
	}
	pc.pipelines[k] = p
	return p, nil
}

func (pc *pipelineCache) destroy() {
	for k, p := range pc.pipelines {
		pc.device.DestroyRenderPipeline(p)
		delete(pc.pipelines, k)
	}
	if pc.sampler != nil {
		pc.device.DestroySampler(pc.sampler)
		pc.sampler = nil
	}
	if pc.pipeLayout != nil {
		pc.device.DestroyPipelineLayout(pc.pipeLayout)
		pc.pipeLayout = nil
	}
	if pc.bindLayout != nil {
		pc.device.DestroyBindGroupLayout(pc.bindLayout)
		pc.bindLayout = nil
	}
	if pc.shader != nil {
		pc.device.DestroyShaderModule(pc.shader)
		pc.shader = nil
	}
}

// vertexLayout matches gpucore.Vertex. The clip depth tag at offset 20 is
// not read by the shader.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: gpucore.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
				{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2}, // color
			},
		},
	}
}

func blendComponent(src, dst gputypes.BlendFactor) gputypes.BlendComponent {
	return gputypes.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: gputypes.BlendOperationAdd}
}

// blendState maps a blend mode to premultiplied fixed-function blending.
func blendState(m gpucore.BlendMode) gputypes.BlendState {
	over := blendComponent(gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha)
	switch m {
	case gpucore.BlendCopy:
		c := blendComponent(gputypes.BlendFactorOne, gputypes.BlendFactorZero)
		return gputypes.BlendState{Color: c, Alpha: c}
	case gpucore.BlendAdd:
		c := blendComponent(gputypes.BlendFactorOne, gputypes.BlendFactorOne)
		return gputypes.BlendState{Color: c, Alpha: c}
	case gpucore.BlendMultiply:
		return gputypes.BlendState{
			Color: blendComponent(gputypes.BlendFactorDst, gputypes.BlendFactorOneMinusSrcAlpha),
			Alpha: over,
		}
	case gpucore.BlendScreen:
		return gputypes.BlendState{
			Color: blendComponent(gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrc),
			Alpha: over,
		}
	default:
		return gputypes.BlendStatePremultiplied()
	}
}

// stencilFace implements the stencil contract of gpucore. The reference
// programmed for a draw comes from stencilReference.
func stencilFace(m gpucore.StencilMode) hal.StencilFaceState {
	face := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	switch m {
	case gpucore.StencilTest:
		face.Compare = gputypes.CompareFunctionEqual
	case gpucore.StencilIncrement:
		face.Compare = gputypes.CompareFunctionEqual
		face.PassOp = hal.StencilOperationIncrementClamp
	case gpucore.StencilDecrement:
		face.Compare = gputypes.CompareFunctionEqual
		face.PassOp = hal.StencilOperationDecrementClamp
	}
	return face
}

func stencilWriteMask(m gpucore.StencilMode) uint32 {
	if m == gpucore.StencilIncrement || m == gpucore.StencilDecrement {
		return 0xFF
	}
	return 0
}

// stencilReference returns the value compared against the stencil buffer.
// Increment draws match pixels one level below the new clip depth.
func stencilReference(call gpucore.DrawCall) uint32 {
	if call.Stencil == gpucore.StencilIncrement && call.StencilRef > 0 {
		return call.StencilRef - 1
	}
	return call.StencilRef
}
