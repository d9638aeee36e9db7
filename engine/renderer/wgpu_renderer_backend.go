package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pickStagingSize is one row of the 1x1 pick copy; rows are aligned to 256 bytes.
const pickStagingSize = 256

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount   MSAASampleCount  // MSAA sample count for the host target
	width, height int

	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	// The cube every manipulator is drawn from, and the per-draw uniform ring.
	mesh           bind_group_provider.BindGroupProvider
	uniforms       bind_group_provider.BindGroupProvider
	pipelineLayout *wgpu.PipelineLayout
	maxDraws       int
	drawIndex      int

	pick pickResources

	// Frame state for batched rendering across multiple passes
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameKind    targetKind
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, maxDraws int) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		maxDraws:    maxDraws,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Pick Device",
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, errors.New("surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]

	if err := b.initMesh(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.initUniforms(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.pick.init(b.device); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// initMesh uploads the unit cube.
func (b *wgpuRendererBackendImpl) initMesh() error {
	vertices := cubeVertices()
	indices := cubeIndices()
	vertexData := make([]byte, 4*len(vertices))
	for i, f := range vertices {
		binary.LittleEndian.PutUint32(vertexData[4*i:], math.Float32bits(f))
	}
	indexData := make([]byte, 4*len(indices))
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(indexData[4*i:], idx)
	}

	b.mesh = bind_group_provider.NewBindGroupProvider("Unit Cube")
	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.mesh.Label() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create cube vertex buffer: %w", err)
	}
	b.queue.WriteBuffer(vb, 0, vertexData)
	b.mesh.SetVertexBuffer(vb)

	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.mesh.Label() + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create cube index buffer: %w", err)
	}
	b.queue.WriteBuffer(ib, 0, indexData)
	b.mesh.SetIndexBuffer(ib)
	b.mesh.SetIndexCount(len(indices))
	return nil
}

// initUniforms creates the per-draw uniform ring, its dynamic-offset bind group and the shared pipeline layout.
func (b *wgpuRendererBackendImpl) initUniforms() error {
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Draw Uniform Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   drawUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw uniform layout: %w", err)
	}
	b.uniforms = bind_group_provider.NewBindGroupProvider("Draw Uniforms", bind_group_provider.WithBindGroupLayout(layout))

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Draw Uniform Ring",
		Size:  uint64(b.maxDraws * uniformStride),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create draw uniform ring: %w", err)
	}
	b.uniforms.SetBuffer(0, buf)

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Draw Uniform Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: drawUniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw uniform bind group: %w", err)
	}
	b.uniforms.SetBindGroup(bg)

	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Draw Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height
	if width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseHostAttachments()
	count := uint32(b.sampleCount)
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	if count > 1 {
		// The host pass draws into the MSAA texture and resolves into the swapchain view.
		tex, view, err := b.createAttachment("MSAA Texture", size, count, b.surfaceFormat)
		if err != nil {
			panic(err)
		}
		b.msaaTexture, b.msaaTextureView = tex, view
	}

	// Depth texture sample count must match the color attachment.
	tex, view, err := b.createAttachment("Depth Texture", size, count, wgpu.TextureFormatDepth32Float)
	if err != nil {
		panic(err)
	}
	b.depthTexture, b.depthTextureView = tex, view
}

func (b *wgpuRendererBackendImpl) createAttachment(label string, size wgpu.Extent3D, samples uint32, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) releaseHostAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTexture.Release()
		b.msaaTextureView, b.msaaTexture = nil, nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) SampleCount() uint32 {
	return uint32(b.sampleCount)
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}
	defer fs.Release()

	colorTarget := wgpu.ColorTargetState{
		Format:    p.ColorFormat(),
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		colorTarget.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: p.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            p.DepthFormat(),
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      p.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.width <= 0 || b.height <= 0 {
		return picking.ErrSkipFrame
	}
	// If a previous frame's surface texture is still held, avoid acquiring another one.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.drawIndex = 0
	return nil
}

func (b *wgpuRendererBackendImpl) BeginPass(kind targetKind, load passLoad) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	b.endPass()

	loadOp := wgpu.LoadOpLoad
	if load.Clear {
		loadOp = wgpu.LoadOpClear
	}
	color := wgpu.RenderPassColorAttachment{
		LoadOp:     loadOp,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: load.Color,
	}
	depth := &wgpu.RenderPassDepthStencilAttachment{
		DepthLoadOp:     loadOp,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: load.Depth,
	}

	switch kind {
	case targetHost:
		// With MSAA the host pass draws into the MSAA texture and resolves into the swapchain view.
		if b.sampleCount > 1 {
			color.View = b.msaaTextureView
			color.ResolveTarget = b.frameView
		} else {
			color.View = b.frameView
		}
		depth.View = b.depthTextureView
	case targetPick:
		if b.pick.view == nil {
			return picking.ErrNoTransfer
		}
		color.View = b.pick.view
		depth.View = b.pick.depthView
	default:
		return ErrUnknownTarget
	}

	b.framePass = b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  kind.String() + " Pass",
		ColorAttachments:       []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: depth,
	})
	b.frameKind = kind
	return nil
}

func (b *wgpuRendererBackendImpl) Draw(p pipeline.Pipeline, vp common.Viewport, uniform []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	if b.drawIndex >= b.maxDraws {
		return ErrDrawBudget
	}

	width, height := uint32(b.width), uint32(b.height)
	if b.frameKind == targetPick {
		width, height = 1, 1
	}
	clipped, ok := clampViewport(vp, width, height)
	if !ok {
		return nil
	}

	offset := uint64(b.drawIndex * uniformStride)
	b.drawIndex++
	b.queue.WriteBuffer(b.uniforms.Buffer(0), offset, uniform)

	b.framePass.SetPipeline(p.RenderPipeline())
	b.framePass.SetBindGroup(0, b.uniforms.BindGroup(), []uint32{uint32(offset)})
	b.framePass.SetViewport(float32(clipped.X), float32(clipped.Y), float32(clipped.Width), float32(clipped.Height), 0, 1)
	b.framePass.SetVertexBuffer(0, b.mesh.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(b.mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(b.mesh.IndexCount()), 1, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) CopyPickPixel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	b.endPass()
	return b.pick.record(b.frameEncoder)
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	b.endPass()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.releaseFrameSurface()
		b.pick.drop()
		return err
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil

	b.surface.Present()
	b.releaseFrameSurface()

	b.pick.requestMap()
	return nil
}

func (b *wgpuRendererBackendImpl) ReadPickPixel() (uint16, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pick.read(b.device)
}

func (b *wgpuRendererBackendImpl) ReleasePick() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pick.release()
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		b.endPass()
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()
	b.pick.release()
	b.releaseHostAttachments()
	if b.mesh != nil {
		b.mesh.Release()
		b.mesh = nil
	}
	if b.uniforms != nil {
		b.uniforms.Release()
		b.uniforms = nil
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// endPass ends the open pass, if any.
func (b *wgpuRendererBackendImpl) endPass() {
	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
	b.frameKind = targetNone
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}
