package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownTarget is returned by SetPassState for a target this renderer does not own.
	ErrUnknownTarget = errors.New("unknown render target")

	// ErrUnknownMesh is reported for meshes that were not built by this package.
	ErrUnknownMesh = errors.New("unsupported mesh")

	// ErrNoFrame is reported for draws and copies outside BeginFrame and EndFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrDrawBudget is reported when a frame records more draws than the uniform ring holds.
	ErrDrawBudget = errors.New("frame draw budget exhausted")

	// ErrNoPickCopy is returned by TryRead when no copy was scheduled.
	ErrNoPickCopy = errors.New("no pick copy in flight")

	// ErrPickCopyInFlight is returned by CopyPixel while the previous copy is still unread.
	ErrPickCopyInFlight = errors.New("pick copy already in flight")

	// ErrPickMapFailed is returned by TryRead when the staging buffer could not be mapped.
	ErrPickMapFailed = errors.New("pick staging map failed")
)

const (
	defaultMaxDraws = 1024

	pickVertexKey   = "pick_vs"
	pickFragmentKey = "pick_fs"
	tintVertexKey   = "tint_vs"
	tintFragmentKey = "tint_fs"
)

// DefaultClearColor is the host background.
var DefaultClearColor = common.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// target is a render target owned by the renderer.
type target struct {
	label string
	kind  targetKind
}

func (t *target) Label() string {
	return t.label
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	shaders       map[string]shader.Shader

	backendType RendererBackendType
	backend     RendererBackend

	host     *target
	pick     *target
	transfer *pickTransfer

	state       picking.PassState
	open        targetKind
	hostCleared bool
	inFrame     bool
	frameErr    error

	clearColor common.Color
	logger     *log.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	maxDraws             int
}

// Renderer is the WebGPU device the picking engine and the host scene draw through. It owns two targets: the host
// framebuffer and the 1x1 pick target, and it caches one pipeline per distinct pass state.
//
// Draw failures are not reported by DrawMesh; the first one of a frame is returned by EndFrame.
type Renderer interface {
	picking.Device

	// HostTarget returns the target that draws into the window surface.
	//
	// Returns:
	//   - picking.Target: the host target
	HostTarget() picking.Target

	// PickTransfer returns the staging transfer that owns the pick target.
	//
	// Returns:
	//   - picking.Transfer: the pick transfer
	PickTransfer() picking.Transfer

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Resize configures the underlying backend to handle a new surface size.
	// A zero size makes BeginFrame skip frames until the next non-zero size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the next surface texture and opens the frame for draws.
	//
	// Returns:
	//   - error: picking.ErrSkipFrame when the surface is zero-sized, or an acquisition error
	BeginFrame() error

	// EndFrame submits and presents the frame. A pick copy recorded during the frame starts mapping once the frame
	// is submitted. A frame that drew nothing into the host target presents the background.
	//
	// Returns:
	//   - error: the first draw failure of the frame joined with any submission error
	EndFrame() error

	// Release frees every pipeline and GPU object owned by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer drawing into the surface of win.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window whose surface the host target presents to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the GPU device, the pick resources or the shaders could not be created
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, options...)

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.maxDraws)
		if err != nil {
			return nil, fmt.Errorf("new renderer: %w", err)
		}
		r.backend = b
	}

	if err := r.init(); err != nil {
		r.backend.Release()
		return nil, err
	}
	width, height := win.FramebufferSize()
	r.backend.ConfigureSurface(width, height)
	return r, nil
}

func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		shaders:       make(map[string]shader.Shader),
		backendType:   backendType,
		host:          &target{label: "host", kind: targetHost},
		pick:          &target{label: "pick", kind: targetPick},
		clearColor:    DefaultClearColor,
		logger:        log.Default(),
		maxDraws:      defaultMaxDraws,
	}
	r.transfer = &pickTransfer{r: r}
	r.state = picking.PassState{
		Target:       r.host,
		Transform:    mgl32.Ident4(),
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: picking.CompareLess,
		ClearDepth:   1,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	return r
}

// init parses the shaders and applies the options that need a backend.
func (r *renderer) init() error {
	sources := []struct {
		key        string
		shaderType shader.ShaderType
		source     string
	}{
		{pickVertexKey, shader.ShaderTypeVertex, shader.PickSource},
		{pickFragmentKey, shader.ShaderTypeFragment, shader.PickSource},
		{tintVertexKey, shader.ShaderTypeVertex, shader.TintSource},
		{tintFragmentKey, shader.ShaderTypeFragment, shader.TintSource},
	}
	for _, s := range sources {
		sh, err := shader.NewShader(s.key, s.shaderType, s.source)
		if err != nil {
			return fmt.Errorf("new renderer: %w", err)
		}
		r.shaders[s.key] = sh
	}
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	return nil
}

func (r *renderer) HostTarget() picking.Target {
	return r.host
}

func (r *renderer) PickTransfer() picking.Transfer {
	return r.transfer
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.pipelineCache[key]
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) PassState() picking.PassState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

func (r *renderer) SetPassState(s picking.PassState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.kindOf(s.Target) == targetNone {
		return fmt.Errorf("set pass state: %w", ErrUnknownTarget)
	}
	r.state = s
	return nil
}

func (r *renderer) ClearPick(color uint16, depth float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		r.fail(fmt.Errorf("clear: %w", ErrNoFrame))
		return
	}
	kind := r.kindOf(r.state.Target)
	if kind == targetNone {
		r.fail(fmt.Errorf("clear: %w", ErrUnknownTarget))
		return
	}
	if err := r.backend.BeginPass(kind, passLoad{Clear: true, Color: wgpu.Color{R: float64(color)}, Depth: depth}); err != nil {
		r.fail(fmt.Errorf("clear %s: %w", kind, err))
		return
	}
	r.open = kind
	if kind == targetHost {
		r.hostCleared = true
	}
}

func (r *renderer) DrawMesh(mesh picking.Mesh, fill picking.Fill) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		r.fail(fmt.Errorf("draw: %w", ErrNoFrame))
		return
	}
	box, ok := mesh.(*BoxMesh)
	if !ok {
		r.fail(fmt.Errorf("draw %T: %w", mesh, ErrUnknownMesh))
		return
	}
	kind := r.kindOf(r.state.Target)
	if kind == targetNone {
		r.fail(fmt.Errorf("draw %s: %w", box.Label(), ErrUnknownTarget))
		return
	}
	if err := r.ensurePass(kind); err != nil {
		r.fail(err)
		return
	}
	p, err := r.pipelineFor(kind, r.state)
	if err != nil {
		r.fail(err)
		return
	}
	uniform := encodeDrawUniform(r.state.Transform.Mul4(box.Model()), fill)
	if err := r.backend.Draw(p, r.state.Viewport, uniform); err != nil {
		r.fail(fmt.Errorf("draw %s: %w", box.Label(), err))
	}
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFrame {
		return errors.New("begin frame: previous frame not ended")
	}
	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	r.inFrame = true
	r.open = targetNone
	r.hostCleared = false
	r.frameErr = nil
	return nil
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return fmt.Errorf("end frame: %w", ErrNoFrame)
	}
	if !r.hostCleared {
		if err := r.ensurePass(targetHost); err != nil {
			r.fail(err)
		}
	}
	err := r.backend.EndFrame()
	if err != nil {
		err = fmt.Errorf("end frame: %w", err)
	}
	r.inFrame = false
	r.open = targetNone
	return errors.Join(r.frameErr, err)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.pick = nil
	r.backend.Release()
}

// kindOf maps a target back onto the attachment set it draws into.
func (r *renderer) kindOf(t picking.Target) targetKind {
	tt, ok := t.(*target)
	if !ok || tt == nil {
		return targetNone
	}
	if tt != r.host && tt != r.pick {
		return targetNone
	}
	return tt.kind
}

// ensurePass opens a pass on kind if one is not open. The first host pass of a frame clears to the background and
// to the pass state's clear depth; later ones load what earlier passes drew.
func (r *renderer) ensurePass(kind targetKind) error {
	if r.open == kind {
		return nil
	}
	var load passLoad
	if kind == targetHost && !r.hostCleared {
		c := r.clearColor
		load = passLoad{
			Clear: true,
			Color: wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
			Depth: r.state.ClearDepth,
		}
		r.hostCleared = true
	}
	if err := r.backend.BeginPass(kind, load); err != nil {
		return fmt.Errorf("begin %s pass: %w", kind, err)
	}
	r.open = kind
	return nil
}

// fail keeps the first draw failure of the frame.
func (r *renderer) fail(err error) {
	if r.frameErr == nil {
		r.frameErr = err
	}
}

// pipelineFor returns the cached pipeline for a pass state, creating it on first use.
func (r *renderer) pipelineFor(kind targetKind, s picking.PassState) (pipeline.Pipeline, error) {
	key := pipelineKey(kind, s)
	if p, ok := r.pipelineCache[key]; ok {
		return p, nil
	}

	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithDepthTestEnabled(s.DepthTest),
		pipeline.WithDepthWriteEnabled(s.DepthWrite),
		pipeline.WithDepthCompare(toWGPUCompare(s.DepthCompare)),
		pipeline.WithDepthFormat(wgpu.TextureFormatDepth32Float),
	}
	switch kind {
	case targetPick:
		opts = append(opts,
			pipeline.WithVertexShader(r.shaders[pickVertexKey]),
			pipeline.WithFragmentShader(r.shaders[pickFragmentKey]),
			pipeline.WithColorFormat(wgpu.TextureFormatR16Uint),
			pipeline.WithSampleCount(1),
		)
	default:
		opts = append(opts,
			pipeline.WithVertexShader(r.shaders[tintVertexKey]),
			pipeline.WithFragmentShader(r.shaders[tintFragmentKey]),
			pipeline.WithColorFormat(r.backend.SurfaceFormat()),
			pipeline.WithSampleCount(r.backend.SampleCount()),
			pipeline.WithBlendEnabled(s.Blend),
		)
	}

	p := pipeline.NewPipeline(key, opts...)
	if err := r.backend.RegisterRenderPipeline(p); err != nil {
		return nil, fmt.Errorf("register pipeline %s: %w", key, err)
	}
	r.pipelineCache[key] = p
	r.logger.Printf("[Renderer] created pipeline %s", key)
	return p, nil
}

// pickTransfer is the picking.Transfer over the renderer's pick target.
type pickTransfer struct {
	r *renderer
}

var _ picking.Transfer = &pickTransfer{}

func (t *pickTransfer) Target() picking.Target {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()

	if t.r.pick == nil {
		return nil
	}
	return t.r.pick
}

func (t *pickTransfer) CopyPixel() error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()

	if !t.r.inFrame {
		return fmt.Errorf("copy pick pixel: %w", ErrNoFrame)
	}
	if t.r.pick == nil {
		return fmt.Errorf("copy pick pixel: %w", picking.ErrNoTransfer)
	}
	// The copy is encoded outside any pass.
	t.r.open = targetNone
	return t.r.backend.CopyPickPixel()
}

func (t *pickTransfer) TryRead() (uint16, bool, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()

	return t.r.backend.ReadPickPixel()
}

func (t *pickTransfer) Release() {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()

	if t.r.pick == nil {
		return
	}
	t.r.pick = nil
	t.r.backend.ReleasePick()
}
