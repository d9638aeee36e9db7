package renderer

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA) of the host target.
// The pick target is never multisampled.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// targetKind identifies which attachment set a pass draws into.
type targetKind int

const (
	targetNone targetKind = iota
	targetHost
	targetPick
)

func (k targetKind) String() string {
	switch k {
	case targetHost:
		return "host"
	case targetPick:
		return "pick"
	default:
		return "none"
	}
}

// passLoad says how a pass treats the existing contents of its attachments.
type passLoad struct {
	Clear bool
	Color wgpu.Color
	Depth float32
}

// RendererBackend is the GPU side of the Renderer. The renderer owns pass bookkeeping and pipeline caching; the
// backend owns every GPU object.
type RendererBackend interface {
	// ConfigureSurface reconfigures the surface and the host attachments for a new size. A zero size is recorded
	// and frames are skipped until a non-zero size arrives.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode, applied on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the host target's color format.
	SurfaceFormat() wgpu.TextureFormat

	// SampleCount returns the host target's sample count.
	SampleCount() uint32

	// RegisterRenderPipeline creates the GPU pipeline for p and stores it on p.
	//
	// Parameters:
	//   - p: the pipeline to create
	//
	// Returns:
	//   - error: an error if the pipeline could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// BeginFrame acquires the next surface texture and creates the frame's command encoder.
	//
	// Returns:
	//   - error: picking.ErrSkipFrame for a zero-sized surface, or an acquisition error
	BeginFrame() error

	// BeginPass ends any open pass and begins one on the given target.
	//
	// Parameters:
	//   - kind: the attachment set to draw into
	//   - load: whether to clear the attachments and to what
	//
	// Returns:
	//   - error: an error if no frame is open
	BeginPass(kind targetKind, load passLoad) error

	// Draw records one unit cube draw with the given pipeline, viewport and per-draw uniform block.
	//
	// Parameters:
	//   - p: the registered pipeline
	//   - vp: the viewport, in pixels of the open pass's attachments
	//   - uniform: the encoded per-draw uniform block
	//
	// Returns:
	//   - error: an error if no pass is open or the frame's draw budget is spent
	Draw(p pipeline.Pipeline, vp common.Viewport, uniform []byte) error

	// CopyPickPixel ends any open pass and records a copy of the pick pixel into the staging buffer. The buffer is
	// mapped after the frame is submitted.
	//
	// Returns:
	//   - error: an error if no frame is open or a copy is already in flight
	CopyPickPixel() error

	// EndFrame ends any open pass, submits the frame, presents the surface and requests the staging map for a
	// copy recorded this frame.
	//
	// Returns:
	//   - error: a submission or map request error
	EndFrame() error

	// ReadPickPixel polls the device and reads the staged pick pixel if its map has completed.
	//
	// Returns:
	//   - uint16: the pixel value
	//   - bool: true if the value was read
	//   - error: a map failure, or an error if nothing was copied
	ReadPickPixel() (uint16, bool, error)

	// ReleasePick frees the pick target and staging buffer.
	ReleasePick()

	// Release frees every GPU object owned by the backend.
	Release()
}
