package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/config"
	"github.com/Carmen-Shannon/oxy-pick/engine/loader"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/tracker"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// maxSurfaceFailures is how many consecutive frames may fail to acquire the surface before the viewer gives up.
const maxSurfaceFailures = 3

var occluderColor = common.Color{R: 0.35, G: 0.35, B: 0.35, A: 1}

// hostRenderer is the part of renderer.Renderer the viewer draws the scene through.
type hostRenderer interface {
	picking.Device
	HostTarget() picking.Target
	Resize(width, height int)
	BeginFrame() error
	EndFrame() error
}

// viewerEngine is the part of engine.Engine the viewer's key bindings drive.
type viewerEngine interface {
	SetHighlight(id manipulator.Identity)
	ClearHighlight()
	Stats() profiler.Stats
}

// viewer is the demo host. It draws the scene into the window and hands each frame to the engine.
type viewer struct {
	win      window.Window
	renderer hostRenderer
	camera   camera.Camera
	geometry picking.Geometry
	catalog  *manipulator.Catalog
	engine   viewerEngine
	host     picking.HostInfo
	policy   picking.ConventionPolicy
	logger   *log.Logger
	cancel   context.CancelFunc
	now      func() time.Time

	dragging        bool
	lastCursor      common.Point
	suppressed      bool
	surfaceFailures int
}

var _ engine.FrameSource = &viewer{}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	scene, err := loader.NewLoader(loader.BackendTypeYAML).Load(cfg.Window.Manifest)
	if err != nil {
		return err
	}
	loader.Report(scene, logger)

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win, rendererOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer r.Release()

	width, height := win.FramebufferSize()
	cam := camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(cfg.Camera.Fov)),
		camera.WithAspect(aspect(width, height)),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithController(camera.NewCameraController(
			camera.WithRadius(cfg.Camera.Radius),
			camera.WithAzimuth(cfg.Camera.Azimuth),
			camera.WithElevation(cfg.Camera.Elevation),
			camera.WithTarget(cfg.Camera.Target[0], cfg.Camera.Target[1], cfg.Camera.Target[2]),
		)),
	)

	geometry := renderer.NewMeshGeometry(scene)
	opts, d := cfg.EngineOptions(geometry, logger)
	defer d.Close()

	eng, err := engine.NewEngine(scene.Catalog, r, r.PickTransfer(), geometry, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := newViewer(win, r, cam, geometry, scene.Catalog, eng, cfg, logger, cancel)
	unsubscribe := eng.Subscribe(v.activated)
	defer unsubscribe()

	return eng.Run(ctx, v)
}

func newViewer(win window.Window, r hostRenderer, cam camera.Camera, geometry picking.Geometry, catalog *manipulator.Catalog, eng viewerEngine, cfg config.Config, logger *log.Logger, cancel context.CancelFunc) *viewer {
	v := &viewer{
		win:      win,
		renderer: r,
		camera:   cam,
		geometry: geometry,
		catalog:  catalog,
		engine:   eng,
		host:     cfg.Host.Info(),
		policy:   cfg.Policy(),
		logger:   logger,
		cancel:   cancel,
		now:      time.Now,
	}
	win.SetResizeCallback(v.resized)
	win.SetScrollCallback(v.scrolled)
	win.SetMouseButtonCallback(v.mouseButton)
	win.SetMouseMoveCallback(v.mouseMoved)
	win.SetKeyDownCallback(v.keyDown)
	return v
}

func rendererOptions(cfg config.Config, logger *log.Logger) []renderer.RendererBuilderOption {
	present := renderer.PresentModeVSync
	if !cfg.Renderer.VSync {
		present = renderer.PresentModeUncapped
	}
	msaa := renderer.MSAA4x
	if cfg.Renderer.MSAA == 1 {
		msaa = renderer.MSAAOff
	}
	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(present),
		renderer.WithMSAA(msaa),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.Software),
		renderer.WithMaxDraws(cfg.Renderer.MaxDraws),
		renderer.WithClearColor(cfg.ClearColor()),
		renderer.WithLogger(logger),
	}
}

func (v *viewer) BeginFrame() (picking.FrameInput, error) {
	if !v.win.PollEvents() {
		v.cancel()
		return picking.FrameInput{}, picking.ErrSkipFrame
	}
	if v.win.Minimized() {
		return picking.FrameInput{}, picking.ErrSkipFrame
	}

	if err := v.renderer.BeginFrame(); err != nil {
		if errors.Is(err, picking.ErrSkipFrame) {
			return picking.FrameInput{}, err
		}
		v.surfaceFailures++
		if v.surfaceFailures >= maxSurfaceFailures {
			return picking.FrameInput{}, err
		}
		v.logger.Printf("[Viewer] skipping frame: %v", err)
		return picking.FrameInput{}, picking.ErrSkipFrame
	}
	v.surfaceFailures = 0

	conv := v.policy.Resolve(v.host)
	in := picking.FrameInput{
		Cursor:     v.win.Cursor(),
		Viewport:   v.win.Viewport(),
		View:       v.camera.ViewMatrix(),
		Projection: v.camera.ProjectionMatrix(conv),
		Host:       v.host,
		Target:     v.renderer.HostTarget(),
		Now:        v.now(),
	}
	if err := v.drawScene(in, conv); err != nil {
		if endErr := v.renderer.EndFrame(); endErr != nil {
			v.logger.Printf("[Viewer] frame failed: %v", endErr)
		}
		return picking.FrameInput{}, err
	}
	return in, nil
}

func (v *viewer) EndFrame() {
	if err := v.renderer.EndFrame(); err != nil {
		v.logger.Printf("[Viewer] frame failed: %v", err)
	}
}

// drawScene draws every manipulator and occluder into the host target, shaded by kind.
func (v *viewer) drawScene(in picking.FrameInput, conv picking.DepthConvention) error {
	state := picking.PassState{
		Target:       in.Target,
		Viewport:     in.Viewport,
		Transform:    in.SceneTransform(),
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: conv.Compare(),
		ClearDepth:   conv.FarDepth(),
	}
	if err := v.renderer.SetPassState(state); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	v.geometry.Meshes(picking.AllManipulators(), func(id manipulator.Identity, mesh picking.Mesh) {
		v.renderer.DrawMesh(mesh, picking.Fill{Mode: picking.FillTint, Tint: v.colorOf(id)})
	})
	return nil
}

func (v *viewer) colorOf(id manipulator.Identity) common.Color {
	d, ok := v.catalog.Lookup(id)
	if !ok {
		return occluderColor
	}
	switch d.Kind {
	case manipulator.KindToggle:
		return common.Color{R: 0.3, G: 0.75, B: 0.35, A: 1}
	case manipulator.KindCommand, manipulator.KindCommandSwitch2Way, manipulator.KindCommandSwitch2WaySecondary:
		return common.Color{R: 0.3, G: 0.5, B: 0.9, A: 1}
	case manipulator.KindAxisKnob, manipulator.KindCommandKnob, manipulator.KindCommandAxis:
		return common.Color{R: 0.9, G: 0.6, B: 0.2, A: 1}
	case manipulator.KindDragAxis, manipulator.KindDragRotate, manipulator.KindDragXY:
		return common.Color{R: 0.65, G: 0.4, B: 0.85, A: 1}
	default:
		return common.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	}
}

func (v *viewer) activated(ev tracker.ActivationEvent) {
	d, ok := v.catalog.Lookup(ev.Identity)
	if !ok {
		return
	}
	name := common.Coalesce(d.Name, fmt.Sprintf("manipulator-%d", ev.Identity))
	v.logger.Printf("[Viewer] activated %s (%s) at %s", name, d.Kind, ev.Start.Format(time.StampMilli))
}

func (v *viewer) resized(width, height int) {
	v.renderer.Resize(width, height)
	if width > 0 && height > 0 {
		v.camera.SetAspect(aspect(width, height))
	}
}

func (v *viewer) scrolled(delta float32) {
	if ctrl := v.camera.Controller(); ctrl != nil {
		ctrl.Zoom(delta)
	}
}

func (v *viewer) mouseButton(button window.MouseButton, pressed bool, cursor common.Point) {
	if button == window.MouseButtonLeft {
		return
	}
	v.dragging = pressed
	v.lastCursor = cursor
}

func (v *viewer) mouseMoved(cursor common.Point) {
	if v.dragging {
		if ctrl := v.camera.Controller(); ctrl != nil {
			ctrl.Drag(cursor.X-v.lastCursor.X, cursor.Y-v.lastCursor.Y)
		}
	}
	v.lastCursor = cursor
}

func (v *viewer) keyDown(key uint32) {
	ctrl := v.camera.Controller()
	switch key {
	case window.KeyLeft, window.KeyRight, window.KeyUp, window.KeyDown:
		if ctrl == nil {
			return
		}
		switch key {
		case window.KeyLeft:
			ctrl.OrbitLeft()
		case window.KeyRight:
			ctrl.OrbitRight()
		case window.KeyUp:
			ctrl.OrbitUp()
		case window.KeyDown:
			ctrl.OrbitDown()
		}
	case window.KeyH:
		v.suppressed = !v.suppressed
		if v.suppressed {
			v.engine.SetHighlight(manipulator.Sentinel)
		} else {
			v.engine.ClearHighlight()
		}
	case window.KeyP:
		s := v.engine.Stats()
		v.logger.Printf("[Viewer] frames=%d issued=%d resolved=%d backpressure=%d offscreen=%d activations=%d errors=%d latency=%s",
			s.Frames, s.Issued, s.Resolved, s.Backpressure, s.Offscreen, s.Activations, s.Errors, s.MeanLatency)
	}
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
