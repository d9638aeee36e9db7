package window

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies a mouse button in button callbacks.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Window provides platform windowing and input event handling for the viewer.
// All coordinates it reports are framebuffer pixels measured from the top-left corner, so they can be compared
// directly with the viewport the renderer draws into.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized. A minimized window reports 0x0.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the key code, one of the Key constants
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code, one of the Key constants
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button, whether it was pressed, and the cursor position
	SetMouseButtonCallback(callback func(button MouseButton, pressed bool, cursor common.Point))

	// SetMouseMoveCallback sets the callback for mouse movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor position
	SetMouseMoveCallback(callback func(cursor common.Point))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// PollEvents dispatches pending window events to the callbacks without blocking.
	// The render loop calls it once per frame from the thread that created the window.
	//
	// Returns:
	//   - bool: false once the window has been closed
	PollEvents() bool

	// FramebufferSize returns the current framebuffer size in pixels.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	FramebufferSize() (int, int)

	// Viewport returns the whole framebuffer as a viewport.
	//
	// Returns:
	//   - common.Viewport: the framebuffer rectangle
	Viewport() common.Viewport

	// Cursor returns the last cursor position. The position is kept when the cursor leaves the window.
	//
	// Returns:
	//   - common.Point: the cursor in framebuffer pixels
	Cursor() common.Point

	// Minimized reports whether the framebuffer is currently zero-sized.
	//
	// Returns:
	//   - bool: true if there is nothing to draw into
	Minimized() bool
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// size limits applied while the user resizes the window.
	maxWidth, maxHeight int
	minWidth, minHeight int

	// width and height are the framebuffer size in pixels.
	width, height int

	// cursorScale converts window coordinates into framebuffer pixels on high-DPI displays.
	cursorScale [2]float32
	cursor      common.Point

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onKeyUp       func(keyCode uint32)
	onMouseButton func(button MouseButton, pressed bool, cursor common.Point)
	onMouseMove   func(cursor common.Point)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:       "Default Window Title",
		maxWidth:    3840,
		maxHeight:   2160,
		minWidth:    320,
		minHeight:   200,
		width:       1280,
		height:      720,
		cursorScale: [2]float32{1, 1},
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button MouseButton, pressed bool, cursor common.Point)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(cursor common.Point)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents() bool {
	if !w.IsRunning() {
		return false
	}
	return platformPollEvents(w)
}

func (w *engineWindow) FramebufferSize() (int, int) {
	return w.width, w.height
}

func (w *engineWindow) Viewport() common.Viewport {
	return common.Viewport{Width: int32(w.width), Height: int32(w.height)}
}

func (w *engineWindow) Cursor() common.Point {
	return w.cursor
}

func (w *engineWindow) Minimized() bool {
	return w.width <= 0 || w.height <= 0
}

// setCursor records a cursor position given in window coordinates and reports it.
func (w *engineWindow) setCursor(x, y float64) common.Point {
	w.cursor = common.Point{X: float32(x) * w.cursorScale[0], Y: float32(y) * w.cursorScale[1]}
	if w.onMouseMove != nil {
		w.onMouseMove(w.cursor)
	}
	return w.cursor
}

// setFramebufferSize records a new framebuffer size and the window size it belongs to, then reports it.
func (w *engineWindow) setFramebufferSize(fbWidth, fbHeight, winWidth, winHeight int) {
	w.width, w.height = fbWidth, fbHeight
	// A minimized window reports zero sizes; keep the last scale.
	if winWidth > 0 && winHeight > 0 && fbWidth > 0 && fbHeight > 0 {
		w.cursorScale = [2]float32{float32(fbWidth) / float32(winWidth), float32(fbHeight) / float32(winHeight)}
	}
	if w.onResize != nil {
		w.onResize(fbWidth, fbHeight)
	}
}

// mouseButton reports a button event at the last known cursor position.
func (w *engineWindow) mouseButton(button MouseButton, pressed bool) {
	if w.onMouseButton != nil {
		w.onMouseButton(button, pressed, w.cursor)
	}
}
