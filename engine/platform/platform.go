package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type WindowConfig struct {
	Title  string
	X, Y   uint32
	Width  uint32
	Height uint32
}

// Window is a glfw window without a client API, ready for a Vulkan surface.
// Every method must be called from the main thread.
type Window struct {
	handle *glfw.Window
	events *core.EventBus

	resized   bool
	startTime float64
}

// NewWindow initializes glfw and opens the window. Resize and quit requests
// are fired on events.
func NewWindow(config WindowConfig, events *core.EventBus) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw reports no Vulkan loader: %w", core.ErrNoSuitableAdapter)
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	handle, err := glfw.CreateWindow(int(config.Width), int(config.Height), config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		handle: handle,
		events: events,
	}
	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		w.onKey(key, action)
	})
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.onFramebufferSize(width, height)
	})
	handle.SetCloseCallback(func(_ *glfw.Window) {
		w.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, w, core.EventContext{})
	})
	handle.SetPos(int(config.X), int(config.Y))
	handle.Show()

	w.startTime = glfw.GetTime()
	core.LogInfo("Window '%s' created: %dx%d.", config.Title, config.Width, config.Height)
	return w, nil
}

func (w *Window) onKey(key glfw.Key, action glfw.Action) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, w, core.EventContext{})
	}
}

func (w *Window) onFramebufferSize(width, height int) {
	w.resized = true
	ctx := core.EventContext{}
	ctx.Data.U32[0] = uint32(width)
	ctx.Data.U32[1] = uint32(height)
	w.events.Fire(core.EVENT_CODE_RESIZED, w, ctx)
}

func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

func (w *Window) Resized() bool {
	return w.resized
}

func (w *Window) ResetResized() {
	w.resized = false
}

func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) SetShouldClose(value bool) {
	w.handle.SetShouldClose(value)
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("failed to create window surface: %w", err)
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

// AbsoluteTime is the number of seconds since the window was opened.
func (w *Window) AbsoluteTime() float64 {
	return glfw.GetTime() - w.startTime
}

func (w *Window) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	glfw.Terminate()
}
