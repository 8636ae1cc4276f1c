package renderer

import (
	"fmt"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
	DirectX
	Metal
	OpenGL
)

func (t RendererType) String() string {
	switch t {
	case Vulkan:
		return "vulkan"
	case DirectX:
		return "directx"
	case Metal:
		return "metal"
	case OpenGL:
		return "opengl"
	}
	return "unknown"
}

// RenderPacket carries the per-frame input of DrawFrame.
type RenderPacket struct {
	DeltaTime float64
}

type Renderer struct {
	backend RendererBackend
}

// New builds a renderer for window. Only the Vulkan backend exists.
func New(rendererType RendererType, config vulkan.BackendConfig, window Window) (*Renderer, error) {
	if rendererType != Vulkan {
		return nil, fmt.Errorf("renderer backend %s is not supported: %w", rendererType, core.ErrUnknown)
	}
	return NewWithBackend(vulkan.NewBackend(config, window, vulkan.NewDriver())), nil
}

func NewWithBackend(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend}
}

func (r *Renderer) Initialize() error {
	if err := r.backend.Initialize(); err != nil {
		core.LogError("Renderer backend failed to initialize. Shutting down.")
		return err
	}
	return nil
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *Renderer) DrawFrame(packet *RenderPacket) error {
	if err := r.backend.DrawFrame(); err != nil {
		core.LogError("DrawFrame failed after %.4fs frame: %s", packet.DeltaTime, err)
		return err
	}
	return nil
}

// UploadVertices adds a vertex buffer that is drawn every frame from now on.
func (r *Renderer) UploadVertices(vertices []vulkan.Vertex) error {
	return r.backend.AddVertexBuffer(vertices)
}

// ReloadShaders rebuilds the pipeline from stages. A failed rebuild leaves the
// previous pipeline drawing.
func (r *Renderer) ReloadShaders(stages vulkan.ShaderStages) error {
	core.LogInfo("Reloading shaders.")
	return r.backend.ReloadShaders(stages)
}

// OnResize asks for a swapchain rebuild on the next frame.
func (r *Renderer) OnResize(width, height uint32) {
	core.LogDebug("Window resized to %dx%d.", width, height)
	r.backend.Invalidate("window resized")
}
