package renderer

import "github.com/spaghettifunk/vkframe/engine/renderer/vulkan"

// Window is the platform window the backend draws into.
type Window = vulkan.Window

type RendererBackend interface {
	Initialize() error
	Shutdown() error
	DrawFrame() error
	AddVertexBuffer(vertices []vulkan.Vertex) error
	ReloadShaders(stages vulkan.ShaderStages) error
	Invalidate(reason string)
}

var _ RendererBackend = (*vulkan.Backend)(nil)
