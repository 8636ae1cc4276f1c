package vulkan

import vk "github.com/goki/vulkan"

// Window is what the backend needs from the platform window.
type Window interface {
	// FramebufferSize is the drawable size in pixels; zero while minimized.
	FramebufferSize() (width, height uint32)
	// Resized reports whether the framebuffer changed size since the last
	// ResetResized.
	Resized() bool
	ResetResized()
	WaitEvents()
	PollEvents()
	ShouldClose() bool
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	RequiredInstanceExtensions() []string
}
