package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

var preferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// PresentationSurface negotiates format and present mode for a window surface.
// Nothing is cached: every accessor asks the driver again because the answers
// change with the live window.
type PresentationSurface struct {
	Handle vk.Surface

	driver    Driver
	gpu       vk.PhysicalDevice
	forceFIFO bool
}

func NewPresentationSurface(driver Driver, adapter Adapter, handle vk.Surface, forceFIFO bool) *PresentationSurface {
	return &PresentationSurface{
		Handle:    handle,
		driver:    driver,
		gpu:       adapter.Handle,
		forceFIFO: forceFIFO,
	}
}

func (s *PresentationSurface) Capabilities() (vk.SurfaceCapabilities, error) {
	caps, res := s.driver.SurfaceCapabilities(s.gpu, s.Handle)
	if res != vk.Success {
		return vk.SurfaceCapabilities{}, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	return caps, nil
}

// Format returns the preferred format when the surface supports it, otherwise
// the first one reported.
func (s *PresentationSurface) Format() (vk.SurfaceFormat, error) {
	formats, res := s.driver.SurfaceFormats(s.gpu, s.Handle)
	if res != vk.Success {
		return vk.SurfaceFormat{}, resultError(core.ErrNoSurfaceFormat, "vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	return ChooseSurfaceFormat(formats)
}

// PresentMode prefers mailbox and falls back to FIFO, which every
// implementation supports.
func (s *PresentationSurface) PresentMode() (vk.PresentMode, error) {
	if s.forceFIFO {
		return vk.PresentModeFifo, nil
	}
	modes, res := s.driver.SurfacePresentModes(s.gpu, s.Handle)
	if res != vk.Success {
		return vk.PresentModeFifo, resultError(core.ErrSwapchainCreation, "vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	return ChoosePresentMode(modes), nil
}

func (s *PresentationSurface) Destroy(instance vk.Instance) {
	if s.Handle == vk.NullSurface {
		return
	}
	s.driver.DestroySurface(instance, s.Handle)
	s.Handle = vk.NullSurface
}

func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, core.ErrNoSurfaceFormat
	}
	for _, f := range formats {
		if f.Format == preferredSurfaceFormat.Format && f.ColorSpace == preferredSurfaceFormat.ColorSpace {
			return f, nil
		}
	}
	core.LogWarn("preferred surface format not available, using the first reported one")
	return formats[0], nil
}

func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}
