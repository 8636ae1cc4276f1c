package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	got, err := ChooseSurfaceFormat([]vk.SurfaceFormat{srgb, preferred})
	require.NoError(t, err)
	assert.Equal(t, preferred, got)

	got, err = ChooseSurfaceFormat([]vk.SurfaceFormat{srgb})
	require.NoError(t, err)
	assert.Equal(t, srgb, got)

	_, err = ChooseSurfaceFormat(nil)
	assert.ErrorIs(t, err, core.ErrNoSurfaceFormat)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil))
}

func TestPresentationSurfaceRequeries(t *testing.T) {
	drv := newFakeDriver()
	gpu := drv.addGPU("gpu", vk.PhysicalDeviceTypeDiscreteGpu, 16384)
	adapter := Adapter{Handle: gpu.handle}
	surface := NewPresentationSurface(drv, adapter, vk.Surface(drv.ptr()), false)

	drv.presentModes = []vk.PresentMode{vk.PresentModeMailbox}
	mode, err := surface.PresentMode()
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeMailbox, mode)

	drv.capabilities.CurrentExtent = vk.Extent2D{Width: 320, Height: 200}
	caps, err := surface.Capabilities()
	require.NoError(t, err)
	assert.Equal(t, vk.Extent2D{Width: 320, Height: 200}, caps.CurrentExtent)

	drv.formats = nil
	_, err = surface.Format()
	assert.ErrorIs(t, err, core.ErrNoSurfaceFormat)

	surface.Destroy(nil)
	assert.Equal(t, vk.NullSurface, surface.Handle)
}

func TestPresentationSurfaceForceFIFO(t *testing.T) {
	drv := newFakeDriver()
	gpu := drv.addGPU("gpu", vk.PhysicalDeviceTypeDiscreteGpu, 16384)
	drv.presentModes = []vk.PresentMode{vk.PresentModeMailbox}
	surface := NewPresentationSurface(drv, Adapter{Handle: gpu.handle}, vk.Surface(drv.ptr()), true)

	mode, err := surface.PresentMode()
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeFifo, mode)
}
