package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// RenderTargetSet holds one framebuffer per swapchain image view, in image
// index order.
type RenderTargetSet struct {
	Framebuffers []vk.Framebuffer
	Extent       vk.Extent2D

	driver Driver
	device *LogicalDevice
}

func NewRenderTargetSet(driver Driver, device *LogicalDevice, pass *RenderPass, swapchain *SwapchainInstance) (*RenderTargetSet, error) {
	set := &RenderTargetSet{
		Framebuffers: make([]vk.Framebuffer, 0, len(swapchain.Images)),
		Extent:       swapchain.Extent,
		driver:       driver,
		device:       device,
	}
	for _, image := range swapchain.Images {
		framebufferCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      pass.Handle,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{image.View},
			Width:           swapchain.Extent.Width,
			Height:          swapchain.Extent.Height,
			Layers:          1,
		}
		framebuffer, res := driver.CreateFramebuffer(device.Handle, &framebufferCreateInfo)
		if res != vk.Success {
			set.Destroy()
			return nil, resultError(core.ErrFramebufferCreation, "vkCreateFramebuffer", res)
		}
		set.Framebuffers = append(set.Framebuffers, framebuffer)
	}
	return set, nil
}

func (s *RenderTargetSet) Len() int {
	return len(s.Framebuffers)
}

func (s *RenderTargetSet) Destroy() {
	for _, fb := range s.Framebuffers {
		s.driver.DestroyFramebuffer(s.device.Handle, fb)
	}
	s.Framebuffers = nil
}
