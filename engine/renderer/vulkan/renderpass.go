package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// RenderPass has a single color attachment in the swapchain format that is
// cleared on load and handed to presentation at the end.
type RenderPass struct {
	Handle     vk.RenderPass
	ClearColor [4]float32

	driver Driver
	device *LogicalDevice
}

func NewRenderPass(driver Driver, device *LogicalDevice, format vk.Format, clearColor [4]float32) (*RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	handle, res := driver.CreateRenderPass(device.Handle, &renderpassCreateInfo)
	if res != vk.Success {
		return nil, resultError(core.ErrRenderPassCreation, "vkCreateRenderPass", res)
	}
	return &RenderPass{
		Handle:     handle,
		ClearColor: clearColor,
		driver:     driver,
		device:     device,
	}, nil
}

func (rp *RenderPass) Destroy() {
	if rp.Handle != vk.NullRenderPass {
		rp.driver.DestroyRenderPass(rp.device.Handle, rp.Handle)
		rp.Handle = vk.NullRenderPass
	}
}

func (rp *RenderPass) Begin(recorder *CommandRecorder, framebuffer vk.Framebuffer, extent vk.Extent2D) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(rp.ClearColor[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}

	rp.driver.CmdBeginRenderPass(recorder.Handle, &beginInfo)
	recorder.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (rp *RenderPass) End(recorder *CommandRecorder) {
	rp.driver.CmdEndRenderPass(recorder.Handle)
	recorder.State = COMMAND_BUFFER_STATE_RECORDING
}
