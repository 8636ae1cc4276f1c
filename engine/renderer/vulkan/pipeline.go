package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// ShaderStages holds the SPIR-V words of the two programmable stages.
type ShaderStages struct {
	Vertex   []uint32
	Fragment []uint32
}

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type GraphicsPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	Layout vk.PipelineLayout

	driver Driver
	device *LogicalDevice
}

// NewGraphicsPipeline builds a triangle-list pipeline for pass. Viewport and
// scissor are dynamic so the pipeline does not depend on the swapchain extent.
func NewGraphicsPipeline(driver Driver, device *LogicalDevice, pass *RenderPass, stages ShaderStages, layout VertexLayout) (*GraphicsPipeline, error) {
	vertModule, err := newShaderModule(driver, device, stages.Vertex)
	if err != nil {
		return nil, err
	}
	defer driver.DestroyShaderModule(device.Handle, vertModule)

	fragModule, err := newShaderModule(driver, device, stages.Fragment)
	if err != nil {
		return nil, err
	}
	defer driver.DestroyShaderModule(device.Handle, fragModule)

	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  VulkanSafeString("main"),
		},
	}

	// Viewport and scissor are set while recording.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	bindingDescription, attributes := layout.descriptions()
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	pipelineLayout, res := driver.CreatePipelineLayout(device.Handle, &pipelineLayoutCreateInfo)
	if !VulkanResultIsSuccess(res) {
		return nil, resultError(core.ErrPipelineCreation, "vkCreatePipelineLayout", res)
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              pipelineLayout,
		RenderPass:          pass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	handle, res := driver.CreateGraphicsPipeline(device.Handle, &pipelineCreateInfo)
	if !VulkanResultIsSuccess(res) {
		driver.DestroyPipelineLayout(device.Handle, pipelineLayout)
		return nil, resultError(core.ErrPipelineCreation, "vkCreateGraphicsPipelines", res)
	}

	core.LogDebug("Graphics pipeline created!")
	return &GraphicsPipeline{
		Handle: handle,
		Layout: pipelineLayout,
		driver: driver,
		device: device,
	}, nil
}

func (p *GraphicsPipeline) Destroy() {
	if p.Handle != vk.NullPipeline {
		p.driver.DestroyPipeline(p.device.Handle, p.Handle)
		p.Handle = vk.NullPipeline
	}
	if p.Layout != vk.NullPipelineLayout {
		p.driver.DestroyPipelineLayout(p.device.Handle, p.Layout)
		p.Layout = vk.NullPipelineLayout
	}
}

func newShaderModule(driver Driver, device *LogicalDevice, code []uint32) (vk.ShaderModule, error) {
	if len(code) == 0 {
		return vk.NullShaderModule, core.ErrShaderModule
	}
	module, res := driver.CreateShaderModule(device.Handle, code)
	if res != vk.Success {
		return vk.NullShaderModule, resultError(core.ErrShaderModule, "vkCreateShaderModule", res)
	}
	return module, nil
}
