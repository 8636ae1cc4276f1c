package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// VulkanDriver forwards every Driver call to the loaded Vulkan library. It
// holds no state; returned C-backed structs are dereferenced before they are
// handed back.
type VulkanDriver struct {
	Allocator *vk.AllocationCallbacks
}

var _ Driver = (*VulkanDriver)(nil)

func NewDriver() *VulkanDriver {
	return &VulkanDriver{}
}

func (d *VulkanDriver) PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(instance, &count, nil); res != vk.Success {
		return nil, res
	}
	if count == 0 {
		return nil, vk.Success
	}
	gpus := make([]vk.PhysicalDevice, count)
	res := vk.EnumeratePhysicalDevices(instance, &count, gpus)
	return gpus[:count], res
}

func (d *VulkanDriver) PhysicalDeviceProperties(gpu vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &properties)
	properties.Deref()
	properties.Limits.Deref()
	return properties
}

func (d *VulkanDriver) PhysicalDeviceFeatures(gpu vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()
	return features
}

func (d *VulkanDriver) PhysicalDeviceMemoryProperties(gpu vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gpu, &memory)
	memory.Deref()
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
	}
	for i := uint32(0); i < memory.MemoryHeapCount; i++ {
		memory.MemoryHeaps[i].Deref()
	}
	return memory
}

func (d *VulkanDriver) DeviceExtensions(gpu vk.PhysicalDevice) ([]string, vk.Result) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil); res != vk.Success {
		return nil, res
	}
	if count == 0 {
		return nil, vk.Success
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, available); res != vk.Success {
		return nil, res
	}
	names := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		available[i].Deref()
		names = append(names, VulkanGoString(available[i].ExtensionName[:]))
	}
	return names, vk.Success
}

func (d *VulkanDriver) QueueFamilies(gpu vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)
	for i := range families {
		families[i].Deref()
	}
	return families
}

func (d *VulkanDriver) SurfaceSupport(gpu vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, vk.Result) {
	var supported vk.Bool32 = vk.False
	res := vk.GetPhysicalDeviceSurfaceSupport(gpu, family, surface, &supported)
	return supported == vk.True, res
}

func (d *VulkanDriver) SurfaceCapabilities(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, vk.Result) {
	var caps vk.SurfaceCapabilities
	res := vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps)
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, res
}

func (d *VulkanDriver) SurfaceFormats(gpu vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, vk.Result) {
	var count uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, nil); res != vk.Success {
		return nil, res
	}
	if count == 0 {
		return nil, vk.Success
	}
	formats := make([]vk.SurfaceFormat, count)
	res := vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, formats)
	for i := range formats {
		formats[i].Deref()
	}
	return formats, res
}

func (d *VulkanDriver) SurfacePresentModes(gpu vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, vk.Result) {
	var count uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &count, nil); res != vk.Success {
		return nil, res
	}
	if count == 0 {
		return nil, vk.Success
	}
	modes := make([]vk.PresentMode, count)
	res := vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &count, modes)
	return modes, res
}

func (d *VulkanDriver) DestroySurface(instance vk.Instance, surface vk.Surface) {
	vk.DestroySurface(instance, surface, d.Allocator)
}

func (d *VulkanDriver) CreateDevice(gpu vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result) {
	var device vk.Device
	res := vk.CreateDevice(gpu, info, d.Allocator, &device)
	return device, res
}

func (d *VulkanDriver) DeviceQueue(device vk.Device, family uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)
	return queue
}

func (d *VulkanDriver) DeviceWaitIdle(device vk.Device) vk.Result {
	return vk.DeviceWaitIdle(device)
}

func (d *VulkanDriver) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, d.Allocator)
}

func (d *VulkanDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, vk.Result) {
	var swapchain vk.Swapchain
	res := vk.CreateSwapchain(device, info, d.Allocator, &swapchain)
	return swapchain, res
}

func (d *VulkanDriver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, vk.Result) {
	var count uint32
	if res := vk.GetSwapchainImages(device, swapchain, &count, nil); res != vk.Success {
		return nil, res
	}
	images := make([]vk.Image, count)
	res := vk.GetSwapchainImages(device, swapchain, &count, images)
	return images[:count], res
}

func (d *VulkanDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, d.Allocator)
}

func (d *VulkanDriver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, vk.Result) {
	var view vk.ImageView
	res := vk.CreateImageView(device, info, d.Allocator, &view)
	return view, res
}

func (d *VulkanDriver) DestroyImageView(device vk.Device, view vk.ImageView) {
	vk.DestroyImageView(device, view, d.Allocator)
}

func (d *VulkanDriver) AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(device, swapchain, timeout, semaphore, fence, &index)
	return index, res
}

func (d *VulkanDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, info)
}

func (d *VulkanDriver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, vk.Result) {
	var pass vk.RenderPass
	res := vk.CreateRenderPass(device, info, d.Allocator, &pass)
	return pass, res
}

func (d *VulkanDriver) DestroyRenderPass(device vk.Device, pass vk.RenderPass) {
	vk.DestroyRenderPass(device, pass, d.Allocator)
}

func (d *VulkanDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result) {
	var framebuffer vk.Framebuffer
	res := vk.CreateFramebuffer(device, info, d.Allocator, &framebuffer)
	return framebuffer, res
}

func (d *VulkanDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(device, framebuffer, d.Allocator)
}

func (d *VulkanDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, vk.Result) {
	var pool vk.CommandPool
	res := vk.CreateCommandPool(device, info, d.Allocator, &pool)
	return pool, res
}

func (d *VulkanDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	vk.DestroyCommandPool(device, pool, d.Allocator)
}

func (d *VulkanDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, vk.Result) {
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	res := vk.AllocateCommandBuffers(device, info, buffers)
	return buffers, res
}

func (d *VulkanDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
}

func (d *VulkanDriver) BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
	return vk.BeginCommandBuffer(buffer, info)
}

func (d *VulkanDriver) EndCommandBuffer(buffer vk.CommandBuffer) vk.Result {
	return vk.EndCommandBuffer(buffer)
}

func (d *VulkanDriver) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(buffer, info, vk.SubpassContentsInline)
}

func (d *VulkanDriver) CmdEndRenderPass(buffer vk.CommandBuffer) {
	vk.CmdEndRenderPass(buffer)
}

func (d *VulkanDriver) CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(buffer, vk.PipelineBindPointGraphics, pipeline)
}

func (d *VulkanDriver) CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(buffer, 0, 1, []vk.Viewport{viewport})
}

func (d *VulkanDriver) CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(buffer, 0, 1, []vk.Rect2D{scissor})
}

func (d *VulkanDriver) CmdBindVertexBuffer(buffer vk.CommandBuffer, vertexBuffer vk.Buffer) {
	vk.CmdBindVertexBuffers(buffer, 0, 1, []vk.Buffer{vertexBuffer}, []vk.DeviceSize{0})
}

func (d *VulkanDriver) CmdDraw(buffer vk.CommandBuffer, vertexCount uint32) {
	vk.CmdDraw(buffer, vertexCount, 1, 0, 0)
}

func (d *VulkanDriver) QueueSubmit(queue vk.Queue, info *vk.SubmitInfo, fence vk.Fence) vk.Result {
	return vk.QueueSubmit(queue, 1, []vk.SubmitInfo{*info}, fence)
}

func (d *VulkanDriver) CreateSemaphore(device vk.Device) (vk.Semaphore, vk.Result) {
	var semaphore vk.Semaphore
	res := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, d.Allocator, &semaphore)
	return semaphore, res
}

func (d *VulkanDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	vk.DestroySemaphore(device, semaphore, d.Allocator)
}

func (d *VulkanDriver) CreateFence(device vk.Device, signaled bool) (vk.Fence, vk.Result) {
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	res := vk.CreateFence(device, &info, d.Allocator, &fence)
	return fence, res
}

func (d *VulkanDriver) DestroyFence(device vk.Device, fence vk.Fence) {
	vk.DestroyFence(device, fence, d.Allocator)
}

func (d *VulkanDriver) WaitForFence(device vk.Device, fence vk.Fence, timeout uint64) vk.Result {
	return vk.WaitForFences(device, 1, []vk.Fence{fence}, vk.True, timeout)
}

func (d *VulkanDriver) ResetFence(device vk.Device, fence vk.Fence) vk.Result {
	return vk.ResetFences(device, 1, []vk.Fence{fence})
}

func (d *VulkanDriver) CreateShaderModule(device vk.Device, code []uint32) (vk.ShaderModule, vk.Result) {
	var module vk.ShaderModule
	res := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}, d.Allocator, &module)
	return module, res
}

func (d *VulkanDriver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(device, module, d.Allocator)
}

func (d *VulkanDriver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, vk.Result) {
	var layout vk.PipelineLayout
	res := vk.CreatePipelineLayout(device, info, d.Allocator, &layout)
	return layout, res
}

func (d *VulkanDriver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(device, layout, d.Allocator)
}

func (d *VulkanDriver) CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, vk.Result) {
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{*info}, d.Allocator, pipelines)
	return pipelines[0], res
}

func (d *VulkanDriver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(device, pipeline, d.Allocator)
}

func (d *VulkanDriver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, vk.Result) {
	var buffer vk.Buffer
	res := vk.CreateBuffer(device, info, d.Allocator, &buffer)
	return buffer, res
}

func (d *VulkanDriver) BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &requirements)
	requirements.Deref()
	return requirements
}

func (d *VulkanDriver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, vk.Result) {
	var memory vk.DeviceMemory
	res := vk.AllocateMemory(device, info, d.Allocator, &memory)
	return memory, res
}

func (d *VulkanDriver) BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) vk.Result {
	return vk.BindBufferMemory(device, buffer, memory, 0)
}

func (d *VulkanDriver) UploadMemory(device vk.Device, memory vk.DeviceMemory, data []byte) vk.Result {
	var pData unsafe.Pointer
	if res := vk.MapMemory(device, memory, 0, vk.DeviceSize(len(data)), 0, &pData); res != vk.Success {
		return res
	}
	vk.Memcopy(pData, data)
	vk.UnmapMemory(device, memory)
	return vk.Success
}

func (d *VulkanDriver) FreeMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.FreeMemory(device, memory, d.Allocator)
}

func (d *VulkanDriver) DestroyBuffer(device vk.Device, buffer vk.Buffer) {
	vk.DestroyBuffer(device, buffer, d.Allocator)
}
