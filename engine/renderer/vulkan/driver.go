package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Driver is the slice of the Vulkan API the renderer objects call. Creation
// calls return the raw vk.Result so callers can wrap it with the matching
// sentinel; status-bearing calls (acquire, present, fence waits) return it so
// the caller can branch on it.
type Driver interface {
	// adapters and surfaces
	PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result)
	PhysicalDeviceProperties(gpu vk.PhysicalDevice) vk.PhysicalDeviceProperties
	PhysicalDeviceFeatures(gpu vk.PhysicalDevice) vk.PhysicalDeviceFeatures
	PhysicalDeviceMemoryProperties(gpu vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties
	DeviceExtensions(gpu vk.PhysicalDevice) ([]string, vk.Result)
	QueueFamilies(gpu vk.PhysicalDevice) []vk.QueueFamilyProperties
	SurfaceSupport(gpu vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, vk.Result)
	SurfaceCapabilities(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, vk.Result)
	SurfaceFormats(gpu vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, vk.Result)
	SurfacePresentModes(gpu vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, vk.Result)
	DestroySurface(instance vk.Instance, surface vk.Surface)

	// logical device
	CreateDevice(gpu vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result)
	DeviceQueue(device vk.Device, family uint32) vk.Queue
	DeviceWaitIdle(device vk.Device) vk.Result
	DestroyDevice(device vk.Device)

	// swapchain
	CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, vk.Result)
	SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, vk.Result)
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain)
	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, vk.Result)
	DestroyImageView(device vk.Device, view vk.ImageView)
	AcquireNextImage(device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, vk.Result)
	QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result

	// render pass and framebuffers
	CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, vk.Result)
	DestroyRenderPass(device vk.Device, pass vk.RenderPass)
	CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result)
	DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer)

	// command pools and buffers
	CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, vk.Result)
	DestroyCommandPool(device vk.Device, pool vk.CommandPool)
	AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, vk.Result)
	FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer)
	BeginCommandBuffer(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result
	EndCommandBuffer(buffer vk.CommandBuffer) vk.Result
	CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	CmdEndRenderPass(buffer vk.CommandBuffer)
	CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline)
	CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D)
	CmdBindVertexBuffer(buffer vk.CommandBuffer, vertexBuffer vk.Buffer)
	CmdDraw(buffer vk.CommandBuffer, vertexCount uint32)
	QueueSubmit(queue vk.Queue, info *vk.SubmitInfo, fence vk.Fence) vk.Result

	// synchronization
	CreateSemaphore(device vk.Device) (vk.Semaphore, vk.Result)
	DestroySemaphore(device vk.Device, semaphore vk.Semaphore)
	CreateFence(device vk.Device, signaled bool) (vk.Fence, vk.Result)
	DestroyFence(device vk.Device, fence vk.Fence)
	WaitForFence(device vk.Device, fence vk.Fence, timeout uint64) vk.Result
	ResetFence(device vk.Device, fence vk.Fence) vk.Result

	// pipelines
	CreateShaderModule(device vk.Device, code []uint32) (vk.ShaderModule, vk.Result)
	DestroyShaderModule(device vk.Device, module vk.ShaderModule)
	CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, vk.Result)
	DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout)
	CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, vk.Result)
	DestroyPipeline(device vk.Device, pipeline vk.Pipeline)

	// buffers
	CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, vk.Result)
	BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) vk.MemoryRequirements
	AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, vk.Result)
	BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory) vk.Result
	UploadMemory(device vk.Device, memory vk.DeviceMemory, data []byte) vk.Result
	FreeMemory(device vk.Device, memory vk.DeviceMemory)
	DestroyBuffer(device vk.Device, buffer vk.Buffer)
}
