package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Fake handles live well above the zero page; nothing dereferences them.
const fakeHandleBase = 1 << 20

type fakeGPU struct {
	handle     vk.PhysicalDevice
	properties vk.PhysicalDeviceProperties
	features   vk.PhysicalDeviceFeatures
	extensions []string
	families   []vk.QueueFamilyProperties
	// presentFamilies lists the families that can present to any surface.
	presentFamilies map[uint32]bool
	memory          vk.PhysicalDeviceMemoryProperties
}

type fakeSubmission struct {
	buffer vk.CommandBuffer
	fence  vk.Fence
	waits  int
}

// fakeDriver is a scripted Driver. The GPU finishes work the moment a fence
// is waited on.
type fakeDriver struct {
	next uintptr

	gpus         []*fakeGPU
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
	imageCount   uint32

	// Results handed out in order by AcquireNextImage and QueuePresent.
	// Success once exhausted.
	acquireResults []vk.Result
	presentResults []vk.Result
	// Returned by CreateGraphicsPipeline; Success unless a test sets it.
	pipelineResult vk.Result

	deviceInfo     *vk.DeviceCreateInfo
	swapchainInfos []vk.SwapchainCreateInfo

	swapchainImages map[vk.Swapchain]uint32
	acquireCursor   map[vk.Swapchain]uint32

	fences        map[vk.Fence]bool
	submissions   []fakeSubmission
	freedBuffers  map[vk.CommandBuffer]bool
	fenceWaits    int
	waitIdleCalls int
	uploads       [][]byte

	live map[string]int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		capabilities: vk.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
		formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		presentModes:    []vk.PresentMode{vk.PresentModeFifo},
		imageCount:      3,
		swapchainImages: map[vk.Swapchain]uint32{},
		acquireCursor:   map[vk.Swapchain]uint32{},
		fences:          map[vk.Fence]bool{},
		freedBuffers:    map[vk.CommandBuffer]bool{},
		live:            map[string]int{},
	}
}

func (f *fakeDriver) ptr() unsafe.Pointer {
	f.next++
	return unsafe.Add(unsafe.Pointer(nil), fakeHandleBase+f.next*8)
}

// addGPU registers an adapter with a single all-purpose queue family unless
// families are given.
func (f *fakeDriver) addGPU(name string, deviceType vk.PhysicalDeviceType, maxDim uint32, families ...vk.QueueFamilyProperties) *fakeGPU {
	if len(families) == 0 {
		families = []vk.QueueFamilyProperties{{
			QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit),
			QueueCount: 1,
		}}
	}
	gpu := &fakeGPU{
		handle:          vk.PhysicalDevice(f.ptr()),
		extensions:      []string{swapchainExtensionName},
		families:        families,
		presentFamilies: map[uint32]bool{0: true},
	}
	copy(gpu.properties.DeviceName[:], name)
	gpu.properties.DeviceType = deviceType
	gpu.properties.Limits.MaxImageDimension2D = maxDim
	gpu.features.GeometryShader = vk.True
	gpu.memory.MemoryTypeCount = 1
	gpu.memory.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	f.gpus = append(f.gpus, gpu)
	return gpu
}

func (f *fakeDriver) gpu(handle vk.PhysicalDevice) *fakeGPU {
	for _, g := range f.gpus {
		if g.handle == handle {
			return g
		}
	}
	return nil
}

func popResult(results *[]vk.Result) vk.Result {
	if len(*results) == 0 {
		return vk.Success
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r
}

func (f *fakeDriver) PhysicalDevices(vk.Instance) ([]vk.PhysicalDevice, vk.Result) {
	handles := make([]vk.PhysicalDevice, len(f.gpus))
	for i, g := range f.gpus {
		handles[i] = g.handle
	}
	return handles, vk.Success
}

func (f *fakeDriver) PhysicalDeviceProperties(gpu vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	return f.gpu(gpu).properties
}

func (f *fakeDriver) PhysicalDeviceFeatures(gpu vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	return f.gpu(gpu).features
}

func (f *fakeDriver) PhysicalDeviceMemoryProperties(gpu vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	return f.gpu(gpu).memory
}

func (f *fakeDriver) DeviceExtensions(gpu vk.PhysicalDevice) ([]string, vk.Result) {
	return f.gpu(gpu).extensions, vk.Success
}

func (f *fakeDriver) QueueFamilies(gpu vk.PhysicalDevice) []vk.QueueFamilyProperties {
	return f.gpu(gpu).families
}

func (f *fakeDriver) SurfaceSupport(gpu vk.PhysicalDevice, family uint32, _ vk.Surface) (bool, vk.Result) {
	return f.gpu(gpu).presentFamilies[family], vk.Success
}

func (f *fakeDriver) SurfaceCapabilities(vk.PhysicalDevice, vk.Surface) (vk.SurfaceCapabilities, vk.Result) {
	return f.capabilities, vk.Success
}

func (f *fakeDriver) SurfaceFormats(vk.PhysicalDevice, vk.Surface) ([]vk.SurfaceFormat, vk.Result) {
	return f.formats, vk.Success
}

func (f *fakeDriver) SurfacePresentModes(vk.PhysicalDevice, vk.Surface) ([]vk.PresentMode, vk.Result) {
	return f.presentModes, vk.Success
}

func (f *fakeDriver) DestroySurface(vk.Instance, vk.Surface) { f.live["surface"]-- }

func (f *fakeDriver) CreateDevice(_ vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result) {
	f.deviceInfo = info
	f.live["device"]++
	return vk.Device(f.ptr()), vk.Success
}

func (f *fakeDriver) DeviceQueue(vk.Device, uint32) vk.Queue { return vk.Queue(f.ptr()) }

func (f *fakeDriver) DeviceWaitIdle(vk.Device) vk.Result {
	f.waitIdleCalls++
	for fence := range f.fences {
		f.fences[fence] = true
	}
	return vk.Success
}

func (f *fakeDriver) DestroyDevice(vk.Device) { f.live["device"]-- }

func (f *fakeDriver) CreateSwapchain(_ vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, vk.Result) {
	f.swapchainInfos = append(f.swapchainInfos, *info)
	handle := vk.Swapchain(f.ptr())
	f.swapchainImages[handle] = f.imageCount
	f.live["swapchain"]++
	return handle, vk.Success
}

func (f *fakeDriver) SwapchainImages(_ vk.Device, swapchain vk.Swapchain) ([]vk.Image, vk.Result) {
	images := make([]vk.Image, f.swapchainImages[swapchain])
	for i := range images {
		images[i] = vk.Image(f.ptr())
	}
	return images, vk.Success
}

func (f *fakeDriver) DestroySwapchain(_ vk.Device, swapchain vk.Swapchain) {
	delete(f.swapchainImages, swapchain)
	f.live["swapchain"]--
}

func (f *fakeDriver) CreateImageView(vk.Device, *vk.ImageViewCreateInfo) (vk.ImageView, vk.Result) {
	f.live["view"]++
	return vk.ImageView(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyImageView(vk.Device, vk.ImageView) { f.live["view"]-- }

func (f *fakeDriver) AcquireNextImage(_ vk.Device, swapchain vk.Swapchain, _ uint64, _ vk.Semaphore, _ vk.Fence) (uint32, vk.Result) {
	res := popResult(&f.acquireResults)
	if res != vk.Success && res != vk.Suboptimal {
		return 0, res
	}
	index := f.acquireCursor[swapchain]
	f.acquireCursor[swapchain] = (index + 1) % f.swapchainImages[swapchain]
	return index, res
}

func (f *fakeDriver) QueuePresent(vk.Queue, *vk.PresentInfo) vk.Result {
	return popResult(&f.presentResults)
}

func (f *fakeDriver) CreateRenderPass(vk.Device, *vk.RenderPassCreateInfo) (vk.RenderPass, vk.Result) {
	f.live["renderpass"]++
	return vk.RenderPass(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyRenderPass(vk.Device, vk.RenderPass) { f.live["renderpass"]-- }

func (f *fakeDriver) CreateFramebuffer(vk.Device, *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result) {
	f.live["framebuffer"]++
	return vk.Framebuffer(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyFramebuffer(vk.Device, vk.Framebuffer) { f.live["framebuffer"]-- }

func (f *fakeDriver) CreateCommandPool(vk.Device, *vk.CommandPoolCreateInfo) (vk.CommandPool, vk.Result) {
	f.live["pool"]++
	return vk.CommandPool(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyCommandPool(vk.Device, vk.CommandPool) { f.live["pool"]-- }

func (f *fakeDriver) AllocateCommandBuffers(_ vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, vk.Result) {
	buffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	for i := range buffers {
		buffers[i] = vk.CommandBuffer(f.ptr())
	}
	f.live["commandbuffer"] += len(buffers)
	return buffers, vk.Success
}

func (f *fakeDriver) FreeCommandBuffers(_ vk.Device, _ vk.CommandPool, buffers []vk.CommandBuffer) {
	for _, b := range buffers {
		f.freedBuffers[b] = true
	}
	f.live["commandbuffer"] -= len(buffers)
}

func (f *fakeDriver) BeginCommandBuffer(vk.CommandBuffer, *vk.CommandBufferBeginInfo) vk.Result {
	return vk.Success
}

func (f *fakeDriver) EndCommandBuffer(vk.CommandBuffer) vk.Result { return vk.Success }

func (f *fakeDriver) CmdBeginRenderPass(vk.CommandBuffer, *vk.RenderPassBeginInfo) {}

func (f *fakeDriver) CmdEndRenderPass(vk.CommandBuffer) {}

func (f *fakeDriver) CmdBindPipeline(vk.CommandBuffer, vk.Pipeline) {}

func (f *fakeDriver) CmdSetViewport(vk.CommandBuffer, vk.Viewport) {}

func (f *fakeDriver) CmdSetScissor(vk.CommandBuffer, vk.Rect2D) {}

func (f *fakeDriver) CmdBindVertexBuffer(vk.CommandBuffer, vk.Buffer) {}

func (f *fakeDriver) CmdDraw(vk.CommandBuffer, uint32) {}

func (f *fakeDriver) QueueSubmit(_ vk.Queue, info *vk.SubmitInfo, fence vk.Fence) vk.Result {
	f.submissions = append(f.submissions, fakeSubmission{
		buffer: info.PCommandBuffers[0],
		fence:  fence,
		waits:  int(info.WaitSemaphoreCount),
	})
	return vk.Success
}

func (f *fakeDriver) CreateSemaphore(vk.Device) (vk.Semaphore, vk.Result) {
	f.live["semaphore"]++
	return vk.Semaphore(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroySemaphore(vk.Device, vk.Semaphore) { f.live["semaphore"]-- }

func (f *fakeDriver) CreateFence(_ vk.Device, signaled bool) (vk.Fence, vk.Result) {
	handle := vk.Fence(f.ptr())
	f.fences[handle] = signaled
	f.live["fence"]++
	return handle, vk.Success
}

func (f *fakeDriver) DestroyFence(_ vk.Device, fence vk.Fence) {
	delete(f.fences, fence)
	f.live["fence"]--
}

func (f *fakeDriver) WaitForFence(_ vk.Device, fence vk.Fence, _ uint64) vk.Result {
	f.fenceWaits++
	f.fences[fence] = true
	return vk.Success
}

func (f *fakeDriver) ResetFence(_ vk.Device, fence vk.Fence) vk.Result {
	f.fences[fence] = false
	return vk.Success
}

func (f *fakeDriver) CreateShaderModule(vk.Device, []uint32) (vk.ShaderModule, vk.Result) {
	f.live["shader"]++
	return vk.ShaderModule(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyShaderModule(vk.Device, vk.ShaderModule) { f.live["shader"]-- }

func (f *fakeDriver) CreatePipelineLayout(vk.Device, *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, vk.Result) {
	f.live["layout"]++
	return vk.PipelineLayout(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyPipelineLayout(vk.Device, vk.PipelineLayout) { f.live["layout"]-- }

func (f *fakeDriver) CreateGraphicsPipeline(vk.Device, *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, vk.Result) {
	if f.pipelineResult != vk.Success {
		return vk.NullPipeline, f.pipelineResult
	}
	f.live["pipeline"]++
	return vk.Pipeline(f.ptr()), vk.Success
}

func (f *fakeDriver) DestroyPipeline(vk.Device, vk.Pipeline) { f.live["pipeline"]-- }

func (f *fakeDriver) CreateBuffer(vk.Device, *vk.BufferCreateInfo) (vk.Buffer, vk.Result) {
	f.live["buffer"]++
	return vk.Buffer(f.ptr()), vk.Success
}

func (f *fakeDriver) BufferMemoryRequirements(vk.Device, vk.Buffer) vk.MemoryRequirements {
	return vk.MemoryRequirements{Size: 1024, MemoryTypeBits: 0x1}
}

func (f *fakeDriver) AllocateMemory(vk.Device, *vk.MemoryAllocateInfo) (vk.DeviceMemory, vk.Result) {
	f.live["memory"]++
	return vk.DeviceMemory(f.ptr()), vk.Success
}

func (f *fakeDriver) BindBufferMemory(vk.Device, vk.Buffer, vk.DeviceMemory) vk.Result {
	return vk.Success
}

func (f *fakeDriver) UploadMemory(_ vk.Device, _ vk.DeviceMemory, data []byte) vk.Result {
	f.uploads = append(f.uploads, append([]byte(nil), data...))
	return vk.Success
}

func (f *fakeDriver) FreeMemory(vk.Device, vk.DeviceMemory) { f.live["memory"]-- }

func (f *fakeDriver) DestroyBuffer(vk.Device, vk.Buffer) { f.live["buffer"]-- }

var _ Driver = (*fakeDriver)(nil)

// fakeWindow is a Window whose size the test controls.
type fakeWindow struct {
	width, height uint32
	resized       bool
	closed        bool
	waitCalls     int
	// onWait runs inside WaitEvents, e.g. to restore a minimized window.
	onWait func(w *fakeWindow)
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) { return w.width, w.height }
func (w *fakeWindow) Resized() bool                     { return w.resized }
func (w *fakeWindow) ResetResized()                     { w.resized = false }
func (w *fakeWindow) PollEvents()                       {}
func (w *fakeWindow) ShouldClose() bool                 { return w.closed }

func (w *fakeWindow) WaitEvents() {
	w.waitCalls++
	if w.onWait != nil {
		w.onWait(w)
	}
}

func (w *fakeWindow) CreateSurface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, nil
}

func (w *fakeWindow) RequiredInstanceExtensions() []string { return nil }

func (w *fakeWindow) resize(width, height uint32) {
	w.width, w.height = width, height
	w.resized = true
}
