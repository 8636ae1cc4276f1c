package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

func (s CommandBufferState) recording() bool {
	return s == COMMAND_BUFFER_STATE_RECORDING || s == COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

// CommandPool allocates the per-image command buffers on the graphics family.
type CommandPool struct {
	Handle vk.CommandPool

	driver Driver
	device *LogicalDevice
}

func NewCommandPool(driver Driver, device *LogicalDevice) (*CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.Families.Graphics,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	handle, res := driver.CreateCommandPool(device.Handle, &poolCreateInfo)
	if res != vk.Success {
		return nil, resultError(core.ErrCommandBuffer, "vkCreateCommandPool", res)
	}
	core.LogInfo("Graphics command pool created.")
	return &CommandPool{Handle: handle, driver: driver, device: device}, nil
}

func (p *CommandPool) Destroy() {
	if p.Handle != vk.NullCommandPool {
		core.LogInfo("Destroying command pools...")
		p.driver.DestroyCommandPool(p.device.Handle, p.Handle)
		p.Handle = vk.NullCommandPool
	}
}

// CommandRecorder is one primary command buffer and its recording state.
// Recorders live by value in a slice indexed by swapchain image.
type CommandRecorder struct {
	Handle vk.CommandBuffer
	State  CommandBufferState

	driver Driver
	device *LogicalDevice
}

// NewCommandRecorders allocates count primary command buffers from pool.
func NewCommandRecorders(driver Driver, device *LogicalDevice, pool *CommandPool, count uint32) ([]CommandRecorder, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool.Handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	buffers, res := driver.AllocateCommandBuffers(device.Handle, &allocateInfo)
	if res != vk.Success {
		return nil, resultError(core.ErrCommandBuffer, "vkAllocateCommandBuffers", res)
	}

	recorders := make([]CommandRecorder, len(buffers))
	for i, handle := range buffers {
		recorders[i] = CommandRecorder{
			Handle: handle,
			State:  COMMAND_BUFFER_STATE_READY,
			driver: driver,
			device: device,
		}
	}
	return recorders, nil
}

// FreeCommandRecorders returns every buffer to the pool.
func FreeCommandRecorders(pool *CommandPool, recorders []CommandRecorder) {
	if len(recorders) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, 0, len(recorders))
	for i := range recorders {
		if recorders[i].Handle != nil {
			handles = append(handles, recorders[i].Handle)
		}
		recorders[i].Handle = nil
		recorders[i].State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	if len(handles) > 0 {
		pool.driver.FreeCommandBuffers(pool.device.Handle, pool.Handle, handles)
	}
}

// Begin starts recording. It does nothing when already recording.
func (r *CommandRecorder) Begin(flags vk.CommandBufferUsageFlags) error {
	if r.State.recording() {
		return nil
	}
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}
	if res := r.driver.BeginCommandBuffer(r.Handle, &beginInfo); res != vk.Success {
		return resultError(core.ErrCommandBuffer, "vkBeginCommandBuffer", res)
	}
	r.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

// End stops recording. It does nothing when not recording.
func (r *CommandRecorder) End() error {
	if !r.State.recording() {
		return nil
	}
	if res := r.driver.EndCommandBuffer(r.Handle); res != vk.Success {
		return resultError(core.ErrCommandBuffer, "vkEndCommandBuffer", res)
	}
	r.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// Submit sends the buffer to the graphics queue. Null semaphores are left
// out of the submission and a nil fence is neither reset nor signaled.
func (r *CommandRecorder) Submit(waitSemaphore, signalSemaphore vk.Semaphore, fence *Fence) error {
	if r.device == nil || r.device.Handle == nil {
		return core.ErrNullDevice
	}
	if err := r.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{r.Handle},
	}
	if waitSemaphore != vk.NullSemaphore {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{waitSemaphore}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if signalSemaphore != vk.NullSemaphore {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{signalSemaphore}
	}

	signal := vk.NullFence
	if fence != nil {
		if err := fence.Reset(); err != nil {
			return err
		}
		signal = fence.Handle
	}

	if res := r.driver.QueueSubmit(r.device.GraphicsQueue, &submitInfo, signal); res != vk.Success {
		return resultError(core.ErrSubmit, "vkQueueSubmit", res)
	}
	r.State = COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}

// Record fills the buffer with one render pass that draws every vertex buffer
// with the pipeline into target.
func (r *CommandRecorder) Record(pass *RenderPass, target vk.Framebuffer, extent vk.Extent2D, pipeline *GraphicsPipeline, buffers []*VertexBuffer) error {
	if err := r.Begin(0); err != nil {
		return err
	}

	pass.Begin(r, target, extent)

	r.driver.CmdBindPipeline(r.Handle, pipeline.Handle)
	r.driver.CmdSetViewport(r.Handle, vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	})
	r.driver.CmdSetScissor(r.Handle, vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	})
	for _, vb := range buffers {
		r.driver.CmdBindVertexBuffer(r.Handle, vb.Handle)
		r.driver.CmdDraw(r.Handle, vb.VertexCount)
	}

	pass.End(r)

	if err := r.End(); err != nil {
		return fmt.Errorf("recording command buffer: %w", err)
	}
	return nil
}
