package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// Fence wraps a vk.Fence and remembers whether it was last seen signaled, so
// a second wait on the same completed work costs nothing.
type Fence struct {
	Handle     vk.Fence
	IsSignaled bool

	driver Driver
	device vk.Device
}

func NewFence(driver Driver, device *LogicalDevice, createSignaled bool) (*Fence, error) {
	handle, res := driver.CreateFence(device.Handle, createSignaled)
	if res != vk.Success {
		return nil, resultError(core.ErrSyncObjectCreation, "vkCreateFence", res)
	}
	return &Fence{
		Handle:     handle,
		IsSignaled: createSignaled,
		driver:     driver,
		device:     device.Handle,
	}, nil
}

func (f *Fence) Destroy() {
	if f.Handle != vk.NullFence {
		f.driver.DestroyFence(f.device, f.Handle)
		f.Handle = vk.NullFence
	}
	f.IsSignaled = false
}

// Wait blocks until the fence is signaled or timeoutNs elapses.
func (f *Fence) Wait(timeoutNs uint64) error {
	if f.IsSignaled {
		return nil
	}
	result := f.driver.WaitForFence(f.device, f.Handle, timeoutNs)
	switch result {
	case vk.Success:
		f.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return core.ErrFenceTimeout
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
	case vk.ErrorOutOfHostMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_HOST_MEMORY.")
	case vk.ErrorOutOfDeviceMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_DEVICE_MEMORY.")
	default:
		core.LogError("vk_fence_wait - An unknown error has occurred.")
	}
	return resultError(core.ErrFenceWait, "vkWaitForFences", result)
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() error {
	if res := f.driver.ResetFence(f.device, f.Handle); res != vk.Success {
		return fmt.Errorf("vkResetFences: %s: %w", VulkanResultString(res, false), core.ErrSubmit)
	}
	f.IsSignaled = false
	return nil
}
