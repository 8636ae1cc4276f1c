package core

import (
	"errors"
)

// Setup failures. None of these are retried.
var (
	ErrInstanceCreation           = errors.New("vulkan instance creation failed")
	ErrNoSuitableAdapter          = errors.New("no suitable GPU adapter found")
	ErrNoQueueFamily              = errors.New("no queue family supporting graphics")
	ErrDeviceCreation             = errors.New("logical device creation failed")
	ErrSwapchainCreation          = errors.New("swapchain creation failed")
	ErrNoSurfaceFormat            = errors.New("surface reports no pixel formats")
	ErrRenderPassCreation         = errors.New("render pass creation failed")
	ErrFramebufferCreation        = errors.New("framebuffer creation failed")
	ErrPipelineCreation           = errors.New("graphics pipeline creation failed")
	ErrShaderModule               = errors.New("shader module creation failed")
	ErrValidationLayerUnavailable = errors.New("validation layers requested, but not available")
	ErrSyncObjectCreation         = errors.New("synchronization object creation failed")
	ErrCommandBuffer              = errors.New("command buffer operation failed")
	ErrBufferCreation             = errors.New("buffer creation failed")
)

// Frame loop failures that are not absorbed by swapchain recreation.
var (
	ErrAcquireImage = errors.New("failed to acquire swapchain image")
	ErrSubmit       = errors.New("failed to submit command buffer")
	ErrPresent      = errors.New("failed to present swapchain image")
	ErrFenceWait    = errors.New("fence wait failed")
	ErrFenceTimeout = errors.New("fence wait timed out")
)

// Programmer errors and lifecycle conditions.
var (
	ErrNullDevice    = errors.New("operation on a null device")
	ErrWindowClosed  = errors.New("window closed")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknown       = errors.New("unknown")
)
