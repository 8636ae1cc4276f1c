package vulkan

import (
	"fmt"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

type BackendConfig struct {
	AppName    string
	Validation bool
	ForceFIFO  bool
	ClearColor [4]float32
	Shaders    ShaderStages
	// FenceTimeout bounds every fence wait; zero waits forever.
	FenceTimeout time.Duration
}

// Backend wires the Vulkan objects together and drives one frame per
// DrawFrame call. It must be used from the thread that owns the window.
type Backend struct {
	config BackendConfig
	driver Driver
	window Window

	instance       *Instance
	instanceHandle vk.Instance
	surface        *PresentationSurface
	device         *LogicalDevice
	swapchain      *SwapchainManager
	renderPass     *RenderPass
	pipeline       *GraphicsPipeline
	targets        *RenderTargetSet
	pool           *CommandPool
	recorders      []CommandRecorder
	frames         *FrameSynchronizer

	vertexBuffers []*VertexBuffer

	FrameNumber uint64
}

func NewBackend(config BackendConfig, window Window, driver Driver) *Backend {
	if driver == nil {
		driver = NewDriver()
	}
	return &Backend{
		config: config,
		driver: driver,
		window: window,
	}
}

// Initialize creates the instance and the window surface, then everything
// that hangs off them.
func (b *Backend) Initialize() error {
	instance, err := CreateInstance(InstanceOptions{
		AppName:          b.config.AppName,
		Validation:       b.config.Validation,
		WindowExtensions: b.window.RequiredInstanceExtensions(),
	})
	if err != nil {
		return err
	}
	b.instance = instance

	core.LogDebug("Creating Vulkan surface...")
	surface, err := b.window.CreateSurface(instance.Handle)
	if err != nil {
		return err
	}
	core.LogDebug("Vulkan surface created.")

	return b.setup(instance.Handle, surface, instance.ValidationLayers)
}

func (b *Backend) setup(instance vk.Instance, surface vk.Surface, layers []string) error {
	b.instanceHandle = instance
	adapter, err := SelectAdapter(b.driver, instance)
	if err != nil {
		b.driver.DestroySurface(instance, surface)
		return err
	}

	device, err := CreateLogicalDevice(b.driver, adapter, surface, LogicalDeviceOptions{ValidationLayers: layers})
	if err != nil {
		b.driver.DestroySurface(instance, surface)
		return err
	}
	b.device = device
	b.surface = NewPresentationSurface(b.driver, adapter, surface, b.config.ForceFIFO)

	if err := b.WaitForNonzeroExtent(); err != nil {
		return err
	}
	b.swapchain = NewSwapchainManager(b.driver, device, b.surface)
	if err := b.swapchain.Create(b.windowExtent()); err != nil {
		return err
	}

	if b.pool, err = NewCommandPool(b.driver, device); err != nil {
		return err
	}

	if err := b.createDependents(); err != nil {
		return err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

// DrawFrame runs one tick. An out of date or suboptimal swapchain is not an
// error: the swapchain and everything built on it are recreated and the tick
// ends.
func (b *Backend) DrawFrame() error {
	if b.swapchain.State() == SwapchainInvalidated {
		return b.recreateSwapchain()
	}

	slot, err := b.frames.BeginFrame()
	if err != nil {
		return err
	}

	index, status, err := b.swapchain.Acquire(slot.ImageAvailable)
	if err != nil {
		return err
	}
	if status == StatusOutOfDate {
		return b.recreateSwapchain()
	}
	if int(index) >= len(b.recorders) {
		return fmt.Errorf("acquired image %d of %d: %w", index, len(b.recorders), core.ErrAcquireImage)
	}

	if err := b.frames.ClaimImage(index); err != nil {
		return err
	}

	if err := b.recorders[index].Submit(slot.ImageAvailable, slot.RenderFinished, slot.InFlight); err != nil {
		return err
	}

	if _, err := b.swapchain.Present(b.device.PresentQueue, slot.RenderFinished, index); err != nil {
		return err
	}
	if b.window.Resized() {
		b.swapchain.Invalidate("window resized")
	}

	b.frames.Advance()
	b.FrameNumber++

	if b.swapchain.State() == SwapchainInvalidated {
		return b.recreateSwapchain()
	}
	return nil
}

// WaitForNonzeroExtent blocks on window events while the framebuffer has no
// area, e.g. while minimized.
func (b *Backend) WaitForNonzeroExtent() error {
	for {
		width, height := b.window.FramebufferSize()
		if width != 0 && height != 0 {
			return nil
		}
		if b.window.ShouldClose() {
			return core.ErrWindowClosed
		}
		b.window.WaitEvents()
	}
}

// Invalidate forces a recreation on the next DrawFrame.
func (b *Backend) Invalidate(reason string) {
	if b.swapchain != nil {
		b.swapchain.Invalidate(reason)
	}
}

// ReloadShaders builds a pipeline from stages against the current render pass
// and swaps it in. On error the previous pipeline and stages stay in use.
func (b *Backend) ReloadShaders(stages ShaderStages) error {
	if b.device == nil || b.renderPass == nil {
		return core.ErrNullDevice
	}
	pipeline, err := NewGraphicsPipeline(b.driver, b.device, b.renderPass, stages, VertexLayoutFor())
	if err != nil {
		return err
	}
	// Submitted command buffers still reference the old pipeline.
	if err := b.device.WaitIdle(); err != nil {
		pipeline.Destroy()
		return err
	}
	b.pipeline.Destroy()
	b.pipeline = pipeline
	b.config.Shaders = stages
	core.LogInfo("Graphics pipeline rebuilt from reloaded shaders.")
	return b.recordAll()
}

// AddVertexBuffer uploads vertices and re-records every command buffer to
// draw them.
func (b *Backend) AddVertexBuffer(vertices []Vertex) error {
	if err := b.device.WaitIdle(); err != nil {
		return err
	}
	vb, err := NewVertexBuffer(b.driver, b.device, vertices)
	if err != nil {
		return err
	}
	b.vertexBuffers = append(b.vertexBuffers, vb)
	return b.recordAll()
}

func (b *Backend) recreateSwapchain() error {
	if err := b.WaitForNonzeroExtent(); err != nil {
		return err
	}
	if err := b.device.WaitIdle(); err != nil {
		return err
	}

	b.destroyDependents()

	if err := b.swapchain.Recreate(b.windowExtent()); err != nil {
		return err
	}
	if err := b.createDependents(); err != nil {
		// Leave nothing half built; the next DrawFrame tries again.
		b.destroyDependents()
		b.swapchain.Invalidate("dependent rebuild failed")
		return err
	}
	b.window.ResetResized()
	return nil
}

// createDependents builds everything sized or formatted by the current
// swapchain instance.
func (b *Backend) createDependents() error {
	current := b.swapchain.Current()

	var err error
	if b.renderPass, err = NewRenderPass(b.driver, b.device, current.Format.Format, b.config.ClearColor); err != nil {
		return err
	}
	if b.pipeline, err = NewGraphicsPipeline(b.driver, b.device, b.renderPass, b.config.Shaders, VertexLayoutFor()); err != nil {
		return err
	}
	if b.targets, err = NewRenderTargetSet(b.driver, b.device, b.renderPass, current); err != nil {
		return err
	}
	if b.recorders, err = NewCommandRecorders(b.driver, b.device, b.pool, current.ImageCount()); err != nil {
		return err
	}
	if err := b.recordAll(); err != nil {
		return err
	}
	if b.frames, err = NewFrameSynchronizer(b.driver, b.device, current.ImageCount(), b.config.FenceTimeout); err != nil {
		return err
	}
	return nil
}

// destroyDependents tears down in reverse creation order. The device must be
// idle.
func (b *Backend) destroyDependents() {
	if b.frames != nil {
		b.frames.Destroy()
		b.frames = nil
	}
	if b.pool != nil {
		FreeCommandRecorders(b.pool, b.recorders)
	}
	b.recorders = nil
	if b.targets != nil {
		b.targets.Destroy()
		b.targets = nil
	}
	if b.pipeline != nil {
		b.pipeline.Destroy()
		b.pipeline = nil
	}
	if b.renderPass != nil {
		b.renderPass.Destroy()
		b.renderPass = nil
	}
}

func (b *Backend) recordAll() error {
	extent := b.swapchain.Current().Extent
	for i := range b.recorders {
		if err := b.recorders[i].Record(b.renderPass, b.targets.Framebuffers[i], extent, b.pipeline, b.vertexBuffers); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) windowExtent() vk.Extent2D {
	width, height := b.window.FramebufferSize()
	return vk.Extent2D{Width: width, Height: height}
}

func (b *Backend) Swapchain() *SwapchainManager {
	return b.swapchain
}

func (b *Backend) Frames() *FrameSynchronizer {
	return b.frames
}

func (b *Backend) Device() *LogicalDevice {
	return b.device
}

// Shutdown waits for the device and destroys everything in reverse order.
func (b *Backend) Shutdown() error {
	if b.device != nil {
		if err := b.device.WaitIdle(); err != nil {
			core.LogWarn("device wait idle failed during shutdown: %s", err)
		}
	}
	b.destroyDependents()

	for _, vb := range b.vertexBuffers {
		vb.Destroy()
	}
	b.vertexBuffers = nil

	if b.pool != nil {
		b.pool.Destroy()
		b.pool = nil
	}
	if b.swapchain != nil {
		b.swapchain.Destroy()
	}
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Destroy(b.instanceHandle)
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	return nil
}
