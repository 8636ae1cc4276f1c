package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/vkframe/engine/core"
	vmath "github.com/spaghettifunk/vkframe/engine/math"
)

type SwapchainState int

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainReady
	SwapchainInvalidated
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainUninitialized:
		return "uninitialized"
	case SwapchainReady:
		return "ready"
	case SwapchainInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// SwapchainImage pairs a presentable image with its view. The image itself
// belongs to the swapchain; only the view is destroyed by us.
type SwapchainImage struct {
	Handle vk.Image
	View   vk.ImageView
}

// SwapchainInstance is one generation of the swapchain. It is never mutated
// after creation; recreation builds a new instance.
type SwapchainInstance struct {
	ID          uuid.UUID
	Handle      vk.Swapchain
	Extent      vk.Extent2D
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Images      []SwapchainImage
}

func (s *SwapchainInstance) ImageCount() uint32 {
	return uint32(len(s.Images))
}

// SwapchainManager owns the current swapchain instance and its state machine.
type SwapchainManager struct {
	driver  Driver
	device  *LogicalDevice
	surface *PresentationSurface

	state   SwapchainState
	current *SwapchainInstance
}

func NewSwapchainManager(driver Driver, device *LogicalDevice, surface *PresentationSurface) *SwapchainManager {
	return &SwapchainManager{
		driver:  driver,
		device:  device,
		surface: surface,
		state:   SwapchainUninitialized,
	}
}

func (m *SwapchainManager) State() SwapchainState {
	return m.state
}

func (m *SwapchainManager) Current() *SwapchainInstance {
	return m.current
}

// Create builds the first swapchain instance.
func (m *SwapchainManager) Create(windowExtent vk.Extent2D) error {
	if m.state != SwapchainUninitialized {
		return fmt.Errorf("swapchain is %s, expected %s: %w", m.state, SwapchainUninitialized, core.ErrSwapchainCreation)
	}
	instance, err := m.build(windowExtent, vk.NullSwapchain)
	if err != nil {
		return err
	}
	m.current = instance
	m.state = SwapchainReady
	core.LogInfo("Swapchain %s created: %dx%d, %d images.", instance.ID, instance.Extent.Width, instance.Extent.Height, len(instance.Images))
	return nil
}

// Invalidate marks the current instance as unusable. The next Recreate
// replaces it.
func (m *SwapchainManager) Invalidate(reason string) {
	if m.state != SwapchainReady {
		return
	}
	core.LogDebug("Swapchain invalidated: %s", reason)
	m.state = SwapchainInvalidated
}

// Recreate replaces the current instance with a new one. The caller must make
// sure the device is idle and that nothing still references the old views.
func (m *SwapchainManager) Recreate(windowExtent vk.Extent2D) error {
	if m.state == SwapchainUninitialized {
		return fmt.Errorf("recreate before create: %w", core.ErrSwapchainCreation)
	}
	old := m.current
	instance, err := m.build(windowExtent, old.Handle)
	if err != nil {
		return err
	}
	m.destroyInstance(old)
	m.current = instance
	m.state = SwapchainReady
	core.LogInfo("Swapchain %s replaced by %s: %dx%d, %d images.", old.ID, instance.ID, instance.Extent.Width, instance.Extent.Height, len(instance.Images))
	return nil
}

// Acquire asks for the next presentable image; semaphore is signaled once the
// image can be written. It never waits on a fence.
func (m *SwapchainManager) Acquire(semaphore vk.Semaphore) (uint32, Status, error) {
	index, res := m.driver.AcquireNextImage(m.device.Handle, m.current.Handle, math.MaxUint64, semaphore, vk.NullFence)
	status, ok := statusFromResult(res)
	if !ok {
		return 0, StatusSuccess, resultError(core.ErrAcquireImage, "vkAcquireNextImageKHR", res)
	}
	if status == StatusOutOfDate {
		m.Invalidate("acquire reported out of date")
	}
	return index, status, nil
}

// Present queues the image for display once waitSemaphore is signaled.
func (m *SwapchainManager) Present(queue vk.Queue, waitSemaphore vk.Semaphore, index uint32) (Status, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{m.current.Handle},
		PImageIndices:  []uint32{index},
	}
	if waitSemaphore != vk.NullSemaphore {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{waitSemaphore}
	}

	res := m.driver.QueuePresent(queue, &presentInfo)
	status, ok := statusFromResult(res)
	if !ok {
		return StatusSuccess, resultError(core.ErrPresent, "vkQueuePresentKHR", res)
	}
	if status != StatusSuccess {
		m.Invalidate("present reported " + status.String())
	}
	return status, nil
}

func (m *SwapchainManager) Destroy() {
	if m.current != nil {
		m.destroyInstance(m.current)
		m.current = nil
	}
	m.state = SwapchainUninitialized
}

// ChooseExtent uses the surface extent unless the surface leaves it to the
// window, then clamps into the supported range.
func ChooseExtent(caps vk.SurfaceCapabilities, window vk.Extent2D) vk.Extent2D {
	extent := caps.CurrentExtent
	if extent.Width == math.MaxUint32 {
		extent = window
	}
	extent.Width = vmath.Clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
	extent.Height = vmath.Clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	return extent
}

// ChooseImageCount asks for one image more than the minimum, within the
// maximum when the surface has one.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 {
		count = vmath.Min(count, caps.MaxImageCount)
	}
	return count
}

func (m *SwapchainManager) build(windowExtent vk.Extent2D, oldSwapchain vk.Swapchain) (*SwapchainInstance, error) {
	caps, err := m.surface.Capabilities()
	if err != nil {
		return nil, err
	}
	format, err := m.surface.Format()
	if err != nil {
		return nil, err
	}
	presentMode, err := m.surface.PresentMode()
	if err != nil {
		return nil, err
	}

	extent := ChooseExtent(caps, windowExtent)
	if extent.Width == 0 || extent.Height == 0 {
		return nil, fmt.Errorf("zero swapchain extent %dx%d: %w", extent.Width, extent.Height, core.ErrSwapchainCreation)
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          m.surface.Handle,
		MinImageCount:    ChooseImageCount(caps),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	families := m.device.Families
	if families.Graphics != families.Present {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{families.Graphics, families.Present}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	handle, res := m.driver.CreateSwapchain(m.device.Handle, &createInfo)
	if res != vk.Success {
		return nil, resultError(core.ErrSwapchainCreation, "vkCreateSwapchainKHR", res)
	}
	instance := &SwapchainInstance{
		ID:          uuid.New(),
		Handle:      handle,
		Extent:      extent,
		Format:      format,
		PresentMode: presentMode,
	}

	images, res := m.driver.SwapchainImages(m.device.Handle, handle)
	if res != vk.Success {
		m.destroyInstance(instance)
		return nil, resultError(core.ErrSwapchainCreation, "vkGetSwapchainImagesKHR", res)
	}

	instance.Images = make([]SwapchainImage, 0, len(images))
	for _, image := range images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		view, res := m.driver.CreateImageView(m.device.Handle, &viewInfo)
		if res != vk.Success {
			m.destroyInstance(instance)
			return nil, resultError(core.ErrSwapchainCreation, "vkCreateImageView", res)
		}
		instance.Images = append(instance.Images, SwapchainImage{Handle: image, View: view})
	}

	return instance, nil
}

func (m *SwapchainManager) destroyInstance(instance *SwapchainInstance) {
	// Only the views are ours, the images go away with the swapchain.
	for i := range instance.Images {
		if instance.Images[i].View != vk.NullImageView {
			m.driver.DestroyImageView(m.device.Handle, instance.Images[i].View)
			instance.Images[i].View = vk.NullImageView
		}
	}
	instance.Images = nil
	if instance.Handle != vk.NullSwapchain {
		m.driver.DestroySwapchain(m.device.Handle, instance.Handle)
		instance.Handle = vk.NullSwapchain
	}
}
