package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// QueueFamilyAssignment maps every queue role to a family index. Roles the
// hardware has no separate family for share the graphics family.
type QueueFamilyAssignment struct {
	Graphics uint32
	Present  uint32
	Compute  uint32
	Transfer uint32
}

// Distinct returns the family indices in role order without duplicates.
func (q QueueFamilyAssignment) Distinct() []uint32 {
	indices := []uint32{q.Graphics}
	for _, idx := range []uint32{q.Present, q.Compute, q.Transfer} {
		seen := false
		for _, existing := range indices {
			if existing == idx {
				seen = true
				break
			}
		}
		if !seen {
			indices = append(indices, idx)
		}
	}
	return indices
}

// FindQueueFamilies records the first family matching each role, stopping as
// soon as every role is found.
func FindQueueFamilies(driver Driver, gpu vk.PhysicalDevice, surface vk.Surface) (QueueFamilyAssignment, error) {
	var graphics, present, compute, transfer *uint32

	families := driver.QueueFamilies(gpu)
	for i, family := range families {
		idx := uint32(i)
		flags := vk.QueueFlagBits(family.QueueFlags)

		if graphics == nil && flags&vk.QueueGraphicsBit != 0 {
			graphics = &idx
		}
		if present == nil && family.QueueCount > 0 {
			supported, res := driver.SurfaceSupport(gpu, idx, surface)
			if res != vk.Success {
				return QueueFamilyAssignment{}, resultError(core.ErrNoQueueFamily, "vkGetPhysicalDeviceSurfaceSupportKHR", res)
			}
			if supported {
				present = &idx
			}
		}
		if compute == nil && flags&vk.QueueComputeBit != 0 {
			compute = &idx
		}
		if transfer == nil && flags&vk.QueueTransferBit != 0 {
			transfer = &idx
		}
		if graphics != nil && present != nil && compute != nil && transfer != nil {
			break
		}
	}

	if graphics == nil {
		return QueueFamilyAssignment{}, core.ErrNoQueueFamily
	}

	assignment := QueueFamilyAssignment{
		Graphics: *graphics,
		Present:  *graphics,
		Compute:  *graphics,
		Transfer: *graphics,
	}
	if present != nil {
		assignment.Present = *present
	} else {
		core.LogWarn("no queue family reports presentation support, using the graphics family")
	}
	if compute != nil {
		assignment.Compute = *compute
	}
	if transfer != nil {
		assignment.Transfer = *transfer
	}

	core.LogDebug("Graphics Family Index: %d", assignment.Graphics)
	core.LogDebug("Present Family Index:  %d", assignment.Present)
	core.LogDebug("Compute Family Index:  %d", assignment.Compute)
	core.LogDebug("Transfer Family Index: %d", assignment.Transfer)
	return assignment, nil
}

type LogicalDeviceOptions struct {
	// ValidationLayers are also enabled on the device for older loaders.
	ValidationLayers []string
}

// LogicalDevice owns the device handle and one queue per role. Destroying it
// invalidates every handle created from it.
type LogicalDevice struct {
	Handle   vk.Device
	Adapter  Adapter
	Families QueueFamilyAssignment

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	ComputeQueue  vk.Queue
	TransferQueue vk.Queue

	driver Driver
}

func CreateLogicalDevice(driver Driver, adapter Adapter, surface vk.Surface, opts LogicalDeviceOptions) (*LogicalDevice, error) {
	families, err := FindQueueFamilies(driver, adapter.Handle, surface)
	if err != nil {
		return nil, err
	}

	core.LogInfo("Creating logical device...")

	distinct := families.Distinct()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(distinct))
	for i, idx := range distinct {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: idx,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}
	if adapter.Capabilities.SamplerAnisotropy {
		deviceFeatures.SamplerAnisotropy = vk.True
	}

	extensionNames := []string{swapchainExtensionName}
	if adapter.Capabilities.Portability {
		core.LogInfo("Adding required extension '%s'.", portabilityExtensionName)
		extensionNames = append(extensionNames, portabilityExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}
	if len(opts.ValidationLayers) > 0 {
		deviceCreateInfo.EnabledLayerCount = uint32(len(opts.ValidationLayers))
		deviceCreateInfo.PpEnabledLayerNames = VulkanSafeStrings(opts.ValidationLayers)
	}

	handle, res := driver.CreateDevice(adapter.Handle, &deviceCreateInfo)
	if res != vk.Success {
		return nil, resultError(core.ErrDeviceCreation, "vkCreateDevice", res)
	}
	core.LogInfo("Logical device created.")

	device := &LogicalDevice{
		Handle:   handle,
		Adapter:  adapter,
		Families: families,
		driver:   driver,
	}
	device.GraphicsQueue = driver.DeviceQueue(handle, families.Graphics)
	device.PresentQueue = driver.DeviceQueue(handle, families.Present)
	device.ComputeQueue = driver.DeviceQueue(handle, families.Compute)
	device.TransferQueue = driver.DeviceQueue(handle, families.Transfer)
	core.LogInfo("Queues obtained.")

	return device, nil
}

// WaitIdle blocks until every queue of the device is idle.
func (d *LogicalDevice) WaitIdle() error {
	if d == nil || d.Handle == nil {
		return core.ErrNullDevice
	}
	if res := d.driver.DeviceWaitIdle(d.Handle); res != vk.Success {
		return fmt.Errorf("vkDeviceWaitIdle: %s", VulkanResultString(res, true))
	}
	return nil
}

func (d *LogicalDevice) Destroy() {
	if d == nil || d.Handle == nil {
		return
	}
	core.LogInfo("Destroying logical device...")
	d.GraphicsQueue = nil
	d.PresentQueue = nil
	d.ComputeQueue = nil
	d.TransferQueue = nil
	d.driver.DestroyDevice(d.Handle)
	d.Handle = nil
}
