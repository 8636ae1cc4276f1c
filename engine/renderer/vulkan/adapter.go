package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

const (
	// DiscreteBonus is added to the score of discrete GPUs.
	DiscreteBonus uint64 = 1000

	swapchainExtensionName   = "VK_KHR_swapchain"
	portabilityExtensionName = "VK_KHR_portability_subset"
)

// RequiredDeviceExtensions must all be exposed by an adapter for it to be selected.
var RequiredDeviceExtensions = []string{swapchainExtensionName}

// AdapterCapabilities is the capability snapshot used for scoring.
type AdapterCapabilities struct {
	Discrete                   bool
	MaxImageDimension2D        uint32
	SupportsRequiredExtensions bool
	SupportsGeometryStage      bool

	SamplerAnisotropy bool
	Portability       bool
}

// Adapter is a physical GPU and what it can do. It owns no GPU resources.
type Adapter struct {
	Handle        vk.PhysicalDevice
	Name          string
	Type          vk.PhysicalDeviceType
	DriverVersion uint32
	APIVersion    uint32
	Capabilities  AdapterCapabilities
	Memory        vk.PhysicalDeviceMemoryProperties
}

// QueryAdapter snapshots the properties, features and extensions of gpu.
func QueryAdapter(driver Driver, gpu vk.PhysicalDevice, requiredExtensions []string) (Adapter, error) {
	properties := driver.PhysicalDeviceProperties(gpu)
	features := driver.PhysicalDeviceFeatures(gpu)

	extensions, res := driver.DeviceExtensions(gpu)
	if res != vk.Success {
		return Adapter{}, fmt.Errorf("vkEnumerateDeviceExtensionProperties: %s", VulkanResultString(res, false))
	}
	available := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		available[e] = true
	}
	supported := true
	for _, required := range requiredExtensions {
		if !available[required] {
			supported = false
			break
		}
	}

	return Adapter{
		Handle:        gpu,
		Name:          VulkanGoString(properties.DeviceName[:]),
		Type:          properties.DeviceType,
		DriverVersion: properties.DriverVersion,
		APIVersion:    properties.ApiVersion,
		Capabilities: AdapterCapabilities{
			Discrete:                   properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
			MaxImageDimension2D:        properties.Limits.MaxImageDimension2D,
			SupportsRequiredExtensions: supported,
			SupportsGeometryStage:      features.GeometryShader == vk.True,
			SamplerAnisotropy:          features.SamplerAnisotropy == vk.True,
			Portability:                available[portabilityExtensionName],
		},
		Memory: driver.PhysicalDeviceMemoryProperties(gpu),
	}, nil
}

// ScoreAdapter ranks an adapter. Zero means the adapter cannot be used.
func ScoreAdapter(a Adapter) uint64 {
	caps := a.Capabilities
	if !caps.SupportsGeometryStage || !caps.SupportsRequiredExtensions {
		return 0
	}
	var score uint64
	if caps.Discrete {
		score += DiscreteBonus
	}
	score += uint64(caps.MaxImageDimension2D)
	return score
}

// SelectBest picks the highest scoring adapter. On a tie the adapter
// enumerated first wins.
func SelectBest(adapters []Adapter) (Adapter, error) {
	var best Adapter
	var bestScore uint64
	for _, a := range adapters {
		score := ScoreAdapter(a)
		core.LogDebug("adapter '%s' scored %d", a.Name, score)
		if score > bestScore {
			best = a
			bestScore = score
		}
	}
	if bestScore == 0 {
		return Adapter{}, core.ErrNoSuitableAdapter
	}
	return best, nil
}

// SelectAdapter enumerates every GPU of the instance and selects the best one.
func SelectAdapter(driver Driver, instance vk.Instance) (Adapter, error) {
	gpus, res := driver.PhysicalDevices(instance)
	if res != vk.Success {
		return Adapter{}, resultError(core.ErrNoSuitableAdapter, "vkEnumeratePhysicalDevices", res)
	}
	if len(gpus) == 0 {
		core.LogError("No devices which support Vulkan were found.")
		return Adapter{}, core.ErrNoSuitableAdapter
	}

	adapters := make([]Adapter, 0, len(gpus))
	for _, gpu := range gpus {
		a, err := QueryAdapter(driver, gpu, RequiredDeviceExtensions)
		if err != nil {
			core.LogWarn("skipping adapter: %s", err)
			continue
		}
		adapters = append(adapters, a)
	}

	selected, err := SelectBest(adapters)
	if err != nil {
		core.LogError("No physical devices were found which meet the requirements.")
		return Adapter{}, err
	}
	selected.logInfo()
	return selected, nil
}

func (a Adapter) logInfo() {
	core.LogInfo("Selected device: '%s'.", a.Name)
	switch a.Type {
	default:
		fallthrough
	case vk.PhysicalDeviceTypeOther:
		core.LogInfo("GPU type is Unknown.")
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	}

	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version(a.DriverVersion).Major(),
		vk.Version(a.DriverVersion).Minor(),
		vk.Version(a.DriverVersion).Patch(),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(a.APIVersion).Major(),
		vk.Version(a.APIVersion).Minor(),
		vk.Version(a.APIVersion).Patch(),
	)

	for j := uint32(0); j < a.Memory.MemoryHeapCount; j++ {
		heap := a.Memory.MemoryHeaps[j]
		memorySizeGib := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
}
