package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

type InstanceOptions struct {
	AppName    string
	Validation bool
	// Extensions the window system needs, e.g. VK_KHR_xcb_surface.
	WindowExtensions []string
}

// Instance is the Vulkan instance plus the debug report callback installed on
// it when validation is on.
type Instance struct {
	Handle           vk.Instance
	ValidationLayers []string

	debugCallback vk.DebugReportCallback
}

// CreateInstance loads the Vulkan library through glfw and creates the
// instance. Missing validation layers are fatal when validation is requested.
func CreateInstance(opts InstanceOptions) (*Instance, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, fmt.Errorf("GetInstanceProcAddress is nil: %w", core.ErrUnknown)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize vk: %s: %w", err, core.ErrInstanceCreation)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(opts.AppName),
		PEngineName:        VulkanSafeString("vkframe"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := instanceExtensions(opts.WindowExtensions, opts.Validation, runtime.GOOS)
	core.LogInfo("Required extensions:")
	for _, e := range extensions {
		core.LogInfo(e)
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)

	instance := &Instance{}
	if opts.Validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		available, err := availableLayers()
		if err != nil {
			return nil, err
		}
		required := []string{validationLayerName}
		if missing := missingNames(required, available); len(missing) > 0 {
			return nil, fmt.Errorf("missing %v: %w", missing, core.ErrValidationLayerUnavailable)
		}
		core.LogInfo("All required validation layers are present.")
		instance.ValidationLayers = required
		createInfo.EnabledLayerCount = uint32(len(required))
		createInfo.PpEnabledLayerNames = VulkanSafeStrings(required)
	}

	handle, err := newInstanceHandle(&createInfo, vk.CreateInstance, vk.InitInstance, vk.DestroyInstance)
	if err != nil {
		return nil, err
	}
	instance.Handle = handle
	core.LogInfo("Vulkan Instance created.")

	if opts.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(instance.Handle, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			instance.debugCallback = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}
	return instance, nil
}

// newInstanceHandle creates the instance and loads its function pointers. A
// handle that fails to load is destroyed before returning.
func newInstanceHandle(
	createInfo *vk.InstanceCreateInfo,
	create func(*vk.InstanceCreateInfo, *vk.AllocationCallbacks, *vk.Instance) vk.Result,
	load func(vk.Instance) error,
	destroy func(vk.Instance, *vk.AllocationCallbacks),
) (vk.Instance, error) {
	var handle vk.Instance
	if res := create(createInfo, nil, &handle); res != vk.Success {
		return nil, resultError(core.ErrInstanceCreation, "vkCreateInstance", res)
	}
	if err := load(handle); err != nil {
		destroy(handle, nil)
		return nil, fmt.Errorf("loading instance functions: %s: %w", err, core.ErrInstanceCreation)
	}
	return handle, nil
}

func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
	if i.Handle != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(i.Handle, nil)
		i.Handle = nil
	}
}

// instanceExtensions lists the instance extensions to enable, without duplicates.
func instanceExtensions(windowExtensions []string, validation bool, goos string) []string {
	extensions := []string{"VK_KHR_surface"}
	extensions = append(extensions, windowExtensions...)
	if goos == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}
	if validation {
		extensions = append(extensions, "VK_EXT_debug_report")
	}

	seen := make(map[string]bool, len(extensions))
	unique := extensions[:0]
	for _, e := range extensions {
		if !seen[e] {
			seen[e] = true
			unique = append(unique, e)
		}
	}
	return unique
}

func availableLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError(core.ErrValidationLayerUnavailable, "vkEnumerateInstanceLayerProperties", res)
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, resultError(core.ErrValidationLayerUnavailable, "vkEnumerateInstanceLayerProperties", res)
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, VulkanGoString(layers[i].LayerName[:]))
	}
	return names, nil
}

// missingNames returns the required names that are not in available.
func missingNames(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	var missing []string
	for _, r := range required {
		if !have[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
