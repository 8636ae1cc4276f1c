package vulkan

import (
	"bytes"
	"encoding/binary"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// Vertex is the layout the triangle shaders read. UV is carried for later
// texturing and is not bound to an attribute yet.
type Vertex struct {
	Position [3]float32
	Colour   [3]float32
	UV       [2]float32
}

// VertexSize is the byte stride of Vertex.
const VertexSize = 32

type VertexAttribute struct {
	Location uint32
	Format   vk.Format
	Offset   uint32
}

// VertexLayout describes binding 0 and its attributes. It must match the
// vertex shader input signature exactly.
type VertexLayout struct {
	Binding    uint32
	Stride     uint32
	Attributes []VertexAttribute
}

func VertexLayoutFor() VertexLayout {
	return VertexLayout{
		Binding: 0,
		Stride:  VertexSize,
		Attributes: []VertexAttribute{
			{Location: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
			{Location: 1, Format: vk.FormatR32g32b32Sfloat, Offset: 12},
		},
	}
}

func (l VertexLayout) descriptions() (vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	binding := vk.VertexInputBindingDescription{
		Binding:   l.Binding,
		Stride:    l.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(l.Attributes))
	for i, a := range l.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Binding:  l.Binding,
			Location: a.Location,
			Format:   a.Format,
			Offset:   a.Offset,
		}
	}
	return binding, attributes
}

// EncodeVertices packs vertices in the little-endian layout described by
// VertexLayoutFor.
func EncodeVertices(vertices []Vertex) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(vertices)*VertexSize))
	// Writes into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, vertices)
	return buf.Bytes()
}

// FindMemoryType returns the first memory type allowed by typeFilter that has
// every requested property, or -1.
func FindMemoryType(memory vk.PhysicalDeviceMemoryProperties, typeFilter uint32, properties vk.MemoryPropertyFlags) int32 {
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		if typeFilter&(1<<i) != 0 && memory.MemoryTypes[i].PropertyFlags&properties == properties {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}

// VertexBuffer is a host visible buffer filled once at creation.
type VertexBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	VertexCount uint32

	driver Driver
	device *LogicalDevice
}

func NewVertexBuffer(driver Driver, device *LogicalDevice, vertices []Vertex) (*VertexBuffer, error) {
	data := EncodeVertices(vertices)

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(len(data)),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	handle, res := driver.CreateBuffer(device.Handle, &bufferCreateInfo)
	if res != vk.Success {
		return nil, resultError(core.ErrBufferCreation, "vkCreateBuffer", res)
	}
	vb := &VertexBuffer{
		Handle:      handle,
		VertexCount: uint32(len(vertices)),
		driver:      driver,
		device:      device,
	}

	requirements := driver.BufferMemoryRequirements(device.Handle, handle)
	memoryType := FindMemoryType(
		device.Adapter.Memory,
		requirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if memoryType < 0 {
		vb.Destroy()
		return nil, core.ErrBufferCreation
	}

	memory, res := driver.AllocateMemory(device.Handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	})
	if res != vk.Success {
		vb.Destroy()
		return nil, resultError(core.ErrBufferCreation, "vkAllocateMemory", res)
	}
	vb.Memory = memory

	if res := driver.BindBufferMemory(device.Handle, handle, memory); res != vk.Success {
		vb.Destroy()
		return nil, resultError(core.ErrBufferCreation, "vkBindBufferMemory", res)
	}
	if res := driver.UploadMemory(device.Handle, memory, data); res != vk.Success {
		vb.Destroy()
		return nil, resultError(core.ErrBufferCreation, "vkMapMemory", res)
	}
	return vb, nil
}

func (vb *VertexBuffer) Destroy() {
	if vb.Handle != vk.NullBuffer {
		vb.driver.DestroyBuffer(vb.device.Handle, vb.Handle)
		vb.Handle = vk.NullBuffer
	}
	if vb.Memory != vk.NullDeviceMemory {
		vb.driver.FreeMemory(vb.device.Handle, vb.Memory)
		vb.Memory = vk.NullDeviceMemory
	}
}
