package vulkan

import (
	"encoding/binary"
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayout(t *testing.T) {
	layout := VertexLayoutFor()
	assert.Equal(t, uint32(VertexSize), layout.Stride)
	require.Len(t, layout.Attributes, 2)
	assert.Equal(t, uint32(12), layout.Attributes[1].Offset)

	binding, attributes := layout.descriptions()
	assert.Equal(t, uint32(0), binding.Binding)
	assert.Equal(t, vk.VertexInputRateVertex, binding.InputRate)
	require.Len(t, attributes, 2)
	for i, a := range attributes {
		assert.Equal(t, uint32(i), a.Location)
		assert.Equal(t, vk.FormatR32g32b32Sfloat, a.Format)
	}
}

func TestEncodeVertices(t *testing.T) {
	data := EncodeVertices([]Vertex{
		{Position: [3]float32{0.5, -0.5, 0}, Colour: [3]float32{1, 0, 0}, UV: [2]float32{0, 1}},
		{Position: [3]float32{-1, 1, 0}},
	})
	require.Len(t, data, 2*VertexSize)

	at := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
	}
	assert.Equal(t, float32(0.5), at(0))
	assert.Equal(t, float32(-0.5), at(4))
	assert.Equal(t, float32(1), at(12))
	assert.Equal(t, float32(1), at(28))
	assert.Equal(t, float32(-1), at(VertexSize))
	assert.Empty(t, EncodeVertices(nil))
}

func TestFindMemoryType(t *testing.T) {
	var memory vk.PhysicalDeviceMemoryProperties
	memory.MemoryTypeCount = 3
	memory.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	memory.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	memory.MemoryTypes[2].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	hostCoherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	assert.Equal(t, int32(2), FindMemoryType(memory, 0b111, hostCoherent))
	assert.Equal(t, int32(1), FindMemoryType(memory, 0b111, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)))
	assert.Equal(t, int32(-1), FindMemoryType(memory, 0b011, hostCoherent))
}

func TestVertexBufferDestroy(t *testing.T) {
	drv := newFakeDriver()
	device := newTestDevice(t, drv)

	vb, err := NewVertexBuffer(drv, device, []Vertex{{}, {}, {}})
	require.NoError(t, err)
	assert.Equal(t, 1, drv.live["buffer"])
	assert.Equal(t, 1, drv.live["memory"])

	vb.Destroy()
	vb.Destroy()
	assert.Zero(t, drv.live["buffer"])
	assert.Zero(t, drv.live["memory"])
}
