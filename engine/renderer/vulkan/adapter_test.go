package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usableAdapter(name string, discrete bool, maxDim uint32) Adapter {
	return Adapter{
		Name: name,
		Capabilities: AdapterCapabilities{
			Discrete:                   discrete,
			MaxImageDimension2D:        maxDim,
			SupportsRequiredExtensions: true,
			SupportsGeometryStage:      true,
		},
	}
}

func TestScoreAdapter(t *testing.T) {
	assert.Equal(t, DiscreteBonus+16384, ScoreAdapter(usableAdapter("d", true, 16384)))
	assert.Equal(t, uint64(8192), ScoreAdapter(usableAdapter("i", false, 8192)))

	noGeometry := usableAdapter("g", true, 16384)
	noGeometry.Capabilities.SupportsGeometryStage = false
	assert.Zero(t, ScoreAdapter(noGeometry))

	noExtensions := usableAdapter("e", true, 16384)
	noExtensions.Capabilities.SupportsRequiredExtensions = false
	assert.Zero(t, ScoreAdapter(noExtensions))
}

func TestSelectBest(t *testing.T) {
	cases := []struct {
		name     string
		adapters []Adapter
		want     string
		err      error
	}{
		{
			name:     "discrete beats integrated",
			adapters: []Adapter{usableAdapter("integrated", false, 16384), usableAdapter("discrete", true, 16384)},
			want:     "discrete",
		},
		{
			name:     "tie keeps the first",
			adapters: []Adapter{usableAdapter("first", true, 8192), usableAdapter("second", true, 8192)},
			want:     "first",
		},
		{
			name:     "nothing usable",
			adapters: []Adapter{{Name: "broken"}},
			err:      core.ErrNoSuitableAdapter,
		},
		{
			name: "empty",
			err:  core.ErrNoSuitableAdapter,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectBest(tc.adapters)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

func TestSelectAdapterSkipsAdaptersWithoutSwapchain(t *testing.T) {
	drv := newFakeDriver()
	discrete := drv.addGPU("discrete without swapchain", vk.PhysicalDeviceTypeDiscreteGpu, 32768)
	discrete.extensions = nil
	drv.addGPU("integrated", vk.PhysicalDeviceTypeIntegratedGpu, 8192)

	selected, err := SelectAdapter(drv, nil)
	require.NoError(t, err)
	assert.Equal(t, "integrated", selected.Name)
	assert.False(t, selected.Capabilities.Discrete)
}

func TestSelectAdapterNeedsGeometryStage(t *testing.T) {
	drv := newFakeDriver()
	gpu := drv.addGPU("no geometry", vk.PhysicalDeviceTypeDiscreteGpu, 16384)
	gpu.features.GeometryShader = vk.False

	_, err := SelectAdapter(drv, nil)
	assert.ErrorIs(t, err, core.ErrNoSuitableAdapter)
}

func TestSelectAdapterWithoutDevices(t *testing.T) {
	_, err := SelectAdapter(newFakeDriver(), nil)
	assert.ErrorIs(t, err, core.ErrNoSuitableAdapter)
}

func TestQueryAdapterDetectsPortability(t *testing.T) {
	drv := newFakeDriver()
	gpu := drv.addGPU("moltenvk", vk.PhysicalDeviceTypeIntegratedGpu, 16384)
	gpu.extensions = append(gpu.extensions, portabilityExtensionName)
	gpu.features.SamplerAnisotropy = vk.True

	a, err := QueryAdapter(drv, gpu.handle, RequiredDeviceExtensions)
	require.NoError(t, err)
	assert.Equal(t, "moltenvk", a.Name)
	assert.True(t, a.Capabilities.Portability)
	assert.True(t, a.Capabilities.SamplerAnisotropy)
	assert.Equal(t, uint32(16384), a.Capabilities.MaxImageDimension2D)
}
