package vulkan

import (
	"testing"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, drv *fakeDriver) *LogicalDevice {
	t.Helper()
	drv.addGPU("gpu", vk.PhysicalDeviceTypeDiscreteGpu, 16384)
	adapter, err := SelectAdapter(drv, nil)
	require.NoError(t, err)
	device, err := CreateLogicalDevice(drv, adapter, vk.NullSurface, LogicalDeviceOptions{})
	require.NoError(t, err)
	return device
}

// timeoutDriver reports a timeout for every fence wait.
type timeoutDriver struct {
	*fakeDriver
}

func (d timeoutDriver) WaitForFence(vk.Device, vk.Fence, uint64) vk.Result {
	return vk.Timeout
}

func TestFrameSynchronizerSlots(t *testing.T) {
	drv := newFakeDriver()
	fs, err := NewFrameSynchronizer(drv, newTestDevice(t, drv), 3, 0)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), fs.SlotCount())
	assert.Equal(t, 3, drv.live["fence"])
	assert.Equal(t, 6, drv.live["semaphore"])
	assert.Zero(t, fs.InFlightCount())

	// Fences start signaled, so the first round never waits.
	for i := 0; i < 3; i++ {
		slot, err := fs.BeginFrame()
		require.NoError(t, err)
		assert.True(t, slot.InFlight.IsSignaled)
		fs.Advance()
	}
	assert.Zero(t, drv.fenceWaits)
	assert.Equal(t, uint32(0), fs.CurrentFrame())

	fs.Destroy()
	assert.Zero(t, drv.live["fence"])
	assert.Zero(t, drv.live["semaphore"])
	assert.Zero(t, fs.SlotCount())

	_, err = fs.BeginFrame()
	assert.ErrorIs(t, err, core.ErrSyncObjectCreation)
}

func TestFrameSynchronizerImageClaims(t *testing.T) {
	drv := newFakeDriver()
	fs, err := NewFrameSynchronizer(drv, newTestDevice(t, drv), 2, time.Second)
	require.NoError(t, err)

	first, err := fs.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, fs.ClaimImage(1))
	require.NoError(t, first.InFlight.Reset())
	owner, ok := fs.imagesInFlight[1]
	require.True(t, ok)
	assert.Same(t, first.InFlight, owner)
	assert.Equal(t, 1, fs.InFlightCount())
	fs.Advance()

	// Slot 1 takes image 1 while slot 0 may still be rendering into it.
	second, err := fs.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, fs.ClaimImage(1))
	assert.Equal(t, 1, drv.fenceWaits)
	assert.True(t, first.InFlight.IsSignaled)
	owner = fs.imagesInFlight[1]
	assert.Same(t, second.InFlight, owner)
	fs.Advance()

	// Back on slot 0: its fence is signaled and owns no image any more.
	_, err = fs.BeginFrame()
	require.NoError(t, err)
	assert.Equal(t, 1, drv.fenceWaits)
	owner, ok = fs.imagesInFlight[1]
	require.True(t, ok)
	assert.Same(t, second.InFlight, owner)
}

func TestFrameSynchronizerReleasesImagesOfFinishedSlot(t *testing.T) {
	drv := newFakeDriver()
	fs, err := NewFrameSynchronizer(drv, newTestDevice(t, drv), 1, 0)
	require.NoError(t, err)

	slot, err := fs.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, fs.ClaimImage(0))
	require.NoError(t, slot.InFlight.Reset())
	fs.Advance()

	_, err = fs.BeginFrame()
	require.NoError(t, err)
	_, ok := fs.imagesInFlight[0]
	assert.False(t, ok)
}

func TestFenceWaitTimeout(t *testing.T) {
	drv := newFakeDriver()
	device := newTestDevice(t, drv)
	slow := timeoutDriver{drv}

	fence, err := NewFence(slow, device, false)
	require.NoError(t, err)
	assert.ErrorIs(t, fence.Wait(1), core.ErrFenceTimeout)
	assert.False(t, fence.IsSignaled)

	signaled, err := NewFence(slow, device, true)
	require.NoError(t, err)
	assert.NoError(t, signaled.Wait(1))

	require.NoError(t, signaled.Reset())
	assert.False(t, signaled.IsSignaled)
	signaled.Destroy()
	assert.Equal(t, vk.NullFence, signaled.Handle)
}
