package vulkan

import (
	"fmt"
	"math"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/containers"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// FrameSlot is the synchronization state of one frame in flight.
type FrameSlot struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *Fence
}

// FrameSynchronizer owns the ring of frame slots and the map from swapchain
// image index to the fence of the frame currently rendering into it.
//
// One tick is BeginFrame, acquire, ClaimImage, submit, present, Advance.
type FrameSynchronizer struct {
	driver Driver
	device *LogicalDevice

	slots          *containers.Ring[*FrameSlot]
	imagesInFlight map[uint32]*Fence
	fenceTimeout   uint64
}

// NewFrameSynchronizer creates slotCount slots with signaled fences. A zero
// fenceTimeout waits forever.
func NewFrameSynchronizer(driver Driver, device *LogicalDevice, slotCount uint32, fenceTimeout time.Duration) (*FrameSynchronizer, error) {
	fs := &FrameSynchronizer{
		driver:         driver,
		device:         device,
		imagesInFlight: make(map[uint32]*Fence, slotCount),
		fenceTimeout:   math.MaxUint64,
	}
	if fenceTimeout > 0 {
		fs.fenceTimeout = uint64(fenceTimeout.Nanoseconds())
	}

	slots := make([]*FrameSlot, 0, slotCount)
	for i := uint32(0); i < slotCount; i++ {
		slot, err := fs.newSlot()
		if err != nil {
			fs.slots = containers.NewRing(slots)
			fs.Destroy()
			return nil, err
		}
		slots = append(slots, slot)
	}
	fs.slots = containers.NewRing(slots)
	core.LogDebug("Frame synchronizer created with %d slots.", slotCount)
	return fs, nil
}

func (fs *FrameSynchronizer) newSlot() (*FrameSlot, error) {
	slot := &FrameSlot{}
	var res vk.Result
	if slot.ImageAvailable, res = fs.driver.CreateSemaphore(fs.device.Handle); res != vk.Success {
		return nil, resultError(core.ErrSyncObjectCreation, "vkCreateSemaphore", res)
	}
	if slot.RenderFinished, res = fs.driver.CreateSemaphore(fs.device.Handle); res != vk.Success {
		fs.driver.DestroySemaphore(fs.device.Handle, slot.ImageAvailable)
		return nil, resultError(core.ErrSyncObjectCreation, "vkCreateSemaphore", res)
	}
	// Created signaled so the first wait on each slot returns at once.
	fence, err := NewFence(fs.driver, fs.device, true)
	if err != nil {
		fs.driver.DestroySemaphore(fs.device.Handle, slot.ImageAvailable)
		fs.driver.DestroySemaphore(fs.device.Handle, slot.RenderFinished)
		return nil, err
	}
	slot.InFlight = fence
	return slot, nil
}

// BeginFrame waits for the current slot's previous work to finish and returns
// the slot. Images that work was rendering into are released.
func (fs *FrameSynchronizer) BeginFrame() (*FrameSlot, error) {
	if fs.slots.IsEmpty() {
		return nil, fmt.Errorf("frame synchronizer has no slots: %w", core.ErrSyncObjectCreation)
	}
	slot := fs.slots.Current()
	if err := slot.InFlight.Wait(fs.fenceTimeout); err != nil {
		return nil, err
	}
	for index, fence := range fs.imagesInFlight {
		if fence == slot.InFlight {
			delete(fs.imagesInFlight, index)
		}
	}
	return slot, nil
}

// ClaimImage makes sure no other slot is still rendering into the image and
// records the current slot as its user.
func (fs *FrameSynchronizer) ClaimImage(index uint32) error {
	slot := fs.slots.Current()
	if fence, ok := fs.imagesInFlight[index]; ok && fence != slot.InFlight {
		if err := fence.Wait(fs.fenceTimeout); err != nil {
			return err
		}
	}
	fs.imagesInFlight[index] = slot.InFlight
	return nil
}

func (fs *FrameSynchronizer) Advance() {
	fs.slots.Advance()
}

func (fs *FrameSynchronizer) CurrentFrame() uint32 {
	return uint32(fs.slots.Index())
}

func (fs *FrameSynchronizer) SlotCount() uint32 {
	return uint32(fs.slots.Len())
}

// InFlightCount is the number of slots whose fence has not been seen signaled.
func (fs *FrameSynchronizer) InFlightCount() int {
	count := 0
	fs.slots.Each(func(_ int, slot *FrameSlot) {
		if !slot.InFlight.IsSignaled {
			count++
		}
	})
	return count
}

// Destroy frees every semaphore and fence. The device must be idle.
func (fs *FrameSynchronizer) Destroy() {
	if fs.slots == nil {
		return
	}
	fs.slots.Each(func(_ int, slot *FrameSlot) {
		if slot.ImageAvailable != vk.NullSemaphore {
			fs.driver.DestroySemaphore(fs.device.Handle, slot.ImageAvailable)
			slot.ImageAvailable = vk.NullSemaphore
		}
		if slot.RenderFinished != vk.NullSemaphore {
			fs.driver.DestroySemaphore(fs.device.Handle, slot.RenderFinished)
			slot.RenderFinished = vk.NullSemaphore
		}
		if slot.InFlight != nil {
			slot.InFlight.Destroy()
			slot.InFlight = nil
		}
	})
	fs.slots = containers.NewRing[*FrameSlot](nil)
	clear(fs.imagesInFlight)
}
