package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Status is the outcome of a swapchain acquire or present that did not fail
// outright. Anything other than StatusSuccess asks for swapchain recreation.
type Status int

const (
	StatusSuccess Status = iota
	StatusSuboptimal
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	}
	return "unknown"
}

// statusFromResult maps a swapchain result onto a Status. ok is false when the
// result is a real error.
func statusFromResult(result vk.Result) (status Status, ok bool) {
	switch result {
	case vk.Success:
		return StatusSuccess, true
	case vk.Suboptimal:
		return StatusSuboptimal, true
	case vk.ErrorOutOfDate:
		return StatusOutOfDate, true
	}
	return StatusSuccess, false
}
