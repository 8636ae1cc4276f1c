package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/stretchr/testify/assert"
)

func TestFramebufferSizeCallbackSetsResized(t *testing.T) {
	bus := core.NewEventBus()
	var got core.EventContext
	fired := 0
	bus.Register(core.EVENT_CODE_RESIZED, t, func(_ core.SystemEventCode, _, _ interface{}, data core.EventContext) bool {
		fired++
		got = data
		return true
	})

	w := &Window{events: bus}
	assert.False(t, w.Resized())

	w.onFramebufferSize(1024, 768)
	assert.True(t, w.Resized())
	assert.Equal(t, 1, fired)
	assert.Equal(t, uint32(1024), got.Data.U32[0])
	assert.Equal(t, uint32(768), got.Data.U32[1])

	w.ResetResized()
	assert.False(t, w.Resized())
}

func TestEscapeFiresQuit(t *testing.T) {
	bus := core.NewEventBus()
	quits := 0
	bus.Register(core.EVENT_CODE_APPLICATION_QUIT, t, func(core.SystemEventCode, interface{}, interface{}, core.EventContext) bool {
		quits++
		return true
	})

	w := &Window{events: bus}
	w.onKey(glfw.KeyA, glfw.Press)
	w.onKey(glfw.KeyEscape, glfw.Release)
	assert.Zero(t, quits)

	w.onKey(glfw.KeyEscape, glfw.Press)
	assert.Equal(t, 1, quits)
}
