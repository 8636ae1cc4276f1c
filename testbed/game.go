package testbed

import (
	"github.com/spaghettifunk/vkframe/engine"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32
	// seconds since start, for the periodic status line
	elapsed    float64
	lastReport float64
}

// Triangle is drawn in clip space, so it stretches with the window.
var Triangle = []vulkan.Vertex{
	{Position: [3]float32{0.0, -0.5, 0.0}, Colour: [3]float32{1.0, 0.0, 0.0}},
	{Position: [3]float32{0.5, 0.5, 0.0}, Colour: [3]float32{0.0, 1.0, 0.0}},
	{Position: [3]float32{-0.5, 0.5, 0.0}, Colour: [3]float32{0.0, 0.0, 1.0}},
}

func NewTestGame() *engine.Game {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg.Game
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(r *renderer.Renderer) error {
	core.LogDebug("initializing testbed...")
	return r.UploadVertices(Triangle)
}

func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	s.elapsed += deltaTime
	if s.elapsed-s.lastReport >= 5.0 {
		core.LogDebug("testbed running for %.0fs at %dx%d", s.elapsed, s.width, s.height)
		s.lastReport = s.elapsed
	}
	return nil
}

func (g *TestGame) Render(packet *renderer.RenderPacket, deltaTime float64) error {
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width = width
	s.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("shutting down testbed...")
	return nil
}
