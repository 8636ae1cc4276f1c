package engine

import "github.com/spaghettifunk/vkframe/engine/renderer"

// Game is the set of hooks the engine calls. Nil hooks are skipped.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func(r *renderer.Renderer) error
type Update func(deltaTime float64) error
type Render func(packet *renderer.RenderPacket, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
