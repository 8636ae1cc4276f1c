package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/vkframe/engine/assets"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/platform"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	gameInstance *Game

	events   *core.EventBus
	window   *platform.Window
	renderer *renderer.Renderer
	assets   *assets.AssetManager
	clock    *core.Clock
	metrics  *core.Metrics

	isRunning   bool
	isSuspended bool
	width       uint32
	height      uint32
	lastTime    float64

	// set from other goroutines, read once per frame
	stop atomic.Bool
}

func New(config *ApplicationConfig, g *Game) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		gameInstance: g,
		events:       core.NewEventBus(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        config.StartWidth,
		height:       config.StartHeight,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	core.SetLogLevel(e.config.LogLevel)

	e.registerHandlers()

	window, err := platform.NewWindow(platform.WindowConfig{
		Title:  e.config.Name,
		X:      e.config.StartPosX,
		Y:      e.config.StartPosY,
		Width:  e.config.StartWidth,
		Height: e.config.StartHeight,
	}, e.events)
	if err != nil {
		return err
	}
	e.window = window

	am, err := assets.NewAssetManager(e.config.ShaderDir)
	if err != nil {
		return err
	}
	e.assets = am

	program, err := am.LoadShaderProgram(e.config.ShaderName)
	if err != nil {
		return fmt.Errorf("loading shader program '%s': %w", e.config.ShaderName, err)
	}

	r, err := renderer.New(renderer.Vulkan, e.config.BackendConfig(shaderStages(program)), window)
	if err != nil {
		return err
	}
	// Stored before Initialize so Shutdown can release a partial setup.
	e.renderer = r
	if err := r.Initialize(); err != nil {
		return err
	}

	if e.config.HotReload {
		if err := am.Watch(); err != nil {
			return err
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.renderer); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) registerHandlers() {
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_SHADER_RELOADED, e, e.onShaderReloaded)
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if e.config.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(e.config.TargetFPS)
	}

	for e.isRunning {
		e.window.PollEvents()
		if e.window.ShouldClose() || e.stop.Load() {
			e.isRunning = false
			break
		}

		e.drainShaderChanges()

		if e.isSuspended {
			e.window.WaitEvents()
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := e.window.AbsoluteTime()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down.")
				return err
			}
		}

		packet := &renderer.RenderPacket{DeltaTime: delta}
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(packet, delta); err != nil {
				core.LogError("Game render failed, shutting down.")
				return err
			}
		}

		if err := e.renderer.DrawFrame(packet); err != nil {
			return err
		}

		frameElapsedTime := e.window.AbsoluteTime() - frameStartTime
		if e.metrics.Update(frameElapsedTime) {
			core.LogDebug("FPS: %.1f frame time: %.3fms", e.metrics.FPS(), e.metrics.FrameTime())
		}

		// Give what is left of the frame budget back to the OS.
		if remaining := targetFrameSeconds - frameElapsedTime; remaining > 0 {
			e.window.Sleep(remaining * 1000)
		}

		e.lastTime = currentTime
	}
	return nil
}

// Stop ends Run after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Shutdown releases everything Initialize created. Call it on the goroutine
// that ran Initialize.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("Game shutdown failed: %s", err)
		}
	}
	if e.assets != nil {
		e.assets.Close()
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	if e.window != nil {
		e.window.Destroy()
	}
	e.events.Shutdown()
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// drainShaderChanges turns watcher notifications for the active program into
// reload events. Several writes in one frame collapse into one reload.
func (e *Engine) drainShaderChanges() {
	if e.assets == nil {
		return
	}
	reload := false
	for {
		select {
		case name := <-e.assets.Changes():
			if name == e.config.ShaderName {
				reload = true
			}
		case err := <-e.assets.Errors():
			core.LogWarn("Shader watcher: %s", err)
		default:
			if reload {
				ctx := core.EventContext{}
				ctx.Data.C[0] = e.config.ShaderName
				e.events.Fire(core.EVENT_CODE_SHADER_RELOADED, e, ctx)
			}
			return
		}
	}
}

func (e *Engine) onEvent(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		if e.window != nil {
			e.window.SetShouldClose(true)
		}
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.renderer != nil {
		e.renderer.OnResize(width, height)
	}
	// Other listeners may still care.
	return false
}

func (e *Engine) onShaderReloaded(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	name := context.Data.C[0]
	program, err := e.assets.LoadShaderProgram(name)
	if err == nil {
		err = e.renderer.ReloadShaders(shaderStages(program))
	}
	if err != nil {
		// The old pipeline keeps drawing until the files load and link again.
		core.LogWarn("Shader '%s' reload failed: %s", name, err)
	}
	return true
}

func shaderStages(program assets.ShaderProgram) vulkan.ShaderStages {
	return vulkan.ShaderStages{
		Vertex:   program.Vertex,
		Fragment: program.Fragment,
	}
}
