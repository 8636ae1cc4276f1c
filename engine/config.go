package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

const (
	PresentModeMailbox = "mailbox"
	PresentModeFIFO    = "fifo"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	LogLevel    string `toml:"log_level"`

	Validation bool `toml:"validation"`
	// "mailbox" uses mailbox when the surface offers it; "fifo" always uses FIFO.
	PresentMode string     `toml:"present_mode"`
	ClearColor  [4]float32 `toml:"clear_color"`

	ShaderDir  string `toml:"shader_dir"`
	ShaderName string `toml:"shader_name"`
	HotReload  bool   `toml:"hot_reload"`

	// Zero waits on fences forever.
	FenceTimeoutMS uint32 `toml:"fence_timeout_ms"`
	// Zero renders as fast as presentation allows.
	TargetFPS uint32 `toml:"target_fps"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:        "vkframe",
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  1280,
		StartHeight: 720,
		LogLevel:    "info",
		PresentMode: PresentModeMailbox,
		ClearColor:  [4]float32{0.0, 0.0, 0.2, 1.0},
		ShaderDir:   "assets/shaders",
		ShaderName:  "triangle",
		TargetFPS:   60,
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// yields the defaults; unknown keys are an error.
func LoadConfig(path string) (*ApplicationConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("config file '%s' not found, using defaults", path)
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%s: %s: %w", path, strict.String(), core.ErrInvalidConfig)
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s: %w", path, row, col, decodeErr.Error(), core.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%s: %s: %w", path, err, core.ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return fmt.Errorf("window size %dx%d: %w", c.StartWidth, c.StartHeight, core.ErrInvalidConfig)
	}
	if c.PresentMode != PresentModeMailbox && c.PresentMode != PresentModeFIFO {
		return fmt.Errorf("present_mode %q: %w", c.PresentMode, core.ErrInvalidConfig)
	}
	if c.ShaderName == "" {
		return fmt.Errorf("shader_name is empty: %w", core.ErrInvalidConfig)
	}
	return nil
}

// BackendConfig maps the application settings onto the Vulkan backend.
func (c *ApplicationConfig) BackendConfig(stages vulkan.ShaderStages) vulkan.BackendConfig {
	return vulkan.BackendConfig{
		AppName:      c.Name,
		Validation:   c.Validation,
		ForceFIFO:    c.PresentMode == PresentModeFIFO,
		ClearColor:   c.ClearColor,
		Shaders:      stages,
		FenceTimeout: time.Duration(c.FenceTimeoutMS) * time.Millisecond,
	}
}
