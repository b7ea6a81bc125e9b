// Package config handles viewer and build configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/extrude/internal/logger"
)

// Config holds all settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Build   BuildConfig   `yaml:"build"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"` // MSAA samples, 0 to disable
}

// RenderConfig holds extrusion renderer settings.
type RenderConfig struct {
	Alpha      bool       `yaml:"alpha"` // depth pre-pass for translucent buildings
	Debug      bool       `yaml:"debug"` // single pass with fixed colours
	Fade       float32    `yaml:"fade"`
	ClearColor [3]float32 `yaml:"clear_color"`
	FPSLimit   int        `yaml:"fps_limit"`
}

// BuildConfig holds mesh builder settings.
type BuildConfig struct {
	Workers      int           `yaml:"workers"`    // 0 uses one per CPU
	QueueSize    int           `yaml:"queue_size"` // pending tile jobs
	ArenaMaxFree int           `yaml:"arena_max_free"`
	Timeout      time.Duration `yaml:"timeout"` // per scene, 0 for none
}

// DataConfig holds input file paths.
type DataConfig struct {
	Scenes      []string `yaml:"scenes"`      // footprint scene files
	Screenshots string   `yaml:"screenshots"` // output directory for F12 captures
	Watch       bool     `yaml:"watch"`       // reload the scene when its file changes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Samples:    4,
		},
		Render: RenderConfig{
			Alpha:      true,
			Debug:      false,
			Fade:       1,
			ClearColor: [3]float32{0.93, 0.92, 0.90},
			FPSLimit:   0,
		},
		Build: BuildConfig{
			Workers:      0,
			QueueSize:    64,
			ArenaMaxFree: 4096,
			Timeout:      30 * time.Second,
		},
		Data: DataConfig{
			Scenes:      []string{"scene.yaml"},
			Screenshots: "screenshots",
			Watch:       true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.Samples < 0 {
		errs = append(errs, fmt.Errorf("window samples %d", c.Window.Samples))
	}
	if c.Render.Fade < 0 || c.Render.Fade > 1 {
		errs = append(errs, fmt.Errorf("render fade %v outside 0..1", c.Render.Fade))
	}
	if c.Build.Workers < 0 {
		errs = append(errs, fmt.Errorf("build workers %d", c.Build.Workers))
	}
	if c.Build.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("build queue size %d", c.Build.QueueSize))
	}
	if c.Render.FPSLimit < 0 {
		errs = append(errs, fmt.Errorf("render fps limit %d", c.Render.FPSLimit))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
