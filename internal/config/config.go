package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPath names the environment variable consulted when no path is given.
const EnvPath = "VOXEL_CONFIG"

// Config is the root configuration.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Raycast   RaycastConfig   `yaml:"raycast"`
	Edit      EditConfig      `yaml:"edit"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Window    WindowConfig    `yaml:"window"`
}

type WorldConfig struct {
	// MaxChunkWorldWidth is the world width in chunks along X and Z.
	MaxChunkWorldWidth int `yaml:"max_chunk_world_width"`
}

type StreamingConfig struct {
	// VisibleRadius is the Chebyshev radius of the visible window in chunks.
	VisibleRadius int `yaml:"visible_radius"`
	MeshWorkers   int `yaml:"mesh_workers"`
	MeshQueue     int `yaml:"mesh_queue"`
}

type RaycastConfig struct {
	Strategy    string `yaml:"strategy"` // "march" or "dda"
	MaxIter     int    `yaml:"max_iter"`
	ExtraChecks int    `yaml:"extra_checks"`
}

type EditConfig struct {
	PlaceBlock string `yaml:"place_block"`
	Highlight  bool   `yaml:"highlight"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	// Addr is the listen address of the Prometheus endpoint; empty disables it.
	Addr string `yaml:"addr"`
}

type WindowConfig struct {
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	Title            string  `yaml:"title"`
	FPSLimit         int     `yaml:"fps_limit"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	MoveSpeed        float32 `yaml:"move_speed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		World:     WorldConfig{MaxChunkWorldWidth: 32},
		Streaming: StreamingConfig{VisibleRadius: 4, MeshWorkers: 0, MeshQueue: 64},
		Raycast:   RaycastConfig{Strategy: "march", MaxIter: 20, ExtraChecks: 6},
		Edit:      EditConfig{PlaceBlock: "sand", Highlight: true},
		Log:       LogConfig{Level: "info"},
		Window: WindowConfig{
			Width:            900,
			Height:           600,
			Title:            "voxel-viewer",
			FPSLimit:         120,
			MouseSensitivity: 0.1,
			MoveSpeed:        10,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path falls back to $VOXEL_CONFIG, and to the defaults if that is
// unset too.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate clamps numeric settings into their supported ranges and rejects
// values that cannot be clamped.
func (c *Config) Validate() error {
	c.World.MaxChunkWorldWidth = clamp(c.World.MaxChunkWorldWidth, 1, 256)
	c.Streaming.VisibleRadius = clamp(c.Streaming.VisibleRadius, 1, 16)
	c.Streaming.MeshWorkers = clamp(c.Streaming.MeshWorkers, 0, 64)
	c.Streaming.MeshQueue = clamp(c.Streaming.MeshQueue, 1, 4096)
	c.Raycast.MaxIter = clamp(c.Raycast.MaxIter, 1, 256)
	c.Raycast.ExtraChecks = clamp(c.Raycast.ExtraChecks, 0, 64)
	c.Window.FPSLimit = clamp(c.Window.FPSLimit, 0, 1000)

	c.Raycast.Strategy = strings.ToLower(strings.TrimSpace(c.Raycast.Strategy))
	switch c.Raycast.Strategy {
	case "":
		c.Raycast.Strategy = "march"
	case "march", "dda":
	default:
		return fmt.Errorf("raycast.strategy %q: %w", c.Raycast.Strategy, ErrInvalid)
	}
	if c.Edit.PlaceBlock == "" || c.Edit.PlaceBlock == "air" {
		return fmt.Errorf("edit.place_block %q: %w", c.Edit.PlaceBlock, ErrInvalid)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d: %w", c.Window.Width, c.Window.Height, ErrInvalid)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
