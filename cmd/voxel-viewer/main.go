package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/graphics"
	"voxelstream/internal/graphics/renderables/blocks"
	"voxelstream/internal/graphics/renderables/crosshair"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/input"
	"voxelstream/internal/logging"
	"voxelstream/internal/player"
	"voxelstream/internal/streaming"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $"+config.EnvPath+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	closer.Bind(func() { log.Info("viewer stopped") })
	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("viewer failed")
		closer.Exit(1)
	}
	closer.Close()
}

func run(cfg config.Config, log *logrus.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(cfg.Window)
	if err != nil {
		return err
	}

	metrics := streaming.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, log)
		defer stop()
	}

	pool := graphics.NewInstancePool(log, metrics)
	session, err := game.NewSession(cfg, pool, log, metrics)
	if err != nil {
		return err
	}
	defer session.Cleanup()

	width, height := window.GetFramebufferSize()
	r, err := renderer.NewRenderer(width, height,
		blocks.NewBlocks(pool, nil),
		crosshair.NewCrosshair(),
	)
	if err != nil {
		return err
	}
	defer r.Dispose()

	camera := player.NewCamera(session.SpawnPoint(), 45, -30)
	camera.Sensitivity = cfg.Window.MouseSensitivity

	loop := NewViewerLoop(window, r, session, camera, newInputManager(), input.NewQueue(64), cfg.Window, log)
	setupInputHandlers(window, loop)
	return loop.Run(context.Background())
}

func setupWindow(cfg config.WindowConfig) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}

	// FPSLimiter paces frames instead of vsync
	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return window, nil
}
