package main

import (
	"context"
	"time"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/graphics"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/input"
	"voxelstream/internal/player"
	"voxelstream/internal/profiling"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"
)

// ViewerLoop manages the main frame loop state
type ViewerLoop struct {
	window   *glfw.Window
	renderer *renderer.Renderer
	session  *game.Session
	camera   *player.Camera
	input    *input.Manager
	queue    *input.Queue
	cfg      config.WindowConfig
	log      logrus.FieldLogger

	fpsLimiter *game.FPSLimiter

	// Timing
	frames           int
	lastFPSCheckTime time.Time
	lastTime         time.Time
}

func NewViewerLoop(window *glfw.Window, r *renderer.Renderer, s *game.Session, c *player.Camera, im *input.Manager, q *input.Queue, cfg config.WindowConfig, log logrus.FieldLogger) *ViewerLoop {
	return &ViewerLoop{
		window:           window,
		renderer:         r,
		session:          s,
		camera:           c,
		input:            im,
		queue:            q,
		cfg:              cfg,
		log:              log,
		fpsLimiter:       game.NewFPSLimiter(),
		lastFPSCheckTime: time.Now(),
		lastTime:         time.Now(),
	}
}

// Run ticks until the window is closed or a frame fails.
func (l *ViewerLoop) Run(ctx context.Context) error {
	for !l.window.ShouldClose() {
		if err := l.tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *ViewerLoop) tick(ctx context.Context) error {
	profiling.ResetFrame()
	now := time.Now()
	dt := now.Sub(l.lastTime).Seconds()
	l.lastTime = now

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	if l.input.JustPressed(input.ActionQuit) {
		l.window.SetShouldClose(true)
	}
	forward, right, up := l.input.MoveAxes()
	l.camera.Move(forward, right, up, l.cfg.MoveSpeed*float32(dt))
	l.input.EmitCommands(l.queue)

	report, err := l.session.Frame(ctx, l.camera.Observe(), l.queue.Drain())
	if err != nil {
		return err
	}

	l.renderer.Render(l.session.Streaming, l.camera.ViewMatrix(), dt)
	l.session.Spawner.Spawn("gl.ErrorCheck", graphics.NewErrorCheck())

	func() { defer profiling.Track("glfw.SwapBuffers")(); l.window.SwapBuffers() }()

	if err := l.session.Spawner.RunUntilStalled(); err != nil {
		return err
	}

	l.input.PostUpdate()
	l.updateStats(report)
	l.fpsLimiter.Wait(l.cfg.FPSLimit)
	return nil
}

func (l *ViewerLoop) updateStats(report game.FrameReport) {
	l.frames++
	if len(report.Edited) > 0 {
		l.log.WithFields(logrus.Fields{
			"chunks": report.Edited,
			"meshed": report.Flush.Meshed,
		}).Debug("edit applied")
	}
	if time.Since(l.lastFPSCheckTime) < time.Second {
		return
	}
	l.log.WithFields(logrus.Fields{
		"fps":      l.frames,
		"pos":      l.camera.Position,
		"slots":    l.session.Streaming.SlotsInUse(),
		"streamMs": profiling.SumWithPrefix("streaming.").Seconds() * 1000,
		"top":      profiling.TopN(3),
	}).Debug("frame stats")
	l.frames = 0
	l.lastFPSCheckTime = time.Now()
}

// RefreshRender draws a frame without updating state.
func (l *ViewerLoop) RefreshRender() {
	l.renderer.Render(l.session.Streaming, l.camera.ViewMatrix(), 0)
	l.window.SwapBuffers()
}
