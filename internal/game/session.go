package game

import (
	"context"
	"fmt"

	"voxelstream/internal/config"
	"voxelstream/internal/input"
	"voxelstream/internal/meshing"
	"voxelstream/internal/physics"
	"voxelstream/internal/player"
	"voxelstream/internal/profiling"
	"voxelstream/internal/streaming"
	"voxelstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Session owns the world and everything that mutates it. All methods must be
// called from the update loop's goroutine.
type Session struct {
	// ID tags every log line of the session.
	ID        uuid.UUID
	World     *world.World
	Streaming *streaming.Manager
	Spawner   *Spawner

	caster    physics.Caster
	mesher    *meshing.WorkerPool
	log       logrus.FieldLogger
	placeType world.BlockType
	highlight bool
	frames    int
}

// FrameReport describes what one Frame did.
type FrameReport struct {
	// Entered holds the chunks dirtied by a visible set change.
	Entered []world.ChunkCoord
	// Edited holds the chunks dirtied by block edits.
	Edited []world.ChunkCoord
	// Target is the block under the crosshair after edits.
	Target physics.RaycastResult
	Flush  streaming.FlushStats
}

// NewSession builds a world with its initial terrain and a streaming
// manager uploading into pool. metrics may be nil.
func NewSession(cfg config.Config, pool streaming.BufferPool, log logrus.FieldLogger, metrics *streaming.Metrics) (*Session, error) {
	placeType, err := world.ParseBlockType(cfg.Edit.PlaceBlock)
	if err != nil {
		return nil, fmt.Errorf("edit.place_block: %w", err)
	}
	caster, err := physics.NewCaster(cfg.Raycast.Strategy, physics.Params{
		MaxIter:     cfg.Raycast.MaxIter,
		ExtraChecks: cfg.Raycast.ExtraChecks,
	})
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	log = log.WithField("session", id.String())
	w := world.New(cfg.World.MaxChunkWorldWidth)
	w.InitialSetup()
	mesher := meshing.NewWorkerPool(cfg.Streaming.MeshWorkers, cfg.Streaming.MeshQueue)
	manager := streaming.NewManager(w, pool, mesher, streaming.Config{Radius: cfg.Streaming.VisibleRadius}, log, metrics)

	log.WithFields(logrus.Fields{
		"width":    cfg.World.MaxChunkWorldWidth,
		"radius":   cfg.Streaming.VisibleRadius,
		"strategy": cfg.Raycast.Strategy,
		"workers":  mesher.Workers(),
	}).Info("session created")

	return &Session{
		ID:        id,
		World:     w,
		Streaming: manager,
		Spawner:   NewSpawner(log),
		caster:    caster,
		mesher:    mesher,
		log:       log,
		placeType: placeType,
		highlight: cfg.Edit.Highlight,
	}, nil
}

// SpawnPoint returns the starting eye position: the world centre, above the terrain.
func (s *Session) SpawnPoint() mgl32.Vec3 {
	return s.World.Center(10)
}

// PlaceType returns the block type placed by CommandPlace without an explicit type.
func (s *Session) PlaceType() world.BlockType { return s.placeType }

// RecomputeVisibleSet refreshes the visible chunk set around eye and returns
// the chunks that need new meshes.
func (s *Session) RecomputeVisibleSet(eye mgl32.Vec3) ([]world.ChunkCoord, error) {
	return s.Streaming.Recompute(eye)
}

// BreakBlock turns the block under the ray into air. It returns the chunks
// whose meshes must be rebuilt, or nil if the ray hit nothing.
func (s *Session) BreakBlock(eye, dir mgl32.Vec3) []world.ChunkCoord {
	defer profiling.Track("game.BreakBlock")()
	hit := s.caster.Cast(s.World, eye, dir)
	if !hit.Hit {
		return nil
	}
	p := hit.HitPosition
	if !s.World.SetBlockAt(p[0], p[1], p[2], world.BlockTypeAir) {
		return nil
	}
	dirty := s.World.EditedChunks(p)
	s.Streaming.MarkDirty(dirty...)
	s.log.WithFields(logrus.Fields{"pos": p, "chunks": dirty}).Debug("block broken")
	return dirty
}

// PlaceBlock puts a block of type t against the face the ray hit, on the
// side facing the eye. Nothing happens if the ray misses or the target
// cell is outside the world or occupied.
func (s *Session) PlaceBlock(eye, dir mgl32.Vec3, t world.BlockType) []world.ChunkCoord {
	defer profiling.Track("game.PlaceBlock")()
	if t == world.BlockTypeAir {
		return nil
	}
	hit := s.caster.Cast(s.World, eye, dir)
	if !hit.Hit {
		return nil
	}
	p := hit.AdjacentPosition
	if !s.World.InBounds(p[0], p[1], p[2]) || !s.World.Block(p).IsAir() {
		return nil
	}
	s.World.SetBlockAt(p[0], p[1], p[2], t)
	dirty := s.World.EditedChunks(p)
	s.Streaming.MarkDirty(dirty...)
	s.log.WithFields(logrus.Fields{"pos": p, "block": t, "chunks": dirty}).Debug("block placed")
	return dirty
}

// Frame runs one update: refresh the visible set if the observer changed
// chunk, apply edit commands, move the highlight, then re-mesh and upload
// every dirty chunk.
func (s *Session) Frame(ctx context.Context, obs player.Observer, cmds []input.Command) (FrameReport, error) {
	defer profiling.Track("game.Frame")()
	var report FrameReport

	if obs.CrossedChunk || s.frames == 0 {
		entered, err := s.RecomputeVisibleSet(obs.Eye)
		if err != nil {
			return report, fmt.Errorf("recompute visible set: %w", err)
		}
		report.Entered = entered
	}

	for _, cmd := range cmds {
		switch cmd.Kind {
		case input.CommandBreak:
			report.Edited = append(report.Edited, s.BreakBlock(obs.Eye, obs.Front)...)
		case input.CommandPlace:
			t := cmd.Block
			if t == world.BlockTypeAir {
				t = s.placeType
			}
			report.Edited = append(report.Edited, s.PlaceBlock(obs.Eye, obs.Front, t)...)
		case input.CommandSelect:
			if cmd.Block != world.BlockTypeAir {
				s.placeType = cmd.Block
			}
		}
	}

	report.Edited = lo.Uniq(report.Edited)

	if s.highlight {
		report.Target = s.caster.Cast(s.World, obs.Eye, obs.Front)
		if report.Target.Hit {
			s.Streaming.SetHighlight(&report.Target.HitPosition)
		} else {
			s.Streaming.SetHighlight(nil)
		}
	}

	stats, err := s.Streaming.Flush(ctx)
	report.Flush = stats
	if err != nil {
		return report, fmt.Errorf("flush chunks: %w", err)
	}
	s.frames++
	return report, nil
}

// Cleanup stops the mesh workers and drops pending tasks.
func (s *Session) Cleanup() {
	s.Spawner.Shutdown()
	s.mesher.Shutdown()
}
