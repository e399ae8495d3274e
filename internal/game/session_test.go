package game

import (
	"context"
	"errors"
	"testing"

	"voxelstream/internal/config"
	"voxelstream/internal/input"
	"voxelstream/internal/meshing"
	"voxelstream/internal/player"
	"voxelstream/internal/streaming"
	"voxelstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var down = mgl32.Vec3{0, -1, 0}

func newTestSession(t *testing.T, highlight bool) (*Session, *streaming.MemoryPool) {
	t.Helper()
	cfg := config.Default()
	cfg.World.MaxChunkWorldWidth = 4
	cfg.Streaming.VisibleRadius = 1
	cfg.Streaming.MeshWorkers = 2
	cfg.Streaming.MeshQueue = 8
	cfg.Edit.Highlight = highlight

	logger, _ := test.NewNullLogger()
	pool := streaming.NewMemoryPool(logger, nil)
	s, err := NewSession(cfg, pool, logger, nil)
	require.NoError(t, err)
	t.Cleanup(s.Cleanup)
	return s, pool
}

type faceKey struct {
	pos  mgl32.Vec3
	face world.BlockFace
}

func faceSet(w *world.World, c world.ChunkCoord) map[faceKey]world.MaterialClass {
	mesh := meshing.BuildChunkMesh(w, c, meshing.Options{})
	out := make(map[faceKey]world.MaterialClass)
	for _, b := range mesh.Batches {
		for _, inst := range b.Instances {
			out[faceKey{inst.Position, inst.Face}] = b.Class
		}
	}
	return out
}

func TestBreakBlockLookingDown(t *testing.T) {
	s, _ := newTestSession(t, false)
	eye := mgl32.Vec3{0, 10, 0}
	_, err := s.RecomputeVisibleSet(eye)
	require.NoError(t, err)
	_, err = s.Streaming.Flush(context.Background())
	require.NoError(t, err)

	origin := world.ChunkCoord{}
	before := faceSet(s.World, origin)
	assert.NotContains(t, before, faceKey{mgl32.Vec3{0, 0, 0}, world.FaceTop})

	dirty := s.BreakBlock(eye, down)
	assert.Equal(t, []world.ChunkCoord{origin}, dirty)
	assert.Equal(t, world.BlockTypeAir, s.World.BlockAt(0, 1, 0))
	assert.Equal(t, []world.ChunkCoord{origin}, s.Streaming.Dirty())

	after := faceSet(s.World, origin)
	assert.Contains(t, after, faceKey{mgl32.Vec3{0, 0, 0}, world.FaceTop})
	assert.NotContains(t, after, faceKey{mgl32.Vec3{0, 1, 0}, world.FaceTop})
}

func TestBreakThenPlaceRestoresFaces(t *testing.T) {
	s, _ := newTestSession(t, false)
	eye := mgl32.Vec3{20.5, 10, 20.5}
	_, err := s.RecomputeVisibleSet(eye)
	require.NoError(t, err)

	c := world.ChunkCoordOf(20, 20)
	before := faceSet(s.World, c)

	require.NotEmpty(t, s.BreakBlock(eye, down))
	assert.NotEqual(t, before, faceSet(s.World, c))

	dirty := s.PlaceBlock(eye, down, world.BlockTypeGrass)
	assert.Equal(t, []world.ChunkCoord{c}, dirty)
	assert.Equal(t, world.BlockTypeGrass, s.World.BlockAt(20, 1, 20))
	assert.Equal(t, before, faceSet(s.World, c))
}

func TestBreakOnChunkBorderDirtiesNeighbour(t *testing.T) {
	s, _ := newTestSession(t, false)
	eye := mgl32.Vec3{16.5, 10, 8.5}
	dirty := s.BreakBlock(eye, down)
	assert.ElementsMatch(t, []world.ChunkCoord{{X: 1, Z: 0}, {X: 0, Z: 0}}, dirty)
}

func TestMissMutatesNothing(t *testing.T) {
	s, _ := newTestSession(t, false)
	eye := mgl32.Vec3{8, 10, 8}
	up := mgl32.Vec3{0, 1, 0}

	assert.Nil(t, s.BreakBlock(eye, up))
	assert.Nil(t, s.PlaceBlock(eye, up, world.BlockTypeStone))
	assert.Empty(t, s.Streaming.Dirty())
	assert.Zero(t, s.World.AllocatedChunks())
}

func TestPlaceRejectsAirAndOutOfWorld(t *testing.T) {
	s, _ := newTestSession(t, false)
	eye := mgl32.Vec3{8, 10, 8}
	assert.Nil(t, s.PlaceBlock(eye, down, world.BlockTypeAir))

	// Looking back into the world from outside: the adjacent cell of the
	// west face at x=0 lies outside.
	outside := mgl32.Vec3{-0.5, 1.5, 8.5}
	assert.Nil(t, s.PlaceBlock(outside, mgl32.Vec3{1, 0, 0}, world.BlockTypeStone))
	assert.Empty(t, s.Streaming.Dirty())
}

func TestPlaceOnTopOfColumn(t *testing.T) {
	s, _ := newTestSession(t, false)
	eye := mgl32.Vec3{8.5, 10, 8.5}
	dirty := s.PlaceBlock(eye, down, world.BlockTypeStone)
	assert.Equal(t, []world.ChunkCoord{{}}, dirty)
	assert.Equal(t, world.BlockTypeStone, s.World.BlockAt(8, 2, 8))

	s.PlaceBlock(eye, down, world.BlockTypeGlass)
	assert.Equal(t, world.BlockTypeGlass, s.World.BlockAt(8, 3, 8))
}

func TestFrameRecomputesOnFirstAndCrossing(t *testing.T) {
	s, pool := newTestSession(t, false)
	ctx := context.Background()
	obs := player.Observer{Eye: mgl32.Vec3{24, 10, 24}, Front: down}

	report, err := s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	assert.Len(t, report.Entered, 9)
	assert.Equal(t, 9, report.Flush.Meshed)
	assert.Equal(t, 9, pool.Slots())

	report, err = s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Entered)
	assert.Zero(t, report.Flush.Meshed)

	obs.Eye = mgl32.Vec3{40, 10, 24}
	obs.CrossedChunk = true
	report, err = s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Entered)
	assert.LessOrEqual(t, pool.Slots(), s.Streaming.SlotBudget())
}

func TestMovingWithinChunkDoesNotRemesh(t *testing.T) {
	s, pool := newTestSession(t, false)
	ctx := context.Background()
	obs := player.Observer{Eye: mgl32.Vec3{24, 10, 24}, Front: down}
	_, err := s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	uploads := pool.Uploads()

	for _, eye := range []mgl32.Vec3{{20.5, 14, 30.5}, {17, 10, 17}, {31.9, 3, 16.1}} {
		obs.Eye = eye
		obs.Front = mgl32.Vec3{1, -1, 0.5}
		report, err := s.Frame(ctx, obs, nil)
		require.NoError(t, err)
		assert.Empty(t, report.Entered, "eye %v", eye)
		assert.Zero(t, report.Flush.Meshed, "eye %v", eye)
	}
	assert.Equal(t, uploads, pool.Uploads())
}

func TestHighlightRemeshesOnlyWhenTargetChanges(t *testing.T) {
	s, _ := newTestSession(t, true)
	ctx := context.Background()
	obs := player.Observer{Eye: mgl32.Vec3{24.5, 10, 24.5}, Front: down}
	_, err := s.Frame(ctx, obs, nil)
	require.NoError(t, err)

	obs.Eye = mgl32.Vec3{25.5, 10, 24.5}
	report, err := s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	assert.Equal(t, world.BlockPos{25, 1, 24}, report.Target.HitPosition)
	assert.Equal(t, 1, report.Flush.Meshed, "old and new target share a chunk")

	obs.Eye = mgl32.Vec3{25.7, 10, 24.2}
	report, err = s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	assert.Equal(t, world.BlockPos{25, 1, 24}, report.Target.HitPosition)
	assert.Zero(t, report.Flush.Meshed)
}

func TestFrameAppliesCommands(t *testing.T) {
	s, _ := newTestSession(t, false)
	ctx := context.Background()
	obs := player.Observer{Eye: mgl32.Vec3{8.5, 10, 8.5}, Front: down}

	_, err := s.Frame(ctx, obs, nil)
	require.NoError(t, err)

	cmds := []input.Command{
		{Kind: input.CommandSelect, Block: world.BlockTypePlanks},
		{Kind: input.CommandPlace},
	}
	report, err := s.Frame(ctx, obs, cmds)
	require.NoError(t, err)
	assert.Equal(t, world.BlockTypePlanks, s.PlaceType())
	assert.Equal(t, world.BlockTypePlanks, s.World.BlockAt(8, 2, 8))
	assert.Equal(t, []world.ChunkCoord{{}}, report.Edited)
	assert.Equal(t, 1, report.Flush.Meshed)

	report, err = s.Frame(ctx, obs, []input.Command{{Kind: input.CommandBreak}})
	require.NoError(t, err)
	assert.Equal(t, world.BlockTypeAir, s.World.BlockAt(8, 2, 8))
	assert.Len(t, report.Edited, 1)
}

func TestFrameHighlightsTarget(t *testing.T) {
	s, _ := newTestSession(t, true)
	ctx := context.Background()
	obs := player.Observer{Eye: mgl32.Vec3{8.5, 10, 8.5}, Front: down}

	report, err := s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	require.True(t, report.Target.Hit)
	assert.Equal(t, world.BlockPos{8, 1, 8}, report.Target.HitPosition)
	h, ok := s.Streaming.Highlight()
	assert.True(t, ok)
	assert.Equal(t, world.BlockPos{8, 1, 8}, h)

	obs.Front = mgl32.Vec3{0, 1, 0}
	report, err = s.Frame(ctx, obs, nil)
	require.NoError(t, err)
	assert.False(t, report.Target.Hit)
	_, ok = s.Streaming.Highlight()
	assert.False(t, ok)
	assert.Equal(t, 1, report.Flush.Meshed)
}

func TestNewSessionRejectsBadConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Edit.PlaceBlock = "bedrock"
	_, err := NewSession(cfg, streaming.NewMemoryPool(logger, nil), logger, nil)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Raycast.Strategy = "bresenham"
	_, err = NewSession(cfg, streaming.NewMemoryPool(logger, nil), logger, nil)
	assert.Error(t, err)
}

func TestSpawnPointIsWorldCentre(t *testing.T) {
	s, _ := newTestSession(t, false)
	assert.Equal(t, mgl32.Vec3{32, 10, 32}, s.SpawnPoint())
}

func TestSpawnerPollsUntilDone(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sp := NewSpawner(logger)

	polls := 0
	sp.Spawn("countdown", TaskFunc(func() (bool, error) {
		polls++
		return polls == 3, nil
	}))
	sp.Spawn("once", TaskFunc(func() (bool, error) { return true, nil }))

	require.NoError(t, sp.RunUntilStalled())
	assert.Equal(t, 1, sp.Pending())
	require.NoError(t, sp.RunUntilStalled())
	require.NoError(t, sp.RunUntilStalled())
	assert.Equal(t, 3, polls)
	assert.Zero(t, sp.Pending())
}

func TestSpawnerStopsOnError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sp := NewSpawner(logger)
	boom := errors.New("gl error 0x0502")

	later := 0
	sp.Spawn("check", TaskFunc(func() (bool, error) { return false, boom }))
	sp.Spawn("later", TaskFunc(func() (bool, error) { later++; return false, nil }))

	err := sp.RunUntilStalled()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "check")
	assert.Zero(t, later)
	assert.Equal(t, 1, sp.Pending())

	assert.Equal(t, 1, sp.Shutdown())
	assert.Zero(t, sp.Pending())
}
