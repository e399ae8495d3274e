package main

import (
	"context"
	"testing"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/streaming"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScriptStaysWithinBudget(t *testing.T) {
	cfg := config.Default()
	cfg.World.MaxChunkWorldWidth = 8
	cfg.Streaming.VisibleRadius = 2

	logger, _ := test.NewNullLogger()
	metrics := streaming.NewMetrics(prometheus.NewRegistry())
	pool := streaming.NewMemoryPool(logger, metrics)
	s, err := game.NewSession(cfg, pool, logger, metrics)
	require.NoError(t, err)
	defer s.Cleanup()

	sum, err := RunScript(context.Background(), s, 48)
	require.NoError(t, err)

	assert.Equal(t, 48, sum.Frames)
	assert.Greater(t, sum.Crossings, 1)
	assert.Greater(t, sum.Edits, 0)
	assert.LessOrEqual(t, pool.Slots(), s.Streaming.SlotBudget())
	assert.Empty(t, s.Streaming.Dirty())
	assert.Equal(t, float64(sum.Meshed), testutil.ToFloat64(metrics.MeshesBuilt))
}

func TestRunScriptHonoursCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s, err := game.NewSession(config.Default(), streaming.NewMemoryPool(logger, nil), logger, nil)
	require.NoError(t, err)
	defer s.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := RunScript(ctx, s, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Frames)
}
