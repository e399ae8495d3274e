package main

import (
	"context"
	"fmt"

	"voxelstream/internal/game"
	"voxelstream/internal/input"
	"voxelstream/internal/player"
	"voxelstream/internal/world"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Summary totals a scripted run.
type Summary struct {
	Frames    int
	Crossings int
	Edits     int
	Meshed    int
	Skipped   int
}

// RunScript flies the observer around a circle centred on the world, looking
// down at the terrain, and breaks or places a block every few frames.
func RunScript(ctx context.Context, s *game.Session, steps int) (Summary, error) {
	var sum Summary
	centre := s.SpawnPoint()
	radius := float32(s.World.BlockWidth()) / 3
	cam := player.NewCamera(centre, 0, -60)
	queue := input.NewQueue(8)
	picks := []world.BlockType{world.BlockTypeStone, world.BlockTypeGlass, world.BlockTypeLeaves, world.BlockTypeWater}

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		theta := 2 * math32.Pi * float32(i) / float32(max(steps, 1))
		cam.Position = centre.Add(mgl32.Vec3{math32.Cos(theta) * radius, 0, math32.Sin(theta) * radius})
		cam.Yaw = mgl32.RadToDeg(theta) + 90

		switch i % 6 {
		case 2:
			queue.Push(input.Command{Kind: input.CommandBreak})
		case 4:
			queue.Push(input.Command{Kind: input.CommandSelect, Block: picks[(i/6)%len(picks)]})
			queue.Push(input.Command{Kind: input.CommandPlace})
		}

		obs := cam.Observe()
		report, err := s.Frame(ctx, obs, queue.Drain())
		if err != nil {
			return sum, fmt.Errorf("frame %d: %w", i, err)
		}
		sum.Frames++
		if obs.CrossedChunk {
			sum.Crossings++
		}
		if len(report.Edited) > 0 {
			sum.Edits++
		}
		sum.Meshed += report.Flush.Meshed
		sum.Skipped += report.Flush.Skipped
	}
	return sum, nil
}
