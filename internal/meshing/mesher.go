package meshing

import (
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/world"
)

// Options tune a mesh build.
type Options struct {
	// Registry resolves atlas tiles. Nil means registry.Default().
	Registry *registry.Registry
	// Highlight, when set, flags every face of that block.
	Highlight *world.BlockPos
}

// BuildChunkMesh emits one instance per visible face of every non-air block in
// chunk coord. A face is hidden only when its neighbour is opaque; neighbours
// in adjacent chunks are read through the world and neighbours outside the
// world count as air. The world must not be mutated during the build.
func BuildChunkMesh(w *world.World, coord world.ChunkCoord, opts Options) ChunkMesh {
	defer profiling.Track("meshing.BuildChunkMesh")()
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}

	c := w.Chunk(coord)
	mesh := newChunkMesh(coord)
	ox, oz := coord.X*world.ChunkSizeXZ, coord.Z*world.ChunkSizeXZ

	for y := 0; y < world.ChunkSizeY; y++ {
		for z := 0; z < world.ChunkSizeXZ; z++ {
			for x := 0; x < world.ChunkSizeXZ; x++ {
				b := c.Block(x, y, z)
				class, ok := b.Material()
				if !ok {
					continue
				}
				pos := world.BlockPos{ox + x, y, oz + z}
				highlighted := opts.Highlight != nil && *opts.Highlight == pos
				batch := &mesh.Batches[class]
				for _, f := range world.Faces {
					n := pos.Side(f)
					if w.IsOpaque(n[0], n[1], n[2]) {
						continue
					}
					batch.Instances = append(batch.Instances, Instance{
						Position:    pos.Vec3(),
						Face:        f,
						Atlas:       reg.AtlasOffset(b, f),
						Highlighted: highlighted,
					})
				}
			}
		}
	}
	return mesh
}
