package world

import (
	"fmt"

	"voxelstream/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// World is a bounded square grid of chunks. Every in-bounds grid cell holds a
// Chunk; block storage is allocated lazily.
//
// World is not synchronised. Concurrent readers are fine as long as nothing
// mutates blocks or allocates chunks at the same time.
type World struct {
	width     int
	chunks    []*Chunk
	base      [ChunkSizeY]BlockType
	allocated int
}

// New creates an empty (all air) world that is width chunks wide along X and Z.
func New(width int) *World {
	if width < 1 {
		panic(fmt.Sprintf("world: invalid width %d", width))
	}
	w := &World{width: width, chunks: make([]*Chunk, width*width)}
	for z := 0; z < width; z++ {
		for x := 0; x < width; x++ {
			w.chunks[x+z*width] = newChunk(ChunkCoord{X: x, Z: z}, &w.base)
		}
	}
	return w
}

// Width returns the world width in chunks.
func (w *World) Width() int { return w.width }

// BlockWidth returns the world width in blocks.
func (w *World) BlockWidth() int { return w.width * ChunkSizeXZ }

// InitialSetup lays down the starting terrain: a layer of dirt at y=0 with
// grass on top at y=1.
func (w *World) InitialSetup() {
	defer profiling.Track("world.InitialSetup")()
	w.base[0] = BlockTypeDirt
	w.base[1] = BlockTypeGrass
	for _, c := range w.chunks {
		if !c.Allocated() {
			continue
		}
		for z := 0; z < ChunkSizeXZ; z++ {
			for x := 0; x < ChunkSizeXZ; x++ {
				c.setBlock(x, 0, z, BlockTypeDirt)
				c.setBlock(x, 1, z, BlockTypeGrass)
			}
		}
	}
}

// InBounds reports whether the block coordinate lies inside the world.
func (w *World) InBounds(x, y, z int) bool {
	bw := w.BlockWidth()
	return x >= 0 && x < bw && z >= 0 && z < bw && y >= 0 && y < ChunkSizeY
}

func (w *World) ChunkInBounds(c ChunkCoord) bool {
	return c.X >= 0 && c.X < w.width && c.Z >= 0 && c.Z < w.width
}

// Chunk returns the chunk at c. It panics if c is out of bounds.
func (w *World) Chunk(c ChunkCoord) *Chunk {
	if !w.ChunkInBounds(c) {
		panic(fmt.Sprintf("world: chunk %v out of bounds (width %d)", c, w.width))
	}
	return w.chunks[c.X+c.Z*w.width]
}

// ChunkCoordOf returns the chunk containing block column (x, z). The result
// may be out of bounds.
func ChunkCoordOf(x, z int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, ChunkSizeXZ), Z: floorDiv(z, ChunkSizeXZ)}
}

// Allocate materialises the block storage of chunk c. It reports whether the
// chunk was newly allocated.
func (w *World) Allocate(c ChunkCoord) bool {
	defer profiling.Track("world.Allocate")()
	if w.Chunk(c).allocate() {
		w.allocated++
		return true
	}
	return false
}

// AllocatedChunks returns how many chunks have materialised block storage.
func (w *World) AllocatedChunks() int { return w.allocated }

// BlockAt returns the block at world coordinates. It panics when the
// coordinate is out of bounds.
func (w *World) BlockAt(x, y, z int) BlockType {
	if !w.InBounds(x, y, z) {
		panic(fmt.Sprintf("world: block (%d,%d,%d) out of bounds", x, y, z))
	}
	c := w.chunks[x/ChunkSizeXZ+(z/ChunkSizeXZ)*w.width]
	return c.Block(x%ChunkSizeXZ, y, z%ChunkSizeXZ)
}

// Block is BlockAt for a BlockPos.
func (w *World) Block(p BlockPos) BlockType { return w.BlockAt(p[0], p[1], p[2]) }

// SetBlockAt stores b at world coordinates, allocating the owning chunk if
// needed. It reports whether the stored value changed and panics when the
// coordinate is out of bounds.
func (w *World) SetBlockAt(x, y, z int, b BlockType) bool {
	if !w.InBounds(x, y, z) {
		panic(fmt.Sprintf("world: block (%d,%d,%d) out of bounds", x, y, z))
	}
	c := w.chunks[x/ChunkSizeXZ+(z/ChunkSizeXZ)*w.width]
	if !c.Allocated() {
		c.allocate()
		w.allocated++
	}
	return c.setBlock(x%ChunkSizeXZ, y, z%ChunkSizeXZ, b)
}

// IsOpaque reports whether an in-bounds opaque block sits at the coordinate.
// Positions outside the world are treated as air.
func (w *World) IsOpaque(x, y, z int) bool {
	return w.InBounds(x, y, z) && w.BlockAt(x, y, z).IsOpaque()
}

// IsSolid reports whether a non-air block sits at the coordinate. Positions
// outside the world are treated as air.
func (w *World) IsSolid(x, y, z int) bool {
	return w.InBounds(x, y, z) && !w.BlockAt(x, y, z).IsAir()
}

// Neighbors4 returns the in-bounds chunks sharing a face with c.
func (w *World) Neighbors4(c ChunkCoord) []ChunkCoord {
	out := make([]ChunkCoord, 0, 4)
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		n := c.Add(d[0], d[1])
		if w.ChunkInBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// EditedChunks returns the chunks whose meshes depend on the block at p: the
// chunk containing it plus any neighbour chunk across a boundary p touches.
func (w *World) EditedChunks(p BlockPos) []ChunkCoord {
	c := p.Chunk()
	out := []ChunkCoord{c}
	lx, lz := mod(p[0], ChunkSizeXZ), mod(p[2], ChunkSizeXZ)
	add := func(n ChunkCoord) {
		if w.ChunkInBounds(n) {
			out = append(out, n)
		}
	}
	if lx == 0 {
		add(c.Add(-1, 0))
	}
	if lx == ChunkSizeXZ-1 {
		add(c.Add(1, 0))
	}
	if lz == 0 {
		add(c.Add(0, -1))
	}
	if lz == ChunkSizeXZ-1 {
		add(c.Add(0, 1))
	}
	return out
}

// Center returns the block-space centre of the world at the given height.
func (w *World) Center(y float32) mgl32.Vec3 {
	h := float32(w.BlockWidth()) / 2
	return mgl32.Vec3{h, y, h}
}
