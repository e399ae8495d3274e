package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Chunk dimensions
	ChunkSizeXZ = 16
	ChunkSizeY  = 64

	NumBlocksInChunk = ChunkSizeXZ * ChunkSizeXZ * ChunkSizeY

	// NoRenderSlot marks a chunk that holds no render buffers.
	NoRenderSlot = -1
)

// ChunkCoord addresses a chunk column in the world grid.
type ChunkCoord struct {
	X, Z int
}

func (c ChunkCoord) Add(dx, dz int) ChunkCoord { return ChunkCoord{X: c.X + dx, Z: c.Z + dz} }

// DistSq returns the squared distance between two chunk coordinates.
func (c ChunkCoord) DistSq(o ChunkCoord) int {
	dx, dz := c.X-o.X, c.Z-o.Z
	return dx*dx + dz*dz
}

// Chebyshev returns max(|dx|, |dz|).
func (c ChunkCoord) Chebyshev(o ChunkCoord) int {
	dx, dz := abs(c.X-o.X), abs(c.Z-o.Z)
	if dx > dz {
		return dx
	}
	return dz
}

func (c ChunkCoord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Z) }

// BlockPos is an integer world block coordinate.
type BlockPos [3]int

func (p BlockPos) X() int { return p[0] }
func (p BlockPos) Y() int { return p[1] }
func (p BlockPos) Z() int { return p[2] }

// Side returns the neighbouring position behind face f.
func (p BlockPos) Side(f BlockFace) BlockPos {
	n := f.Normal()
	return BlockPos{p[0] + n[0], p[1] + n[1], p[2] + n[2]}
}

// Chunk returns the coordinate of the chunk containing p.
func (p BlockPos) Chunk() ChunkCoord {
	return ChunkCoord{X: floorDiv(p[0], ChunkSizeXZ), Z: floorDiv(p[2], ChunkSizeXZ)}
}

// Vec3 returns the minimum corner of the block.
func (p BlockPos) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}
}

// Chunk is a fixed size column of blocks. Its dense block storage is only
// materialised on allocation; until then reads fall back to the world's base
// layers.
type Chunk struct {
	coord      ChunkCoord
	blocks     []BlockType
	base       *[ChunkSizeY]BlockType
	renderSlot int
}

func newChunk(coord ChunkCoord, base *[ChunkSizeY]BlockType) *Chunk {
	return &Chunk{coord: coord, base: base, renderSlot: NoRenderSlot}
}

func (c *Chunk) Coord() ChunkCoord { return c.coord }

// Allocated reports whether the chunk's block storage has been materialised.
func (c *Chunk) Allocated() bool { return c.blocks != nil }

func (c *Chunk) RenderSlot() int { return c.renderSlot }

func (c *Chunk) SetRenderSlot(slot int) { c.renderSlot = slot }

// HasRenderSlot reports whether the chunk currently owns render buffers.
func (c *Chunk) HasRenderSlot() bool { return c.renderSlot != NoRenderSlot }

// Block returns the block at local coordinates. Coordinates must be in range.
func (c *Chunk) Block(x, y, z int) BlockType {
	if c.blocks == nil {
		return c.base[y]
	}
	return c.blocks[index(x, y, z)]
}

func (c *Chunk) setBlock(x, y, z int, b BlockType) bool {
	c.allocate()
	i := index(x, y, z)
	if c.blocks[i] == b {
		return false
	}
	c.blocks[i] = b
	return true
}

func (c *Chunk) allocate() bool {
	if c.blocks != nil {
		return false
	}
	c.blocks = make([]BlockType, NumBlocksInChunk)
	for y := 0; y < ChunkSizeY; y++ {
		b := c.base[y]
		if b == BlockTypeAir {
			continue
		}
		layer := c.blocks[y*ChunkSizeXZ*ChunkSizeXZ : (y+1)*ChunkSizeXZ*ChunkSizeXZ]
		for i := range layer {
			layer[i] = b
		}
	}
	return true
}

// index converts local coordinates into the flat block index.
func index(x, y, z int) int {
	return x + z*ChunkSizeXZ + y*ChunkSizeXZ*ChunkSizeXZ
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
