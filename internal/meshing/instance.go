package meshing

import (
	"encoding/binary"
	"math"

	"voxelstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeebo/xxh3"
)

// InstanceStride is the size in bytes of one packed Instance:
// position (3 x f32), face (u32), atlas offset (2 x f32), flags (u32).
const InstanceStride = 28

// MaxInstancesPerClass is the initial per-class buffer capacity of a render
// slot. Chunks that emit more faces grow their buffers on upload.
const MaxInstancesPerClass = world.NumBlocksInChunk * 6 / 2 / 16

const flagHighlighted = 1

// Instance is one visible block face.
type Instance struct {
	Position    mgl32.Vec3 // minimum corner of the block in world space
	Face        world.BlockFace
	Atlas       [2]float32
	Highlighted bool
}

// TypedInstances is the batch of faces of one material class.
type TypedInstances struct {
	Class     world.MaterialClass
	Instances []Instance
}

func (t *TypedInstances) Len() int { return len(t.Instances) }

// Bytes packs the batch into little-endian GPU instance records.
func (t *TypedInstances) Bytes() []byte {
	buf := make([]byte, len(t.Instances)*InstanceStride)
	for i, inst := range t.Instances {
		b := buf[i*InstanceStride:]
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(inst.Position[0]))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(inst.Position[1]))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(inst.Position[2]))
		binary.LittleEndian.PutUint32(b[12:], uint32(inst.Face))
		binary.LittleEndian.PutUint32(b[16:], math.Float32bits(inst.Atlas[0]))
		binary.LittleEndian.PutUint32(b[20:], math.Float32bits(inst.Atlas[1]))
		var flags uint32
		if inst.Highlighted {
			flags |= flagHighlighted
		}
		binary.LittleEndian.PutUint32(b[24:], flags)
	}
	return buf
}

// Digest hashes packed instance bytes. Equal digests mean an upload can be skipped.
func Digest(data []byte) uint64 {
	return xxh3.Hash(data)
}

// ChunkMesh holds the face batches of one chunk, one per material class in
// render pass order.
type ChunkMesh struct {
	Coord   world.ChunkCoord
	Batches [world.NumMaterialClasses]TypedInstances
}

func newChunkMesh(coord world.ChunkCoord) ChunkMesh {
	m := ChunkMesh{Coord: coord}
	for i, class := range world.MaterialClasses {
		m.Batches[i].Class = class
	}
	return m
}

// Faces returns the total number of faces across all batches.
func (m *ChunkMesh) Faces() int {
	n := 0
	for i := range m.Batches {
		n += m.Batches[i].Len()
	}
	return n
}

// Batch returns the batch for class.
func (m *ChunkMesh) Batch(class world.MaterialClass) *TypedInstances {
	return &m.Batches[class]
}
