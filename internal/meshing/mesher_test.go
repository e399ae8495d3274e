package meshing

import (
	"encoding/binary"
	"math"
	"testing"

	"voxelstream/internal/world"
)

func TestSingleBlockMesh(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(0, 0, 0, world.BlockTypeSand)
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	if got := m.Batch(world.MaterialOpaque).Len(); got != 6 {
		t.Fatalf("single block: got %d faces, want 6", got)
	}
	if m.Faces() != 6 {
		t.Fatalf("single block: got %d total faces, want 6", m.Faces())
	}
}

func TestTwoBlocksTouching(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(4, 3, 4, world.BlockTypeStone)
	w.SetBlockAt(5, 3, 4, world.BlockTypeStone)
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	if got := m.Faces(); got != 10 {
		t.Fatalf("two touching blocks: got %d faces, want 10", got)
	}
}

func TestCrossChunkFaceCulling(t *testing.T) {
	w := world.New(2)
	w.SetBlockAt(world.ChunkSizeXZ-1, 0, 0, world.BlockTypeDirt)
	w.SetBlockAt(world.ChunkSizeXZ, 0, 0, world.BlockTypeDirt)
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	if got := m.Faces(); got != 5 {
		t.Fatalf("cross-chunk culling: got %d faces, want 5", got)
	}
	for _, inst := range m.Batch(world.MaterialOpaque).Instances {
		if inst.Face == world.FaceEast {
			t.Fatal("east face against the neighbour chunk must be culled")
		}
	}
}

func TestFlatWorldInteriorChunk(t *testing.T) {
	w := world.New(3)
	w.InitialSetup()
	m := BuildChunkMesh(w, world.ChunkCoord{X: 1, Z: 1}, Options{})
	want := 2 * world.ChunkSizeXZ * world.ChunkSizeXZ // grass tops + dirt bottoms
	if got := m.Faces(); got != want {
		t.Fatalf("interior flat chunk: got %d faces, want %d", got, want)
	}
	if w.Chunk(world.ChunkCoord{X: 1, Z: 1}).Allocated() {
		t.Fatal("meshing must not allocate the chunk")
	}
}

func TestFlatWorldCornerChunkShowsWorldEdges(t *testing.T) {
	w := world.New(3)
	w.InitialSetup()
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	edge := 2 * world.ChunkSizeXZ // two layers along one edge
	want := 2*world.ChunkSizeXZ*world.ChunkSizeXZ + 2*edge
	if got := m.Faces(); got != want {
		t.Fatalf("corner flat chunk: got %d faces, want %d", got, want)
	}
}

func TestTransluscentNeighboursDoNotCull(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(2, 5, 2, world.BlockTypeGlass)
	w.SetBlockAt(3, 5, 2, world.BlockTypeGlass)
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	if got := m.Batch(world.MaterialTransluscent).Len(); got != 12 {
		t.Fatalf("glass pair: got %d faces, want 12", got)
	}
}

func TestOpaqueUnderGlass(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(2, 0, 2, world.BlockTypeStone)
	w.SetBlockAt(2, 1, 2, world.BlockTypeGlass)
	w.SetBlockAt(3, 0, 2, world.BlockTypeLeaves)
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})

	// Stone keeps all six faces: neither glass nor leaves are opaque.
	if got := m.Batch(world.MaterialOpaque).Len(); got != 6 {
		t.Errorf("stone: got %d faces, want 6", got)
	}
	// Glass loses its bottom face to the stone.
	if got := m.Batch(world.MaterialTransluscent).Len(); got != 5 {
		t.Errorf("glass: got %d faces, want 5", got)
	}
	// Leaves lose their west face to the stone.
	if got := m.Batch(world.MaterialSemiTransluscent).Len(); got != 5 {
		t.Errorf("leaves: got %d faces, want 5", got)
	}
}

func TestTopLayerEmitsTopFace(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(0, world.ChunkSizeY-1, 0, world.BlockTypeStone)
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	found := false
	for _, inst := range m.Batch(world.MaterialOpaque).Instances {
		if inst.Face == world.FaceTop {
			found = true
		}
	}
	if !found || m.Faces() != 6 {
		t.Fatalf("block at the top of the world: got %d faces, top present=%v", m.Faces(), found)
	}
}

func TestHighlightFlagsOnlyTargetBlock(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(1, 0, 1, world.BlockTypeSand)
	w.SetBlockAt(5, 0, 5, world.BlockTypeSand)
	target := world.BlockPos{1, 0, 1}
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{Highlight: &target})

	flagged := 0
	for _, inst := range m.Batch(world.MaterialOpaque).Instances {
		if inst.Highlighted {
			flagged++
			if inst.Position != target.Vec3() {
				t.Errorf("unexpected highlighted face at %v", inst.Position)
			}
		}
	}
	if flagged != 6 {
		t.Fatalf("got %d highlighted faces, want 6", flagged)
	}
}

func TestMeshFitsDefaultCapacity(t *testing.T) {
	w := world.New(1)
	w.InitialSetup()
	m := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	for _, b := range m.Batches {
		if b.Len() > MaxInstancesPerClass {
			t.Fatalf("class %v: %d faces exceed capacity %d", b.Class, b.Len(), MaxInstancesPerClass)
		}
	}
}

func TestInstanceBytesLayout(t *testing.T) {
	batch := TypedInstances{Instances: []Instance{{
		Position:    world.BlockPos{3, 4, 5}.Vec3(),
		Face:        world.FaceWest,
		Atlas:       [2]float32{0.125, 0.0625},
		Highlighted: true,
	}}}
	b := batch.Bytes()
	if len(b) != InstanceStride {
		t.Fatalf("got %d bytes, want %d", len(b), InstanceStride)
	}
	if x := math.Float32frombits(binary.LittleEndian.Uint32(b[0:])); x != 3 {
		t.Errorf("x = %v, want 3", x)
	}
	if f := binary.LittleEndian.Uint32(b[12:]); f != uint32(world.FaceWest) {
		t.Errorf("face = %d, want %d", f, world.FaceWest)
	}
	if u := math.Float32frombits(binary.LittleEndian.Uint32(b[16:])); u != 0.125 {
		t.Errorf("u = %v, want 0.125", u)
	}
	if flags := binary.LittleEndian.Uint32(b[24:]); flags != flagHighlighted {
		t.Errorf("flags = %d, want %d", flags, flagHighlighted)
	}
}

func TestDigestTracksContent(t *testing.T) {
	w := world.New(1)
	w.SetBlockAt(1, 0, 1, world.BlockTypeSand)
	a := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	b := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	opaqueA := a.Batch(world.MaterialOpaque).Bytes()
	if Digest(opaqueA) != Digest(b.Batch(world.MaterialOpaque).Bytes()) {
		t.Fatal("identical meshes must hash equal")
	}
	w.SetBlockAt(1, 0, 1, world.BlockTypeStone)
	c := BuildChunkMesh(w, world.ChunkCoord{}, Options{})
	if Digest(opaqueA) == Digest(c.Batch(world.MaterialOpaque).Bytes()) {
		t.Fatal("different atlas tiles must change the digest")
	}
}

func BenchmarkBuildChunkMeshFlat(b *testing.B) {
	w := world.New(3)
	w.InitialSetup()
	w.Allocate(world.ChunkCoord{X: 1, Z: 1})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildChunkMesh(w, world.ChunkCoord{X: 1, Z: 1}, Options{})
	}
}
