package world

import (
	"testing"
)

func TestInitialSetupLayers(t *testing.T) {
	w := New(4)
	w.InitialSetup()

	if b := w.BlockAt(5, 0, 9); b != BlockTypeDirt {
		t.Errorf("Expected Dirt at y=0, got %v", b)
	}
	if b := w.BlockAt(5, 1, 9); b != BlockTypeGrass {
		t.Errorf("Expected Grass at y=1, got %v", b)
	}
	if b := w.BlockAt(5, 2, 9); b != BlockTypeAir {
		t.Errorf("Expected Air at y=2, got %v", b)
	}
	if n := w.AllocatedChunks(); n != 0 {
		t.Errorf("Expected no allocated chunks after setup, got %d", n)
	}
}

func TestInitialSetupAppliesToAllocatedChunks(t *testing.T) {
	w := New(2)
	w.Allocate(ChunkCoord{X: 1, Z: 1})
	w.InitialSetup()

	if b := w.BlockAt(20, 1, 20); b != BlockTypeGrass {
		t.Errorf("Expected Grass in allocated chunk, got %v", b)
	}
}

func TestAllocatePreservesReads(t *testing.T) {
	w := New(2)
	w.InitialSetup()
	c := ChunkCoord{X: 1, Z: 0}

	if !w.Allocate(c) {
		t.Fatal("Expected first Allocate to report a new allocation")
	}
	if w.Allocate(c) {
		t.Error("Expected second Allocate to be a no-op")
	}
	if !w.Chunk(c).Allocated() {
		t.Error("Expected chunk to be allocated")
	}
	if b := w.BlockAt(16, 0, 3); b != BlockTypeDirt {
		t.Errorf("Expected Dirt after allocation, got %v", b)
	}
	if b := w.BlockAt(16, 1, 3); b != BlockTypeGrass {
		t.Errorf("Expected Grass after allocation, got %v", b)
	}
}

func TestSetBlockAtAllocatesAndReportsChange(t *testing.T) {
	w := New(2)
	w.InitialSetup()

	if !w.SetBlockAt(3, 1, 3, BlockTypeAir) {
		t.Fatal("Expected change when replacing grass with air")
	}
	if w.SetBlockAt(3, 1, 3, BlockTypeAir) {
		t.Error("Expected no change when writing the same value")
	}
	if !w.Chunk(ChunkCoord{}).Allocated() {
		t.Error("Expected write to allocate the chunk")
	}
	if b := w.BlockAt(3, 1, 3); b != BlockTypeAir {
		t.Errorf("Expected Air, got %v", b)
	}
	if b := w.BlockAt(4, 1, 3); b != BlockTypeGrass {
		t.Errorf("Expected untouched neighbour to stay Grass, got %v", b)
	}
}

func TestInBounds(t *testing.T) {
	w := New(2)
	cases := []struct {
		x, y, z int
		want    bool
	}{
		{0, 0, 0, true},
		{31, ChunkSizeY - 1, 31, true},
		{32, 0, 0, false},
		{0, 0, 32, false},
		{-1, 0, 0, false},
		{0, -1, 0, false},
		{0, ChunkSizeY, 0, false},
	}
	for _, tc := range cases {
		if got := w.InBounds(tc.x, tc.y, tc.z); got != tc.want {
			t.Errorf("InBounds(%d,%d,%d) = %v, want %v", tc.x, tc.y, tc.z, got, tc.want)
		}
	}
}

func TestBlockAtOutOfBoundsPanics(t *testing.T) {
	w := New(1)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for out of bounds read")
		}
	}()
	w.BlockAt(-1, 0, 0)
}

func TestChunkOutOfBoundsPanics(t *testing.T) {
	w := New(1)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for out of bounds chunk")
		}
	}()
	w.Chunk(ChunkCoord{X: 1, Z: 0})
}

func TestEditedChunks(t *testing.T) {
	w := New(3)
	cases := []struct {
		name string
		pos  BlockPos
		want []ChunkCoord
	}{
		{"interior", BlockPos{20, 1, 20}, []ChunkCoord{{1, 1}}},
		{"west edge", BlockPos{16, 1, 20}, []ChunkCoord{{1, 1}, {0, 1}}},
		{"east edge", BlockPos{31, 1, 20}, []ChunkCoord{{1, 1}, {2, 1}}},
		{"corner", BlockPos{31, 1, 16}, []ChunkCoord{{1, 1}, {2, 1}, {1, 0}}},
		{"world border", BlockPos{0, 1, 0}, []ChunkCoord{{0, 0}}},
	}
	for _, tc := range cases {
		got := w.EditedChunks(tc.pos)
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
				break
			}
		}
	}
}

func TestNeighbors4ClampsToWorld(t *testing.T) {
	w := New(2)
	if n := w.Neighbors4(ChunkCoord{0, 0}); len(n) != 2 {
		t.Errorf("Expected 2 neighbours at corner, got %v", n)
	}
	w = New(3)
	if n := w.Neighbors4(ChunkCoord{1, 1}); len(n) != 4 {
		t.Errorf("Expected 4 neighbours in the middle, got %v", n)
	}
}

func TestChunkCoordOfFloors(t *testing.T) {
	if c := ChunkCoordOf(-1, 15); c != (ChunkCoord{X: -1, Z: 0}) {
		t.Errorf("Expected (-1,0), got %v", c)
	}
	if c := ChunkCoordOf(16, 33); c != (ChunkCoord{X: 1, Z: 2}) {
		t.Errorf("Expected (1,2), got %v", c)
	}
}

func TestMaterialClasses(t *testing.T) {
	if BlockTypeAir.IsOpaque() {
		t.Error("Air must not be opaque")
	}
	if _, ok := BlockTypeAir.Material(); ok {
		t.Error("Air must not have a material class")
	}
	if !BlockTypeSand.IsOpaque() {
		t.Error("Sand must be opaque")
	}
	if m, _ := BlockTypeGlass.Material(); m != MaterialTransluscent {
		t.Errorf("Expected glass to be transluscent, got %v", m)
	}
	if m, _ := BlockTypeLeaves.Material(); m != MaterialSemiTransluscent {
		t.Errorf("Expected leaves to be semi transluscent, got %v", m)
	}
	if BlockTypeGlass.IsOpaque() {
		t.Error("Glass must not be opaque")
	}
}

func TestParseBlockType(t *testing.T) {
	b, err := ParseBlockType("sand")
	if err != nil || b != BlockTypeSand {
		t.Errorf("Expected sand, got %v (%v)", b, err)
	}
	if _, err := ParseBlockType("bedrock"); err == nil {
		t.Error("Expected error for unknown block")
	}
}

func TestFaceOpposite(t *testing.T) {
	for _, f := range Faces {
		n, o := f.Normal(), f.Opposite().Normal()
		if n[0] != -o[0] || n[1] != -o[1] || n[2] != -o[2] {
			t.Errorf("Face %v and its opposite %v do not point in opposite directions", f, f.Opposite())
		}
	}
}
