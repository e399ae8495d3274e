package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulatesPerFrame(t *testing.T) {
	ResetFrame()
	Track("world.Allocate")()
	Track("world.Allocate")()
	Track("meshing.BuildChunkMesh")()

	if c := Count("world.Allocate"); c != 2 {
		t.Errorf("Expected 2 samples, got %d", c)
	}
	if _, ok := Snapshot()["meshing.BuildChunkMesh"]; !ok {
		t.Error("Expected meshing bucket in snapshot")
	}

	ResetFrame()
	if len(Snapshot()) != 0 {
		t.Error("Expected empty snapshot after ResetFrame")
	}
}

func TestSumWithPrefix(t *testing.T) {
	ResetFrame()
	mu.Lock()
	frameTotals["world.a"] = 2 * time.Millisecond
	frameTotals["world.b"] = 3 * time.Millisecond
	frameTotals["physics.c"] = 7 * time.Millisecond
	mu.Unlock()

	if d := SumWithPrefix("world."); d != 5*time.Millisecond {
		t.Errorf("Expected 5ms, got %v", d)
	}
	top := TopN(1)
	if !strings.HasPrefix(top, "physics.c:7ms") {
		t.Errorf("Expected physics.c first, got %q", top)
	}
	ResetFrame()
}
