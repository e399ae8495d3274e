package streaming

import (
	"context"
	"fmt"
	"time"

	"voxelstream/internal/meshing"
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/world"

	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// Mesher builds chunk meshes in bulk. *meshing.WorkerPool implements it.
type Mesher interface {
	BuildAll(ctx context.Context, w *world.World, coords []world.ChunkCoord, opts func(world.ChunkCoord) meshing.Options) ([]meshing.ChunkMesh, error)
}

// Config configures a Manager.
type Config struct {
	// Radius is the Chebyshev radius of the visible window, in chunks.
	Radius int
	// Registry resolves atlas tiles. Nil means registry.Default().
	Registry *registry.Registry
}

// DrawCall names one render slot to draw in a pass.
type DrawCall struct {
	Coord world.ChunkCoord
	Slot  int
}

// FlushStats summarises one Flush.
type FlushStats struct {
	Meshed   int
	Uploaded int
	Skipped  int // uploads skipped because the buffer already held identical data
	Dropped  int // dirty chunks without a render slot
}

// slotState remembers what each class buffer of a slot currently holds.
type slotState struct {
	valid   [world.NumMaterialClasses]bool
	digests [world.NumMaterialClasses]uint64
}

// Manager keeps render slots and meshes in step with the observer. It owns
// the chunk order and the dirty set and must only be used from the update
// loop's goroutine.
type Manager struct {
	world    *world.World
	pool     BufferPool
	mesher   Mesher
	log      logrus.FieldLogger
	metrics  *Metrics
	radius   int
	registry *registry.Registry

	center    world.ChunkCoord
	hasCenter bool
	order     []world.ChunkCoord

	slots     []*slotState
	free      []int
	dirty     *orderedmap.OrderedMap[world.ChunkCoord, struct{}]
	highlight *world.BlockPos
}

// NewManager creates a manager for w. metrics may be nil.
func NewManager(w *world.World, pool BufferPool, mesher Mesher, cfg Config, log logrus.FieldLogger, metrics *Metrics) *Manager {
	reg := cfg.Registry
	if reg == nil {
		reg = registry.Default()
	}
	return &Manager{
		world:    w,
		pool:     pool,
		mesher:   mesher,
		log:      log,
		metrics:  metrics,
		radius:   cfg.Radius,
		registry: reg,
		dirty:    orderedmap.NewOrderedMap[world.ChunkCoord, struct{}](),
	}
}

// SlotBudget is the most render slots the visible window can ever need.
func (m *Manager) SlotBudget() int {
	side := 2*m.radius + 1
	return side * side
}

// ObserverChunk returns the chunk containing eye. It may be out of bounds.
func ObserverChunk(eye mgl32.Vec3) world.ChunkCoord {
	return world.ChunkCoordOf(int(math32.Floor(eye.X())), int(math32.Floor(eye.Z())))
}

// Recompute refreshes the chunk order for an observer at eye. It does nothing
// unless the observer is in a different chunk than last time. Chunks leaving
// the window hand their render slots to entering chunks; any shortfall comes
// from the free list and then the pool, and any surplus goes to the free
// list, so jumps of several chunks are handled. Entering chunks are
// allocated. The returned chunks, also added to the dirty set, are the
// entering chunks and their visible neighbours.
func (m *Manager) Recompute(eye mgl32.Vec3) ([]world.ChunkCoord, error) {
	defer profiling.Track("streaming.Recompute")()
	center := ObserverChunk(eye)
	if m.hasCenter && center == m.center {
		return nil, nil
	}

	next := ChunkOrder(center, m.radius, m.world.Width())
	entering, leaving := Diff(m.order, next)

	var recycled []int
	for _, c := range leaving {
		ch := m.world.Chunk(c)
		if ch.HasRenderSlot() {
			recycled = append(recycled, ch.RenderSlot())
		}
	}

	if need := len(entering) - len(recycled) - len(m.free); need > 0 {
		if len(m.slots)+need > m.SlotBudget() {
			return nil, fmt.Errorf("need %d more slots with %d of %d in use: %w", need, len(m.slots), m.SlotBudget(), ErrSlotBudget)
		}
		for i := 0; i < need; i++ {
			slot, err := m.pool.Allocate()
			if err != nil {
				return nil, fmt.Errorf("allocate render slot: %w", err)
			}
			for len(m.slots) <= slot {
				m.slots = append(m.slots, nil)
			}
			m.slots[slot] = &slotState{}
			m.free = append(m.free, slot)
			m.metrics.slotAllocated()
		}
	}

	for _, c := range leaving {
		m.world.Chunk(c).SetRenderSlot(world.NoRenderSlot)
	}
	for _, c := range entering {
		var slot int
		if len(recycled) > 0 {
			slot, recycled = recycled[0], recycled[1:]
			m.metrics.slotReused()
			m.log.WithFields(logrus.Fields{"chunk": c, "slot": slot}).Debug("reusing render slot")
		} else {
			slot, m.free = m.free[len(m.free)-1], m.free[:len(m.free)-1]
		}
		m.world.Chunk(c).SetRenderSlot(slot)
		m.slots[slot] = &slotState{}
		m.world.Allocate(c)
	}
	m.free = append(m.free, recycled...)

	dirty := orderedmap.NewOrderedMap[world.ChunkCoord, struct{}]()
	for _, c := range entering {
		dirty.Set(c, struct{}{})
	}
	isEntering := make(map[world.ChunkCoord]struct{}, len(entering))
	for _, c := range entering {
		isEntering[c] = struct{}{}
	}
	for _, c := range entering {
		for _, n := range m.world.Neighbors4(c) {
			if _, ok := isEntering[n]; ok {
				continue
			}
			if m.world.Chunk(n).HasRenderSlot() {
				dirty.Set(n, struct{}{})
			}
		}
	}
	out := make([]world.ChunkCoord, 0, dirty.Len())
	for el := dirty.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
		m.dirty.Set(el.Key, struct{}{})
	}

	m.log.WithFields(logrus.Fields{
		"center":   center,
		"entering": len(entering),
		"leaving":  len(leaving),
		"visible":  len(next),
	}).Debug("chunk order recomputed")

	m.center, m.hasCenter, m.order = center, true, next
	m.metrics.visible(len(next))
	return out, nil
}

// MarkDirty queues chunks for re-meshing. Out of bounds chunks are ignored.
func (m *Manager) MarkDirty(coords ...world.ChunkCoord) {
	for _, c := range coords {
		if m.world.ChunkInBounds(c) {
			m.dirty.Set(c, struct{}{})
		}
	}
}

// Dirty returns the queued chunks in the order they were first marked.
func (m *Manager) Dirty() []world.ChunkCoord {
	out := make([]world.ChunkCoord, 0, m.dirty.Len())
	for el := m.dirty.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// SetHighlight moves the highlighted block, marking the chunks whose meshes
// change. A nil target clears the highlight.
func (m *Manager) SetHighlight(target *world.BlockPos) {
	if samePos(m.highlight, target) {
		return
	}
	if m.highlight != nil {
		m.MarkDirty(m.highlight.Chunk())
	}
	if target != nil {
		t := *target
		m.highlight = &t
		m.MarkDirty(t.Chunk())
		return
	}
	m.highlight = nil
}

// Highlight returns the highlighted block, if any.
func (m *Manager) Highlight() (world.BlockPos, bool) {
	if m.highlight == nil {
		return world.BlockPos{}, false
	}
	return *m.highlight, true
}

// Flush meshes every dirty chunk that holds a render slot and uploads the
// class buffers whose contents changed. Dirty chunks without a slot are
// dropped; they are re-meshed when they next enter the window.
func (m *Manager) Flush(ctx context.Context) (FlushStats, error) {
	defer profiling.Track("streaming.Flush")()
	var stats FlushStats
	if m.dirty.Len() == 0 {
		return stats, nil
	}
	start := time.Now()

	coords := make([]world.ChunkCoord, 0, m.dirty.Len())
	for el := m.dirty.Front(); el != nil; el = el.Next() {
		if m.world.Chunk(el.Key).HasRenderSlot() {
			coords = append(coords, el.Key)
		} else {
			stats.Dropped++
		}
	}
	m.dirty = orderedmap.NewOrderedMap[world.ChunkCoord, struct{}]()

	for _, c := range coords {
		m.world.Allocate(c)
	}
	meshes, err := m.mesher.BuildAll(ctx, m.world, coords, m.meshOptions)
	if err != nil {
		m.MarkDirty(coords...)
		return stats, fmt.Errorf("mesh %d chunks: %w", len(coords), err)
	}

	for i := range meshes {
		mesh := &meshes[i]
		slot := m.world.Chunk(mesh.Coord).RenderSlot()
		st := m.slots[slot]
		stats.Meshed++
		m.metrics.meshBuilt(mesh.Faces())
		for ci := range mesh.Batches {
			batch := &mesh.Batches[ci]
			data := batch.Bytes()
			digest := meshing.Digest(data)
			if st.valid[ci] && st.digests[ci] == digest {
				stats.Skipped++
				m.metrics.upload(true)
				continue
			}
			if err := m.pool.Upload(slot, batch.Class, data, batch.Len()); err != nil {
				for _, rest := range meshes[i:] {
					m.MarkDirty(rest.Coord)
				}
				return stats, fmt.Errorf("upload chunk %v: %w", mesh.Coord, err)
			}
			st.valid[ci], st.digests[ci] = true, digest
			stats.Uploaded++
			m.metrics.upload(false)
		}
	}
	m.metrics.flushed(time.Since(start).Seconds())
	return stats, nil
}

func (m *Manager) meshOptions(c world.ChunkCoord) meshing.Options {
	opts := meshing.Options{Registry: m.registry}
	if m.highlight != nil && m.highlight.Chunk() == c {
		h := *m.highlight
		opts.Highlight = &h
	}
	return opts
}

// Order returns the current chunk order, nearest first. Callers must not modify it.
func (m *Manager) Order() []world.ChunkCoord { return m.order }

// Center returns the observer chunk of the last recompute.
func (m *Manager) Center() (world.ChunkCoord, bool) { return m.center, m.hasCenter }

// SlotOf returns the render slot of c, or world.NoRenderSlot.
func (m *Manager) SlotOf(c world.ChunkCoord) int {
	if !m.world.ChunkInBounds(c) {
		return world.NoRenderSlot
	}
	return m.world.Chunk(c).RenderSlot()
}

// SlotsInUse returns how many slots are owned by visible chunks.
func (m *Manager) SlotsInUse() int { return len(m.slots) - len(m.free) }

// DrawList returns the slots to draw for one material pass, farthest chunk first.
func (m *Manager) DrawList(class world.MaterialClass) []DrawCall {
	out := make([]DrawCall, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.order[i]
		slot := m.world.Chunk(c).RenderSlot()
		if slot == world.NoRenderSlot {
			continue
		}
		if st := m.slots[slot]; st == nil || !st.valid[class] {
			continue
		}
		out = append(out, DrawCall{Coord: c, Slot: slot})
	}
	return out
}

func samePos(a, b *world.BlockPos) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
