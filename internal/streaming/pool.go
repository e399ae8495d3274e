package streaming

import (
	"errors"
	"fmt"

	"voxelstream/internal/meshing"
	"voxelstream/internal/world"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownSlot is returned when uploading to a slot the pool never handed out.
	ErrUnknownSlot = errors.New("unknown render slot")
	// ErrSlotBudget is returned when more slots are needed than the visible window allows.
	ErrSlotBudget = errors.New("render slot budget exceeded")
)

// BufferPool owns the per-chunk render buffers. A slot holds one instance
// buffer per material class.
type BufferPool interface {
	// Allocate creates a new slot and returns its index.
	Allocate() (int, error)
	// Upload replaces the contents of one class buffer of slot. data holds
	// instances packed records of meshing.InstanceStride bytes.
	Upload(slot int, class world.MaterialClass, data []byte, instances int) error
}

// GrowCapacity doubles cur until it holds need instances, logs the growth and
// counts it. Both pools grow through it so oversized meshes are never truncated.
func GrowCapacity(log logrus.FieldLogger, metrics *Metrics, slot int, class world.MaterialClass, cur, need int) int {
	newCap := max(cur, 1)
	for newCap < need {
		newCap *= 2
	}
	log.WithFields(logrus.Fields{
		"slot":      slot,
		"class":     class,
		"instances": need,
		"capacity":  newCap,
		"bytes":     humanize.IBytes(uint64(newCap * meshing.InstanceStride)),
	}).Warn("instance buffer too small, growing")
	metrics.BufferGrown()
	return newCap
}

type memoryBuffer struct {
	data      []byte
	instances int
	capacity  int
}

// MemoryPool is a BufferPool backed by host memory. It is used headless and
// in tests, and mirrors the bounds checks a GPU pool performs.
type MemoryPool struct {
	slots   [][world.NumMaterialClasses]memoryBuffer
	log     logrus.FieldLogger
	metrics *Metrics
	uploads int
}

// NewMemoryPool creates an empty pool. metrics may be nil.
func NewMemoryPool(log logrus.FieldLogger, metrics *Metrics) *MemoryPool {
	return &MemoryPool{log: log, metrics: metrics}
}

func (p *MemoryPool) Allocate() (int, error) {
	var bufs [world.NumMaterialClasses]memoryBuffer
	for i := range bufs {
		bufs[i].capacity = meshing.MaxInstancesPerClass
		bufs[i].data = make([]byte, 0, meshing.MaxInstancesPerClass*meshing.InstanceStride)
	}
	p.slots = append(p.slots, bufs)
	return len(p.slots) - 1, nil
}

func (p *MemoryPool) Upload(slot int, class world.MaterialClass, data []byte, instances int) error {
	if slot < 0 || slot >= len(p.slots) {
		return fmt.Errorf("upload slot %d: %w", slot, ErrUnknownSlot)
	}
	if len(data) != instances*meshing.InstanceStride {
		return fmt.Errorf("upload slot %d %v: %d bytes for %d instances", slot, class, len(data), instances)
	}
	buf := &p.slots[slot][class]
	if instances > buf.capacity {
		buf.capacity = GrowCapacity(p.log, p.metrics, slot, class, buf.capacity, instances)
		buf.data = make([]byte, 0, buf.capacity*meshing.InstanceStride)
	}
	buf.data = append(buf.data[:0], data...)
	buf.instances = instances
	p.uploads++
	return nil
}

// Slots returns how many slots have been allocated.
func (p *MemoryPool) Slots() int { return len(p.slots) }

// Uploads returns the number of successful uploads.
func (p *MemoryPool) Uploads() int { return p.uploads }

// Instances returns the instance count last uploaded to a slot's class buffer.
func (p *MemoryPool) Instances(slot int, class world.MaterialClass) int {
	return p.slots[slot][class].instances
}

// Data returns the bytes last uploaded to a slot's class buffer.
func (p *MemoryPool) Data(slot int, class world.MaterialClass) []byte {
	return p.slots[slot][class].data
}

// Capacity returns a slot's class buffer capacity in instances.
func (p *MemoryPool) Capacity(slot int, class world.MaterialClass) int {
	return p.slots[slot][class].capacity
}
