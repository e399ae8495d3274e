package graphics

import (
	"fmt"

	"voxelstream/internal/meshing"
	"voxelstream/internal/streaming"
	"voxelstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sirupsen/logrus"
)

// verticesPerFace is the number of vertices drawn for one instanced quad.
const verticesPerFace = 6

type instanceBuffer struct {
	vao       uint32
	vbo       uint32
	instances int32
	capacity  int
}

// InstancePool is a streaming.BufferPool of GL instance buffers. Every slot
// owns one VAO and VBO per material class.
type InstancePool struct {
	slots   [][world.NumMaterialClasses]instanceBuffer
	log     logrus.FieldLogger
	metrics *streaming.Metrics
}

var _ streaming.BufferPool = (*InstancePool)(nil)

// NewInstancePool requires a current GL context. metrics may be nil.
func NewInstancePool(log logrus.FieldLogger, metrics *streaming.Metrics) *InstancePool {
	return &InstancePool{log: log, metrics: metrics}
}

func (p *InstancePool) Allocate() (int, error) {
	var bufs [world.NumMaterialClasses]instanceBuffer
	for i := range bufs {
		b := &bufs[i]
		b.capacity = meshing.MaxInstancesPerClass
		gl.GenVertexArrays(1, &b.vao)
		gl.BindVertexArray(b.vao)
		gl.GenBuffers(1, &b.vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, b.capacity*meshing.InstanceStride, nil, gl.DYNAMIC_DRAW)
		setupInstanceAttributes()
	}
	gl.BindVertexArray(0)
	p.slots = append(p.slots, bufs)
	return len(p.slots) - 1, nil
}

// setupInstanceAttributes describes the packed meshing.Instance layout to the
// bound VAO. Every attribute advances once per instance.
func setupInstanceAttributes() {
	const stride = meshing.InstanceStride
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.VertexAttribDivisor(0, 1)

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribIPointerWithOffset(1, 1, gl.UNSIGNED_INT, stride, 12)
	gl.VertexAttribDivisor(1, 1)

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 16)
	gl.VertexAttribDivisor(2, 1)

	gl.EnableVertexAttribArray(3)
	gl.VertexAttribIPointerWithOffset(3, 1, gl.UNSIGNED_INT, stride, 24)
	gl.VertexAttribDivisor(3, 1)
}

func (p *InstancePool) Upload(slot int, class world.MaterialClass, data []byte, instances int) error {
	if slot < 0 || slot >= len(p.slots) {
		return fmt.Errorf("upload slot %d: %w", slot, streaming.ErrUnknownSlot)
	}
	if len(data) != instances*meshing.InstanceStride {
		return fmt.Errorf("upload slot %d %v: %d bytes for %d instances", slot, class, len(data), instances)
	}
	b := &p.slots[slot][class]
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if instances > b.capacity {
		b.capacity = streaming.GrowCapacity(p.log, p.metrics, slot, class, b.capacity, instances)
		gl.BufferData(gl.ARRAY_BUFFER, b.capacity*meshing.InstanceStride, nil, gl.DYNAMIC_DRAW)
	}
	if len(data) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data), gl.Ptr(data))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	b.instances = int32(instances)
	return nil
}

// Draw issues one instanced draw for a slot's class buffer.
func (p *InstancePool) Draw(slot int, class world.MaterialClass) {
	b := &p.slots[slot][class]
	if b.instances == 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, verticesPerFace, b.instances)
}

func (p *InstancePool) Slots() int { return len(p.slots) }

// Dispose frees every buffer. The pool is empty afterwards.
func (p *InstancePool) Dispose() {
	for i := range p.slots {
		for c := range p.slots[i] {
			b := &p.slots[i][c]
			gl.DeleteBuffers(1, &b.vbo)
			gl.DeleteVertexArrays(1, &b.vao)
		}
	}
	p.slots = nil
}
