package input

import (
	"voxelstream/internal/world"

	"go.uber.org/atomic"
)

// CommandKind is the kind of edit requested by the player.
type CommandKind uint8

const (
	CommandBreak CommandKind = iota
	CommandPlace
	CommandSelect
)

func (k CommandKind) String() string {
	switch k {
	case CommandBreak:
		return "break"
	case CommandPlace:
		return "place"
	case CommandSelect:
		return "select"
	}
	return "unknown"
}

// Command is one edit request. Block is the type to place (CommandPlace,
// optional) or to select (CommandSelect).
type Command struct {
	Kind  CommandKind
	Block world.BlockType
}

// selectable are the block types bound to ActionSelect1..ActionSelect8.
var selectable = [8]world.BlockType{
	world.BlockTypeGrass,
	world.BlockTypeDirt,
	world.BlockTypeSand,
	world.BlockTypeStone,
	world.BlockTypePlanks,
	world.BlockTypeGlass,
	world.BlockTypeWater,
	world.BlockTypeLeaves,
}

// Queue carries commands from the platform's event callbacks to the update
// loop. It is owned by the driver and replaces any process-wide event state.
type Queue struct {
	ch      chan Command
	dropped atomic.Int64
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Command, size)}
}

// Push enqueues cmd without blocking. It returns false and counts a drop
// when the queue is full.
func (q *Queue) Push(cmd Command) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		q.dropped.Inc()
		return false
	}
}

// Drain returns every queued command in arrival order.
func (q *Queue) Drain() []Command {
	var out []Command
	for {
		select {
		case cmd := <-q.ch:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

func (q *Queue) Len() int { return len(q.ch) }

// Dropped returns how many commands were discarded because the queue was full.
func (q *Queue) Dropped() int { return int(q.dropped.Load()) }
