package game

import (
	"fmt"

	"voxelstream/internal/profiling"

	"github.com/sirupsen/logrus"
)

// Task is a unit of cooperative work. Poll does a bounded amount of work and
// reports whether the task has finished. A returned error is fatal.
type Task interface {
	Poll() (done bool, err error)
}

// TaskFunc adapts a function to Task.
type TaskFunc func() (bool, error)

func (f TaskFunc) Poll() (bool, error) { return f() }

type namedTask struct {
	name string
	task Task
}

// Spawner is a single-threaded task runner. Tasks only make progress when
// RunUntilStalled is called, which the frame loop does once per iteration.
type Spawner struct {
	tasks []namedTask
	log   logrus.FieldLogger
}

func NewSpawner(log logrus.FieldLogger) *Spawner {
	return &Spawner{log: log}
}

// Spawn queues a task for the next RunUntilStalled.
func (s *Spawner) Spawn(name string, t Task) {
	s.tasks = append(s.tasks, namedTask{name: name, task: t})
}

// RunUntilStalled polls every queued task once, dropping finished ones. It
// stops at the first task error.
func (s *Spawner) RunUntilStalled() error {
	defer profiling.Track("game.RunUntilStalled")()
	kept := s.tasks[:0]
	for i, nt := range s.tasks {
		done, err := nt.task.Poll()
		if err != nil {
			kept = append(kept, s.tasks[i+1:]...)
			s.tasks = kept
			return fmt.Errorf("task %s: %w", nt.name, err)
		}
		if !done {
			kept = append(kept, nt)
		}
	}
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = namedTask{}
	}
	s.tasks = kept
	return nil
}

// Pending returns the number of unfinished tasks.
func (s *Spawner) Pending() int { return len(s.tasks) }

// Shutdown drops every unfinished task and returns how many there were.
func (s *Spawner) Shutdown() int {
	n := len(s.tasks)
	if n > 0 {
		s.log.WithField("tasks", n).Debug("dropping unfinished tasks")
	}
	s.tasks = nil
	return n
}
