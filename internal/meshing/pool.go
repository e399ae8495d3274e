package meshing

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"voxelstream/internal/profiling"
	"voxelstream/internal/world"
)

// MeshJob represents a meshing job request
type MeshJob struct {
	World   *world.World
	Coord   world.ChunkCoord
	Options Options
	// Index is echoed back in the result so callers can restore order.
	Index int
	// ResultChan receives the result when done
	ResultChan chan<- MeshResult
}

// MeshResult contains the result of a meshing operation
type MeshResult struct {
	Coord world.ChunkCoord
	Index int
	Mesh  ChunkMesh
	Error error
}

// WorkerPool manages goroutines for mesh generation. Jobs only read the
// world, so callers must not mutate it until their results are in.
type WorkerPool struct {
	jobQueue chan MeshJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a mesh worker pool. workers <= 0 uses one worker per CPU.
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobQueue: make(chan MeshJob, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int { return p.workers }

// SubmitJob queues a job without blocking.
// Returns false if the queue is full or the pool is shut down.
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking queues a job, waiting for room. It fails when ctx or the
// pool is cancelled first.
func (p *WorkerPool) SubmitJobBlocking(ctx context.Context, job MeshJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return fmt.Errorf("mesh pool shut down")
	}
}

// BuildAll meshes every coordinate and returns the meshes in input order. It
// blocks until all jobs are done, so the world is free to mutate on return.
func (p *WorkerPool) BuildAll(ctx context.Context, w *world.World, coords []world.ChunkCoord, opts func(world.ChunkCoord) Options) ([]ChunkMesh, error) {
	defer profiling.Track("meshing.BuildAll")()
	if len(coords) == 0 {
		return nil, nil
	}
	results := make(chan MeshResult, len(coords))
	submitted := 0
	var submitErr error
	for i, c := range coords {
		job := MeshJob{World: w, Coord: c, Index: i, ResultChan: results}
		if opts != nil {
			job.Options = opts(c)
		}
		if err := p.SubmitJobBlocking(ctx, job); err != nil {
			submitErr = err
			break
		}
		submitted++
	}

	meshes := make([]ChunkMesh, len(coords))
	var firstErr error
	for i := 0; i < submitted; i++ {
		var r MeshResult
		select {
		case r = <-results:
		case <-p.ctx.Done():
			return nil, fmt.Errorf("mesh pool shut down")
		}
		if r.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf("mesh chunk %v: %w", r.Coord, r.Error)
		}
		meshes[r.Index] = r.Mesh
	}
	if submitErr != nil {
		return nil, fmt.Errorf("submit mesh jobs: %w", submitErr)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return meshes, nil
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			result := runJob(job)
			// ResultChan is sized by the submitter, so this never blocks for BuildAll.
			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func runJob(job MeshJob) (result MeshResult) {
	result = MeshResult{Coord: job.Coord, Index: job.Index}
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("%v", r)
		}
	}()
	result.Mesh = BuildChunkMesh(job.World, job.Coord, job.Options)
	return result
}

// Shutdown stops all workers and waits for them to exit. Jobs still queued are dropped.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength returns the current number of jobs in the queue
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}
