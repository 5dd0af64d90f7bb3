package hive

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerPool bounds how many systems within a single scheduler batch run
// concurrently — the work-stealing-style dispatch spec.md §5 calls for,
// built on the errgroup pattern the teacher's sibling pack repos use for
// bounded fan-out.
type WorkerPool struct {
	limit int
}

// NewWorkerPool creates a pool capped at limit concurrent tasks. A
// non-positive limit defaults to GOMAXPROCS.
func NewWorkerPool(limit int) *WorkerPool {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool{limit: limit}
}

// Dispatch runs every task, bounded by the pool's limit, and returns the
// first error encountered (if any) once all tasks have finished.
func (p *WorkerPool) Dispatch(ctx context.Context, tasks []func() error) error {
	if len(tasks) == 1 {
		return tasks[0]()
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for _, task := range tasks {
		task := task
		g.Go(task)
	}
	return g.Wait()
}
