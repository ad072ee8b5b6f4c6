package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerFn handles the task at index. It reports its own failures; the pool
// only stops early when ctx is cancelled.
type WorkerFn func(ctx context.Context, index int)

// SimpleWorkerPool runs fn for every index in [0, tasks) with at most
// concurrency calls in flight. Tasks not yet started when ctx is cancelled are
// skipped and the context error is returned.
func SimpleWorkerPool(ctx context.Context, concurrency int, tasks int, fn WorkerFn) error {
	if concurrency < 1 {
		concurrency = 1
	}
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := 0; i < tasks; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
