package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/codegraph/codegraph/pkg/util"
)

// fileJob is one unit of per-file work for the pool.
type fileJob struct {
	filePath string
	jobID    int
}

// outcome carries a worker's result for one file: the stage's value, or the
// error that prevented one.
type outcome[T any] struct {
	filePath string
	value    T
	err      error
}

// runPool fans files out over a bounded worker pool and collects every
// outcome. Both CPU-bound stages (parse, resolve) run on this shape: work
// must be pure per file and share no mutable state (§5). Cancellation is
// cooperative — workers check the context between jobs, and an in-flight
// job is allowed to finish.
func runPool[T any](
	ctx context.Context,
	files []string,
	workers int,
	logger *slog.Logger,
	work func(ctx context.Context, filePath string) (T, error),
) []outcome[T] {
	if workers <= 0 {
		workers = util.GetOptimalPoolSize()
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan fileJob, workers*2)
	outcomes := make(chan outcome[T], workers)
	var processed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					value, err := work(ctx, job.filePath)
					processed.Add(1)
					outcomes <- outcome[T]{filePath: job.filePath, value: value, err: err}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, f := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- fileJob{filePath: f, jobID: i}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]outcome[T], 0, len(files))
	for o := range outcomes {
		results = append(results, o)
	}
	logger.Debug("worker pool drained", "workers", workers, "processed", processed.Load(), "submitted", len(files))
	return results
}
