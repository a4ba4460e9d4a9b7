package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// BatchResult is the outcome of analyzing one file in a batch. Exactly
// one of Result and Err is set.
type BatchResult struct {
	Path   string
	Result *Result
	Err    error
}

// Batch analyzes many dashboard files through a bounded worker pool.
// The pipeline itself is pure, so files are processed concurrently
// without coordination; results keep the input order.
type Batch struct {
	workers int
	opts    Options
}

// NewBatch creates a batch runner. workers below 1 is clamped to 1.
func NewBatch(workers int, opts Options) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{workers: workers, opts: opts}
}

// Run analyzes every path and returns one result per input, in input
// order. Per-file failures land in BatchResult.Err and never abort the
// other files; cancelling the context abandons unprocessed inputs with
// the context error.
func (b *Batch) Run(ctx context.Context, paths []string) []BatchResult {
	results := make([]BatchResult, len(paths))
	jobs := make(chan int, b.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("batch worker panic recovered",
						slog.Int("worker_id", worker),
						slog.String("panic", fmt.Sprint(r)),
					)
				}
				wg.Done()
			}()

			for index := range jobs {
				path := paths[index]
				result, err := AnalyzeFile(path, b.opts)
				results[index] = BatchResult{Path: path, Result: result, Err: err}
			}
		}(i)
	}

	for index := range paths {
		select {
		case <-ctx.Done():
			results[index] = BatchResult{Path: paths[index], Err: ctx.Err()}
			continue
		case jobs <- index:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
