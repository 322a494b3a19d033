package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// ParallelConfig holds configuration for parallel page processing.
type ParallelConfig struct {
	MaxWorkers       int              // Number of parallel workers (0 = runtime.NumCPU())
	ProgressCallback ProgressCallback // Optional progress reporting
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

type pageJob[T any] struct {
	index int
	input T
}

type pageResult[R any] struct {
	index  int
	output R
}

// runOrdered applies fn to every input on a bounded worker pool and returns
// the outputs in input order. fn must not fail; cancellation is reported
// through the returned error.
func runOrdered[T, R any](ctx context.Context, inputs []T, config ParallelConfig, fn func(context.Context, T) R) ([]R, error) {
	outputs := make([]R, len(inputs))
	if len(inputs) == 0 {
		return outputs, ctx.Err()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, len(inputs))

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(len(inputs))
		defer config.ProgressCallback.OnComplete()
	}

	// For a single worker, fall back to sequential processing
	if workers == 1 {
		for i, in := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outputs[i] = fn(ctx, in)
			if config.ProgressCallback != nil {
				config.ProgressCallback.OnProgress(i+1, len(inputs))
			}
		}
		return outputs, nil
	}

	jobs := make(chan pageJob[T], len(inputs))
	results := make(chan pageResult[R], len(inputs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					out := fn(ctx, job.input)
					select {
					case results <- pageResult[R]{index: job.index, output: out}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, in := range inputs {
			select {
			case jobs <- pageJob[T]{index: i, input: in}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	processed := 0
	for res := range results {
		outputs[res.index] = res.output
		processed++
		if config.ProgressCallback != nil {
			config.ProgressCallback.OnProgress(processed, len(inputs))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// ParallelStats holds statistics about a parallel run.
type ParallelStats struct {
	Total            int           `json:"total"`
	Processed        int           `json:"processed"`
	Failed           int           `json:"failed"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerItem   time.Duration `json:"average_per_item_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateParallelStats calculates performance statistics for a run.
func CalculateParallelStats(total, failed int, duration time.Duration, workerCount int) ParallelStats {
	processed := total - failed
	stats := ParallelStats{
		Total:         total,
		Processed:     processed,
		Failed:        failed,
		WorkerCount:   workerCount,
		TotalDuration: duration,
	}
	if processed > 0 && duration > 0 {
		stats.AveragePerItem = duration / time.Duration(processed)
		stats.ThroughputPerSec = float64(processed) / duration.Seconds()
	}
	return stats
}
