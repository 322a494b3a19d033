package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/source"
	"github.com/MeKo-Tech/docstruct/internal/store"
)

// processSingleFile structures one file and persists the result when a
// store is configured.
func processSingleFile(ctx context.Context, pl *pipeline.Pipeline, path string,
	opts source.Options, st *store.Store) (*pipeline.Result, error) {
	res, err := pl.ProcessFile(ctx, path, opts)
	if err != nil {
		return nil, fmt.Errorf("structuring failed for %s: %w", path, err)
	}

	if st != nil {
		if err := st.Save(ctx, res); err != nil {
			return nil, fmt.Errorf("failed to store result for %s: %w", path, err)
		}
	}
	return res, nil
}

// processFilesParallel structures files on a pool of workers. Items come
// back in input order. Unless continueOnError is set, the first failure
// cancels the remaining work and is returned.
func processFilesParallel(ctx context.Context, pl *pipeline.Pipeline, files []string, config *Config,
	progress pipeline.ProgressCallback) ([]Item, error) {
	items := make([]Item, len(files))
	for i, f := range files {
		items[i].File = f
	}
	if len(files) == 0 {
		return items, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(max(config.Workers, 1), len(files))
	if progress != nil {
		progress.OnStart(len(files))
		defer progress.OnComplete()
	}

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		firstErr error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := processSingleFile(ctx, pl, files[i], config.Source, config.Store)

				mu.Lock()
				items[i].Result, items[i].Err = res, err
				done++
				if err != nil {
					slog.Warn("Failed to structure file", "file", files[i], "error", err)
					if progress != nil {
						progress.OnError(done, err)
					}
					if !config.ContinueOnError && firstErr == nil {
						firstErr = err
						cancel()
					}
				} else if progress != nil {
					progress.OnProgress(done, len(files))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
