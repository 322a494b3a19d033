// Package batch structures many OCR documents in one run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// ProcessBatch discovers the inputs under paths and structures them with
// the given configuration.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := DiscoverFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no input files found")
	}

	// Set up progress callback
	var progressCallback pipeline.ProgressCallback
	if config.ShowProgress && !config.Quiet {
		progressCallback = pipeline.NewConsoleProgressCallback(os.Stderr, "Processing: ")
	}

	pl, err := buildPipeline(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	startTime := time.Now()
	items, err := processFilesParallel(ctx, pl, files, config, progressCallback)
	duration := time.Since(startTime)

	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Items:       items,
		Duration:    duration,
		WorkerCount: min(max(config.Workers, 1), len(files)),
	}, nil
}
