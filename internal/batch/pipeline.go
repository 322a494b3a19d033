package batch

import (
	"runtime"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// buildPipeline creates the structuring pipeline for a batch. Documents
// already run in parallel, so page workers share what is left of the CPUs.
func buildPipeline(config *Config) (*pipeline.Pipeline, error) {
	return pipeline.NewBuilder().
		WithConfig(config.Pipeline).
		WithWorkers(pageWorkers(config.Pipeline.Parallel.MaxWorkers, config.Workers, runtime.NumCPU())).
		Build()
}

// pageWorkers splits cpus between document workers without exceeding the
// configured page workers. Zero leaves the choice to the pipeline.
func pageWorkers(configured, docWorkers, cpus int) int {
	if docWorkers <= 1 {
		return configured
	}
	share := max(cpus/docWorkers, 1)
	if configured > 0 && configured < share {
		return configured
	}
	return share
}
