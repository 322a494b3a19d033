package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/source"
	"github.com/MeKo-Tech/docstruct/internal/store"
)

// Config holds all configuration for batch processing.
type Config struct {
	Pipeline pipeline.Config
	Source   source.Options
	Format   string

	// Output goes to OutputFile when set, otherwise to one file per
	// document under OutputDir when set, otherwise to the writer passed to
	// SaveResults.
	OutputFile string
	OutputDir  string

	// Documents processed concurrently
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	ShowProgress bool
	Quiet        bool

	// Store persists every structured result when non-nil.
	Store *store.Store
}

// Item is the outcome of one input file.
type Item struct {
	File   string
	Result *pipeline.Result
	Err    error
}

// Result holds the result of batch processing.
type Result struct {
	Items       []Item
	Duration    time.Duration
	WorkerCount int
}

// Stats summarizes a batch run.
type Stats struct {
	Files            int
	Processed        int
	Failed           int
	Pages            int
	Sections         int
	FailedChecks     int
	Workers          int
	TotalDuration    time.Duration
	AveragePerFile   time.Duration
	ThroughputPerSec float64
}

// Stats computes totals over the batch.
func (r *Result) Stats() Stats {
	st := Stats{Files: len(r.Items), Workers: r.WorkerCount, TotalDuration: r.Duration}
	for _, it := range r.Items {
		if it.Err != nil || it.Result == nil {
			st.Failed++
			continue
		}
		st.Processed++
		st.Pages += it.Result.Meta.Pages
		st.Sections += len(it.Result.Sections)
		st.FailedChecks += it.Result.FailedChecks()
	}
	if st.Files > 0 {
		st.AveragePerFile = r.Duration / time.Duration(st.Files)
	}
	if secs := r.Duration.Seconds(); secs > 0 {
		st.ThroughputPerSec = float64(st.Processed) / secs
	}
	return st
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Items, format)
}

// SaveResults writes the formatted results to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(w, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer, quiet bool) {
	if quiet {
		return
	}
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", stats.Files)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.Processed)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	_, _ = fmt.Fprintf(w, "  Pages: %d\n", stats.Pages)
	_, _ = fmt.Fprintf(w, "  Sections: %d\n", stats.Sections)
	_, _ = fmt.Fprintf(w, "  Failed checks: %d\n", stats.FailedChecks)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", stats.AveragePerFile.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f files/sec\n", stats.ThroughputPerSec)
}
