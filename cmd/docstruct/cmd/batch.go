package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/batch"
)

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir|files...>",
		Short: "Structure many documents in parallel",
		Long: `Structure every OCR JSON dump and PDF found in the given files and
directories on a pool of workers.

Results are written as one combined document to stdout or --output, or as
one file per input under --output-dir.

Examples:
  docstruct batch scans/
  docstruct batch scans/ --recursive --workers 8 --exclude 'draft_*'
  docstruct batch a.json b.json --format yaml --output results.yaml
  docstruct batch scans/ --output-dir structured/ --continue-on-error --stats`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runBatch,
	}

	f := cmd.Flags()
	f.IntP("workers", "w", 4, "number of documents processed concurrently")
	f.BoolP("recursive", "r", false, "descend into subdirectories")
	f.StringSlice("include", []string{"*.json", "*.pdf"}, "file name patterns to include")
	f.StringSlice("exclude", nil, "file name patterns to exclude")
	f.StringP("format", "f", "json", "output format (json, yaml, text)")
	f.StringP("output", "o", "", "write combined results to this file")
	f.String("output-dir", "", "write one result file per document into this directory")
	f.Bool("continue-on-error", false, "keep going when a document fails")
	f.Bool("progress", false, "show a progress bar on stderr")
	f.BoolP("quiet", "q", false, "suppress progress and summary messages")
	f.Bool("stats", false, "print processing statistics to stderr")
	f.String("doc-type", "", "document type reported in every result")
	addStoreFlags(cmd.Flags())
	return cmd
}

// batchConfig maps the loaded configuration to batch.Config. Flags that
// were set explicitly win over config file and environment values.
func (a *app) batchConfig(cmd *cobra.Command) *batch.Config {
	cfg := a.cfg
	bc := &batch.Config{
		Pipeline:        cfg.ToPipelineConfig(),
		Source:          cfg.ToSourceOptions(),
		Format:          cfg.Batch.Format,
		OutputFile:      cfg.Output.File,
		OutputDir:       cfg.Batch.OutputDir,
		Workers:         cfg.Batch.Workers,
		ContinueOnError: cfg.Batch.ContinueOnError,
		Recursive:       cfg.Batch.Recursive,
		IncludePatterns: cfg.Batch.Include,
		ExcludePatterns: cfg.Batch.Exclude,
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		bc.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("recursive") {
		bc.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("include") {
		bc.IncludePatterns, _ = flags.GetStringSlice("include")
	}
	if flags.Changed("exclude") {
		bc.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	}
	if flags.Changed("format") {
		bc.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		bc.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("output-dir") {
		bc.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("continue-on-error") {
		bc.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
	if flags.Changed("doc-type") {
		bc.Pipeline.DocType, _ = flags.GetString("doc-type")
	}
	bc.ShowProgress, _ = flags.GetBool("progress")
	bc.Quiet, _ = flags.GetBool("quiet")
	return bc
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	bc := a.batchConfig(cmd)
	if bc.OutputFile != "" && bc.OutputDir != "" {
		return errors.New("--output and --output-dir are mutually exclusive")
	}

	st, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
		bc.Store = st
	}

	result, err := batch.ProcessBatch(cmd.Context(), args, bc)
	if err != nil {
		return err
	}
	stats := result.Stats()
	slog.Info("Batch finished", "files", stats.Files, "processed", stats.Processed,
		"failed", stats.Failed, "duration", result.Duration)

	if bc.OutputDir != "" {
		written, err := result.WriteOutputDir(bc.OutputDir, bc.Format)
		if err != nil {
			return err
		}
		if !bc.Quiet {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d result file(s) to %s\n", len(written), bc.OutputDir)
		}
	} else if err := result.SaveResults(cmd.OutOrStdout(), bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return err
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		result.PrintStats(cmd.ErrOrStderr(), bc.Quiet)
	}
	return nil
}
