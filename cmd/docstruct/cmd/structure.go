package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

func newStructureCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure <file...>",
		Short: "Structure OCR JSON dumps or PDFs into sections and fields",
		Long: `Assemble lines from OCR tokens, correct OCR errors, split the text into
headed sections and paragraphs, and normalize and validate the document fields.

Inputs are OCR JSON dumps (.json) or born-digital PDFs (.pdf, text layer).

Examples:
  docstruct structure scan.json
  docstruct structure scan.json --format text
  docstruct structure contract.pdf --pages 1-3 --doc-type contract
  docstruct structure a.json b.json --output results.json --store`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runStructure,
	}

	f := cmd.Flags()
	f.StringP("format", "f", pipeline.FormatJSON, "output format (json, yaml, text)")
	f.StringP("output", "o", "", "output file (default: stdout)")
	f.String("pages", "", "PDF page range, e.g. 1-3,5")
	f.String("password", "", "user password for encrypted PDFs (or DOCSTRUCT_INPUT_PDF_PASSWORD)")
	f.String("doc-type", "", "document type reported in the result")
	f.Bool("no-headings", false, "skip heading correction")
	f.Bool("no-terms", false, "skip domain term correction")
	f.Bool("no-debug", false, "omit raw text and per-page lines from the result")
	f.Float64("min-conf", 0, "drop short tokens below this confidence")
	addStoreFlags(cmd.Flags())
	return cmd
}

func (a *app) runStructure(cmd *cobra.Command, args []string) error {
	cfg := a.cfg
	pcfg := cfg.ToPipelineConfig()
	opts := cfg.ToSourceOptions()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	output := cfg.Output.File
	if cmd.Flags().Changed("output") {
		output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("doc-type") {
		pcfg.DocType, _ = cmd.Flags().GetString("doc-type")
	}
	if skip, _ := cmd.Flags().GetBool("no-headings"); skip {
		pcfg.EnableHeadings = false
	}
	if skip, _ := cmd.Flags().GetBool("no-terms"); skip {
		pcfg.EnableTerms = false
	}
	if skip, _ := cmd.Flags().GetBool("no-debug"); skip {
		pcfg.IncludeDebug = false
	}
	if cmd.Flags().Changed("min-conf") {
		opts.MinConfidence, _ = cmd.Flags().GetFloat64("min-conf")
	}
	opts.PageRange, _ = cmd.Flags().GetString("pages")
	if cmd.Flags().Changed("password") {
		opts.PDFCredentials.UserPassword, _ = cmd.Flags().GetString("password")
	}

	pl, err := pipeline.New(pcfg)
	if err != nil {
		return fmt.Errorf("invalid structuring configuration: %w", err)
	}
	st, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
	}

	results := make([]*pipeline.Result, 0, len(args))
	for _, path := range args {
		res, err := pl.ProcessFile(cmd.Context(), path, opts)
		if err != nil {
			return fmt.Errorf("failed to structure %s: %w", path, err)
		}
		if st != nil {
			if err := st.Save(cmd.Context(), res); err != nil {
				return fmt.Errorf("failed to store result for %s: %w", path, err)
			}
		}
		slog.Info("Structured document", "file", path, "id", res.ID,
			"sections", len(res.Sections), "failed_checks", res.FailedChecks())
		results = append(results, res)
	}

	out, err := formatResults(results, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, out, output)
}

// formatResults renders one result as is and several results as a JSON
// array, a multi-document YAML stream or consecutive text outlines.
func formatResults(results []*pipeline.Result, format string) (string, error) {
	if len(results) == 1 {
		return pipeline.Format(results[0], format)
	}

	sep := "\n"
	switch strings.ToLower(format) {
	case "", pipeline.FormatJSON:
		return pipeline.ToJSONMany(results)
	case pipeline.FormatYAML, "yml":
		sep = "---\n"
	}
	parts := make([]string, 0, len(results))
	for _, res := range results {
		out, err := pipeline.Format(res, format)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, sep), nil
}
