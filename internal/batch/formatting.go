package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// fileResult is the serialized form of one Item.
type fileResult struct {
	File   string           `json:"file" yaml:"file"`
	Result *pipeline.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}

type batchOutput struct {
	Documents []fileResult `json:"documents" yaml:"documents"`
}

func toOutput(items []Item) batchOutput {
	out := batchOutput{Documents: make([]fileResult, len(items))}
	for i, it := range items {
		out.Documents[i] = fileResult{File: it.File, Result: it.Result}
		if it.Err != nil {
			out.Documents[i].Error = it.Err.Error()
		}
	}
	return out
}

// formatBatchResults formats the batch processing results in the specified format.
func formatBatchResults(items []Item, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", pipeline.FormatJSON:
		return formatJSON(items)
	case pipeline.FormatYAML, "yml":
		return formatYAML(items)
	case pipeline.FormatText, "txt":
		return formatText(items)
	}
	return "", fmt.Errorf("unsupported format %q", format)
}

// formatJSON formats results as JSON.
func formatJSON(items []Item) (string, error) {
	bts, err := json.MarshalIndent(toOutput(items), "", "  ")
	return string(bts), err
}

// formatYAML formats results as YAML.
func formatYAML(items []Item) (string, error) {
	bts, err := yaml.Marshal(toOutput(items))
	return string(bts), err
}

// formatText formats results as plain text.
func formatText(items []Item) (string, error) {
	var output strings.Builder
	for i, it := range items {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", it.File))
		if it.Err != nil {
			output.WriteString(fmt.Sprintf("error: %v\n", it.Err))
			continue
		}
		if it.Result == nil {
			continue
		}
		text, err := pipeline.ToPlainText(it.Result)
		if err != nil {
			return "", err
		}
		output.WriteString(text)
	}
	return output.String(), nil
}

// WriteOutputDir writes one file per structured document into dir, named
// after the input with the extension of format. It returns the written paths.
func (r *Result) WriteOutputDir(dir, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := outputExtension(format)
	var written []string
	for _, it := range r.Items {
		if it.Result == nil {
			continue
		}
		out, err := pipeline.Format(it.Result, format)
		if err != nil {
			return written, err
		}
		base := filepath.Base(it.File)
		path := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
		if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func outputExtension(format string) string {
	switch strings.ToLower(format) {
	case pipeline.FormatYAML, "yml":
		return ".yaml"
	case pipeline.FormatText, "txt":
		return ".txt"
	}
	return ".json"
}
