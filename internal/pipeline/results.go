package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docstruct/internal/fields"
)

// Output formats understood by Format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// ToJSON serializes a result to pretty JSON.
func ToJSON(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONMany serializes several results to a pretty JSON array.
func ToJSONMany(results []*Result) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes a result to YAML.
func ToYAML(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := yaml.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders sections as an indented outline followed by fields
// and failed checks.
func ToPlainText(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Document %s (%s), %d page(s)\n", res.ID, res.DocType, res.Meta.Pages)

	for _, s := range res.Sections {
		indent := strings.Repeat("  ", max(0, s.Level-1))
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "\n%s%s [pp. %d-%d]\n", indent, title, s.PageFrom, s.PageTo)
		for _, p := range s.Paragraphs {
			fmt.Fprintf(&b, "%s  %s\n", indent, p)
		}
	}

	if len(res.Fields) > 0 {
		b.WriteString("\nFields:\n")
		for _, name := range fieldOrder(res) {
			fmt.Fprintf(&b, "  %s: %s\n", name, res.Fields[name])
		}
	}

	if failed := failedChecks(res); len(failed) > 0 {
		b.WriteString("\nFailed checks:\n")
		for _, c := range failed {
			fmt.Fprintf(&b, "  %s: %s\n", c.Rule, c.Details)
		}
	}
	return b.String(), nil
}

// Format renders a result in the named format.
func Format(res *Result, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return ToJSON(res)
	case FormatYAML, "yml":
		return ToYAML(res)
	case FormatText, "txt":
		return ToPlainText(res)
	}
	return "", fmt.Errorf("unsupported format %q", format)
}

// ValidateResult performs simple consistency checks on a result.
func ValidateResult(res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Meta.Confidence < 0 || res.Meta.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", res.Meta.Confidence)
	}
	for i, s := range res.Sections {
		if s.Level < 1 {
			return fmt.Errorf("section %d has level %d", i, s.Level)
		}
		if s.PageFrom < 1 || s.PageTo < s.PageFrom {
			return fmt.Errorf("section %d has page span %d-%d", i, s.PageFrom, s.PageTo)
		}
	}
	return nil
}

func fieldOrder(res *Result) []string {
	out := make([]string, 0, len(res.Fields))
	for _, name := range fields.Names {
		if _, ok := res.Fields[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func failedChecks(res *Result) []fields.ValidationCheck {
	return fields.Failed(res.Checks)
}
