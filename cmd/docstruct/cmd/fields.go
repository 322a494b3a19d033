package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/fields"
)

// validateOutput is printed by fields validate.
type validateOutput struct {
	Fields fields.FieldMap          `json:"fields"`
	Checks []fields.ValidationCheck `json:"checks"`
	Failed int                      `json:"failed"`
	Hints  *fields.Hints            `json:"hints,omitempty"`
}

// errChecksFailed is returned by fields validate --strict.
var errChecksFailed = errors.New("field validation failed")

func newFieldsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Normalize and validate extracted document fields",
		Long: `Work with a JSON object of extracted fields such as amount, currency,
date, iban, bic and iin_bin. Input comes from a file argument or stdin.`,
	}
	cmd.AddCommand(newFieldsFixCommand(a), newFieldsValidateCommand(a))
	return cmd
}

func newFieldsFixCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fix [file]",
		Short: "Normalize a field map",
		Long: `Normalize amounts, currencies, dates and account identifiers. Unknown
fields are dropped and values that cannot be normalized are left out.

Examples:
  docstruct fields fix fields.json
  echo '{"amount":"12 345,67","currency":"₸"}' | docstruct fields fix`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readFieldMap(cmd, firstArg(args))
			if err != nil {
				return err
			}
			return writeJSON(cmd, fields.FixFields(raw))
		},
	}
}

func newFieldsValidateCommand(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a field map against the document text",
		Long: `Run the field checks and print each with its outcome. The raw document
text, given with --text or --text-file, is needed for the checks that look
for identifiers in the text and yields IBAN and BIN candidates.

Examples:
  docstruct fields validate fields.json --text-file raw.txt
  docstruct fields validate fields.json --fix --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFieldsValidate,
	}
	cmd.Flags().String("text", "", "raw document text")
	cmd.Flags().String("text-file", "", "file holding the raw document text")
	cmd.Flags().Bool("fix", false, "normalize fields before validating")
	cmd.Flags().Bool("strict", false, "exit with an error when a check fails")
	return cmd
}

func runFieldsValidate(cmd *cobra.Command, args []string) error {
	raw, err := readFieldMap(cmd, firstArg(args))
	if err != nil {
		return err
	}

	text, _ := cmd.Flags().GetString("text")
	if name, _ := cmd.Flags().GetString("text-file"); name != "" {
		if text != "" {
			return errors.New("--text and --text-file are mutually exclusive")
		}
		data, err := readInput(cmd, name)
		if err != nil {
			return err
		}
		text = string(data)
	}

	fm := fields.FieldMap(raw)
	if fix, _ := cmd.Flags().GetBool("fix"); fix {
		fm = fields.FixFields(raw)
	}
	checks := fields.ValidateFields(fm, text)
	out := validateOutput{Fields: fm, Checks: checks, Failed: len(fields.Failed(checks))}
	if text != "" {
		hints := fields.CollectHints(text)
		out.Hints = &hints
	}
	if err := writeJSON(cmd, out); err != nil {
		return err
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && out.Failed > 0 {
		for _, c := range fields.Failed(checks) {
			slog.Warn("Check failed", "rule", c.Rule, "details", c.Details)
		}
		return fmt.Errorf("%w: %d of %d checks", errChecksFailed, out.Failed, len(checks))
	}
	return nil
}

// readFieldMap decodes a JSON object and stringifies its scalar values.
func readFieldMap(cmd *cobra.Command, name string) (map[string]string, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("fields must be a JSON object: %w", err)
	}
	if obj == nil {
		return nil, errors.New("fields must be a JSON object")
	}
	return fields.FromAny(obj), nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, string(out), "")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
