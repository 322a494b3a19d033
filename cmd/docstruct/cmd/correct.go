package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/correct"
)

func newCorrectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct [text...]",
		Short: "Correct OCR errors in text or OCR items",
		Long: `Fix Latin look-alikes inside Cyrillic words, known misreadings, heading
phrases and domain terms.

Each argument is corrected on its own. Without arguments every line of
stdin is corrected. With --items a JSON array of OCR items is read and
their "text" values are corrected, keeping every other key.

Examples:
  docstruct correct "OБЩИЕ ПOЛОЖЕНИЯ"
  cat lines.txt | docstruct correct
  docstruct correct --items tokens.json`,
		RunE: a.runCorrect,
	}
	cmd.Flags().String("items", "", "JSON file with an array of OCR items (- for stdin)")
	cmd.Flags().Bool("no-headings", false, "skip heading correction")
	cmd.Flags().Bool("no-terms", false, "skip domain term correction")
	return cmd
}

func (a *app) runCorrect(cmd *cobra.Command, args []string) error {
	c := correct.New()
	c.EnableHeadings = a.cfg.Structure.EnableHeadings
	c.EnableTerms = a.cfg.Structure.EnableTerms
	if skip, _ := cmd.Flags().GetBool("no-headings"); skip {
		c.EnableHeadings = false
	}
	if skip, _ := cmd.Flags().GetBool("no-terms"); skip {
		c.EnableTerms = false
	}

	if cmd.Flags().Changed("items") {
		if len(args) > 0 {
			return errors.New("text arguments cannot be combined with --items")
		}
		name, _ := cmd.Flags().GetString("items")
		return correctItems(cmd, c, name)
	}

	if len(args) > 0 {
		out := make([]string, len(args))
		for i, arg := range args {
			out[i] = c.FixText(arg)
		}
		return writeOutput(cmd, strings.Join(out, "\n"), "")
	}

	data, err := readInput(cmd, "")
	if err != nil {
		return err
	}
	text := strings.TrimSuffix(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	return writeOutput(cmd, c.FixEachLine(text), "")
}

func correctItems(cmd *cobra.Command, c *correct.Corrector, name string) error {
	data, err := readInput(cmd, name)
	if err != nil {
		return err
	}
	var items []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return fmt.Errorf("items must be a JSON array of objects: %w", err)
	}
	out, err := json.MarshalIndent(c.CorrectRecords(items), "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, string(out), "")
}
