package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// evalReport is the JSON form of an eval run.
type evalReport struct {
	CER          float64 `json:"cer"`
	WordAccuracy float64 `json:"word_accuracy"`
	Distance     int     `json:"distance"`
	RefRunes     int     `json:"ref_runes"`
}

func newEvalCommand(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure recognition quality against a reference text",
		Long: `Compute the character error rate and word accuracy of a hypothesis text,
for example corrected OCR output, against a reference transcription.

Examples:
  docstruct eval --hyp corrected.txt --ref truth.txt
  docstruct eval --hyp corrected.txt --ref truth.txt --json`,
		Args: cobra.NoArgs,
		RunE: runEval,
	}
	cmd.Flags().String("hyp", "", "hypothesis text file")
	cmd.Flags().String("ref", "", "reference text file")
	cmd.Flags().Bool("json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("hyp")
	_ = cmd.MarkFlagRequired("ref")
	return cmd
}

func runEval(cmd *cobra.Command, _ []string) error {
	hypFile, _ := cmd.Flags().GetString("hyp")
	refFile, _ := cmd.Flags().GetString("ref")
	if hypFile == "-" && refFile == "-" {
		return errors.New("only one of --hyp and --ref can read stdin")
	}

	hyp, err := readInput(cmd, hypFile)
	if err != nil {
		return err
	}
	ref, err := readInput(cmd, refFile)
	if err != nil {
		return err
	}
	h := strings.TrimSpace(string(hyp))
	r := strings.TrimSpace(string(ref))

	report := evalReport{
		CER:          pipeline.CER(h, r),
		WordAccuracy: pipeline.WordAccuracy(h, r),
		Distance:     pipeline.Levenshtein(h, r),
		RefRunes:     len([]rune(r)),
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd, report)
	}
	out := fmt.Sprintf("CER: %.4f\nWord accuracy: %.4f\nEdit distance: %d / %d",
		report.CER, report.WordAccuracy, report.Distance, report.RefRunes)
	return writeOutput(cmd, out, "")
}
