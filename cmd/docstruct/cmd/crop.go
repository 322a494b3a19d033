package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

func newCropCommand(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop <image>",
		Short: "Cut the region of a bounding box out of an image",
		Long: `Crop an image to a bounding box grown by a margin and clamped to the
image. The box is given as x1,y1,x2,y2 corners or as a JSON box in any
encoding the OCR input accepts ({"x":..,"y":..,"w":..,"h":..} or a list
of points).

Examples:
  docstruct crop page.png --box 40,40,400,60 --out heading.png
  docstruct crop page.png --box '[[40,40],[400,40],[400,60],[40,60]]' --out heading.png --margin 0`,
		Args: cobra.ExactArgs(1),
		RunE: runCrop,
	}
	cmd.Flags().String("box", "", "bounding box (x1,y1,x2,y2 or JSON)")
	cmd.Flags().String("out", "", "output image file; the extension selects the format")
	cmd.Flags().Int("margin", geometry.DefaultCropMargin, "pixels added around the box")
	_ = cmd.MarkFlagRequired("box")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runCrop(cmd *cobra.Command, args []string) error {
	spec, _ := cmd.Flags().GetString("box")
	out, _ := cmd.Flags().GetString("out")
	margin, _ := cmd.Flags().GetInt("margin")

	box, err := parseBoxFlag(spec)
	if err != nil {
		return err
	}
	img, meta, err := geometry.LoadImage(args[0])
	if err != nil {
		return err
	}
	cropped := geometry.SafeCrop(img, box, margin)
	if cropped == nil {
		return fmt.Errorf("box %s is empty on the %dx%d image", spec, meta.Width, meta.Height)
	}
	if err := geometry.SaveImage(cropped, out); err != nil {
		return err
	}

	b := cropped.Bounds()
	slog.Info("Cropped image", "input", args[0], "output", out, "width", b.Dx(), "height", b.Dy())
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d\n", out, b.Dx(), b.Dy())
	return err
}

// parseBoxFlag accepts bare corner numbers or any JSON box encoding.
func parseBoxFlag(spec string) (geometry.Box, error) {
	spec = strings.TrimSpace(spec)
	raw := spec
	if !strings.HasPrefix(spec, "[") && !strings.HasPrefix(spec, "{") {
		raw = "[" + spec + "]"
	}
	box := geometry.ParseBox(json.RawMessage(raw))
	if box == nil {
		return nil, errors.New("invalid --box: want x1,y1,x2,y2 or a JSON box")
	}
	return box, nil
}
