package sections

import (
	"regexp"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// numberedRe matches "II. TITLE" and "2.1 Title" style headings.
var numberedRe = regexp.MustCompile(`(?i)^[\s\p{Z}]*(?:([IVXLCDM]+)\.|(\p{Nd}+(?:\.\p{Nd}+){0,3})\.?)[\s\p{Z}]+(.{2,})$`)

// MaxHeadingLevel caps the depth derived from dotted numbering.
const MaxHeadingLevel = 4

// HeadingOptions holds the visual heading thresholds, expressed relative to
// the document's median line height.
type HeadingOptions struct {
	MaxVisualLength int     `mapstructure:"max_visual_length" yaml:"max_visual_length" json:"max_visual_length"`
	MinUpperRatio   float64 `mapstructure:"min_upper_ratio" yaml:"min_upper_ratio" json:"min_upper_ratio"`
	MinHeightRatio  float64 `mapstructure:"min_height_ratio" yaml:"min_height_ratio" json:"min_height_ratio"`
	MinGapRatio     float64 `mapstructure:"min_gap_ratio" yaml:"min_gap_ratio" json:"min_gap_ratio"`
}

// DefaultHeadingOptions returns the empirically tuned thresholds.
func DefaultHeadingOptions() HeadingOptions {
	return HeadingOptions{
		MaxVisualLength: 120,
		MinUpperRatio:   0.6,
		MinHeightRatio:  1.12,
		MinGapRatio:     0.8,
	}
}

// Heading is the classification of one line.
type Heading struct {
	IsHeading bool   `json:"is_heading"`
	Level     int    `json:"level,omitempty"`
	Numbering string `json:"numbering,omitempty"`
	Visual    bool   `json:"visual,omitempty"`
}

// Classify decides whether a line is a heading using default thresholds.
func Classify(text string, lineHeight, medianHeight, gapAbove float64) Heading {
	return DefaultHeadingOptions().Classify(text, lineHeight, medianHeight, gapAbove)
}

// Classify decides whether a line is a heading. Explicit numbering wins
// over visual salience.
func (o HeadingOptions) Classify(text string, lineHeight, medianHeight, gapAbove float64) Heading {
	t := strings.TrimSpace(text)

	if m := numberedRe.FindStringSubmatch(t); m != nil {
		if roman := m[1]; roman != "" {
			return Heading{IsHeading: true, Level: 1, Numbering: roman + "."}
		}
		num := m[2]
		return Heading{IsHeading: true, Level: min(1+strings.Count(num, "."), MaxHeadingLevel), Numbering: num}
	}

	if textutil.RuneLen(t) <= o.MaxVisualLength &&
		textutil.UpperRatio(t) >= o.MinUpperRatio &&
		lineHeight >= medianHeight*o.MinHeightRatio &&
		gapAbove >= medianHeight*o.MinGapRatio {
		return Heading{IsHeading: true, Level: 1, Visual: true}
	}

	return Heading{}
}
