package sections

import (
	"regexp"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/layout"
)

// subpointRe matches numbered sub-points, bullets and lettered sub-items.
var subpointRe = regexp.MustCompile(`(?i)^[\s\p{Z}]*((\p{Nd}+\.\p{Nd}+(\.\p{Nd}+)*)|[-•*]|[а-я]\))[\s\p{Z}]+.+`)

// DefaultParagraphGapFactor is the gap, in median line heights, that starts a new paragraph.
const DefaultParagraphGapFactor = 1.5

// IsSubpoint reports whether a line opens a sub-point.
func IsSubpoint(text string) bool {
	return subpointRe.MatchString(text)
}

// SplitParagraphs groups lines into paragraphs. A new paragraph starts at
// a sub-point line or when the gap since the previous line exceeds
// gapFactor*median. Lines within a paragraph are joined by newlines.
func SplitParagraphs(lines []layout.Line, median, gapFactor float64) []string {
	var (
		paragraphs []string
		cur        []string
		lastBottom int
		hasPrev    bool
	)
	for _, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		gap := 0.0
		if hasPrev {
			gap = float64(ln.YTop - lastBottom)
		}
		if IsSubpoint(text) || gap > median*gapFactor {
			if len(cur) > 0 {
				paragraphs = append(paragraphs, strings.Join(cur, "\n"))
				cur = nil
			}
		}
		cur = append(cur, text)
		lastBottom = ln.Bottom()
		hasPrev = true
	}
	if len(cur) > 0 {
		paragraphs = append(paragraphs, strings.Join(cur, "\n"))
	}
	return paragraphs
}
