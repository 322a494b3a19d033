package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// DefaultMedianHeight is used when a page or document has no measurable lines.
const DefaultMedianHeight = 12.0

// AssemblerOptions tunes vertical grouping.
type AssemblerOptions struct {
	// ToleranceFactor scales the median token height into the grouping tolerance.
	ToleranceFactor float64
	// MinTolerance is the lower bound of the tolerance in pixels.
	MinTolerance float64
}

// DefaultAssemblerOptions returns the grouping constants tuned for scanned A4 pages.
func DefaultAssemblerOptions() AssemblerOptions {
	return AssemblerOptions{ToleranceFactor: 0.6, MinTolerance: 3.0}
}

type placed struct {
	tok    Token
	rect   geometry.Rect
	center float64
}

// AssembleLines groups one page of tokens into lines using default options.
func AssembleLines(tokens []Token) []Line {
	return AssembleLinesWith(tokens, DefaultAssemblerOptions())
}

// AssembleLinesWith groups tokens into lines. Tokens without a box or with
// blank text are ignored. The result is in top-to-bottom order.
func AssembleLinesWith(tokens []Token, opts AssemblerOptions) []Line {
	items := make([]placed, 0, len(tokens))
	heights := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		text := strings.TrimSpace(t.Text)
		if text == "" || t.BBox == nil {
			continue
		}
		t.Text = text
		r := *t.BBox
		items = append(items, placed{tok: t, rect: r, center: r.CenterY()})
		heights = append(heights, float64(max(1, r.Height())))
	}
	if len(items) == 0 {
		return nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].center != items[j].center {
			return items[i].center < items[j].center
		}
		return items[i].rect.Left < items[j].rect.Left
	})

	tol := Tolerance(Median(heights), opts)

	var groups [][]placed
	cur := []placed{items[0]}
	for _, it := range items[1:] {
		if math.Abs(it.center-cur[len(cur)-1].center) <= tol {
			cur = append(cur, it)
			continue
		}
		groups = append(groups, cur)
		cur = []placed{it}
	}
	groups = append(groups, cur)

	lines := make([]Line, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, buildLine(g))
	}
	return lines
}

// Tolerance returns the vertical-centre distance under which two tokens share a line.
func Tolerance(median float64, opts AssemblerOptions) float64 {
	return math.Max(opts.MinTolerance, median*opts.ToleranceFactor)
}

func buildLine(g []placed) Line {
	sort.SliceStable(g, func(i, j int) bool { return g[i].rect.Left < g[j].rect.Left })

	texts := make([]string, len(g))
	toks := make([]Token, len(g))
	bbox := g[0].rect
	for i, it := range g {
		texts[i] = it.tok.Text
		toks[i] = it.tok
		bbox = bbox.Union(it.rect)
	}
	return Line{
		Text:   strings.TrimSpace(strings.Join(texts, " ")),
		BBox:   &bbox,
		Height: bbox.Height(),
		YTop:   bbox.Top,
		Tokens: toks,
	}
}

// Median returns the statistical median, averaging the two middle values
// for even-length input. It returns 0 for empty input.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// MedianLineHeight returns the median of non-zero line heights across pages,
// falling back to DefaultMedianHeight.
func MedianLineHeight(pages [][]Line) float64 {
	var hs []float64
	for _, lines := range pages {
		for _, l := range lines {
			if l.Height != 0 {
				hs = append(hs, float64(l.Height))
			}
		}
	}
	if len(hs) == 0 {
		return DefaultMedianHeight
	}
	return Median(hs)
}
