package pdf

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/layout"
)

const (
	// DefaultScale maps PDF points to pixels (144 dpi).
	DefaultScale = 2.0

	letterWidth  = 612.0
	letterHeight = 792.0

	// Share of the font size a glyph may be away from the previous one
	// before a new word starts.
	wordGapRatio = 0.25
	descentRatio = 0.2
)

// Page is the text layer of one PDF page in pixel coordinates with a
// top-left origin.
type Page struct {
	Number int            `json:"number"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Tokens []layout.Token `json:"tokens"`
}

// TextExtractor turns PDF glyph runs into word tokens.
type TextExtractor struct {
	scale float64
}

// NewTextExtractor creates an extractor. A non-positive scale uses DefaultScale.
func NewTextExtractor(scale float64) *TextExtractor {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &TextExtractor{scale: scale}
}

// Scale returns the points-to-pixels factor.
func (e *TextExtractor) Scale() float64 { return e.scale }

// ExtractTokens reads word tokens for the pages selected by pageRange.
// Pages without a text layer come back with no tokens.
func (e *TextExtractor) ExtractTokens(filename string, pageRange string) ([]Page, error) {
	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}

	pageNumbers, err := ResolvePages(pageRange, reader.NumPage())
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	pages := make([]Page, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		page, err := e.extractPage(reader, n)
		if err != nil {
			slog.Warn("Skipping unreadable PDF page", "file", filename, "page", n, "error", err)
			page = Page{Number: n}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (e *TextExtractor) extractPage(reader *pdf.Reader, n int) (page Page, err error) {
	p := reader.Page(n)
	if p.V.IsNull() {
		return Page{}, fmt.Errorf("page %d is null", n)
	}
	// Malformed content streams make the reader panic.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", n, r)
		}
	}()

	w, h := pageSize(p)
	page = Page{
		Number: n,
		Width:  int(math.Round(w * e.scale)),
		Height: int(math.Round(h * e.scale)),
	}
	page.Tokens = e.wordsFromGlyphs(p.Content().Text, h)
	return page, nil
}

// pageSize reads the MediaBox of the page or one of its ancestors.
func pageSize(p pdf.Page) (float64, float64) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() != pdf.Array || box.Len() != 4 {
			continue
		}
		w := box.Index(2).Float64() - box.Index(0).Float64()
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return letterWidth, letterHeight
}

type word struct {
	text                     strings.Builder
	left, right, top, bottom float64
	lastX, lastY, fontSize   float64
}

func (e *TextExtractor) wordsFromGlyphs(glyphs []pdf.Text, pageHeight float64) []layout.Token {
	var tokens []layout.Token
	var cur *word

	flush := func() {
		if cur == nil {
			return
		}
		text := strings.TrimSpace(cur.text.String())
		if text != "" {
			r := geometry.Rect{
				Left:   int(math.Floor(cur.left * e.scale)),
				Top:    int(math.Floor((pageHeight - cur.top) * e.scale)),
				Right:  int(math.Ceil(cur.right * e.scale)),
				Bottom: int(math.Ceil((pageHeight - cur.bottom) * e.scale)),
			}
			tokens = append(tokens, layout.Token{Text: text, BBox: &r, Confidence: 1})
		}
		cur = nil
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = 10
		}
		if cur != nil && !continuesWord(cur, g, size) {
			flush()
		}
		if cur == nil {
			cur = &word{left: g.X, right: g.X + g.W, top: g.Y + size, bottom: g.Y - size*descentRatio}
		}
		cur.text.WriteString(g.S)
		cur.left = math.Min(cur.left, g.X)
		cur.right = math.Max(cur.right, g.X+g.W)
		cur.top = math.Max(cur.top, g.Y+size)
		cur.bottom = math.Min(cur.bottom, g.Y-size*descentRatio)
		cur.lastX, cur.lastY, cur.fontSize = g.X+g.W, g.Y, size
	}
	flush()
	return tokens
}

// continuesWord reports whether glyph g follows the current word on the
// same baseline without a visible gap.
func continuesWord(cur *word, g pdf.Text, size float64) bool {
	tol := math.Max(cur.fontSize, size) * wordGapRatio
	if math.Abs(g.Y-cur.lastY) > tol {
		return false
	}
	gap := g.X - cur.lastX
	return gap >= -tol && gap <= tol
}
