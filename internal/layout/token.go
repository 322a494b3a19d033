// Package layout groups OCR tokens into text lines.
package layout

import "github.com/MeKo-Tech/docstruct/internal/geometry"

// Token is one OCR-recognized text fragment.
type Token struct {
	Text       string         `json:"text"`
	BBox       *geometry.Rect `json:"bbox"`
	Confidence float64        `json:"conf"`
}

// WithText returns a copy of the token carrying different text.
func (t Token) WithText(text string) Token {
	t.Text = text
	if t.BBox != nil {
		b := *t.BBox
		t.BBox = &b
	}
	return t
}

// Line is a run of tokens sharing one vertical band, in left-to-right order.
type Line struct {
	Text   string         `json:"text"`
	BBox   *geometry.Rect `json:"bbox"`
	Height int            `json:"height"`
	YTop   int            `json:"y_top"`
	Tokens []Token        `json:"tokens,omitempty"`
}

// Bottom returns the lower edge of the line, or YTop when the line has no box.
func (l Line) Bottom() int {
	if l.BBox == nil {
		return l.YTop
	}
	return l.BBox.Bottom
}
