package sections

import (
	"github.com/MeKo-Tech/docstruct/internal/layout"
)

// BuildSections assembles each page of tokens into lines and builds the
// document's sections. Pages are 1-based in the output.
func BuildSections(pages [][]layout.Token, opts Options) []Section {
	pageLines := make([][]layout.Line, len(pages))
	for i, toks := range pages {
		pageLines[i] = layout.AssembleLines(toks)
	}
	return BuildFromLines(pageLines, opts)
}

// BuildFromLines builds sections from already assembled page lines.
func BuildFromLines(pageLines [][]layout.Line, opts Options) []Section {
	b := NewBuilder(layout.MedianLineHeight(pageLines), opts)
	for i, lines := range pageLines {
		b.StartPage(i + 1)
		for _, l := range lines {
			b.AddLine(l)
		}
		b.EndPage()
	}
	return b.Finish()
}
