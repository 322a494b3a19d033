package sections

import (
	"testing"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/stretchr/testify/assert"
)

func line(text string, top, bottom int) layout.Line {
	return layout.Line{
		Text:   text,
		BBox:   &geometry.Rect{Left: 40, Top: top, Right: 400, Bottom: bottom},
		Height: bottom - top,
		YTop:   top,
	}
}

func TestSplitParagraphs(t *testing.T) {
	lines := []layout.Line{
		line("Цена составляет 12 345,67 тенге", 110, 130),
		line("включая доставку", 135, 155),
		line("- с учетом НДС", 160, 180),
		line("а) предоплата 50%", 185, 205),
		line("2.1.3 Окончательный расчет", 210, 230),
		line("после приемки", 235, 255),
		line("Оплата в течение 10 дней", 300, 320),
	}

	got := SplitParagraphs(lines, 20, DefaultParagraphGapFactor)
	assert.Equal(t, []string{
		"Цена составляет 12 345,67 тенге\nвключая доставку",
		"- с учетом НДС",
		"а) предоплата 50%",
		"2.1.3 Окончательный расчет\nпосле приемки",
		"Оплата в течение 10 дней",
	}, got)
}

func TestSplitParagraphs_Edges(t *testing.T) {
	assert.Nil(t, SplitParagraphs(nil, 20, 1.5))

	got := SplitParagraphs([]layout.Line{line("первая", 0, 20), line("вторая", 51, 71)}, 20, 1.5)
	assert.Equal(t, []string{"первая", "вторая"}, got)

	// A gap of exactly 1.5 medians does not split.
	got = SplitParagraphs([]layout.Line{line("a", 0, 20), line("b", 50, 70)}, 20, 1.5)
	assert.Equal(t, []string{"a\nb"}, got)
}

func TestIsSubpoint(t *testing.T) {
	assert.True(t, IsSubpoint("1.2 Покупатель"))
	assert.True(t, IsSubpoint("• пункт"))
	assert.True(t, IsSubpoint("* пункт"))
	assert.True(t, IsSubpoint("Б) пункт"))
	assert.False(t, IsSubpoint("1. Пункт"))
	assert.False(t, IsSubpoint("-пункт"))
	assert.False(t, IsSubpoint("текст"))
}
