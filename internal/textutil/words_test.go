package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordPattern_ReplaceAllString(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		ci      bool
		in      string
		repl    string
		want    string
	}{
		{"whole word", `родавец`, true, "родавец обязуется", "Продавец", "Продавец обязуется"},
		{"inside a longer word", `родавец`, true, "Продавец обязуется", "X", "Продавец обязуется"},
		{"adjacent matches share a separator", `акт`, false, "акт акт,акт", "АКТ", "АКТ АКТ,АКТ"},
		{"optional suffix backtracks", `покупател[ьяею]?`, true, "покупательский покупателю", "Покупатель", "покупательский Покупатель"},
		{"case-insensitive cyrillic", `беларус[ьъ]`, true, "БЕЛАРУСЬ", "Беларусь", "Беларусь"},
		{"case-sensitive", `Договор`, false, "договор Договор", "D", "договор D"},
		{"digits are word characters", `2010`, false, "12010 2010", "Y", "12010 Y"},
		{"word class suffix", `железнодоро` + WordClass + `+`, true, "железнодорожнан-накладная", "железнодорожная", "железнодорожная-накладная"},
		{"no match", `ххх`, false, "текст", "y", "текст"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := MustCompileWord(tt.pattern, tt.ci)
			assert.Equal(t, tt.want, w.ReplaceAllString(tt.in, tt.repl))
		})
	}
}

func TestWordPattern_Find(t *testing.T) {
	w := MustCompileWord(`KZ\d{20}`, true)

	got, ok := w.FindString("IBAN: kz12345678901234567890.")
	require.True(t, ok)
	assert.Equal(t, "kz12345678901234567890", got)

	_, ok = w.FindString("ЖKZ12345678901234567890")
	assert.False(t, ok, "a Cyrillic letter before the match is a word character")

	all := MustCompileWord(`\d{12}`, false).FindAllString("БИН 123456789012, ИИН 210987654321 и 1234567890123")
	assert.Equal(t, []string{"123456789012", "210987654321"}, all)
	assert.True(t, w.MatchString("KZ12345678901234567890"))
}

func TestCompileWord_Invalid(t *testing.T) {
	_, err := CompileWord(`(`, false)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompileWord(`[`, false) })
}

func TestRuneHelpers(t *testing.T) {
	assert.InDelta(t, 1.0, UpperRatio("ЦЕНА ТОВАРА 2"), 1e-9)
	assert.InDelta(t, 0.5, UpperRatio("АБвг"), 1e-9)
	assert.Zero(t, UpperRatio("123 - 456"))

	assert.True(t, IsUpper("ДОГОВОР-2"))
	assert.False(t, IsUpper("Договор"))
	assert.False(t, IsUpper("123"))

	assert.True(t, HasLetter("12а"))
	assert.False(t, HasLetter("12 3"))
	assert.True(t, HasDigit("А1"))
	assert.Equal(t, 7, RuneLen("договор"))
	assert.Equal(t, "СЧЕТ-ФАКТУРА STRASSE", Upper("счет-фактура straße"))
	assert.True(t, IsWordRune('ё'))
	assert.False(t, IsWordRune('-'))
}
