package correct

import (
	"testing"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyLines are OCR outputs paired with their corrected form.
var noisyLines = []struct {
	in, want string
}{
	{"ДОГОВОР", "Договор"},
	{"II. ЦEHA TOBAPA, ОБЩАЯ СТОИМОСТЬ ДОГОВОРА", "II. Цена Товара, ОБЩАЯ Стоимость Договор"},
	{"родавец обязуется", "Продавец обязуется"},
	{"Покупателя", "Покупатель"},
	{"Рэспублика Беларусъ", "Республика Беларусь"},
	{"Инкотерм c 2010", "Инкотермс 2010"},
	{"Инкотермc 2010", "Инкотермс 2010"},
	{"счет фактура № 12", "счет-фактура"},
	{"Сумма 12 345,67 тенге", "Сумма 12 345,67 тенге"},
	{"А1Б2 123 30Л", "АІБ2 123 ЗОЛ"},
	{"железнодорожнан накладная", "железнодорожная накладная"},
	{"ПРОДАВЕЦ", "Продавец"},
	{"Республика Казахстаm", "Республика Казахстан"},
	{"X. APБИТРАЖ", "X. Арбитраж"},
	{"IX. ФОPC-MAЖOP", "IX. Форс-мажор"},
	{"сертификат качесва", "сертификат качества"},
	{"10.09.2025", "10.09.2025"},
	{"товаросопроводительные документы", "товаросопроводительный документы"},
	{"КАЧЕСТВО товара", "качества товара"},
	{"ДОГ0ВОР поставки № 5", "Договор поставки № 5"},
	{"  много   пробелов — тире  ", "много пробелов - тире"},
	{"VII. ПОРЯДОК РАСЧЁТОВ", "VII. Порядок Расчетов"},
}

func TestCorrector_FixText(t *testing.T) {
	c := New()
	for _, tt := range noisyLines {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.FixText(tt.in))
		})
	}
}

func TestCorrector_StagesDisabled(t *testing.T) {
	c := &Corrector{}

	tests := []struct {
		in, want string
	}{
		{"ДОГОВОР", "ДОГОВОР"},
		{"II. ЦEHA TOBAPA, ОБЩАЯ СТОИМОСТЬ ДОГОВОРА", "II. ЦЕНА ТОВАРА, ОБЩАЯ СТОИМОСТЬ ДОГОВОРА"},
		{"родавец обязуется", "Продавец обязуется"},
		{"Инкотерм c 2010", "Инкотерм с 2010"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.FixText(tt.in))
	}
}

func TestFixLatinAndDigits(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"latin look-alikes", "TOO KOMПАНИЯ", "ТОО КОМПАНИЯ"},
		{"latin without look-alike kept", "IBAN", "IВАN"},
		{"pure numbers untouched", "100 300 2013", "100 300 2013"},
		{"digits in words", "К0Д 1А З3", "КОД ІА ЗЗ"},
		{"dash variants", "A — B – C − D", "А - В - С - D"},
		{"hyphenated token", "Форс-мaжор-3", "Форс-мажор-З"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fixLatinAndDigits(tt.in))
		})
	}
}

func TestCorrectItems(t *testing.T) {
	c := New()
	box := &geometry.Rect{Left: 1, Top: 2, Right: 30, Bottom: 14}
	in := []layout.Token{
		{Text: "ПРОДАВЕЦ", BBox: box, Confidence: 0.42},
		{Text: "", Confidence: 0.1},
	}

	out := c.CorrectItems(in)
	require.Len(t, out, 2)
	assert.Equal(t, "Продавец", out[0].Text)
	assert.Equal(t, *box, *out[0].BBox)
	assert.InDelta(t, 0.42, out[0].Confidence, 1e-12)
	assert.Empty(t, out[1].Text)
	assert.Nil(t, out[1].BBox)

	// Inputs are not mutated.
	assert.Equal(t, "ПРОДАВЕЦ", in[0].Text)
	assert.NotSame(t, in[0].BBox, out[0].BBox)
}

func TestCorrectLines(t *testing.T) {
	lines := []layout.Line{{Text: "ДОГ0ВОР", Height: 12}}
	out := New().CorrectLines(lines)
	assert.Equal(t, "Договор", out[0].Text)
	assert.Equal(t, 12, out[0].Height)
	assert.Equal(t, "ДОГ0ВОР", lines[0].Text)
}

func TestFixEachLine(t *testing.T) {
	got := New().FixEachLine("ПРОДАВЕЦ\nРэспублика Беларусъ\n")
	assert.Equal(t, "Продавец\nРеспублика Беларусь\n", got)
}

func TestCorrectRecords(t *testing.T) {
	in := []map[string]any{
		{"text": "ПРОДАВЕЦ", "bbox": []any{1.0, 2.0, 3.0, 4.0}, "conf": 0.5},
		{"text": 42},
		{"score": 0.9},
	}

	out := New().CorrectRecords(in)
	require.Len(t, out, 3)
	assert.Equal(t, "Продавец", out[0]["text"])
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, out[0]["bbox"])
	assert.Equal(t, 0.5, out[0]["conf"])
	assert.Equal(t, 42, out[1]["text"])
	assert.NotContains(t, out[2], "text")

	assert.Equal(t, "ПРОДАВЕЦ", in[0]["text"])
}
