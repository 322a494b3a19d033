package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixFields(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
		want FieldMap
	}{
		{
			name: "amount with thousands separator and decimal comma",
			raw:  map[string]string{Amount: "12 345,67"},
			want: FieldMap{Amount: "12345.67"},
		},
		{
			name: "amount with non-breaking thousands separator",
			raw:  map[string]string{Amount: "12\u00a0345,67"},
			want: FieldMap{Amount: "12345.67"},
		},
		{
			name: "amount keeps the last number",
			raw:  map[string]string{Amount: "1 шт. x 2 500,00"},
			want: FieldMap{Amount: "2500.00"},
		},
		{
			name: "day-first date",
			raw:  map[string]string{Date: "10.09.2025"},
			want: FieldMap{Date: "2025-09-10"},
		},
		{
			name: "date with surrounding spaces",
			raw:  map[string]string{Date: "  2025-9-1 "},
			want: FieldMap{Date: "2025-09-01"},
		},
		{
			name: "slash and dotted year-first dates",
			raw:  map[string]string{Date: "2025.09.10"},
			want: FieldMap{Date: "2025-09-10"},
		},
		{
			name: "year-first date embedded in text",
			raw:  map[string]string{Date: "от 2025/9/3 г."},
			want: FieldMap{Date: "2025-09-03"},
		},
		{
			name: "unparseable date is dropped",
			raw:  map[string]string{Date: "31.02.2025"},
			want: FieldMap{},
		},
		{
			name: "iban with spaces",
			raw:  map[string]string{IBAN: "KZ12 3456 7890 1234 5678 90"},
			want: FieldMap{IBAN: "KZ12345678901234567890"},
		},
		{
			name: "iban split by a stray space joins into a valid one",
			raw:  map[string]string{IBAN: " KZ123456789012345678 90"},
			want: FieldMap{IBAN: "KZ12345678901234567890"},
		},
		{
			name: "short iban is dropped",
			raw:  map[string]string{IBAN: " KZ1234567890123456789"},
			want: FieldMap{},
		},
		{
			name: "bic",
			raw:  map[string]string{BIC: "БИК: HSBKKZKX"},
			want: FieldMap{BIC: "HSBKKZKX"},
		},
		{
			name: "lower case bic is dropped",
			raw:  map[string]string{BIC: "hsbkkzkx"},
			want: FieldMap{},
		},
		{
			name: "iin",
			raw:  map[string]string{IINBIN: "БИН 123456789012"},
			want: FieldMap{IINBIN: "123456789012"},
		},
		{
			name: "currency symbol and words",
			raw:  map[string]string{Currency: "₸"},
			want: FieldMap{Currency: "KZT"},
		},
		{
			name: "currency word in lower case",
			raw:  map[string]string{Currency: "тенге"},
			want: FieldMap{Currency: "KZT"},
		},
		{
			name: "currency code",
			raw:  map[string]string{Currency: "usd"},
			want: FieldMap{Currency: "USD"},
		},
		{
			name: "unknown currency is dropped",
			raw:  map[string]string{Currency: "GBP"},
			want: FieldMap{},
		},
		{
			name: "free text fields pass through",
			raw:  map[string]string{Payer: "ИП Иванов", Receiver: "ТОО «Ромашка»", InvoiceNo: "17/2025"},
			want: FieldMap{Payer: "ИП Иванов", Receiver: "ТОО «Ромашка»", InvoiceNo: "17/2025"},
		},
		{
			name: "empty and unknown fields are dropped",
			raw:  map[string]string{Payer: "", "comment": "x"},
			want: FieldMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixFields(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, FixFields(got), "FixFields must be idempotent")
		})
	}
}

func TestFromAny(t *testing.T) {
	got := FromAny(map[string]any{
		Amount:   12345.5,
		Currency: "KZT",
		Date:     nil,
		Payer:    true,
	})
	assert.Equal(t, map[string]string{Amount: "12345.5", Currency: "KZT"}, got)
}

func TestFieldMapHelpers(t *testing.T) {
	m := FieldMap{Amount: "1"}
	c := m.Clone()
	c[Amount] = "2"
	assert.Equal(t, "1", m.Get(Amount))
	assert.Empty(t, m.Get(IBAN))
	assert.True(t, IsKnown(IINBIN))
	assert.False(t, IsKnown("comment"))
}
