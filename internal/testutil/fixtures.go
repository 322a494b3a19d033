package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// Token is one OCR item as it appears in an OCR JSON dump.
type Token struct {
	Text string  `json:"text"`
	BBox [4]int  `json:"bbox"`
	Conf float64 `json:"conf"`
}

// Page is one page of tokens.
type Page struct {
	Tokens []Token `json:"tokens"`
}

// Document is an OCR JSON dump with optional raw fields.
type Document struct {
	DocType string         `json:"doc_type,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	Pages   []Page         `json:"pages"`
}

// Line returns a single token spanning one text line at top y.
func Line(text string, x, y, width, height int) Token {
	return Token{Text: text, BBox: [4]int{x, y, x + width, y + height}, Conf: 0.9}
}

// ContractDocument is a two-page contract whose first heading carries
// Latin O's, the second section continues onto page two and the raw fields
// need normalizing.
func ContractDocument() Document {
	return Document{
		Fields: map[string]any{"amount": "12 345,67", "currency": "₸", "date": "10.09.2025"},
		Pages: []Page{
			{Tokens: []Token{
				{Text: "1.", BBox: [4]int{40, 40, 60, 60}, Conf: 0.9},
				{Text: "OБЩИЕ", BBox: [4]int{70, 40, 200, 60}, Conf: 0.9},
				{Text: "ПOЛОЖЕНИЯ", BBox: [4]int{210, 40, 400, 60}, Conf: 0.9},
				Line("Стороны договорились о нижеследующем.", 40, 70, 560, 20),
				Line("2. Цена и порядок расчетов", 40, 130, 460, 20),
				Line("Итого к оплате: 12 345,67 ₸", 40, 160, 460, 20),
			}},
			{Tokens: []Token{
				Line("Банк: АО Народный банк, БИН 123456789012", 40, 40, 560, 20),
			}},
		},
	}
}

// InvoiceDocument is a one-page invoice without numbered headings.
func InvoiceDocument() Document {
	return Document{
		DocType: "invoice",
		Fields:  map[string]any{"amount": 1500, "currency": "USD", "iban": "KZ12 3456 7890 1234 5678 90"},
		Pages: []Page{
			{Tokens: []Token{
				Line("Счет на оплату № 42", 40, 40, 400, 20),
				Line("Получатель: ТОО Ромашка", 40, 70, 400, 20),
				Line("IBAN KZ12345678901234567890", 40, 100, 400, 20),
			}},
		},
	}
}

// DocumentJSON encodes doc as OCR JSON.
func DocumentJSON(t *testing.T, doc Document) []byte {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err, "Failed to marshal document")
	return data
}

// WriteDocument writes doc as OCR JSON to dir/name and returns the path.
func WriteDocument(t *testing.T, dir, name string, doc Document) string {
	t.Helper()
	return WriteFile(t, dir, name, DocumentJSON(t, doc))
}
