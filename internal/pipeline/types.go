package pipeline

import (
	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/sections"
)

// DefaultDocType is reported when neither the caller nor the input names a document type.
const DefaultDocType = "receipt"

// DefaultLang is the document language reported in Meta.
const DefaultLang = "ru"

// Result is the structured output for one document.
type Result struct {
	ID        string                   `json:"id" yaml:"id"`
	DocType   string                   `json:"docType" yaml:"doc_type"`
	Meta      Meta                     `json:"meta" yaml:"meta"`
	Fields    fields.FieldMap          `json:"fields" yaml:"fields"`
	Checks    []fields.ValidationCheck `json:"checks" yaml:"checks"`
	Sections  []sections.Section       `json:"sections" yaml:"sections"`
	LineItems []LineItem               `json:"lineItems" yaml:"line_items"`
	Hints     fields.Hints             `json:"hints" yaml:"hints"`
	Debug     *Debug                   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Meta describes the processed document.
type Meta struct {
	Pages      int     `json:"pages" yaml:"pages"`
	Lang       string  `json:"lang" yaml:"lang"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Source     string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// LineItem is a table row of an invoice or receipt. Line items are not
// extracted yet, so results carry an empty list.
type LineItem struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity" yaml:"quantity"`
	Price    string `json:"price" yaml:"price"`
	Total    string `json:"total" yaml:"total"`
}

// Debug carries intermediate data for inspection.
type Debug struct {
	Text       string      `json:"text" yaml:"text"`
	Pages      []PageDebug `json:"pages" yaml:"pages"`
	Processing struct {
		PagesNs    int64 `json:"pages_ns" yaml:"pages_ns"`
		SectionsNs int64 `json:"sections_ns" yaml:"sections_ns"`
		TotalNs    int64 `json:"total_ns" yaml:"total_ns"`
	} `json:"processing" yaml:"processing"`
}

// PageDebug holds the assembled and corrected lines of one page.
type PageDebug struct {
	Number int      `json:"number" yaml:"number"`
	Tokens int      `json:"tokens" yaml:"tokens"`
	Lines  []string `json:"lines" yaml:"lines"`
}

// FailedChecks counts validation checks that did not pass.
func (r *Result) FailedChecks() int {
	return len(fields.Failed(r.Checks))
}
