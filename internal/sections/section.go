// Package sections turns assembled OCR lines into a flat list of
// hierarchical sections with paragraphs.
package sections

// Section is a titled, leveled region of document content. Nesting is
// implied by Level and the order of records.
type Section struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Level      int      `json:"level" yaml:"level"`
	Numbering  string   `json:"numbering,omitempty" yaml:"numbering,omitempty"`
	Content    string   `json:"content" yaml:"content"`
	Paragraphs []string `json:"paragraphs" yaml:"paragraphs"`
	PageFrom   int      `json:"page_from" yaml:"page_from"`
	PageTo     int      `json:"page_to" yaml:"page_to"`
}

// ParagraphScope selects which lines feed the paragraph splitter.
type ParagraphScope string

const (
	// ScopePageSpan re-derives paragraphs from every line on the pages the section spans.
	ScopePageSpan ParagraphScope = "page-span"
	// ScopeSection uses only the body lines assigned to the section.
	ScopeSection ParagraphScope = "section"
)

// Options configures section building.
type Options struct {
	Heading            HeadingOptions `mapstructure:"heading" yaml:"heading" json:"heading"`
	ParagraphGapFactor float64        `mapstructure:"paragraph_gap_factor" yaml:"paragraph_gap_factor" json:"paragraph_gap_factor"`
	MinContentLength   int            `mapstructure:"min_content_length" yaml:"min_content_length" json:"min_content_length"`
	ParagraphScope     ParagraphScope `mapstructure:"paragraph_scope" yaml:"paragraph_scope" json:"paragraph_scope"`
}

// DefaultOptions returns the default section building options.
func DefaultOptions() Options {
	return Options{
		Heading:            DefaultHeadingOptions(),
		ParagraphGapFactor: DefaultParagraphGapFactor,
		MinContentLength:   0,
		ParagraphScope:     ScopePageSpan,
	}
}
