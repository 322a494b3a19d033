// Package source loads OCR token dumps and born-digital PDFs into pages
// of positioned tokens.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/pdf"
	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// ErrUnsupportedInput is returned for files and payloads that are neither
// an OCR JSON dump nor a PDF.
var ErrUnsupportedInput = errors.New("unsupported input")

// SupportedExtensions lists the file extensions LoadFile accepts.
var SupportedExtensions = []string{".json", ".pdf"}

const (
	// DefaultMinConfidence is the confidence below which short tokens are dropped.
	DefaultMinConfidence = 0.6
	// ShortTokenRunes is the length below which a token counts as short.
	ShortTokenRunes = 3
)

// Page is one page of tokens. Width and Height are zero when unknown.
type Page struct {
	Number int            `json:"number"`
	Width  int            `json:"width,omitempty"`
	Height int            `json:"height,omitempty"`
	Tokens []layout.Token `json:"tokens"`
}

// Document is a decoded input document.
type Document struct {
	ID      string            `json:"id"`
	Path    string            `json:"path,omitempty"`
	DocType string            `json:"doc_type,omitempty"`
	Pages   []Page            `json:"pages"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// TokenPages returns the tokens of every page.
func (d *Document) TokenPages() [][]layout.Token {
	out := make([][]layout.Token, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Tokens
	}
	return out
}

// TokenCount returns the number of tokens across all pages.
func (d *Document) TokenCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Tokens)
	}
	return n
}

// Options controls decoding.
type Options struct {
	// MinConfidence drops tokens that carry a confidence below it and are
	// shorter than ShortTokenRunes. Zero disables the filter.
	MinConfidence float64
	Clean         textutil.CleanOptions
	// PageRange selects PDF pages ("1-3,5"); empty means all.
	PageRange string
	// PDFScale maps PDF points to pixels.
	PDFScale float64
	// PDFCredentials open password protected PDFs.
	PDFCredentials pdf.Credentials
}

// DefaultOptions returns the decoding defaults.
func DefaultOptions() Options {
	return Options{
		MinConfidence: DefaultMinConfidence,
		Clean:         textutil.DefaultCleanOptions(),
		PDFScale:      pdf.DefaultScale,
	}
}

// IsSupported reports whether path has a supported extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile reads an OCR JSON dump or the text layer of a PDF.
func LoadFile(path string, opts Options) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, rerr := os.ReadFile(path) //nolint:gosec // G304: reading user-provided input file is expected
		if rerr != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, rerr)
		}
		doc, err = decode(data, opts)
	case ".pdf":
		doc, err = loadPDF(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", path, err)
	}
	doc.Path = path
	if doc.ID == "" {
		doc.ID = DocumentID(filepath.Base(path))
	}
	return doc, nil
}

func loadPDF(path string, opts Options) (*Document, error) {
	plain, cleanup, err := pdf.Decrypt(path, opts.PDFCredentials)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pages, err := pdf.NewTextExtractor(opts.PDFScale).ExtractTokens(plain, opts.PageRange)
	if err != nil {
		return nil, err
	}
	doc := &Document{Pages: make([]Page, 0, len(pages))}
	for _, p := range pages {
		doc.Pages = append(doc.Pages, Page{
			Number: p.Number,
			Width:  p.Width,
			Height: p.Height,
			Tokens: filterTokens(p.Tokens, opts),
		})
	}
	return doc, nil
}

// DocumentID derives a stable identifier from a name or payload.
func DocumentID(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
