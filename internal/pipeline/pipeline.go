// Package pipeline turns a decoded OCR document into structured output:
// corrected lines, sections, normalized fields and validation checks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/correct"
	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/sections"
	"github.com/MeKo-Tech/docstruct/internal/source"
)

// Config holds configuration for the structuring pipeline and its components.
type Config struct {
	Assembler      layout.AssemblerOptions
	Sections       sections.Options
	EnableHeadings bool // snap lines to known heading phrases
	EnableTerms    bool // snap suspicious tokens to known terms
	DocType        string
	IncludeDebug   bool

	Parallel ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Assembler:      layout.DefaultAssemblerOptions(),
		Sections:       sections.DefaultOptions(),
		EnableHeadings: true,
		EnableTerms:    true,
		IncludeDebug:   true,
		Parallel:       DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithWorkers sets the number of page workers.
func (b *Builder) WithWorkers(n int) *Builder {
	b.cfg.Parallel.MaxWorkers = n
	return b
}

// WithProgress sets the page progress callback.
func (b *Builder) WithProgress(cb ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = cb
	return b
}

// WithCorrection toggles the heading phrase and term correction stages.
func (b *Builder) WithCorrection(headings, terms bool) *Builder {
	b.cfg.EnableHeadings = headings
	b.cfg.EnableTerms = terms
	return b
}

// WithSections sets section building options.
func (b *Builder) WithSections(opts sections.Options) *Builder {
	b.cfg.Sections = opts
	return b
}

// WithParagraphScope selects the lines paragraphs are derived from.
func (b *Builder) WithParagraphScope(scope sections.ParagraphScope) *Builder {
	b.cfg.Sections.ParagraphScope = scope
	return b
}

// WithDocType forces the document type of every result.
func (b *Builder) WithDocType(docType string) *Builder {
	b.cfg.DocType = docType
	return b
}

// WithDebug toggles debug output in results.
func (b *Builder) WithDebug(enabled bool) *Builder {
	b.cfg.IncludeDebug = enabled
	return b
}

// Build validates the configuration and returns a Pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	return New(b.cfg)
}

// Pipeline structures documents. It is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	corrector *correct.Corrector
}

// New creates a Pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Assembler.ToleranceFactor <= 0 {
		return nil, fmt.Errorf("tolerance factor must be positive, got %v", cfg.Assembler.ToleranceFactor)
	}
	if cfg.Sections.ParagraphGapFactor <= 0 {
		return nil, fmt.Errorf("paragraph gap factor must be positive, got %v", cfg.Sections.ParagraphGapFactor)
	}
	switch cfg.Sections.ParagraphScope {
	case "":
		cfg.Sections.ParagraphScope = sections.ScopePageSpan
	case sections.ScopePageSpan, sections.ScopeSection:
	default:
		return nil, fmt.Errorf("unknown paragraph scope %q", cfg.Sections.ParagraphScope)
	}
	return &Pipeline{
		cfg:       cfg,
		corrector: &correct.Corrector{EnableHeadings: cfg.EnableHeadings, EnableTerms: cfg.EnableTerms},
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Corrector returns the text corrector used for lines.
func (p *Pipeline) Corrector() *correct.Corrector { return p.corrector }

type pageOutput struct {
	lines   []layout.Line
	rawText string
	confSum float64
	tokens  int
	debug   PageDebug
}

// Process structures one document.
func (p *Pipeline) Process(ctx context.Context, doc *source.Document) (*Result, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	start := time.Now()

	outputs, err := runOrdered(ctx, doc.Pages, p.cfg.Parallel, p.processPage)
	if err != nil {
		return nil, fmt.Errorf("processing pages: %w", err)
	}
	pagesDone := time.Now()

	pageLines := make([][]layout.Line, len(outputs))
	texts := make([]string, 0, len(outputs))
	var confSum float64
	var tokens int
	for i, out := range outputs {
		pageLines[i] = out.lines
		if out.rawText != "" {
			texts = append(texts, out.rawText)
		}
		confSum += out.confSum
		tokens += out.tokens
	}
	rawText := strings.Join(texts, "\n")

	secs := sections.BuildFromLines(pageLines, p.cfg.Sections)
	sectionsDone := time.Now()

	fixed := fields.FixFields(doc.Fields)
	res := &Result{
		ID:      doc.ID,
		DocType: p.docType(doc),
		Meta: Meta{
			Pages:  len(doc.Pages),
			Lang:   DefaultLang,
			Source: doc.Path,
		},
		Fields:    fixed,
		Checks:    fields.ValidateFields(fixed, rawText),
		Sections:  secs,
		LineItems: []LineItem{},
		Hints:     fields.CollectHints(rawText),
	}
	if tokens > 0 {
		res.Meta.Confidence = confSum / float64(tokens)
	}
	if res.Sections == nil {
		res.Sections = []sections.Section{}
	}

	if p.cfg.IncludeDebug {
		res.Debug = &Debug{Text: rawText, Pages: make([]PageDebug, len(outputs))}
		for i, out := range outputs {
			res.Debug.Pages[i] = out.debug
		}
		res.Debug.Processing.PagesNs = pagesDone.Sub(start).Nanoseconds()
		res.Debug.Processing.SectionsNs = sectionsDone.Sub(pagesDone).Nanoseconds()
		res.Debug.Processing.TotalNs = time.Since(start).Nanoseconds()
	}

	slog.Debug("Structured document",
		"id", res.ID,
		"pages", res.Meta.Pages,
		"tokens", tokens,
		"sections", len(res.Sections),
		"failed_checks", res.FailedChecks(),
		"duration", time.Since(start))
	return res, nil
}

// ProcessFile loads a file with the given source options and structures it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, opts source.Options) (*Result, error) {
	doc, err := source.LoadFile(path, opts)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, doc)
}

func (p *Pipeline) processPage(_ context.Context, page source.Page) pageOutput {
	lines := p.corrector.CorrectLines(layout.AssembleLinesWith(page.Tokens, p.cfg.Assembler))

	out := pageOutput{
		lines:  lines,
		tokens: len(page.Tokens),
		debug:  PageDebug{Number: page.Number, Tokens: len(page.Tokens), Lines: make([]string, len(lines))},
	}
	words := make([]string, 0, len(page.Tokens))
	for _, t := range page.Tokens {
		out.confSum += t.Confidence
		if t.Text != "" {
			words = append(words, t.Text)
		}
	}
	out.rawText = strings.Join(words, " ")
	for i, l := range lines {
		out.debug.Lines[i] = l.Text
	}
	return out
}

func (p *Pipeline) docType(doc *source.Document) string {
	switch {
	case p.cfg.DocType != "":
		return p.cfg.DocType
	case doc.DocType != "":
		return doc.DocType
	}
	return DefaultDocType
}
