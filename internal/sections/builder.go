package sections

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// firstLineGap is the gap assigned to the first line of a page.
const firstLineGap = 9999.0

type openSection struct {
	Section
	order int
	body  strings.Builder
	lines []layout.Line
}

// Builder is the section state machine. It owns the stack of open
// sections, one per active level, and the list of finalized sections.
// Feed it pages in order with StartPage, AddLine and EndPage, then call Finish.
type Builder struct {
	opts   Options
	median float64

	stack     []*openSection
	finalized []*openSection
	pageLines [][]layout.Line

	page     int
	pageOpen bool
	prev     *layout.Line
	nextID   int
}

// NewBuilder creates a builder for a document whose median line height is median.
func NewBuilder(median float64, opts Options) *Builder {
	if opts.ParagraphGapFactor <= 0 {
		opts.ParagraphGapFactor = DefaultParagraphGapFactor
	}
	if opts.ParagraphScope == "" {
		opts.ParagraphScope = ScopePageSpan
	}
	return &Builder{opts: opts, median: median, nextID: 1}
}

// StartPage begins page n (1-based). An unfinished previous page is ended first.
func (b *Builder) StartPage(n int) {
	n = max(n, 1)
	if b.pageOpen {
		b.EndPage()
	}
	b.page = n
	b.pageOpen = true
	b.prev = nil
	for len(b.pageLines) < n {
		b.pageLines = append(b.pageLines, nil)
	}
}

// AddLine classifies a line of the current page and applies it: headings
// close open sections of the same or deeper level and open a new one,
// body lines are appended to the innermost open section.
func (b *Builder) AddLine(line layout.Line) Heading {
	if !b.pageOpen {
		b.StartPage(b.page + 1)
	}
	gap := firstLineGap
	if b.prev != nil {
		gap = math.Max(0, float64(line.YTop-b.prev.Bottom()))
	}
	prev := line
	b.prev = &prev
	b.pageLines[b.page-1] = append(b.pageLines[b.page-1], line)

	h := b.opts.Heading.Classify(line.Text, float64(line.Height), b.median, gap)
	if h.IsHeading {
		b.openHeading(line, h)
		return h
	}
	if top := b.top(); top != nil {
		top.body.WriteString(line.Text)
		top.body.WriteByte('\n')
		top.lines = append(top.lines, line)
	}
	return h
}

// EndPage stamps the current page on every open section.
func (b *Builder) EndPage() {
	for _, s := range b.stack {
		s.PageTo = b.page
	}
	b.pageOpen = false
	b.prev = nil
}

// Finalized returns the number of sections closed so far.
func (b *Builder) Finalized() int { return len(b.finalized) }

// OpenLevels returns the levels of the open sections, outermost first.
func (b *Builder) OpenLevels() []int {
	out := make([]int, len(b.stack))
	for i, s := range b.stack {
		out[i] = s.Level
	}
	return out
}

// Finish closes every open section and returns all sections in reading
// order with paragraphs filled in. The builder must not be reused.
func (b *Builder) Finish() []Section {
	if b.pageOpen {
		b.EndPage()
	}
	for len(b.stack) > 0 {
		b.pop()
	}

	sort.SliceStable(b.finalized, func(i, j int) bool {
		return b.finalized[i].order < b.finalized[j].order
	})

	out := make([]Section, 0, len(b.finalized))
	for _, s := range b.finalized {
		sec := s.Section
		sec.Content = strings.TrimRightFunc(s.body.String(), unicode.IsSpace)
		sec.Paragraphs = SplitParagraphs(b.paragraphLines(s), b.median, b.opts.ParagraphGapFactor)
		if sec.Paragraphs == nil {
			sec.Paragraphs = []string{}
		}
		out = append(out, sec)
	}
	return out
}

func (b *Builder) paragraphLines(s *openSection) []layout.Line {
	if b.opts.ParagraphScope == ScopeSection {
		return s.lines
	}
	var lines []layout.Line
	for p := s.PageFrom; p <= s.PageTo && p <= len(b.pageLines); p++ {
		lines = append(lines, b.pageLines[p-1]...)
	}
	return lines
}

func (b *Builder) openHeading(line layout.Line, h Heading) {
	b.closeToLevel(h.Level)

	id := h.Numbering
	if id == "" {
		id = strconv.Itoa(b.nextID)
	}
	s := &openSection{
		Section: Section{
			ID:        id,
			Title:     line.Text,
			Level:     h.Level,
			Numbering: h.Numbering,
			PageFrom:  b.page,
			PageTo:    b.page,
		},
		order: b.nextID,
	}
	b.nextID++
	b.stack = append(b.stack, s)
}

// closeToLevel pops every open section whose level is at least level.
func (b *Builder) closeToLevel(level int) {
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].Level >= level {
		b.stack[len(b.stack)-1].PageTo = b.page
		b.pop()
	}
}

func (b *Builder) pop() {
	s := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if textutil.RuneLen(strings.TrimSpace(s.body.String())) >= b.opts.MinContentLength || s.Title != "" {
		b.finalized = append(b.finalized, s)
	}
}

func (b *Builder) top() *openSection {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}
