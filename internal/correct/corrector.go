// Package correct repairs common OCR confusions in Cyrillic business text.
package correct

import (
	"regexp"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// Corrector rewrites OCR text. The zero value applies only the
// character-level and canonical-spelling stages.
type Corrector struct {
	// EnableHeadings snaps whole lines to known heading phrases.
	EnableHeadings bool
	// EnableTerms snaps suspicious tokens to known domain terms.
	EnableTerms bool
}

// New returns a Corrector with every stage enabled.
func New() *Corrector {
	return &Corrector{EnableHeadings: true, EnableTerms: true}
}

// FixText corrects a token or a full line.
func (c *Corrector) FixText(s string) string {
	if s == "" {
		return s
	}
	t := fixLatinAndDigits(s)
	t = applyCanonRules(t)
	if c.EnableHeadings {
		t = fixHeadingLike(t)
	}
	if c.EnableTerms {
		t = fixTermsInLine(t)
	}
	return t
}

// CorrectItems returns copies of tokens with corrected text. Boxes and
// confidences are carried over unchanged.
func (c *Corrector) CorrectItems(tokens []layout.Token) []layout.Token {
	out := make([]layout.Token, len(tokens))
	for i, t := range tokens {
		out[i] = t.WithText(c.FixText(t.Text))
	}
	return out
}

// CorrectLines returns copies of lines with corrected text.
func (c *Corrector) CorrectLines(lines []layout.Line) []layout.Line {
	out := make([]layout.Line, len(lines))
	for i, l := range lines {
		l.Text = c.FixText(l.Text)
		out[i] = l
	}
	return out
}

// FixEachLine corrects every newline-separated line of text on its own.
func (c *Corrector) FixEachLine(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = c.FixText(l)
	}
	return strings.Join(lines, "\n")
}

// CorrectRecords corrects loosely typed OCR items. Each item is copied;
// a string "text" value is rewritten and every other key is kept as is.
func (c *Corrector) CorrectRecords(items []map[string]any) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, it := range items {
		cp := make(map[string]any, len(it))
		for k, v := range it {
			cp[k] = v
		}
		if text, ok := cp["text"].(string); ok {
			cp["text"] = c.FixText(text)
		}
		out[i] = cp
	}
	return out
}

func fixHeadingLike(line string) string {
	if p, ok := Closest(line, Phrases, PhraseCutoff); ok {
		return p
	}
	return line
}

func fixTermsInLine(line string) string {
	tokens := tokenRe.FindAllString(line, -1)
	if len(tokens) == 0 {
		return line
	}
	// Replacements are applied in first-seen order of the source token.
	type repl struct{ src, dst string }
	var replaced []repl
	seen := make(map[string]int)
	for _, tok := range tokens {
		if !suspiciousToken(tok) {
			continue
		}
		near, ok := Closest(tok, Terms, TermCutoff)
		if !ok {
			continue
		}
		if i, dup := seen[tok]; dup {
			replaced[i].dst = near
			continue
		}
		seen[tok] = len(replaced)
		replaced = append(replaced, repl{src: tok, dst: near})
	}
	out := line
	for _, r := range replaced {
		out = textutil.MustCompileWord(regexp.QuoteMeta(r.src), false).ReplaceAllString(out, r.dst)
	}
	return out
}
