package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// WordClass is a regexp class matching one Unicode word character.
// RE2 treats \w and \b as ASCII-only, so Cyrillic patterns spell it out.
const WordClass = `[\p{L}\p{N}_]`

const nonWordClass = `[^\p{L}\p{N}_]`

// WordPattern is a regexp that only matches on Unicode word boundaries,
// the way \bPATTERN\b behaves for Cyrillic text.
type WordPattern struct {
	re *regexp.Regexp
}

// CompileWord compiles pattern so that matches must start and end at word boundaries.
func CompileWord(pattern string, caseInsensitive bool) (*WordPattern, error) {
	flags := ""
	if caseInsensitive {
		flags = "(?i)"
	}
	re, err := regexp.Compile(flags + nonWordClass + "(" + pattern + ")" + nonWordClass)
	if err != nil {
		return nil, err
	}
	return &WordPattern{re: re}, nil
}

// MustCompileWord is like CompileWord but panics on an invalid pattern.
func MustCompileWord(pattern string, caseInsensitive bool) *WordPattern {
	w, err := CompileWord(pattern, caseInsensitive)
	if err != nil {
		panic("textutil: " + err.Error())
	}
	return w
}

// matches returns [start,end) byte offsets of every non-overlapping match in s.
func (w *WordPattern) matches(s string, limit int) [][2]int {
	// Pad with sentinels so the boundary classes can match at the edges.
	padded := " " + s + " "
	var out [][2]int
	pos := 0
	for pos < len(padded) && (limit < 0 || len(out) < limit) {
		loc := w.re.FindStringSubmatchIndex(padded[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		out = append(out, [2]int{start - 1, end - 1})
		// The trailing boundary character may lead the next match.
		next := end
		if end == start {
			_, size := utf8.DecodeRuneInString(padded[end:])
			next = end + max(size, 1)
		}
		pos = next
	}
	return out
}

// MatchString reports whether s contains a whole-word match.
func (w *WordPattern) MatchString(s string) bool {
	return len(w.matches(s, 1)) > 0
}

// FindString returns the first whole-word match.
func (w *WordPattern) FindString(s string) (string, bool) {
	m := w.matches(s, 1)
	if len(m) == 0 {
		return "", false
	}
	return s[m[0][0]:m[0][1]], true
}

// FindAllString returns every whole-word match in order.
func (w *WordPattern) FindAllString(s string) []string {
	m := w.matches(s, -1)
	out := make([]string, 0, len(m))
	for _, loc := range m {
		out = append(out, s[loc[0]:loc[1]])
	}
	return out
}

// ReplaceAllString replaces every whole-word match with the literal repl.
func (w *WordPattern) ReplaceAllString(s, repl string) string {
	m := w.matches(s, -1)
	if len(m) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range m {
		b.WriteString(s[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// IsWordRune reports whether r counts as a word character.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
