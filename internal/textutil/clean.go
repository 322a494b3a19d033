// Package textutil holds Unicode-aware text helpers shared by the
// corrector, the heading classifier and the field normalizer.
package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls how raw OCR token text is cleaned on ingestion.
type CleanOptions struct {
	NormalizeForm      string            // "NFC" (default), "NFKC", "NFD", "NFKD", "none" to disable
	CollapseWhitespace bool              // collapse runs of whitespace to a single space
	Trim               bool              // trim leading/trailing whitespace
	RemoveControlChars bool              // remove non-printable control characters
	RemoveZeroWidth    bool              // remove zero-width spaces/joiners
	ReplaceMap         map[string]string // string replacements applied after normalization
	Language           string            // optional language tag ("ru", "kk", "en"); selects a default ReplaceMap
}

// DefaultCleanOptions returns the cleaning applied to every OCR token.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFC",
		CollapseWhitespace: true,
		Trim:               true,
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
	}
}

// Clean applies normalization and cleaning to OCR text.
func Clean(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}

	s = normalizeForm(s, opts.NormalizeForm)
	if opts.RemoveZeroWidth {
		s = removeZeroWidth(s)
	}
	if opts.RemoveControlChars {
		s = removeControlChars(s)
	}
	s = applyReplacements(s, opts)
	if opts.CollapseWhitespace {
		s = CollapseSpaces(s)
	}
	if opts.Trim {
		s = strings.TrimSpace(s)
	}
	return s
}

func normalizeForm(s, form string) string {
	switch strings.ToUpper(form) {
	case "NFC", "":
		return norm.NFC.String(s)
	case "NFKC":
		return norm.NFKC.String(s)
	case "NFD":
		return norm.NFD.String(s)
	case "NFKD":
		return norm.NFKD.String(s)
	}
	return s
}

func applyReplacements(s string, opts CleanOptions) string {
	m := opts.ReplaceMap
	if len(m) == 0 && opts.Language != "" {
		m = DefaultReplaceMapForLanguage(opts.Language)
	}
	if len(m) == 0 {
		return s
	}
	// Longer keys first so overlapping keys resolve deterministically.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		s = strings.ReplaceAll(s, k, m[k])
	}
	return s
}

// DefaultReplaceMapForLanguage returns typographic replacements for a language.
func DefaultReplaceMapForLanguage(lang string) map[string]string {
	m := map[string]string{
		"\u2018": "'",  // ‘
		"\u2019": "'",  // ’
		"\u201C": "\"", // “
		"\u201D": "\"", // ”
		"\u00A0": " ",  // non-breaking space
		"\u2009": " ",  // thin space
		"\u202F": " ",  // narrow non-breaking space
	}
	switch strings.ToLower(lang) {
	case "ru", "kk":
		m["\u00AB"] = "\"" // «
		m["\u00BB"] = "\"" // »
		m["\u201E"] = "\"" // „
	}
	return m
}

var wsRe = regexp.MustCompile(`[\s\p{Z}\x{85}]+`)

// CollapseSpaces replaces every run of Unicode whitespace with one space.
func CollapseSpaces(s string) string { return wsRe.ReplaceAllString(s, " ") }

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func removeZeroWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LooksLikeText reports whether s is mostly letters and digits with few
// control characters. Empty text counts as valid.
func LooksLikeText(s string) bool {
	var letters, controls, total int
	for _, r := range s {
		total++
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			letters++
		case unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t':
			controls++
		}
	}
	if total == 0 {
		return true
	}
	return float64(controls)/float64(total) < 0.05 && float64(letters)/float64(total) > 0.3
}
