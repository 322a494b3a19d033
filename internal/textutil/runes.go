package textutil

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upper returns s in upper case using full Unicode case mapping.
func Upper(s string) string {
	// Casers carry state, so one is created per call.
	return cases.Upper(language.Und).String(s)
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

// UpperRatio is the share of letters in s that are unchanged by upper-casing.
// Text without letters has ratio 0.
func UpperRatio(s string) float64 {
	var letters, upper int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.ToUpper(r) == r {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// IsUpper reports whether s has at least one cased letter and no lower-case or title-case letters.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// HasLetter reports whether s contains a letter.
func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// HasDigit reports whether s contains a decimal digit.
func HasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
