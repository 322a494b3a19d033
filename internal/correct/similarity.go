package correct

import (
	"github.com/MeKo-Tech/docstruct/internal/textutil"
	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the sequence-matching ratio 2*M/T of a and b compared
// case-insensitively, where M is the number of matched runes and T the
// total rune count. Two empty strings are identical.
func Similarity(a, b string) float64 {
	return ratio(runeStrings(textutil.Upper(a)), runeStrings(textutil.Upper(b)))
}

func ratio(a, b []string) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}
	return difflib.NewMatcher(a, b).Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Closest returns the candidate most similar to s when that similarity is
// at least cutoff. Ties keep the earliest candidate.
func Closest(s string, candidates []string, cutoff float64) (string, bool) {
	us := runeStrings(textutil.Upper(s))
	best, bestRatio := "", 0.0
	for _, c := range candidates {
		if r := ratio(us, runeStrings(textutil.Upper(c))); r > bestRatio {
			best, bestRatio = c, r
		}
	}
	if best == "" || bestRatio < cutoff {
		return "", false
	}
	return best, true
}
