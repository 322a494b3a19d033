package pipeline

import "strings"

// Levenshtein returns the edit distance between a and b in runes.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// CER is the character error rate of hyp against the reference text.
func CER(hyp, ref string) float64 {
	return float64(Levenshtein(hyp, ref)) / float64(max(1, len([]rune(ref))))
}

// WordAccuracy is the share of reference words found in hyp, case-insensitive.
func WordAccuracy(hyp, ref string) float64 {
	hw := strings.Fields(strings.ToLower(hyp))
	rw := strings.Fields(strings.ToLower(ref))
	if len(rw) == 0 {
		if len(hw) == 0 {
			return 1
		}
		return 0
	}
	set := make(map[string]int, len(hw))
	for _, w := range hw {
		set[w]++
	}
	matched := 0
	for _, w := range rw {
		if set[w] > 0 {
			matched++
			set[w]--
		}
	}
	return float64(matched) / float64(len(rw))
}
