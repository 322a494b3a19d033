package fields

// Hints are candidate values found in the raw text. They are handed to
// whatever maps the text to raw fields.
type Hints struct {
	IBANCandidates []string `json:"iban_candidates" yaml:"iban_candidates"`
	BINCandidates  []string `json:"bin_candidates" yaml:"bin_candidates"`
}

// CollectHints gathers distinct IBAN and BIN candidates in order of appearance.
func CollectHints(text string) Hints {
	return Hints{
		IBANCandidates: unique(ibanInText.FindAllString(text)),
		BINCandidates:  unique(iinWord.FindAllString(text)),
	}
}

func unique(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
