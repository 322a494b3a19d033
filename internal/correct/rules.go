package correct

import (
	"regexp"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// latinToCyrillic maps Latin letters to their Cyrillic look-alikes.
var latinToCyrillic = strings.NewReplacer(
	"A", "А", "B", "В", "C", "С", "E", "Е", "H", "Н", "K", "К", "M", "М",
	"O", "О", "P", "Р", "T", "Т", "X", "Х", "Y", "У",
	"a", "а", "c", "с", "e", "е", "o", "о", "p", "р", "x", "х", "y", "у",
)

// digitToCyrillic maps digits inside words to the letters OCR mistook them for.
var digitToCyrillic = map[rune]rune{'0': 'О', '1': 'І', '3': 'З'}

var (
	dashRe  = regexp.MustCompile(`[–—−]+`)
	tokenRe = regexp.MustCompile(`[A-Za-zА-Яа-яЁё0-9\-]+`)
	latinRe = regexp.MustCompile(`[A-Za-z]`)
	cyrRe   = regexp.MustCompile(`[А-Яа-яЁё]`)
)

// canonRule rewrites a known OCR misspelling to its canonical form.
type canonRule struct {
	pattern *textutil.WordPattern
	repl    string
}

func canon(pattern, repl string) canonRule {
	return canonRule{pattern: textutil.MustCompileWord(pattern, true), repl: repl}
}

const word = textutil.WordClass

// canonRules are applied in order, case-insensitively, on whole words.
var canonRules = []canonRule{
	canon(`родавец`, "Продавец"),
	canon(`родавцом`, "Продавцом"),
	canon(`родавцу`, "Продавцу"),
	canon(`родавец[а-я]*`, "Продавец"),

	canon(`оку[пп]ател[ьяею]?`, "Покупатель"),
	canon(`покупател[ьяею]?`, "Покупатель"),

	canon(`Р[еэ]спублика`, "Республика"),
	canon(`Беларус[ьъ]`, "Беларусь"),
	canon(`Казахста[нпm]`, "Казахстан"),

	canon(`Инкотерм[сc]\s*2010`, "Инкотермс 2010"),
	canon(`Инкотерм[сc]`, "Инкотермс"),

	canon(`товар[оа]сопров[оа]дител[ьн]`+word+`*`, "товаросопроводительный"),
	canon(`железнодоро`+word+`+`, "железнодорожная"),

	canon(`деклар[ао]ц[иi]я`, "декларация"),
	canon(`происхожден[иie]я`, "происхождения"),

	canon(`счет[- ]?факт[уy]р[ао]`, "счет-фактура"),
	canon(`корректировочн`+word+`*`, "корректировочный"),

	canon(`качес?тв[ао]`, "качества"),
}

// fixLatinAndDigits maps look-alike Latin letters to Cyrillic, normalizes
// dashes and whitespace, and replaces look-alike digits inside mixed
// letter/digit tokens.
func fixLatinAndDigits(s string) string {
	s = latinToCyrillic.Replace(s)
	s = dashRe.ReplaceAllString(s, "-")
	s = strings.TrimSpace(textutil.CollapseSpaces(s))
	return tokenRe.ReplaceAllStringFunc(s, fixDigitsInWord)
}

func fixDigitsInWord(token string) string {
	if !textutil.HasDigit(token) || !textutil.HasLetter(token) {
		return token
	}
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if c, ok := digitToCyrillic[r]; ok {
			r = c
		}
		b.WriteRune(r)
	}
	return b.String()
}

func applyCanonRules(s string) string {
	for _, r := range canonRules {
		s = r.pattern.ReplaceAllString(s, r.repl)
	}
	return s
}

// suspiciousToken reports whether a token looks like an OCR artefact worth
// snapping to a dictionary term.
func suspiciousToken(tok string) bool {
	mixed := latinRe.MatchString(tok) && cyrRe.MatchString(tok)
	digitInWord := textutil.HasDigit(tok) && textutil.HasLetter(tok)
	return mixed || digitInWord || textutil.IsUpper(tok)
}
