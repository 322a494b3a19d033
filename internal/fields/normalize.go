package fields

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

var (
	ibanWord   = textutil.MustCompileWord(`KZ\d{20}`, false)
	bicWord    = textutil.MustCompileWord(`[A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?`, false)
	iinWord    = textutil.MustCompileWord(`\d{12}`, false)
	amountRe   = regexp.MustCompile(`\d+\.?\d*`)
	looseDate  = regexp.MustCompile(`(20\d{2})[-./](\d{1,2})[-./](\d{1,2})`)
	dateLayout = []string{"2006-1-2", "2.1.2006", "2/1/2006", "2006.1.2", "2-1-2006"}
)

// FixFields normalizes raw extracted fields. Fields that fail to normalize
// are dropped, as are empty values and unknown field names. The result is
// a fixed point: FixFields(FixFields(x)) equals FixFields(x).
func FixFields(raw map[string]string) FieldMap {
	out := make(FieldMap, len(raw))
	for k, v := range raw {
		if !IsKnown(k) {
			slog.Debug("Dropping unknown field", "field", k)
			continue
		}
		var ok bool
		switch k {
		case IBAN:
			v, ok = NormalizeIBAN(v)
		case BIC:
			v, ok = NormalizeBIC(v)
		case Amount:
			v, ok = NormalizeAmount(v)
		case Currency:
			v, ok = NormalizeCurrency(v)
		case Date:
			v, ok = NormalizeDate(v)
		case IINBIN:
			v, ok = NormalizeIINBIN(v)
		default:
			ok = v != ""
		}
		if ok && v != "" {
			out[k] = v
		}
	}
	return out
}

// NormalizeAmount strips spaces, turns a decimal comma into a period and
// returns the last numeric run.
func NormalizeAmount(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	m := amountRe.FindAllString(strings.ReplaceAll(stripSpaces(s), ",", "."), -1)
	if len(m) == 0 {
		return "", false
	}
	return m[len(m)-1], true
}

// NormalizeCurrency maps a currency symbol, word or code to an ISO code.
func NormalizeCurrency(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	u := textutil.Upper(s)
	if strings.Contains(u, "₸") || strings.Contains(u, "KZT") || strings.Contains(u, "ТЕНГЕ") {
		return "KZT", true
	}
	for _, c := range []string{"USD", "EUR", "RUB", "KZT"} {
		if strings.Contains(u, c) {
			return c, true
		}
	}
	return "", false
}

// NormalizeDate converts a date in one of the accepted layouts to YYYY-MM-DD.
// When no layout matches, a year-first date is searched for anywhere in s.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayout {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	m := looseDate.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
}

// NormalizeIBAN returns the Kazakh IBAN (KZ + 20 digits) found in s once spaces are removed.
func NormalizeIBAN(s string) (string, bool) {
	return ibanWord.FindString(strings.ReplaceAll(s, " ", ""))
}

// NormalizeBIC returns the SWIFT/BIC code found in s.
func NormalizeBIC(s string) (string, bool) {
	return bicWord.FindString(s)
}

// NormalizeIINBIN returns the 12-digit individual or business identification number found in s.
func NormalizeIINBIN(s string) (string, bool) {
	return iinWord.FindString(s)
}
