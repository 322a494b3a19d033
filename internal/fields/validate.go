package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/textutil"
)

// Rule names reported by ValidateFields.
const (
	RuleIBANFormat          = "iban_format"
	RuleIBANPresentInText   = "iban_present_in_text"
	RuleBICFormat           = "bic_format"
	RuleDateISO             = "date_iso_yyyy_mm_dd"
	RuleCurrencyISO         = "currency_iso"
	RuleAmountNumeric       = "amount_numeric"
	RuleCurrencyConsistency = "currency_symbol_consistency"
)

// Currencies accepted by the currency_iso rule.
var Currencies = []string{"KZT", "USD", "EUR", "RUB"}

var (
	ibanFull    = regexp.MustCompile(`(?i)^KZ\d{20}$`)
	bicFull     = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?$`)
	ibanInText  = textutil.MustCompileWord(`KZ\d{20}`, true)
	tengeSymbol = "₸"
)

// ValidateFields runs the field rules against fields and the raw document text.
// Checks come back in a fixed order: IBAN, BIC (only when present), date,
// currency, amount and the tenge symbol consistency check.
func ValidateFields(fields FieldMap, rawText string) []ValidationCheck {
	var checks []ValidationCheck

	if iban := fields[IBAN]; iban != "" {
		checks = append(checks, ValidationCheck{
			Rule:    RuleIBANFormat,
			OK:      ibanFull.MatchString(iban),
			Details: "iban=" + iban,
		})
	} else {
		candidate, found := ibanInText.FindString(rawText)
		checks = append(checks, ValidationCheck{
			Rule:    RuleIBANPresentInText,
			OK:      found,
			Details: "candidate=" + candidate,
		})
	}

	if bic := fields[BIC]; bic != "" {
		checks = append(checks, ValidationCheck{
			Rule:    RuleBICFormat,
			OK:      bicFull.MatchString(bic),
			Details: "bic=" + bic,
		})
	}

	date := fields[Date]
	checks = append(checks, ValidationCheck{
		Rule:    RuleDateISO,
		OK:      isISODate(date),
		Details: "date=" + date,
	})

	currency := strings.ToUpper(fields[Currency])
	checks = append(checks, ValidationCheck{
		Rule:    RuleCurrencyISO,
		OK:      isWhitelisted(currency),
		Details: "currency=" + currency,
	})

	amount := fields[Amount]
	checks = append(checks, ValidationCheck{
		Rule:    RuleAmountNumeric,
		OK:      isNumeric(amount),
		Details: "amount=" + amount,
	})

	consistency := ValidationCheck{Rule: RuleCurrencyConsistency, OK: true}
	if strings.Contains(rawText, tengeSymbol) && currency != "" && currency != "KZT" {
		consistency.OK = false
		consistency.Details = "Text contains '₸' but currency!=KZT"
	}
	checks = append(checks, consistency)

	return checks
}

func isISODate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse("2006-1-2", s)
	return err == nil
}

func isWhitelisted(currency string) bool {
	for _, c := range Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
