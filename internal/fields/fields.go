// Package fields normalizes and validates key fields extracted from
// banking and invoice documents.
package fields

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field names of a FieldMap.
const (
	Amount    = "amount"
	Currency  = "currency"
	Date      = "date"
	IBAN      = "iban"
	BIC       = "bic"
	IINBIN    = "iin_bin"
	InvoiceNo = "invoice_no"
	Payer     = "payer"
	Receiver  = "receiver"
)

// Names lists every field a FieldMap may carry, in output order.
var Names = []string{Amount, Currency, Date, IBAN, BIC, IINBIN, InvoiceNo, Payer, Receiver}

// IsKnown reports whether name is one of Names.
func IsKnown(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// FieldMap maps a field name to its value. Absent fields have no key.
type FieldMap map[string]string

// Get returns the value of a field, or "" when absent.
func (m FieldMap) Get(name string) string { return m[name] }

// Clone returns a copy of m.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FromAny converts decoded JSON values into raw string fields. Numbers are
// formatted without exponent, strings are kept as-is, other types are dropped.
// A json.Number keeps its literal text.
func FromAny(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		}
	}
	return out
}

// ValidationCheck is the outcome of one validation rule.
type ValidationCheck struct {
	Rule    string `json:"rule" yaml:"rule"`
	OK      bool   `json:"ok" yaml:"ok"`
	Details string `json:"details" yaml:"details"`
}

// Failed returns the checks that did not pass.
func Failed(checks []ValidationCheck) []ValidationCheck {
	var out []ValidationCheck
	for _, c := range checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

func stripSpaces(s string) string {
	return strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
}
