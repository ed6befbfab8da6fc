package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ─── Amount ─────────────────────────────────────────────────────────────────

// Amount is a currency-agnostic money value.
//
// The persisted format is loose: records written by the original UI carry
// amounts both as JSON numbers (500) and as strings ("500"), and imported
// backups may carry anything. Decoding accepts both forms; uncoercible
// input decodes as zero rather than failing the whole document. Marshaling
// always emits a bare number.
type Amount struct {
	dec decimal.Decimal
}

// AmountFromInt returns an Amount for a whole number of currency units.
func AmountFromInt(n int64) Amount { return Amount{dec: decimal.NewFromInt(n)} }

// ParseAmount parses a decimal string into an Amount.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, err
	}
	return Amount{dec: d}, nil
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.dec }

// Sign returns -1, 0 or 1.
func (a Amount) Sign() int { return a.dec.Sign() }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{dec: a.dec.Sub(b.dec)} }

// Equal reports value equality (500 == 500.00).
func (a Amount) Equal(b Amount) bool { return a.dec.Equal(b.dec) }

// String formats the plain decimal value, e.g. "1000" or "99.5".
func (a Amount) String() string { return a.dec.String() }

var groupedPrinter = message.NewPrinter(language.SimplifiedChinese)

// Grouped formats the value with locale thousands separators, e.g. "1,000".
// Equivalent of Number.toLocaleString in the original templates.
func (a Amount) Grouped() string {
	f, _ := a.dec.Float64()
	return groupedPrinter.Sprintf("%v", number.Decimal(f))
}

// MarshalJSON emits the value as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.dec.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
// Anything else decodes as zero (documented restore limitation: individual
// record fields are taken as-is, not validated).
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		a.dec = decimal.Zero
		return nil
	}
	if s[0] == '"' {
		var q string
		if err := json.Unmarshal(b, &q); err != nil {
			a.dec = decimal.Zero
			return nil
		}
		s = strings.TrimSpace(q)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		a.dec = decimal.Zero
		return nil
	}
	a.dec = d
	return nil
}
