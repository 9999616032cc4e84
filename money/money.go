// Package money formats Brazilian real amounts the way the finance screens
// display and accept them.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a value in reais. It travels over the wire as a JSON number.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// FromCents converts an integer number of centavos.
func FromCents(cents int64) Amount {
	return Amount{Decimal: decimal.New(cents, -2)}
}

// ParseAmount accepts "1234.56" or "1.234,56".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

// Cents rounds to whole centavos.
func (a Amount) Cents() int64 {
	return a.Shift(2).Round(0).IntPart()
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Sub(b.Decimal)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// FormatBRL renders a currency string such as "R$ 1.234,56".
func FormatBRL(a Amount) string {
	sign := ""
	if a.IsNegative() {
		sign = "-"
	}
	fixed := a.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "R$ " + groupThousands(whole) + "," + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatCents renders centavos as "123,45". Zero renders as an empty string so
// an untouched input stays blank.
func FormatCents(cents int64) string {
	if cents == 0 {
		return ""
	}
	return commaDecimal(decimal.New(cents, -2))
}

// ParseCents keeps only the digits of s and reads them as centavos.
func ParseCents(s string) int64 {
	digits := onlyDigits(s)
	if digits == "" {
		return 0
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return 0
	}
	return d.IntPart()
}

// FormatInput reformats free typing bank-style: every digit shifts in from the
// right, so "1", "12", "123" become "0,01", "0,12", "1,23".
func FormatInput(s string) string {
	return formatDigits(onlyDigits(s))
}

// RemoveLastDigit drops the rightmost digit, as backspace does in an amount
// field. Removing the only digit leaves the field empty.
func RemoveLastDigit(s string) string {
	digits := onlyDigits(s)
	if len(digits) <= 1 {
		return ""
	}
	return formatDigits(digits[:len(digits)-1])
}

func formatDigits(digits string) string {
	if digits == "" {
		return ""
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return ""
	}
	return commaDecimal(d.Shift(-2))
}

func commaDecimal(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
