// Package core provides amount parsing and formatting utilities.
//
// Amounts arrive from spreadsheets in many shapes: "1,234.50", "-12,5",
// "$ 40", "(12.00)". ParseAmount accepts these and keeps the sign.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Hundred is the decimal constant 100, used for percentage math.
func Hundred() decimal.Decimal {
	return hundred
}

// ParseAmount converts a spreadsheet cell to a signed decimal.
//
// Examples:
//   ParseAmount("1,234.50") -> 1234.50
//   ParseAmount("1,500")    -> 1500
//   ParseAmount("-12,5")    -> -12.5
//   ParseAmount("$ 40")     -> 40
//   ParseAmount("(12.00)")  -> -12
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], strings.TrimSpace(s[1:])
	}
	s = strings.TrimSpace(strings.TrimLeft(s, "$€£"))
	if sign == "" && (strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+")) {
		sign, s = s[:1], strings.TrimSpace(s[1:])
	}

	if strings.Contains(s, ",") {
		var ok bool
		if s, ok = normalizeCommas(s); !ok {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	if s == "" || strings.ContainsAny(s, " eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	if sign == "-" {
		s = sign + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeCommas resolves commas in s to plain decimal notation. Commas
// are thousands separators when every group after the first has exactly
// three digits; a single comma followed by one or two digits is a decimal
// point. Any other placement is ambiguous and rejected.
func normalizeCommas(s string) (string, bool) {
	intPart, frac, hasDot := strings.Cut(s, ".")
	groups := strings.Split(intPart, ",")

	if !hasDot && len(groups) == 2 {
		if n := len(groups[1]); n >= 1 && n <= 2 && groups[0] != "" {
			return groups[0] + "." + groups[1], true
		}
	}

	if g := len(groups[0]); g < 1 || g > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	out := strings.Join(groups, "")
	if hasDot {
		out += "." + frac
	}
	return out, true
}

// FormatMoney renders an amount with thousands separators and two decimals,
// e.g. 1234.5 -> "1,234.50".
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
