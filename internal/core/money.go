// Package core holds the ledger domain: money parsing and formatting,
// period resolution and the receipt acceptance policy.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountCents converts a user-entered decimal string to cents.
//
// Comma and dot are interchangeable as the decimal separator. Amounts are
// entered as unsigned magnitudes, so any leading sign is rejected. At most
// two fractional digits are accepted; a shorter fraction is padded with
// zeros. There is no rounding: a third fractional digit is an error.
//
// Examples:
//
//	ParseAmountCents("12.5")  -> 1250, nil
//	ParseAmountCents("12,50") -> 1250, nil
//	ParseAmountCents("12")    -> 1200, nil
//	ParseAmountCents("1.234") -> 0, ErrInvalidAmount
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	for _, r := range whole {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range frac {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	wv, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxWhole = (1<<63 - 1) / 100
	if wv > maxWhole {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	fv, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return wv*100 + fv, nil
}

// FormatCents renders cents as a decimal string with a sign prefix only for
// negative values and exactly two fractional digits: -150 -> "-1.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(strconv.FormatInt(whole, 10))
	b.WriteByte('.')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}
