package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor units (cents). Amounts are never floats in
// storage or arithmetic; only the JSON form is decimal.
type Money int64

// ParseMoney converts a decimal string to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted and the third
// fractional digit is rounded half-up. A leading minus sign is parsed so that
// callers can reject non-positive amounts with a precise message; anything
// that is not a plain decimal number fails.
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12,346") -> 1235
//	ParseMoney("-5")     -> -500
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, Invalid("amount", "amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errNotNumeric
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, errNotNumeric
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, errNotNumeric
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	const maxUnits = (1<<63 - 1) / 100
	if iv > maxUnits-1 {
		return 0, Invalid("amount", "amount is too large")
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	cents := iv*100 + frac
	if negative {
		cents = -cents
	}
	return Money(cents), nil
}

var errNotNumeric = Invalid("amount", "amount must be a number")

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Cents returns the raw minor-unit value.
func (m Money) Cents() int64 { return int64(m) }

// Positive reports whether the amount is strictly greater than zero.
func (m Money) Positive() bool { return m > 0 }

// Float returns the value in major units, for display and ratios only.
func (m Money) Float() float64 { return float64(m) / 100 }

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return Invalid("amount", "amount is required")
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return errNotNumeric
		}
		raw = unquoted
	} else if strings.ContainsAny(raw, "eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errNotNumeric
		}
		raw = strconv.FormatFloat(f, 'f', -1, 64)
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
