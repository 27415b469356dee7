// Package fields decodes optional values out of loosely typed JSON trees.
// Every accessor reports presence explicitly instead of failing.
package fields

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Map returns m[key] as an object
func Map(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

// Path walks nested objects and returns the value at the end of keys
func Path(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns m[key] as a trimmed, non-empty string
func String(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Decimal returns m[key] as a decimal, accepting JSON numbers and numeric strings
func Decimal(m map[string]any, key string) (decimal.Decimal, bool) {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case string:
		return ParseDecimal(v)
	default:
		return decimal.Zero, false
	}
}

// Int returns m[key] as an integer, accepting whole JSON numbers and digit strings
func Int(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// Digits returns m[key] as a non-negative integer in decimal digit form.
// Token ids may exceed 64 bits, so the digits are kept as text.
func Digits(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', 0, 64), true
	case string:
		return ParseDigits(v)
	default:
		return "", false
	}
}

// ParseDigits validates s as a non-empty run of decimal digits
func ParseDigits(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

// ParseDecimal parses a display amount. A comma is accepted as decimal separator.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
