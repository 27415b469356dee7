package fields

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{"number", 3000.5, "3000.5", true},
		{"string", "1.25", "1.25", true},
		{"comma separator", "0,5", "0.5", true},
		{"garbage", "abc", "0", false},
		{"empty", "", "0", false},
		{"bool", true, "0", false},
		{"missing", nil, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decimal(map[string]any{"v": tt.value}, "v")
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{"number", float64(231), "231", true},
		{"string", "115792089237316195423570985008687907853269984665640564039457584007913129639935", "115792089237316195423570985008687907853269984665640564039457584007913129639935", true},
		{"negative", float64(-1), "", false},
		{"fraction", 1.5, "", false},
		{"hex", "0x1f", "", false},
		{"blank", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Digits(map[string]any{"v": tt.value}, "v")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInt(t *testing.T) {
	n, ok := Int(map[string]any{"v": float64(7)}, "v")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = Int(map[string]any{"v": " 12 "}, "v")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = Int(map[string]any{"v": 7.5}, "v")
	assert.False(t, ok)
}

func TestPathAndString(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": " value "}},
	}

	v, ok := Path(m, "a", "b", "c")
	assert.True(t, ok)
	assert.Equal(t, " value ", v)

	_, ok = Path(m, "a", "x", "c")
	assert.False(t, ok)
	_, ok = Path(m, "a", "b", "c", "d")
	assert.False(t, ok)

	inner, _ := Map(m, "a")
	innerB, _ := Map(inner, "b")
	s, ok := String(innerB, "c")
	assert.True(t, ok)
	assert.Equal(t, "value", s)

	_, ok = String(map[string]any{"c": "   "}, "c")
	assert.False(t, ok)
}
