package matrix

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  int
		valid bool
	}{
		{"czech price with currency", "1 234,50 Kč", 1235, true},
		{"nbsp thousands", "12 500 Kč", 12500, true},
		{"narrow nbsp", "3 000", 3000, true},
		{"millimetre marker", "4000 mm", 4000, true},
		{"upper case unit", "4000MM", 4000, true},
		{"euro prefix", "€ 1.299,00", 1299, true},
		{"english grouping", "1,234.50", 1235, true},
		{"czech thousands dot", "2.500", 2500, true},
		{"zero integer part is decimal", "0.125", 0, true},
		{"zero integer part rounds", "0.625", 1, true},
		{"decimal dot", "2.5", 3, true},
		{"decimal comma half", "2,5", 3, true},
		{"below half", "10,49", 10, true},
		{"repeated thousands dots", "1.234.567", 1234567, true},
		{"whole currency suffix", "1 200,-", 1200, true},
		{"negative", "-5", -5, true},
		{"surrounding text", "šířka 3500 mm", 3500, true},
		{"int", 3000, 3000, true},
		{"int64", int64(42), 42, true},
		{"float half", 1234.5, 1235, true},
		{"float", 2999.4, 2999, true},
		{"json number", json.Number("3590"), 3590, true},
		{"empty", "", 0, false},
		{"only spaces", "   ", 0, false},
		{"text", "Výška / Šířka", 0, false},
		{"currency only", "Kč", 0, false},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"unsupported type", struct{}{}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.in)
			assert.Equal(t, tc.valid, ok)
			if tc.valid {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	inputs := []any{
		"", ",", ".", "-", "+", ",-", "..,,", "1e309", "€€€", "\x00\xff", "١٢٣",
		[]byte("7,5"), float32(1.5), int32(-3), map[string]int{}, []any{1},
		"99999999999999999999999999999",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Normalize(in) }, "input %#v", in)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 1235.0, RoundHalfUp(1234.5))
	assert.Equal(t, 1234.0, RoundHalfUp(1234.49))
	assert.Equal(t, 1200.0, RoundHalfUp(1200))
	assert.Equal(t, -1234.0, RoundHalfUp(-1234.5))
}
