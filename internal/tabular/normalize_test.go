package tabular

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty", "", ""},
		{"lowercases", "HELLO", "hello"},
		{"strips accents", "Café", "cafe"},
		{"strips accents upper", "AÇÃO", "acao"},
		{"trims", "  cafe \t", "cafe"},
		{"keeps inner spaces", "São  Paulo", "sao  paulo"},
		{"number", 42.5, "42.5"},
		{"integer float", float64(3), "3"},
		{"bool", true, "true"},
		{"int", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{"", "Café", "  MÜNCHEN ", "naïve façade", "ÅNGSTRÖM", "already plain", "日本語"}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), "input %q", in)
	}
}

func TestNormalizeText_CafeVariantsCompareEqual(t *testing.T) {
	want := NormalizeText("cafe")
	for _, v := range []string{"Café", "cafe", "CAFE ", "CAFÉ"} {
		assert.Equal(t, want, NormalizeText(v), "variant %q", v)
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 3, 3, true},
		{"int64", int64(-9), -9, true},
		{"json number", json.Number("17.25"), 17.25, true},
		{"plain string", "42", 42, true},
		{"negative", "-7.5", -7.5, true},
		{"thousands", "1,234,567.89", 1234567.89, true},
		{"padded", "  25  ", 25, true},
		{"leading decimal point", ".5", 0.5, true},
		{"exponent", "1e3", 1000, true},
		{"numeric prefix", "30 years", 30, true},
		{"letters", "abc", 0, false},
		{"empty", "", 0, false},
		{"whitespace", "   ", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"nan", math.NaN(), 0, false},
		{"currency prefix", "$10", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumeric(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseNumeric_Overflow(t *testing.T) {
	got, ok := ParseNumeric("1e999")
	assert.True(t, ok)
	assert.True(t, math.IsInf(got, 1))
}
