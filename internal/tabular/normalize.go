package tabular

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numericPrefixRE matches the leading decimal literal of a string, the same
// prefix a lenient float parser would consume.
var numericPrefixRE = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// NormalizeText returns the comparison key for a cell: lowercased, with
// combining diacritics removed and surrounding whitespace trimmed. Absent
// values normalize to the empty string.
func NormalizeText(v any) string {
	if v == nil {
		return ""
	}
	s := strings.ToLower(cellString(v))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(stripped)
}

// ParseNumeric coerces a cell to a number. Native numbers are returned as-is.
// Strings have thousands separators removed and their leading decimal literal
// parsed. The boolean result is false when no number can be extracted.
func ParseNumeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) {
			return 0, false
		}
		return val, true
	case float32:
		return ParseNumeric(float64(val))
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		return parseNumericString(val)
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	prefix := numericPrefixRE.FindString(cleaned)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		// Out-of-range literals still carry a usable ±Inf.
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}
