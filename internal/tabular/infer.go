package tabular

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	plainNumberRE     = regexp.MustCompile(`^-?\d+\.?\d*$`)
	groupedNumberRE   = regexp.MustCompile(`^-?\d{1,3}(,\d{3})*(\.\d+)?$`)
	isoDatePrefixRE   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	slashDateRE       = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`)
	booleanLiteralSet = []string{"true", "false", "yes", "no"}
)

// InferColumnType classifies a column from its sampled values. Empty cells
// are ignored. The column takes a type only when every remaining value agrees
// on it; any disagreement yields TypeString.
func InferColumnType(values []any) TypeTag {
	var result TypeTag
	for _, v := range values {
		if isEmpty(v) {
			continue
		}
		tag := classify(v)
		switch {
		case result == "":
			result = tag
		case result != tag:
			return TypeString
		}
	}
	if result == "" {
		return TypeEmpty
	}
	return result
}

// classify types a single non-empty cell.
func classify(v any) TypeTag {
	switch val := v.(type) {
	case bool:
		return TypeBoolean
	case float64, float32, int, int32, int64, json.Number:
		return TypeNumber
	case string:
		return classifyString(strings.TrimSpace(val))
	default:
		return TypeString
	}
}

func classifyString(s string) TypeTag {
	for _, lit := range booleanLiteralSet {
		if strings.EqualFold(s, lit) {
			return TypeBoolean
		}
	}
	if plainNumberRE.MatchString(s) || groupedNumberRE.MatchString(s) {
		return TypeNumber
	}
	if isoDatePrefixRE.MatchString(s) || slashDateRE.MatchString(s) {
		return TypeDate
	}
	return TypeString
}
