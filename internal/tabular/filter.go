package tabular

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operator is a row-filter comparison.
type Operator int

const (
	OpInvalid Operator = iota
	OpEquals
	OpContains
	OpStartsWith
	OpEndsWith
	OpGreaterThan
	OpLessThan
	OpGreaterOrEqual
	OpLessOrEqual
	OpBetween
	OpIn
	OpIsEmpty
)

var operatorNames = map[Operator]string{
	OpEquals:         "equals",
	OpContains:       "contains",
	OpStartsWith:     "startsWith",
	OpEndsWith:       "endsWith",
	OpGreaterThan:    "gt",
	OpLessThan:       "lt",
	OpGreaterOrEqual: "gte",
	OpLessOrEqual:    "lte",
	OpBetween:        "between",
	OpIn:             "in",
	OpIsEmpty:        "isEmpty",
}

var operatorAliases = map[string]Operator{
	"greaterThan":    OpGreaterThan,
	"lessThan":       OpLessThan,
	"greaterOrEqual": OpGreaterOrEqual,
	"lessOrEqual":    OpLessOrEqual,
}

// OperatorNames lists the wire names accepted by ParseOperator, in
// declaration order.
func OperatorNames() []string {
	names := make([]string, 0, len(operatorNames))
	for op := OpEquals; op <= OpIsEmpty; op++ {
		names = append(names, operatorNames[op])
	}
	return names
}

// ParseOperator maps a wire name to an Operator.
func ParseOperator(name string) (Operator, error) {
	for op, n := range operatorNames {
		if n == name {
			return op, nil
		}
	}
	if op, ok := operatorAliases[name]; ok {
		return op, nil
	}
	return OpInvalid, fmt.Errorf("unknown filter operator %q (valid: %s)", name, strings.Join(OperatorNames(), ", "))
}

func (o Operator) String() string {
	if n, ok := operatorNames[o]; ok {
		return n
	}
	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(text []byte) error {
	op, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// ColumnRef identifies a column either by header name or by 0-based index.
type ColumnRef struct {
	Name    string
	Index   int
	ByIndex bool
}

// ColumnName references a column by header name.
func ColumnName(name string) ColumnRef { return ColumnRef{Name: name} }

// ColumnIndex references a column by position.
func ColumnIndex(i int) ColumnRef { return ColumnRef{Index: i, ByIndex: true} }

// ParseColumnRef builds a ColumnRef from a decoded JSON value: a string is a
// header name, a number is an index.
func ParseColumnRef(v any) (ColumnRef, error) {
	switch val := v.(type) {
	case string:
		return ColumnName(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return ColumnRef{}, fmt.Errorf("column index must be an integer, got %v", val)
		}
		return ColumnIndex(int(val)), nil
	case int:
		return ColumnIndex(val), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return ColumnRef{}, fmt.Errorf("column index must be an integer, got %s", val)
		}
		return ColumnIndex(int(i)), nil
	default:
		return ColumnRef{}, fmt.Errorf("column must be a name or a 0-based index, got %T", v)
	}
}

func (c ColumnRef) String() string {
	if c.ByIndex {
		return strconv.Itoa(c.Index)
	}
	return c.Name
}

// MarshalJSON implements json.Marshaler.
func (c ColumnRef) MarshalJSON() ([]byte, error) {
	if c.ByIndex {
		return json.Marshal(c.Index)
	}
	return json.Marshal(c.Name)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ColumnRef) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	ref, err := ParseColumnRef(v)
	if err != nil {
		return err
	}
	*c = ref
	return nil
}

// Filter is one predicate of a row search.
type Filter struct {
	Column   ColumnRef `json:"column"`
	Operator Operator  `json:"operator"`
	Value    any       `json:"value,omitempty"`
	Negate   bool      `json:"neg,omitempty"`
}

// Matches evaluates the filter against a cell. Comparisons that cannot be
// evaluated (unparseable numbers, malformed ranges) are false before
// negation is applied.
func (f Filter) Matches(cell any) bool {
	return f.evaluate(cell) != f.Negate
}

func (f Filter) evaluate(cell any) bool {
	switch f.Operator {
	case OpIsEmpty:
		return isEmpty(cell)
	case OpEquals:
		return NormalizeText(cell) == NormalizeText(f.Value)
	case OpContains:
		return strings.Contains(NormalizeText(cell), NormalizeText(f.Value))
	case OpStartsWith:
		return strings.HasPrefix(NormalizeText(cell), NormalizeText(f.Value))
	case OpEndsWith:
		return strings.HasSuffix(NormalizeText(cell), NormalizeText(f.Value))
	case OpIn:
		key := NormalizeText(cell)
		for _, candidate := range valueList(f.Value) {
			if NormalizeText(candidate) == key {
				return true
			}
		}
		return false
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return compareNumeric(cell, f.Operator, f.Value)
	case OpBetween:
		bounds := valueList(f.Value)
		if len(bounds) != 2 {
			return false
		}
		n, ok := ParseNumeric(cell)
		if !ok {
			return false
		}
		lo, okLo := ParseNumeric(bounds[0])
		hi, okHi := ParseNumeric(bounds[1])
		if !okLo || !okHi {
			return false
		}
		return lo <= n && n <= hi
	default:
		return false
	}
}

func compareNumeric(cell any, op Operator, value any) bool {
	left, ok := ParseNumeric(cell)
	if !ok {
		return false
	}
	right, ok := ParseNumeric(value)
	if !ok {
		return false
	}
	switch op {
	case OpGreaterThan:
		return left > right
	case OpLessThan:
		return left < right
	case OpGreaterOrEqual:
		return left >= right
	case OpLessOrEqual:
		return left <= right
	default:
		return false
	}
}

// valueList coerces a filter value to a list; scalars become a single
// element.
func valueList(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case []float64:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}
