package tabular

import (
	"math"
	"sort"
)

// DescribeOptions bounds a Describe. Zero values select the package defaults.
type DescribeOptions struct {
	MaxRowsScanned int
	TopValuesLimit int
}

// ValueCount is one entry of a column's frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnSummary holds the statistics of one column. Min and Max are set only
// for number columns with at least one parseable value.
type ColumnSummary struct {
	Name        string       `json:"name"`
	Index       int          `json:"index"`
	Type        TypeTag      `json:"type"`
	UniqueCount int          `json:"uniqueCount"`
	EmptyCount  int          `json:"emptyCount"`
	TopValues   []ValueCount `json:"topValues"`
	Min         *float64     `json:"min,omitempty"`
	Max         *float64     `json:"max,omitempty"`
}

// Description is the result of Describe.
type Description struct {
	RowCount int             `json:"rowCount"`
	Columns  []ColumnSummary `json:"columns"`
}

// Describe summarizes every header column over the scanned window.
//
// Frequency buckets are keyed by the cell's display string and are case
// sensitive: "Yes" and "yes" are counted separately.
func Describe(grid Grid, opts DescribeOptions) (*Description, error) {
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}
	if opts.MaxRowsScanned <= 0 {
		opts.MaxRowsScanned = DefaultMaxRowsScanned
	}
	if opts.TopValuesLimit <= 0 {
		opts.TopValuesLimit = DefaultTopValuesLimit
	}

	headers := headerNames(grid[0])
	data := window(grid, opts.MaxRowsScanned)

	columns := make([]ColumnSummary, 0, len(headers))
	for i, name := range headers {
		columns = append(columns, summarize(name, i, columnValues(data, i), opts.TopValuesLimit))
	}
	return &Description{RowCount: len(data), Columns: columns}, nil
}

func summarize(name string, index int, values []any, topLimit int) ColumnSummary {
	s := ColumnSummary{
		Name:  name,
		Index: index,
		Type:  InferColumnType(values),
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if isEmpty(v) {
			s.EmptyCount++
			continue
		}
		key := cellString(v)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}
	s.UniqueCount = len(order)

	freq := make([]ValueCount, len(order))
	for i, key := range order {
		freq[i] = ValueCount{Value: key, Count: counts[key]}
	}
	sort.SliceStable(freq, func(a, b int) bool { return freq[a].Count > freq[b].Count })
	if len(freq) > topLimit {
		freq = freq[:topLimit]
	}
	s.TopValues = freq

	if s.Type == TypeNumber {
		s.Min, s.Max = numericRange(values)
	}
	return s
}

func numericRange(values []any) (*float64, *float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for _, v := range values {
		n, ok := ParseNumeric(v)
		if !ok {
			continue
		}
		found = true
		lo = math.Min(lo, n)
		hi = math.Max(hi, n)
	}
	if !found {
		return nil, nil
	}
	return &lo, &hi
}
