// Package tabular analyses spreadsheet grids: column type inference, filtered
// row search and per-column statistics. A grid is the raw value matrix returned
// by the Sheets API, with row 0 holding the column headers.
//
// All functions are pure and safe for concurrent use. None of them panic on
// malformed cell content; values that cannot be interpreted degrade to "no
// match", "not a number" or the string type.
package tabular

import (
	"errors"
	"fmt"
	"strconv"
)

// Grid is a header row followed by data rows. Rows may be shorter than the
// header; missing trailing cells are treated as empty.
type Grid [][]any

// TypeTag is the inferred semantic type of a column.
type TypeTag string

const (
	TypeEmpty   TypeTag = "empty"
	TypeBoolean TypeTag = "boolean"
	TypeNumber  TypeTag = "number"
	TypeDate    TypeTag = "date"
	TypeString  TypeTag = "string"
)

// Defaults applied when an option is zero or negative.
const (
	DefaultSampleRows     = 5
	DefaultMaxRowsScanned = 1000
	DefaultMaxResults     = 100
	DefaultTopValuesLimit = 5
)

// ErrEmptySheet is returned when the grid has no header row.
var ErrEmptySheet = errors.New("sheet is empty")

// ColumnNotFoundError reports a filter column that does not resolve against
// the header row.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return "column not found: " + e.Column
}

// Column describes one header column.
type Column struct {
	Name  string  `json:"name"`
	Type  TypeTag `json:"type"`
	Index int     `json:"index"`
}

// Schema is the result of InferSchema.
type Schema struct {
	Columns        []Column `json:"columns"`
	SampleRowCount int      `json:"sampleRowCount"`
}

// InferSchema infers column names and types from the header and the first
// sampleRows data rows.
func InferSchema(grid Grid, sampleRows int) (*Schema, error) {
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	headers := headerNames(grid[0])
	data := window(grid, sampleRows)

	columns := make([]Column, 0, len(headers))
	for i, name := range headers {
		columns = append(columns, Column{
			Name:  name,
			Type:  InferColumnType(columnValues(data, i)),
			Index: i,
		})
	}

	return &Schema{Columns: columns, SampleRowCount: len(data)}, nil
}

// headerNames stringifies the header row. Blank headers become "Column N".
func headerNames(header []any) []string {
	names := make([]string, len(header))
	for i, h := range header {
		name := cellString(h)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		names[i] = name
	}
	return names
}

// window returns at most limit data rows, skipping the header.
func window(grid Grid, limit int) [][]any {
	data := grid[1:]
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	return data
}

// columnValues collects one column across rows, using nil for missing cells.
func columnValues(rows [][]any, index int) []any {
	values := make([]any, len(rows))
	for r, row := range rows {
		values[r] = cellAt(row, index)
	}
	return values
}

func cellAt(row []any, index int) any {
	if index < 0 || index >= len(row) {
		return nil
	}
	return row[index]
}

// isEmpty reports whether a cell is absent or the empty string. Whitespace
// is not empty.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// cellString renders a cell the way it is displayed in result tables and
// frequency buckets.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Headers returns the resolved column names of the header row, or nil for
// an empty grid.
func (g Grid) Headers() []string {
	if len(g) == 0 {
		return nil
	}
	return headerNames(g[0])
}
