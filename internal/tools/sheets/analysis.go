package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/pkg/response"
	"github.com/evert/google-mcp-go/internal/services"
	"github.com/evert/google-mcp-go/internal/tabular"
)

// --- get_sheet_schema ---

type GetSheetSchemaInput struct {
	SpreadsheetID string `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
	Sheet         string `json:"sheet,omitempty" jsonschema:"Sheet name (default Sheet1)"`
	SampleRows    int    `json:"sampleRows,omitempty" jsonschema:"Number of data rows to sample for type inference (default 5)"`
}

type SheetSchemaOutput struct {
	Columns        []tabular.Column `json:"columns"`
	SampleRowCount int              `json:"sampleRowCount"`
	Error          string           `json:"error,omitempty"`
}

func createGetSheetSchemaHandler(sess *services.Session) mcp.ToolHandlerFor[GetSheetSchemaInput, SheetSchemaOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSheetSchemaInput) (*mcp.CallToolResult, SheetSchemaOutput, error) {
		sample := input.SampleRows
		if sample <= 0 {
			sample = tabular.DefaultSampleRows
		}

		grid, err := fetchGrid(ctx, sess, input.SpreadsheetID, rowsRange(input.Sheet, sample+1))
		if err != nil {
			return nil, SheetSchemaOutput{}, err
		}

		schema, err := tabular.InferSchema(grid, sample)
		if msg := analysisError(err); msg != "" {
			return response.New().Line("%s", msg).TextResult(), SheetSchemaOutput{Columns: []tabular.Column{}, Error: msg}, nil
		}
		if err != nil {
			return nil, SheetSchemaOutput{}, err
		}

		rows := make([][]string, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			rows = append(rows, []string{strconv.Itoa(c.Index), c.Name, string(c.Type)})
		}

		rb := response.New()
		rb.Header("Sheet Schema")
		rb.KeyValue("Sheet", sheetOrDefault(input.Sheet))
		rb.KeyValue("Sampled rows", schema.SampleRowCount)
		rb.Blank()
		rb.Table([]string{"Index", "Column", "Type"}, rows)

		return rb.TextResult(), SheetSchemaOutput{Columns: schema.Columns, SampleRowCount: schema.SampleRowCount}, nil
	}
}

// --- describe_sheet ---

type DescribeSheetInput struct {
	SpreadsheetID  string `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
	Sheet          string `json:"sheet,omitempty" jsonschema:"Sheet name (default Sheet1)"`
	MaxRows        int    `json:"maxRows,omitempty" jsonschema:"Maximum data rows to analyze (default 1000)"`
	TopValuesLimit int    `json:"topValuesLimit,omitempty" jsonschema:"Number of most frequent values to report per column (default 5)"`
}

type DescribeSheetOutput struct {
	RowCount int                     `json:"rowCount"`
	Columns  []tabular.ColumnSummary `json:"columns"`
	Error    string                  `json:"error,omitempty"`
}

func createDescribeSheetHandler(sess *services.Session) mcp.ToolHandlerFor[DescribeSheetInput, DescribeSheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DescribeSheetInput) (*mcp.CallToolResult, DescribeSheetOutput, error) {
		maxRows := input.MaxRows
		if maxRows <= 0 {
			maxRows = tabular.DefaultMaxRowsScanned
		}

		grid, err := fetchGrid(ctx, sess, input.SpreadsheetID, rowsRange(input.Sheet, maxRows+1))
		if err != nil {
			return nil, DescribeSheetOutput{}, err
		}

		desc, err := tabular.Describe(grid, tabular.DescribeOptions{
			MaxRowsScanned: maxRows,
			TopValuesLimit: input.TopValuesLimit,
		})
		if msg := analysisError(err); msg != "" {
			return response.New().Line("%s", msg).TextResult(), DescribeSheetOutput{Columns: []tabular.ColumnSummary{}, Error: msg}, nil
		}
		if err != nil {
			return nil, DescribeSheetOutput{}, err
		}

		rows := make([][]string, 0, len(desc.Columns))
		for _, c := range desc.Columns {
			rows = append(rows, []string{
				c.Name,
				string(c.Type),
				strconv.Itoa(c.UniqueCount),
				strconv.Itoa(c.EmptyCount),
				formatTopValues(c.TopValues),
				formatBound(c.Min),
				formatBound(c.Max),
			})
		}

		rb := response.New()
		rb.Header("Sheet Summary")
		rb.KeyValue("Sheet", sheetOrDefault(input.Sheet))
		rb.KeyValue("Rows analyzed", desc.RowCount)
		rb.Blank()
		rb.Table([]string{"Column", "Type", "Unique", "Empty", "Top values", "Min", "Max"}, rows)

		return rb.TextResult(), DescribeSheetOutput{RowCount: desc.RowCount, Columns: desc.Columns}, nil
	}
}

func formatTopValues(values []tabular.ValueCount) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s (%d)", v.Value, v.Count)
	}
	return strings.Join(parts, ", ")
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// --- search_rows ---

// FilterInput is the wire form of a row filter. Column is a header name or
// a 0-based column index.
type FilterInput struct {
	Column   any    `json:"column" jsonschema:"Column name or 0-based column index"`
	Operator string `json:"operator" jsonschema:"Comparison operator: equals, contains, startsWith, endsWith, gt, lt, gte, lte, between, in, isEmpty"`
	Value    any    `json:"value,omitempty" jsonschema:"Value to compare. A [min, max] pair for between, a list for in, omitted for isEmpty"`
	Neg      bool   `json:"neg,omitempty" jsonschema:"Invert the condition"`
}

type SearchRowsInput struct {
	SpreadsheetID string        `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
	Sheet         string        `json:"sheet,omitempty" jsonschema:"Sheet name (default Sheet1)"`
	Filters       []FilterInput `json:"filters" jsonschema:"Filter conditions, combined with AND"`
	MaxRows       int           `json:"maxRows,omitempty" jsonschema:"Maximum data rows to scan (default 1000)"`
	MaxResults    int           `json:"maxResults,omitempty" jsonschema:"Maximum matching rows to return (default 100)"`
}

type SearchRowsOutput struct {
	Matches     []tabular.Match `json:"matches"`
	ScannedRows int             `json:"scannedRows"`
	MatchCount  int             `json:"matchCount"`
	Error       string          `json:"error,omitempty"`
}

// parseFilters converts wire filters, rejecting unknown operators and
// malformed column references before any data is fetched.
func parseFilters(in []FilterInput) ([]tabular.Filter, error) {
	filters := make([]tabular.Filter, 0, len(in))
	for i, f := range in {
		op, err := tabular.ParseOperator(f.Operator)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		col, err := tabular.ParseColumnRef(f.Column)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters = append(filters, tabular.Filter{Column: col, Operator: op, Value: f.Value, Negate: f.Neg})
	}
	return filters, nil
}

func createSearchRowsHandler(sess *services.Session) mcp.ToolHandlerFor[SearchRowsInput, SearchRowsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchRowsInput) (*mcp.CallToolResult, SearchRowsOutput, error) {
		filters, err := parseFilters(input.Filters)
		if err != nil {
			return nil, SearchRowsOutput{}, err
		}

		maxRows := input.MaxRows
		if maxRows <= 0 {
			maxRows = tabular.DefaultMaxRowsScanned
		}

		grid, err := fetchGrid(ctx, sess, input.SpreadsheetID, rowsRange(input.Sheet, maxRows+1))
		if err != nil {
			return nil, SearchRowsOutput{}, err
		}

		result, err := tabular.Search(grid, filters, tabular.SearchOptions{
			MaxRowsScanned: maxRows,
			MaxResults:     input.MaxResults,
		})
		if msg := analysisError(err); msg != "" {
			return response.New().Line("%s", msg).TextResult(), SearchRowsOutput{Matches: []tabular.Match{}, Error: msg}, nil
		}
		if err != nil {
			return nil, SearchRowsOutput{}, err
		}

		rb := response.New()
		rb.Header("Search Results")
		rb.KeyValue("Sheet", sheetOrDefault(input.Sheet))
		rb.KeyValue("Rows scanned", result.ScannedRows)
		rb.KeyValue("Matches", result.MatchCount)
		if result.MatchCount > 0 {
			headers := grid.Headers()
			rows := make([][]string, 0, len(result.Matches))
			for _, m := range result.Matches {
				row := []string{strconv.Itoa(m.RowNumber)}
				for _, h := range headers {
					row = append(row, cellText(m.Fields[h]))
				}
				rows = append(rows, row)
			}
			rb.Blank()
			rb.Table(append([]string{"Row"}, headers...), rows)
		}

		return rb.TextResult(), SearchRowsOutput{
			Matches:     result.Matches,
			ScannedRows: result.ScannedRows,
			MatchCount:  result.MatchCount,
		}, nil
	}
}

func sheetOrDefault(sheet string) string {
	if sheet == "" {
		return defaultSheet
	}
	return sheet
}
