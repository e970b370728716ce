package sheets

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/pkg/mcptest"
	"github.com/evert/google-mcp-go/internal/registry"
	"github.com/evert/google-mcp-go/internal/tabular"
)

// fakeSheets is an httptest stand-in for the Sheets REST API. Grids are
// keyed by spreadsheet ID; every request is recorded.
type fakeSheets struct {
	mu       sync.Mutex
	grids    map[string][][]any
	requests []*http.Request
	bodies   []string
}

func (f *fakeSheets) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if rest == "" && r.Method == http.MethodPost {
		mcptest.JSON(w, http.StatusOK, map[string]any{
			"spreadsheetId": "new-sheet-id",
			"properties":    map[string]any{"title": "Budget 2026"},
		})
		return
	}

	id, tail, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	grid, found := f.grids[id]
	if !found {
		mcptest.GoogleError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}

	rng, isValues := strings.CutPrefix(tail, "values/")
	switch {
	case !isValues && r.Method == http.MethodGet:
		mcptest.JSON(w, http.StatusOK, map[string]any{
			"spreadsheetId": id,
			"properties":    map[string]any{"title": "People"},
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Sheet1", "index": 0}},
				map[string]any{"properties": map[string]any{"sheetId": 42, "title": "Archive", "index": 1}},
			},
		})
	case isValues && r.Method == http.MethodGet:
		resp := map[string]any{"range": rng}
		if len(grid) > 0 {
			resp["values"] = grid
		}
		mcptest.JSON(w, http.StatusOK, resp)
	case isValues && r.Method == http.MethodPut:
		mcptest.JSON(w, http.StatusOK, map[string]any{
			"spreadsheetId":  id,
			"updatedRange":   rng,
			"updatedRows":    2,
			"updatedColumns": 2,
			"updatedCells":   4,
		})
	case isValues && r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		mcptest.JSON(w, http.StatusOK, map[string]any{
			"spreadsheetId": id,
			"tableRange":    "Sheet1!A1:B4",
			"updates": map[string]any{
				"updatedRange": "Sheet1!A5:B5",
				"updatedRows":  1,
				"updatedCells": 2,
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newFake() *fakeSheets {
	return &fakeSheets{grids: map[string][][]any{
		"people": {
			{"Name", "Age", "City"},
			{"Ana", "30", "São Paulo"},
			{"Beto", "abc", "Rio"},
			{"Caio", "25", "sao paulo"},
		},
		"empty": {},
	}}
}

func connect(t *testing.T, fake *fakeSheets) (*mcp.ClientSession, *mcptest.Files) {
	t.Helper()
	catalog, err := auth.NewCatalog(auth.DefaultProducts())
	require.NoError(t, err)
	table, err := registry.NewTable(registry.Options{
		Catalog: catalog,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Tools())
	require.NoError(t, err)

	files := &mcptest.Files{}
	sess := mcptest.Session(t, fake, files, auth.ScopeDriveFile)
	return mcptest.Connect(t, table.ServerFor(sess)), files
}

func TestSearchRows_NumericFilter(t *testing.T) {
	fake := newFake()
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "search_rows", map[string]any{
		"spreadsheetId": "people",
		"filters":       []any{map[string]any{"column": "Age", "operator": "gte", "value": 25}},
	})
	require.False(t, res.IsError, mcptest.Text(res))

	var out SearchRowsOutput
	mcptest.Structured(t, res, &out)
	require.Len(t, out.Matches, 2)
	assert.Equal(t, 2, out.Matches[0].RowNumber)
	assert.Equal(t, "Ana", out.Matches[0].Fields["Name"])
	assert.Equal(t, 4, out.Matches[1].RowNumber)
	assert.Equal(t, 3, out.ScannedRows)
	assert.Equal(t, 2, out.MatchCount)
	assert.Contains(t, mcptest.Text(res), "Caio")

	req, _ := fake.last()
	assert.Equal(t, "/v4/spreadsheets/people/values/Sheet1!1:1001", req.URL.Path)
}

func TestSearchRows_AccentInsensitiveAndNegated(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "search_rows", map[string]any{
		"spreadsheetId": "people",
		"filters": []any{
			map[string]any{"column": 2, "operator": "equals", "value": "SAO PAULO"},
			map[string]any{"column": "name", "operator": "startsWith", "value": "c", "neg": true},
		},
	})
	require.False(t, res.IsError, mcptest.Text(res))

	var out SearchRowsOutput
	mcptest.Structured(t, res, &out)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "Ana", out.Matches[0].Fields["Name"])
}

func TestSearchRows_ColumnNotFound(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "search_rows", map[string]any{
		"spreadsheetId": "people",
		"filters":       []any{map[string]any{"column": "Salary", "operator": "gt", "value": 1}},
	})
	assert.False(t, res.IsError)

	var out SearchRowsOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, "Column not found: Salary", out.Error)
	assert.Empty(t, out.Matches)
	assert.NotNil(t, out.Matches)
}

func TestSearchRows_InvalidOperator(t *testing.T) {
	fake := newFake()
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "search_rows", map[string]any{
		"spreadsheetId": "people",
		"filters":       []any{map[string]any{"column": "Age", "operator": "approx", "value": 1}},
	})
	assert.True(t, res.IsError)
	assert.Contains(t, mcptest.Text(res), "unknown filter operator")
	assert.Empty(t, fake.requests, "no API call before filters validate")
}

func TestSearchRows_InvalidSpreadsheetID(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "search_rows", map[string]any{
		"spreadsheetId": "../etc",
		"filters":       []any{},
	})
	assert.True(t, res.IsError)
	assert.Contains(t, mcptest.Text(res), "invalid file ID")
}

func TestGetSheetSchema(t *testing.T) {
	fake := newFake()
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "get_sheet_schema", map[string]any{"spreadsheetId": "people", "sheet": "Sheet1", "sampleRows": 2})
	require.False(t, res.IsError, mcptest.Text(res))

	var out SheetSchemaOutput
	mcptest.Structured(t, res, &out)
	require.Len(t, out.Columns, 3)
	assert.Equal(t, tabular.Column{Name: "Age", Type: tabular.TypeString, Index: 1}, out.Columns[1])
	assert.Equal(t, 2, out.SampleRowCount)

	req, _ := fake.last()
	assert.Equal(t, "/v4/spreadsheets/people/values/Sheet1!1:3", req.URL.Path)
}

func TestGetSheetSchema_EmptySheet(t *testing.T) {
	fake := newFake()
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "get_sheet_schema", map[string]any{"spreadsheetId": "empty", "sheet": "My Sheet"})
	assert.False(t, res.IsError)

	var out SheetSchemaOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, "Sheet is empty", out.Error)
	assert.Empty(t, out.Columns)
	assert.Contains(t, mcptest.Text(res), "Sheet is empty")

	req, _ := fake.last()
	assert.Equal(t, "/v4/spreadsheets/empty/values/'My Sheet'!1:6", req.URL.Path)
}

func TestDescribeSheet(t *testing.T) {
	fake := newFake()
	fake.grids["scores"] = [][]any{
		{"Team", "Score"},
		{"red", "10"},
		{"blue", "7"},
		{"red", "3"},
		{"", "1,000"},
	}
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "describe_sheet", map[string]any{"spreadsheetId": "scores", "topValuesLimit": 1})
	require.False(t, res.IsError, mcptest.Text(res))

	var out DescribeSheetOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, 4, out.RowCount)
	require.Len(t, out.Columns, 2)

	team := out.Columns[0]
	assert.Equal(t, 2, team.UniqueCount)
	assert.Equal(t, 1, team.EmptyCount)
	assert.Equal(t, []tabular.ValueCount{{Value: "red", Count: 2}}, team.TopValues)
	assert.Nil(t, team.Min)

	score := out.Columns[1]
	assert.Equal(t, tabular.TypeNumber, score.Type)
	require.NotNil(t, score.Min)
	require.NotNil(t, score.Max)
	assert.Equal(t, 3.0, *score.Min)
	assert.Equal(t, 1000.0, *score.Max)
}

func TestGetSpreadsheet(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "get_spreadsheet", map[string]any{"spreadsheetId": "people"})
	require.False(t, res.IsError, mcptest.Text(res))

	var out SpreadsheetOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, "People", out.Title)
	assert.Equal(t, []SheetInfo{{ID: 0, Title: "Sheet1", Index: 0}, {ID: 42, Title: "Archive", Index: 1}}, out.Sheets)
}

func TestGetSpreadsheet_NotFound(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "get_spreadsheet", map[string]any{"spreadsheetId": "missing"})
	assert.True(t, res.IsError)
	assert.Contains(t, mcptest.Text(res), "resource not found")
}

func TestReadSheet(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "read_sheet", map[string]any{"spreadsheetId": "people", "range": "Sheet1!A1:C4"})
	require.False(t, res.IsError, mcptest.Text(res))

	var out ReadSheetOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, 4, out.RowCount)
	assert.Equal(t, 3, out.ColumnCount)
	assert.Equal(t, "Ana", out.Values[1][0])
}

func TestWriteSheet_RawOption(t *testing.T) {
	fake := newFake()
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "write_sheet", map[string]any{
		"spreadsheetId": "people",
		"range":         "Sheet1!A5:B6",
		"values":        []any{[]any{"Duda", 41}, []any{"Eva", "=1+1"}},
		"raw":           true,
	})
	require.False(t, res.IsError, mcptest.Text(res))

	req, body := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "RAW", req.URL.Query().Get("valueInputOption"))

	var sent struct {
		Values [][]any `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &sent))
	assert.Equal(t, "=1+1", sent.Values[1][1])

	var out WriteSheetOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, int64(4), out.UpdatedCells)
}

func TestWriteSheet_RequiresValues(t *testing.T) {
	cs, _ := connect(t, newFake())

	res := mcptest.Call(t, cs, "write_sheet", map[string]any{
		"spreadsheetId": "people",
		"range":         "A1",
		"values":        []any{},
	})
	assert.True(t, res.IsError)
	assert.Contains(t, mcptest.Text(res), "values are required")
}

func TestAppendRows(t *testing.T) {
	fake := newFake()
	cs, _ := connect(t, fake)

	res := mcptest.Call(t, cs, "append_rows", map[string]any{
		"spreadsheetId": "people",
		"range":         "Sheet1!A:C",
		"values":        []any{[]any{"Duda", "41", "Recife"}},
	})
	require.False(t, res.IsError, mcptest.Text(res))

	req, _ := fake.last()
	assert.Equal(t, "USER_ENTERED", req.URL.Query().Get("valueInputOption"))
	assert.Equal(t, "INSERT_ROWS", req.URL.Query().Get("insertDataOption"))

	var out AppendRowsOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, "Sheet1!A5:B5", out.UpdatedRange)
	assert.Equal(t, int64(1), out.UpdatedRows)
}

func TestCreateSpreadsheet_AuthorizesFile(t *testing.T) {
	cs, files := connect(t, newFake())

	res := mcptest.Call(t, cs, "create_spreadsheet", map[string]any{"title": "Budget 2026"})
	require.False(t, res.IsError, mcptest.Text(res))

	var out CreateSpreadsheetOutput
	mcptest.Structured(t, res, &out)
	assert.Equal(t, "new-sheet-id", out.ID)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/new-sheet-id", out.URL)

	require.Len(t, files.Saved, 1)
	assert.Equal(t, "new-sheet-id", files.Saved[0].ID)
	assert.Equal(t, spreadsheetMIME, files.Saved[0].MimeType)
}

func TestQuoteSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Sheet1", "Sheet1"},
		{"data_2024", "data_2024"},
		{"My Sheet", "'My Sheet'"},
		{"Q1-Results", "'Q1-Results'"},
		{"Bob's", "'Bob''s'"},
		{"Orçamento", "'Orçamento'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteSheetName(tt.in), tt.in)
	}
}

func TestColumnLetter(t *testing.T) {
	for i, want := range map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"} {
		assert.Equal(t, want, columnLetter(i))
	}
}
