package sheets

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/sheets/v4"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/middleware"
	"github.com/evert/google-mcp-go/internal/pkg/response"
	"github.com/evert/google-mcp-go/internal/pkg/validate"
	"github.com/evert/google-mcp-go/internal/services"
	"github.com/evert/google-mcp-go/internal/store"
)

// --- get_spreadsheet ---

type GetSpreadsheetInput struct {
	SpreadsheetID string `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
}

type SheetInfo struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Index int64  `json:"index"`
}

type SpreadsheetOutput struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Sheets []SheetInfo `json:"sheets"`
}

func createGetSpreadsheetHandler(sess *services.Session) mcp.ToolHandlerFor[GetSpreadsheetInput, SpreadsheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSpreadsheetInput) (*mcp.CallToolResult, SpreadsheetOutput, error) {
		if err := validate.DriveID(input.SpreadsheetID); err != nil {
			return nil, SpreadsheetOutput{}, err
		}
		srv, err := sess.Sheets(ctx)
		if err != nil {
			return nil, SpreadsheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		ss, err := srv.Spreadsheets.Get(input.SpreadsheetID).
			Fields("spreadsheetId", "properties.title", "sheets.properties(sheetId,title,index)").
			Context(ctx).Do()
		if err != nil {
			return nil, SpreadsheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := SpreadsheetOutput{ID: ss.SpreadsheetId, Sheets: []SheetInfo{}}
		if ss.Properties != nil {
			out.Title = ss.Properties.Title
		}

		rb := response.New()
		rb.Header("Spreadsheet")
		rb.KeyValue("Title", out.Title)
		rb.KeyValue("ID", out.ID)
		rb.Blank()
		rb.Section("Sheets")
		for _, s := range ss.Sheets {
			if s.Properties == nil {
				continue
			}
			out.Sheets = append(out.Sheets, SheetInfo{
				ID:    s.Properties.SheetId,
				Title: s.Properties.Title,
				Index: s.Properties.Index,
			})
			rb.Item("%s (id %d)", s.Properties.Title, s.Properties.SheetId)
		}

		return rb.TextResult(), out, nil
	}
}

// --- read_sheet ---

type ReadSheetInput struct {
	SpreadsheetID string `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
	Range         string `json:"range" jsonschema:"A1 notation range, e.g. Sheet1!A1:D10 or A1:D10"`
}

type ReadSheetOutput struct {
	Range       string  `json:"range"`
	Values      [][]any `json:"values"`
	RowCount    int     `json:"rowCount"`
	ColumnCount int     `json:"columnCount"`
}

func createReadSheetHandler(sess *services.Session) mcp.ToolHandlerFor[ReadSheetInput, ReadSheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReadSheetInput) (*mcp.CallToolResult, ReadSheetOutput, error) {
		if err := validate.Required("range", input.Range); err != nil {
			return nil, ReadSheetOutput{}, err
		}
		grid, err := fetchGrid(ctx, sess, input.SpreadsheetID, input.Range)
		if err != nil {
			return nil, ReadSheetOutput{}, err
		}

		out := ReadSheetOutput{Range: input.Range, Values: [][]any(grid), RowCount: len(grid)}
		if out.Values == nil {
			out.Values = [][]any{}
		}
		if len(grid) > 0 {
			out.ColumnCount = len(grid[0])
		}

		width := 0
		for _, row := range grid {
			width = max(width, len(row))
		}

		rb := response.New()
		rb.Header("Sheet Values")
		rb.KeyValue("Range", out.Range)
		rb.KeyValue("Rows", out.RowCount)
		if out.RowCount > 0 && width > 0 {
			rb.Blank()
			header := make([]string, width)
			for i := range header {
				header[i] = columnLetter(i)
			}
			rb.Table(header, textRows(out.Values, width))
		}

		return rb.TextResult(), out, nil
	}
}

// columnLetter converts a 0-based index to A, B, ..., Z, AA, AB, ...
func columnLetter(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

// --- write_sheet ---

type WriteSheetInput struct {
	SpreadsheetID string  `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
	Range         string  `json:"range" jsonschema:"A1 notation range to write to"`
	Values        [][]any `json:"values" jsonschema:"2D array of values to write"`
	Raw           bool    `json:"raw,omitempty" jsonschema:"Store values as-is instead of parsing them like typed input"`
}

type WriteSheetOutput struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int64  `json:"updatedRows"`
	UpdatedColumns int64  `json:"updatedColumns"`
	UpdatedCells   int64  `json:"updatedCells"`
}

func createWriteSheetHandler(sess *services.Session) mcp.ToolHandlerFor[WriteSheetInput, WriteSheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input WriteSheetInput) (*mcp.CallToolResult, WriteSheetOutput, error) {
		srv, err := editableSheets(ctx, sess, input.SpreadsheetID, input.Range, input.Values)
		if err != nil {
			return nil, WriteSheetOutput{}, err
		}

		resp, err := srv.Spreadsheets.Values.Update(input.SpreadsheetID, input.Range, &sheets.ValueRange{Values: input.Values}).
			ValueInputOption(valueInputOption(input.Raw)).
			Context(ctx).Do()
		if err != nil {
			return nil, WriteSheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := WriteSheetOutput{
			SpreadsheetID:  resp.SpreadsheetId,
			UpdatedRange:   resp.UpdatedRange,
			UpdatedRows:    resp.UpdatedRows,
			UpdatedColumns: resp.UpdatedColumns,
			UpdatedCells:   resp.UpdatedCells,
		}

		rb := response.New()
		rb.Header("Values Updated")
		rb.KeyValue("Spreadsheet", out.SpreadsheetID)
		rb.KeyValue("Range", out.UpdatedRange)
		rb.KeyValue("Updated rows", out.UpdatedRows)
		rb.KeyValue("Updated columns", out.UpdatedColumns)
		rb.KeyValue("Updated cells", out.UpdatedCells)

		return rb.TextResult(), out, nil
	}
}

// --- append_rows ---

type AppendRowsInput struct {
	SpreadsheetID string  `json:"spreadsheetId" jsonschema:"The spreadsheet ID"`
	Range         string  `json:"range" jsonschema:"A1 notation range defining the table, e.g. Sheet1!A:D"`
	Values        [][]any `json:"values" jsonschema:"2D array of rows to append"`
	Raw           bool    `json:"raw,omitempty" jsonschema:"Store values as-is instead of parsing them like typed input"`
}

type AppendRowsOutput struct {
	SpreadsheetID string `json:"spreadsheetId"`
	TableRange    string `json:"tableRange"`
	UpdatedRange  string `json:"updatedRange"`
	UpdatedRows   int64  `json:"updatedRows"`
	UpdatedCells  int64  `json:"updatedCells"`
}

func createAppendRowsHandler(sess *services.Session) mcp.ToolHandlerFor[AppendRowsInput, AppendRowsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AppendRowsInput) (*mcp.CallToolResult, AppendRowsOutput, error) {
		srv, err := editableSheets(ctx, sess, input.SpreadsheetID, input.Range, input.Values)
		if err != nil {
			return nil, AppendRowsOutput{}, err
		}

		resp, err := srv.Spreadsheets.Values.Append(input.SpreadsheetID, input.Range, &sheets.ValueRange{Values: input.Values}).
			ValueInputOption(valueInputOption(input.Raw)).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return nil, AppendRowsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := AppendRowsOutput{SpreadsheetID: resp.SpreadsheetId, TableRange: resp.TableRange}
		if resp.Updates != nil {
			out.UpdatedRange = resp.Updates.UpdatedRange
			out.UpdatedRows = resp.Updates.UpdatedRows
			out.UpdatedCells = resp.Updates.UpdatedCells
		}

		rb := response.New()
		rb.Header("Rows Appended")
		rb.KeyValue("Spreadsheet", out.SpreadsheetID)
		if out.TableRange != "" {
			rb.KeyValue("Table", out.TableRange)
		}
		rb.KeyValue("Range", out.UpdatedRange)
		rb.KeyValue("Appended rows", out.UpdatedRows)
		rb.KeyValue("Updated cells", out.UpdatedCells)

		return rb.TextResult(), out, nil
	}
}

// editableSheets validates a write and returns the Sheets client.
func editableSheets(ctx context.Context, sess *services.Session, spreadsheetID, rng string, values [][]any) (*sheets.Service, error) {
	if err := validate.DriveID(spreadsheetID); err != nil {
		return nil, err
	}
	if err := validate.Required("range", rng); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errNoValues
	}
	srv, err := sess.Sheets(ctx)
	if err != nil {
		return nil, middleware.HandleGoogleAPIError(err)
	}
	return srv, nil
}

// --- create_spreadsheet ---

type CreateSpreadsheetInput struct {
	Title string `json:"title" jsonschema:"Title for the new spreadsheet"`
}

type CreateSpreadsheetOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func createCreateSpreadsheetHandler(sess *services.Session) mcp.ToolHandlerFor[CreateSpreadsheetInput, CreateSpreadsheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateSpreadsheetInput) (*mcp.CallToolResult, CreateSpreadsheetOutput, error) {
		if err := validate.Required("title", input.Title); err != nil {
			return nil, CreateSpreadsheetOutput{}, err
		}
		srv, err := sess.Sheets(ctx)
		if err != nil {
			return nil, CreateSpreadsheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		created, err := srv.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: input.Title},
		}).Context(ctx).Do()
		if err != nil {
			return nil, CreateSpreadsheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := CreateSpreadsheetOutput{
			ID:    created.SpreadsheetId,
			Title: input.Title,
			URL:   created.SpreadsheetUrl,
		}
		if created.Properties != nil && created.Properties.Title != "" {
			out.Title = created.Properties.Title
		}
		if out.URL == "" {
			out.URL = "https://docs.google.com/spreadsheets/d/" + out.ID
		}

		// Files created by the app are reachable under drive.file; recording
		// them lets list_authorized_files show them.
		if err := sess.AuthorizeFiles(ctx, store.AuthorizedFile{
			ID:       out.ID,
			Name:     out.Title,
			MimeType: spreadsheetMIME,
		}); err != nil {
			slog.WarnContext(ctx, "failed to record created spreadsheet",
				"api_key", auth.Redact(sess.APIKey),
				"spreadsheet_id", out.ID,
				"error", err,
			)
		}

		rb := response.New()
		rb.Header("Spreadsheet Created")
		rb.KeyValue("Title", out.Title)
		rb.KeyValue("ID", out.ID)
		rb.KeyValue("URL", out.URL)

		return rb.TextResult(), out, nil
	}
}
