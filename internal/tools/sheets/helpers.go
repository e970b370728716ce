package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/evert/google-mcp-go/internal/middleware"
	"github.com/evert/google-mcp-go/internal/pkg/validate"
	"github.com/evert/google-mcp-go/internal/services"
	"github.com/evert/google-mcp-go/internal/tabular"
)

const (
	defaultSheet    = "Sheet1"
	spreadsheetMIME = "application/vnd.google-apps.spreadsheet"
)

var plainSheetNameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// quoteSheetName quotes a sheet name for A1 notation when it holds anything
// besides letters, digits and underscores. Embedded quotes are doubled.
func quoteSheetName(name string) string {
	if plainSheetNameRE.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// rowsRange addresses the first n rows of a sheet, e.g. Sheet1!1:6.
func rowsRange(sheet string, n int) string {
	if sheet == "" {
		sheet = defaultSheet
	}
	return fmt.Sprintf("%s!1:%d", quoteSheetName(sheet), n)
}

// fetchGrid reads a range as a tabular grid, retrying rate-limited calls.
func fetchGrid(ctx context.Context, sess *services.Session, spreadsheetID, rng string) (tabular.Grid, error) {
	if err := validate.DriveID(spreadsheetID); err != nil {
		return nil, err
	}
	srv, err := sess.Sheets(ctx)
	if err != nil {
		return nil, middleware.HandleGoogleAPIError(err)
	}

	var values [][]any
	err = middleware.WithRetry(ctx, middleware.DefaultMaxRetries, func() error {
		resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return err
		}
		values = resp.Values
		return nil
	})
	if err != nil {
		return nil, middleware.HandleGoogleAPIError(err)
	}
	return tabular.Grid(values), nil
}

// analysisError renders the recoverable analysis errors the way agents see
// them. It returns "" for any other error.
func analysisError(err error) string {
	var notFound *tabular.ColumnNotFoundError
	switch {
	case errors.Is(err, tabular.ErrEmptySheet):
		return "Sheet is empty"
	case errors.As(err, &notFound):
		return "Column not found: " + notFound.Column
	default:
		return ""
	}
}

// cellText renders a cell for text tables.
func cellText(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// textRows stringifies a value matrix for tablewriter, padding short rows.
func textRows(values [][]any, width int) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		out := make([]string, width)
		for j := 0; j < width && j < len(row); j++ {
			out[j] = cellText(row[j])
		}
		rows[i] = out
	}
	return rows
}

// valueInputOption maps the raw flag to the Sheets API option.
func valueInputOption(raw bool) string {
	if raw {
		return "RAW"
	}
	return "USER_ENTERED"
}

var errNoValues = errors.New("values are required: provide a non-empty 2D array of rows")
