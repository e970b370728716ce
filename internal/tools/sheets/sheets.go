// Package sheets exposes spreadsheet reading, analysis and editing tools.
package sheets

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/pkg/ptr"
	"github.com/evert/google-mcp-go/internal/registry"
)

var serviceIcons = []mcp.Icon{{
	Source:   "https://www.gstatic.com/images/branding/product/1x/sheets_2020q4_48dp.png",
	MIMEType: "image/png",
	Sizes:    []string{"48x48"},
}}

const operatorHelp = "equals, contains, startsWith, endsWith, gt, lt, gte, lte, between, in, isEmpty"

// Tools returns the Sheets tool registrations.
func Tools() []registry.Tool {
	return []registry.Tool{
		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "get_sheet_schema",
			Icons:       serviceIcons,
			Description: "Get column names and inferred types (empty, boolean, number, date, string) from a sheet. Useful before searching or appending data.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Get Sheet Schema",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createGetSheetSchemaHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "describe_sheet",
			Icons:       serviceIcons,
			Description: "Get a statistical summary of every column in a sheet: type, unique and empty counts, most frequent values, and min/max for numeric columns.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Describe Sheet",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createDescribeSheetHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:  "search_rows",
			Icons: serviceIcons,
			Description: "Search for rows matching all filter conditions. Text comparisons ignore case and accents. " +
				"Operators: " + operatorHelp + ". Set neg to invert a condition.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Search Rows",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createSearchRowsHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "get_spreadsheet",
			Icons:       serviceIcons,
			Description: "Get spreadsheet metadata including the title and sheet tab names.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Get Spreadsheet",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createGetSpreadsheetHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "read_sheet",
			Icons:       serviceIcons,
			Description: "Read cell values from an A1 range such as Sheet1!A1:D10.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Read Sheet",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createReadSheetHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "write_sheet",
			Icons:       serviceIcons,
			Description: "Write values to an A1 range, overwriting existing data. Values are parsed like typed input unless raw is true.",
			Annotations: &mcp.ToolAnnotations{
				Title:          "Write Sheet",
				IdempotentHint: true,
				OpenWorldHint:  ptr.Bool(true),
			},
		}, createWriteSheetHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "append_rows",
			Icons:       serviceIcons,
			Description: "Append rows after the last row of the table in the given range (e.g. Sheet1!A:D).",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Append Rows",
				OpenWorldHint: ptr.Bool(true),
			},
		}, createAppendRowsHandler),

		registry.New(auth.ProductSheets, &mcp.Tool{
			Name:        "create_spreadsheet",
			Icons:       serviceIcons,
			Description: "Create a new spreadsheet. The new file is automatically authorized for this API key.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Create Spreadsheet",
				OpenWorldHint: ptr.Bool(true),
			},
		}, createCreateSpreadsheetHandler),
	}
}
