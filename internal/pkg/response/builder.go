// Package response assembles the text half of tool results.
package response

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olekukonko/tablewriter"
)

// Builder constructs formatted text responses for MCP tool results.
type Builder struct {
	sb strings.Builder
}

// New creates a new response Builder.
func New() *Builder {
	return &Builder{}
}

// Header writes a header line.
func (b *Builder) Header(format string, args ...any) *Builder {
	fmt.Fprintf(&b.sb, "═══ %s ═══\n", fmt.Sprintf(format, args...))
	return b
}

// Section writes a section header (smaller than Header).
func (b *Builder) Section(format string, args ...any) *Builder {
	fmt.Fprintf(&b.sb, "── %s ──\n", fmt.Sprintf(format, args...))
	return b
}

// KeyValue writes a key-value pair.
func (b *Builder) KeyValue(key string, value any) *Builder {
	fmt.Fprintf(&b.sb, "• %s: %v\n", key, value)
	return b
}

// Item writes a bulleted item.
func (b *Builder) Item(format string, args ...any) *Builder {
	fmt.Fprintf(&b.sb, "  → %s\n", fmt.Sprintf(format, args...))
	return b
}

// Line writes a plain line.
func (b *Builder) Line(format string, args ...any) *Builder {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
	return b
}

// Blank writes an empty line.
func (b *Builder) Blank() *Builder {
	b.sb.WriteByte('\n')
	return b
}

// Table renders rows under headers as an ASCII grid. Cells are not wrapped
// and headers keep their case.
func (b *Builder) Table(headers []string, rows [][]string) *Builder {
	tw := tablewriter.NewWriter(&b.sb)
	tw.SetHeader(headers)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.AppendBulk(rows)
	tw.Render()
	return b
}

// Build returns the assembled string.
func (b *Builder) Build() string {
	return b.sb.String()
}

// TextResult wraps the text in a CallToolResult.
func (b *Builder) TextResult() *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.sb.String()}},
	}
}

// ErrorResult wraps the text in a CallToolResult flagged as a tool error.
func (b *Builder) ErrorResult() *mcp.CallToolResult {
	res := b.TextResult()
	res.IsError = true
	return res
}
