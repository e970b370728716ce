// Package drive tracks the Drive files an API key may use. Files enter the
// registry when a tool creates them or when the user authorizes them over
// HTTP; list_authorized_files exposes the registry to clients.
package drive

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/pkg/ptr"
	"github.com/evert/google-mcp-go/internal/registry"
)

var serviceIcons = []mcp.Icon{{
	Source:   "https://www.gstatic.com/images/branding/product/1x/drive_2020q4_48dp.png",
	MIMEType: "image/png",
	Sizes:    []string{"48x48"},
}}

// Tools returns the Drive tool registrations.
func Tools() []registry.Tool {
	return []registry.Tool{
		registry.New(auth.ProductDrive, &mcp.Tool{
			Name:        "list_authorized_files",
			Icons:       serviceIcons,
			Description: "List files the user has authorized for access. Use this to discover which spreadsheets are available before using sheets tools.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "List Authorized Files",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(false),
			},
		}, createListAuthorizedFilesHandler),
	}
}
