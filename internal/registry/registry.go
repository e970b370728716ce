// Package registry holds the immutable tool table and builds a filtered MCP
// server for each caller.
package registry

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/services"
)

// toolNameRE enforces SEP-986: tool names must match ^[a-zA-Z0-9_-]{1,64}$
var toolNameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateToolName checks that a tool name complies with SEP-986.
func ValidateToolName(name string) error {
	if !toolNameRE.MatchString(name) {
		return fmt.Errorf("tool name %q does not match SEP-986 pattern ^[a-zA-Z0-9_-]{1,64}$", name)
	}
	return nil
}

// Tool is one registration entry. It is created once at startup and added to
// a fresh server for every session that may use it.
type Tool struct {
	Name     string
	Product  string
	ReadOnly bool

	add func(*mcp.Server, *services.Session)
}

// New builds a Tool from its definition and a handler constructor bound to
// the caller's session.
func New[In, Out any](product string, def *mcp.Tool, handler func(*services.Session) mcp.ToolHandlerFor[In, Out]) Tool {
	readOnly := def.Annotations != nil && def.Annotations.ReadOnlyHint
	return Tool{
		Name:     def.Name,
		Product:  product,
		ReadOnly: readOnly,
		add: func(server *mcp.Server, sess *services.Session) {
			// AddTool fills in schemas, so each server gets its own copy.
			d := *def
			mcp.AddTool(server, &d, handler(sess))
		},
	}
}

// Options configures a Table.
type Options struct {
	Catalog        *auth.Catalog
	ReadOnly       bool
	Implementation *mcp.Implementation
	Instructions   string
	Middleware     []mcp.Middleware
	Logger         *slog.Logger
}

// Table is the immutable set of tools available to this process.
type Table struct {
	tools []Tool
	opts  Options
}

// NewTable validates the tool groups and keeps those whose product is in the
// catalog. Read-only mode also drops tools that modify data.
func NewTable(opts Options, groups ...[]Tool) (*Table, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("registry: catalog is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Implementation == nil {
		opts.Implementation = &mcp.Implementation{Name: "google-mcp"}
	}

	seen := make(map[string]bool)
	var tools []Tool
	for _, group := range groups {
		for _, t := range group {
			if err := ValidateToolName(t.Name); err != nil {
				return nil, err
			}
			if seen[t.Name] {
				return nil, fmt.Errorf("duplicate tool name %q", t.Name)
			}
			seen[t.Name] = true

			if _, ok := opts.Catalog.Lookup(t.Product); !ok {
				continue
			}
			if opts.ReadOnly && !t.ReadOnly {
				continue
			}
			tools = append(tools, t)
		}
	}

	opts.Logger.Info("tool table built",
		"tools", len(tools),
		"products", opts.Catalog.Names(),
		"readOnly", opts.ReadOnly,
	)
	return &Table{tools: tools, opts: opts}, nil
}

// Names returns the tool names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.tools))
	for i, tool := range t.tools {
		names[i] = tool.Name
	}
	return names
}

// Visible returns the tools a caller holding scopes may use.
func (t *Table) Visible(scopes []string) []Tool {
	granted := t.opts.Catalog.Granted(scopes)
	var out []Tool
	for _, tool := range t.tools {
		if slices.Contains(granted, tool.Product) {
			out = append(out, tool)
		}
	}
	return out
}

// ServerFor builds an MCP server exposing only the tools the session's
// scopes grant.
func (t *Table) ServerFor(sess *services.Session) *mcp.Server {
	server := mcp.NewServer(t.opts.Implementation, &mcp.ServerOptions{
		Instructions: t.opts.Instructions,
	})
	for _, tool := range t.Visible(sess.Scopes) {
		tool.add(server, sess)
	}
	if len(t.opts.Middleware) > 0 {
		server.AddReceivingMiddleware(t.opts.Middleware...)
	}
	return server
}
