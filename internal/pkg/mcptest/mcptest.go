// Package mcptest wires MCP servers to in-memory clients and Google API
// clients to httptest fakes for handler tests.
package mcptest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/evert/google-mcp-go/internal/services"
	"github.com/evert/google-mcp-go/internal/store"
)

// APIKey is the key every fake session is bound to.
const APIKey = "gmc_test_key_0123456789"

// Connect starts server on an in-memory transport and returns a connected
// client session. Both ends are closed when the test finishes.
func Connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

// Call invokes a tool and fails the test on protocol errors. Tool errors are
// returned in the result.
func Call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return res
}

// Text concatenates the text content of a result.
func Text(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// Structured decodes the structured content of a result into v.
func Structured(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode structured content %s: %v", raw, err)
	}
}

// Files is an in-memory file registry.
type Files struct {
	mu    sync.Mutex
	Saved []store.AuthorizedFile
}

// SaveAuthorizedFiles implements services.FileRegistry.
func (f *Files) SaveAuthorizedFiles(_ context.Context, _ string, files []store.AuthorizedFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Saved = append(f.Saved, files...)
	return nil
}

// ListAuthorizedFiles implements services.FileRegistry.
func (f *Files) ListAuthorizedFiles(_ context.Context, _, mimeType string) ([]store.AuthorizedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.AuthorizedFile
	for _, file := range f.Saved {
		if mimeType == "" || file.MimeType == mimeType {
			out = append(out, file)
		}
	}
	return out, nil
}

type tokens struct{}

func (tokens) LoadToken(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "test-access", TokenType: "Bearer"}, nil
}

func (tokens) SaveToken(context.Context, string, *oauth2.Token) error { return nil }

type static struct{}

func (static) TokenSource(_ context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.StaticTokenSource(tok)
}

// Session returns a session whose Google clients talk to google, an
// httptest fake of the REST endpoints.
func Session(t *testing.T, google http.Handler, files *Files, scopes ...string) *services.Session {
	t.Helper()
	srv := httptest.NewServer(google)
	t.Cleanup(srv.Close)
	if files == nil {
		files = &Files{}
	}
	factory := services.NewFactory(static{}, tokens{}, option.WithEndpoint(srv.URL+"/"))
	return services.NewSession(factory, files, APIKey, scopes)
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GoogleError writes a Google API error body.
func GoogleError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}
