package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/middleware"
	"github.com/evert/google-mcp-go/internal/registry"
	"github.com/evert/google-mcp-go/internal/tools/drive"
)

// routes holds what the HTTP surface needs.
type routes struct {
	Logger   *slog.Logger
	Keys     middleware.KeyLookup
	Sessions drive.SessionFunc
	Table    *registry.Table
	Auth     *auth.Handlers
	Metrics  http.Handler
	Now      func() time.Time
}

func (rt *routes) handler() http.Handler {
	mux := http.NewServeMux()
	if rt.Auth != nil {
		rt.Auth.Register(mux)
	}

	requireKey := middleware.RequireAPIKey(rt.Keys, rt.Logger)
	mcpHandler := mcp.NewStreamableHTTPHandler(rt.serverFor, &mcp.StreamableHTTPOptions{Stateless: true})
	mux.Handle("/mcp", middleware.CORS(requireKey(mcpHandler)))
	mux.Handle("/files", middleware.CORS(requireKey(&drive.FilesHandler{
		Sessions: rt.Sessions,
		Logger:   rt.Logger,
	})))

	mux.HandleFunc("GET /health", rt.health)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}
	return middleware.AccessLog(rt.Logger)(mux)
}

// serverFor builds a per-request MCP server scoped to the caller's grants.
func (rt *routes) serverFor(r *http.Request) *mcp.Server {
	rec, ok := middleware.APIKeyFromContext(r.Context())
	if !ok {
		return nil
	}
	return rt.Table.ServerFor(rt.Sessions(rec))
}

func (rt *routes) health(w http.ResponseWriter, _ *http.Request) {
	now := time.Now
	if rt.Now != nil {
		now = rt.Now
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"timestamp": now().UTC().Format(time.RFC3339Nano),
	})
}
