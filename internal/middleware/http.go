package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/store"
)

// CodeUnauthorized is the JSON-RPC error code returned for missing or
// unknown API keys.
const CodeUnauthorized = -32001

type contextKey string

const apiKeyContextKey contextKey = "api_key"

// KeyLookup resolves an API key to its credential record.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, key string) (*store.APIKey, error)
}

// WithAPIKey returns a context carrying the credential record.
func WithAPIKey(ctx context.Context, rec *store.APIKey) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, rec)
}

// APIKeyFromContext returns the credential record set by RequireAPIKey.
func APIKeyFromContext(ctx context.Context) (*store.APIKey, bool) {
	rec, ok := ctx.Value(apiKeyContextKey).(*store.APIKey)
	return rec, ok && rec != nil
}

// RequireAPIKey authenticates requests with an "Authorization: Bearer <key>"
// header and stores the credential record in the request context.
func RequireAPIKey(keys KeyLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeRPCError(w, http.StatusUnauthorized, CodeUnauthorized, "Missing or invalid Authorization header")
				return
			}

			rec, err := keys.GetAPIKey(r.Context(), key)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logger.ErrorContext(r.Context(), "api key lookup failed",
						"api_key", auth.Redact(key), "error", err)
				}
				writeRPCError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAPIKey(r.Context(), rec)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error":   map[string]any{"code": code, "message": message},
	})
}

// CORS allows browser-based MCP clients on any origin. Preflight requests are
// answered directly.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Mcp-Session-Id, Mcp-Protocol-Version")
		h.Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// AccessLog logs one line per HTTP request.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
