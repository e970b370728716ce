package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evert/google-mcp-go/internal/store"
)

type fakeKeys map[string]*store.APIKey

func (f fakeKeys) GetAPIKey(_ context.Context, key string) (*store.APIKey, error) {
	if key == "broken" {
		return nil, errors.New("database locked")
	}
	rec, ok := f[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireAPIKey(t *testing.T) {
	keys := fakeKeys{"gmc_good": {Key: "gmc_good", Scopes: []string{"s"}}}

	var seen *store.APIKey
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = APIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAPIKey(keys, discardLogger())(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"valid key", "Bearer gmc_good", http.StatusOK, ""},
		{"lowercase scheme", "bearer gmc_good", http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"unknown key", "Bearer gmc_nope", http.StatusUnauthorized, "Invalid API key"},
		{"lookup failure", "Bearer broken", http.StatusUnauthorized, "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.Key != "gmc_good" {
					t.Errorf("expected record in context, got %+v", seen)
				}
				return
			}

			var body struct {
				JSONRPC string `json:"jsonrpc"`
				Error   struct {
					Code    int    `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.JSONRPC != "2.0" || body.Error.Code != CodeUnauthorized {
				t.Errorf("unexpected body: %s", rr.Body.String())
			}
			if body.Error.Message != tt.wantMsg {
				t.Errorf("message: got %q, want %q", body.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestAPIKeyFromContext_Missing(t *testing.T) {
	if _, ok := APIKeyFromContext(context.Background()); ok {
		t.Error("expected no record in empty context")
	}
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, preflight)
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want 204", rr.Code)
	}
	if called {
		t.Error("preflight should not reach next handler")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing allow-origin header")
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	if !called {
		t.Error("POST should reach next handler")
	}
}

func TestAccessLog_RecordsStatus(t *testing.T) {
	handler := AccessLog(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want 418", rr.Code)
	}
}
