package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/evert/google-mcp-go/internal/store"
	"github.com/evert/google-mcp-go/internal/ui"
)

type recordingInvalidator struct{ keys []string }

func (r *recordingInvalidator) InvalidateClient(key string) { r.keys = append(r.keys, key) }

type handlerEnv struct {
	mux         *http.ServeMux
	store       *store.Store
	revoked     *[]string
	invalidator *recordingInvalidator
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	srv, revoked := fakeGoogle(t)

	enc, err := NewTokenEncryption(testKey(9))
	if err != nil {
		t.Fatalf("NewTokenEncryption: %v", err)
	}
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"), enc)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pages, err := ui.New()
	if err != nil {
		t.Fatalf("ui.New: %v", err)
	}
	cat, _ := NewCatalog(DefaultProducts())
	inv := &recordingInvalidator{}

	h := &Handlers{
		OAuth:       testManager(srv),
		Store:       st,
		Catalog:     cat,
		Pages:       pages,
		BaseURL:     "http://localhost:8000",
		Invalidator: inv,
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return &handlerEnv{mux: mux, store: st, revoked: revoked, invalidator: inv}
}

func (e *handlerEnv) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

var apiKeyRE = regexp.MustCompile(`gmc_[0-9a-f]{64}`)

// authorize runs the full redirect flow and returns the issued key.
func (e *handlerEnv) authorize(t *testing.T, products string) string {
	t.Helper()
	rec := e.do(http.MethodGet, "/auth/google?products="+products+"&expiration=7days")
	if rec.Code != http.StatusFound {
		t.Fatalf("start auth: status %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("missing state in redirect")
	}

	rec = e.do(http.MethodGet, "/auth/callback?code=good-code&state="+url.QueryEscape(state))
	if rec.Code != http.StatusOK {
		t.Fatalf("callback: status %d body %s", rec.Code, rec.Body.String())
	}
	key := apiKeyRE.FindString(rec.Body.String())
	if key == "" {
		t.Fatal("no api key on success page")
	}
	return key
}

func TestHome(t *testing.T) {
	e := newHandlerEnv(t)
	rec := e.do(http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	for _, want := range []string{"Google Calendar", "Google Sheets", `value="30days"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("home page missing %q", want)
		}
	}
}

func TestStartAuth_Validation(t *testing.T) {
	e := newHandlerEnv(t)
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"no products", "/auth/google", http.StatusBadRequest},
		{"unknown product", "/auth/google?products=gmail", http.StatusBadRequest},
		{"comma list", "/auth/google?products=calendar,sheets", http.StatusFound},
		{"repeated param", "/auth/google?product=calendar&product=sheets", http.StatusFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(http.MethodGet, tt.target); rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStartAuth_RedirectScopes(t *testing.T) {
	e := newHandlerEnv(t)
	rec := e.do(http.MethodGet, "/auth/google?products=calendar,sheets")
	loc, _ := url.Parse(rec.Header().Get("Location"))
	if got := loc.Query().Get("scope"); got != ScopeCalendar+" "+ScopeDriveFile {
		t.Errorf("scope: got %q", got)
	}
}

func TestCallback_IssuesKey(t *testing.T) {
	e := newHandlerEnv(t)
	key := e.authorize(t, "sheets")

	rec, err := e.store.GetAPIKey(context.Background(), key)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if rec.Token.AccessToken != "at-1" || rec.Token.RefreshToken != "rt-1" {
		t.Errorf("stored token: %+v", rec.Token)
	}
	if !rec.HasScope(ScopeDriveFile) || rec.HasScope(ScopeCalendar) {
		t.Errorf("stored scopes: %v", rec.Scopes)
	}
	if rec.ExpiresAt == nil {
		t.Error("expected 7days expiration to be recorded")
	}
}

func TestCallback_Errors(t *testing.T) {
	e := newHandlerEnv(t)

	start := e.do(http.MethodGet, "/auth/google?products=calendar")
	loc, _ := url.Parse(start.Header().Get("Location"))
	state := loc.Query().Get("state")

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"google error", "/auth/callback?error=access_denied", http.StatusBadRequest},
		{"missing code", "/auth/callback?state=" + state, http.StatusBadRequest},
		{"unknown state", "/auth/callback?code=good-code&state=nope", http.StatusBadRequest},
		{"exchange fails", "/auth/callback?code=bad-code&state=" + state, http.StatusInternalServerError},
		{"state reused", "/auth/callback?code=good-code&state=" + state, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(http.MethodGet, tt.target); rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRevokeKey(t *testing.T) {
	e := newHandlerEnv(t)
	key := e.authorize(t, "calendar")

	rec := e.do(http.MethodDelete, "/key/"+key)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["success"] != true {
		t.Errorf("body: %v", body)
	}
	if len(*e.revoked) != 1 || (*e.revoked)[0] != "rt-1" {
		t.Errorf("revoked tokens: %v", *e.revoked)
	}
	if len(e.invalidator.keys) != 1 || e.invalidator.keys[0] != key {
		t.Errorf("invalidated: %v", e.invalidator.keys)
	}

	if rec := e.do(http.MethodDelete, "/key/"+key); rec.Code != http.StatusNotFound {
		t.Errorf("second revoke: got %d, want 404", rec.Code)
	}
}
