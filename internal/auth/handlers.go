package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evert/google-mcp-go/internal/store"
	"github.com/evert/google-mcp-go/internal/ui"
)

// ClientInvalidator evicts cached API clients for a key.
type ClientInvalidator interface {
	InvalidateClient(apiKey string)
}

// Handlers serves the onboarding pages, the OAuth redirect pair and key
// revocation.
type Handlers struct {
	OAuth       *OAuthManager
	Store       *store.Store
	Catalog     *Catalog
	Pages       *ui.Pages
	BaseURL     string
	Invalidator ClientInvalidator
}

var expirationLabels = map[string]string{
	"never":  "Never",
	"1hour":  "1 hour",
	"1day":   "1 day",
	"7days":  "7 days",
	"30days": "30 days",
	"1year":  "1 year",
}

// Register mounts the handlers on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /auth/google", h.StartAuth)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("DELETE /key/{apiKey}", h.RevokeKey)
}

// Home renders the product selection page.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	var products []ui.ProductOption
	for _, p := range h.Catalog.Products() {
		products = append(products, ui.ProductOption{Name: p.Name, Label: p.Label})
	}
	var expirations []ui.ExpirationOption
	for _, preset := range store.ExpirationPresets() {
		expirations = append(expirations, ui.ExpirationOption{
			Value:    preset,
			Label:    expirationLabels[preset],
			Selected: preset == "never",
		})
	}
	h.Pages.Home(w, products, expirations)
}

// StartAuth records an OAuth state for the selected products and redirects
// to Google's consent screen.
func (h *Handlers) StartAuth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var names []string
	if v := q.Get("products"); v != "" {
		names = strings.Split(v, ",")
	}
	names = append(names, q["product"]...)
	if len(names) == 0 {
		h.Pages.Error(w, http.StatusBadRequest, "No products selected")
		return
	}

	scopes, err := h.Catalog.Scopes(names)
	if err != nil {
		h.Pages.Error(w, http.StatusBadRequest, "No valid products selected")
		return
	}

	expiration := q.Get("expiration")
	if expiration == "" {
		expiration = "never"
	}

	state := uuid.NewString()
	if err := h.Store.CreateOAuthState(r.Context(), state, scopes, expiration); err != nil {
		slog.Error("creating oauth state", "error", err)
		h.Pages.Error(w, http.StatusInternalServerError, "Could not start authorization. Please try again.")
		return
	}

	slog.Info("starting OAuth flow", "products", names, "expiration", expiration)
	http.Redirect(w, r, h.OAuth.AuthURL(state, scopes), http.StatusFound)
}

// Callback completes the OAuth flow: it consumes the state, exchanges the
// code and issues an API key.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")

	if errMsg := q.Get("error"); errMsg != "" {
		slog.Error("OAuth callback error", "error", errMsg)
		h.Pages.Error(w, http.StatusBadRequest, "OAuth error: "+errMsg)
		return
	}
	if code == "" || state == "" {
		slog.Error("OAuth callback missing code or state")
		h.Pages.Error(w, http.StatusBadRequest, "Missing code or state")
		return
	}

	pending, err := h.Store.ConsumeOAuthState(r.Context(), state)
	if errors.Is(err, store.ErrNotFound) {
		h.Pages.Error(w, http.StatusBadRequest, "Invalid or expired state")
		return
	}
	if err != nil {
		slog.Error("consuming oauth state", "error", err)
		h.Pages.Error(w, http.StatusInternalServerError, "Could not verify authorization state")
		return
	}

	token, err := h.OAuth.Exchange(r.Context(), code, pending.Scopes)
	if err != nil {
		slog.Error("OAuth token exchange failed", "error", err)
		h.Pages.Error(w, http.StatusInternalServerError, "Token exchange failed: "+err.Error())
		return
	}

	expiresAt := store.ExpiresAt(pending.Expiration, time.Now())
	apiKey, err := h.Store.CreateAPIKey(r.Context(), token, pending.Scopes, expiresAt)
	if err != nil {
		slog.Error("creating api key", "error", err)
		h.Pages.Error(w, http.StatusInternalServerError, "Could not store credentials")
		return
	}

	slog.Info("OAuth authentication successful",
		"api_key", Redact(apiKey),
		"products", h.Catalog.Granted(pending.Scopes),
	)
	h.Pages.Success(w, apiKey, h.BaseURL)
}

// RevokeKey revokes the Google token behind a key, best effort, then
// deletes the key.
func (h *Handlers) RevokeKey(w http.ResponseWriter, r *http.Request) {
	apiKey := r.PathValue("apiKey")

	rec, err := h.Store.GetAPIKey(r.Context(), apiKey)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "API key not found"})
		return
	}
	if err != nil {
		slog.Error("loading api key for revoke", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	token := rec.Token.RefreshToken
	if token == "" {
		token = rec.Token.AccessToken
	}
	if err := h.OAuth.Revoke(r.Context(), token); err != nil {
		slog.Warn("google token revocation failed", "api_key", Redact(apiKey), "error", err)
	}

	if _, err := h.Store.DeleteAPIKey(r.Context(), apiKey); err != nil {
		slog.Error("deleting api key", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	if h.Invalidator != nil {
		h.Invalidator.InvalidateClient(apiKey)
	}

	slog.Info("api key revoked", "api_key", Redact(apiKey))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
