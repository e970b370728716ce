package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/evert/google-mcp-go/internal/auth"
)

// TokenSourcer builds an auto-refreshing token source for a stored token.
type TokenSourcer interface {
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource
}

// Factory manages authenticated Google API service clients per API key.
// Clients are cached with ReuseTokenSource for concurrency-safe auto-refresh.
type Factory struct {
	oauth   TokenSourcer
	tokens  auth.TokenStore
	opts    []option.ClientOption
	mu      sync.RWMutex
	clients map[string]*http.Client
}

// NewFactory creates a service factory. opts are appended to every service
// constructor, which lets tests point the clients at a fake endpoint.
func NewFactory(oauth TokenSourcer, tokens auth.TokenStore, opts ...option.ClientOption) *Factory {
	return &Factory{
		oauth:   oauth,
		tokens:  tokens,
		opts:    opts,
		clients: make(map[string]*http.Client),
	}
}

// clientFor returns a cached, auto-refreshing HTTP client for the API key.
// The cached client and token source use context.Background() so they
// outlive the request that created them; each API call passes its own
// request context via .Context(ctx).
func (f *Factory) clientFor(ctx context.Context, apiKey string) (*http.Client, error) {
	f.mu.RLock()
	client, ok := f.clients[apiKey]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := f.clients[apiKey]; ok {
		return client, nil
	}

	token, err := f.tokens.LoadToken(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	bgCtx := context.Background()
	persisting := auth.NewPersistingTokenSource(f.oauth.TokenSource(bgCtx, token), f.tokens, apiKey, token)
	client = oauth2.NewClient(bgCtx, oauth2.ReuseTokenSource(token, persisting))
	f.clients[apiKey] = client
	return client, nil
}

// InvalidateClient removes the cached HTTP client for an API key, forcing
// the next API call to rebuild it from the latest persisted token.
func (f *Factory) InvalidateClient(apiKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, apiKey)
}

func (f *Factory) options(client *http.Client) []option.ClientOption {
	opts := make([]option.ClientOption, 0, len(f.opts)+1)
	opts = append(opts, option.WithHTTPClient(client))
	return append(opts, f.opts...)
}

// Sheets returns a Sheets service client for the given API key.
func (f *Factory) Sheets(ctx context.Context, apiKey string) (*sheets.Service, error) {
	client, err := f.clientFor(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("sheets client for %s: %w", auth.Redact(apiKey), err)
	}
	return sheets.NewService(ctx, f.options(client)...)
}

// Calendar returns a Calendar service client for the given API key.
func (f *Factory) Calendar(ctx context.Context, apiKey string) (*calendar.Service, error) {
	client, err := f.clientFor(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("calendar client for %s: %w", auth.Redact(apiKey), err)
	}
	return calendar.NewService(ctx, f.options(client)...)
}

// Drive returns a Drive service client for the given API key.
func (f *Factory) Drive(ctx context.Context, apiKey string) (*drive.Service, error) {
	client, err := f.clientFor(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("drive client for %s: %w", auth.Redact(apiKey), err)
	}
	return drive.NewService(ctx, f.options(client)...)
}
