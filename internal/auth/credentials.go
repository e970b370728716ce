package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenStore loads and persists the Google token bound to an API key.
type TokenStore interface {
	LoadToken(ctx context.Context, apiKey string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, apiKey string, token *oauth2.Token) error
}

// PersistingTokenSource wraps an oauth2.TokenSource to write refreshed tokens
// back to the store. It tracks the last known access token so it only writes
// when the token actually changes, not on every Token() call.
type PersistingTokenSource struct {
	Base   oauth2.TokenSource
	Store  TokenStore
	APIKey string

	mu              sync.Mutex
	lastAccessToken string
}

// NewPersistingTokenSource seeds the tracker with the token already on
// record so the first Token() call does not rewrite it.
func NewPersistingTokenSource(base oauth2.TokenSource, store TokenStore, apiKey string, current *oauth2.Token) *PersistingTokenSource {
	p := &PersistingTokenSource{Base: base, Store: store, APIKey: apiKey}
	if current != nil {
		p.lastAccessToken = current.AccessToken
	}
	return p
}

// Token returns a token, persisting it only when the access token has changed.
func (p *PersistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.Base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := token.AccessToken != p.lastAccessToken
	if changed {
		p.lastAccessToken = token.AccessToken
	}
	p.mu.Unlock()

	if changed {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Store.SaveToken(ctx, p.APIKey, token); err != nil {
			slog.Warn("failed to persist refreshed token",
				"api_key", Redact(p.APIKey),
				"error", err,
			)
		}
	}
	return token, nil
}

// Redact shortens an API key for logs.
func Redact(apiKey string) string {
	if len(apiKey) <= 12 {
		return "***"
	}
	return apiKey[:8] + "…" + apiKey[len(apiKey)-4:]
}
