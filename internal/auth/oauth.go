package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// RevokeURL is Google's token revocation endpoint.
const RevokeURL = "https://oauth2.googleapis.com/revoke"

// ErrInvalidState is returned when an OAuth callback carries an unknown,
// reused or expired state.
var ErrInvalidState = errors.New("invalid or expired state")

// OAuthManager handles OAuth2 configuration, code exchange and revocation.
// Scopes are chosen per authorization, so the base config carries none.
type OAuthManager struct {
	config     *oauth2.Config
	revokeURL  string
	httpClient *http.Client
}

// NewOAuthManager creates an OAuth manager with the given credentials.
func NewOAuthManager(clientID, clientSecret, redirectURL string) *OAuthManager {
	return &OAuthManager{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
		},
		revokeURL:  RevokeURL,
		httpClient: http.DefaultClient,
	}
}

// WithEndpoints points token exchange and revocation at other servers.
func (m *OAuthManager) WithEndpoints(endpoint oauth2.Endpoint, revokeURL string, client *http.Client) *OAuthManager {
	cfg := *m.config
	cfg.Endpoint = endpoint
	if client == nil {
		client = http.DefaultClient
	}
	return &OAuthManager{config: &cfg, revokeURL: revokeURL, httpClient: client}
}

func (m *OAuthManager) scoped(scopes []string) *oauth2.Config {
	cfg := *m.config
	cfg.Scopes = scopes
	return &cfg
}

// AuthURL returns the consent URL for the given scopes. Offline access with
// forced consent guarantees a refresh token on every grant.
func (m *OAuthManager) AuthURL(state string, scopes []string) string {
	return m.scoped(scopes).AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (m *OAuthManager) Exchange(ctx context.Context, code string, scopes []string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	token, err := m.scoped(scopes).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging auth code: %w", err)
	}
	return token, nil
}

// TokenSource returns an auto-refreshing source seeded with token.
func (m *OAuthManager) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	return m.config.TokenSource(ctx, token)
}

// Revoke invalidates a Google access or refresh token.
func (m *OAuthManager) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revoking token: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Config returns the underlying oauth2.Config.
func (m *OAuthManager) Config() *oauth2.Config {
	return m.config
}
