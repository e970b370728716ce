package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// APIKeyPrefix starts every issued API key.
const APIKeyPrefix = "gmc_"

// Expiration presets accepted by ExpiresAt.
var expirationPresets = map[string]time.Duration{
	"1hour":  time.Hour,
	"1day":   24 * time.Hour,
	"7days":  7 * 24 * time.Hour,
	"30days": 30 * 24 * time.Hour,
	"1year":  365 * 24 * time.Hour,
}

// ExpirationPresets lists the preset names in display order.
func ExpirationPresets() []string {
	return []string{"never", "1hour", "1day", "7days", "30days", "1year"}
}

// ExpiresAt converts an expiration preset to an absolute time. "never" and
// unrecognized presets yield nil.
func ExpiresAt(preset string, now time.Time) *time.Time {
	d, ok := expirationPresets[preset]
	if !ok {
		return nil
	}
	t := now.Add(d)
	return &t
}

// GenerateAPIKey returns a new random key: the prefix followed by 64 hex chars.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

// LooksLikeAPIKey reports whether s has the shape of an issued key.
func LooksLikeAPIKey(s string) bool {
	if !strings.HasPrefix(s, APIKeyPrefix) || len(s) != len(APIKeyPrefix)+64 {
		return false
	}
	_, err := hex.DecodeString(s[len(APIKeyPrefix):])
	return err == nil
}

// APIKey is a decrypted api_keys row.
type APIKey struct {
	Key       string
	Token     *oauth2.Token
	Scopes    []string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// HasScope reports whether the key was granted scope.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// CreateAPIKey issues a key bound to token and scopes.
func (s *Store) CreateAPIKey(ctx context.Context, token *oauth2.Token, scopes []string, expiresAt *time.Time) (string, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	access, refresh, err := s.encryptToken(token)
	if err != nil {
		return "", err
	}
	scopeJSON, err := json.Marshal(scopes)
	if err != nil {
		return "", fmt.Errorf("encoding scopes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO api_keys (api_key, google_access_token, google_refresh_token, token_type, token_expiry, scopes, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, access, refresh, token.TokenType, unixOrNull(&token.Expiry), string(scopeJSON), unixOrNull(expiresAt), s.now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting api key: %w", err)
	}
	return key, nil
}

// GetAPIKey loads and decrypts a key. An expired key is deleted and reported
// as ErrNotFound.
func (s *Store) GetAPIKey(ctx context.Context, key string) (*APIKey, error) {
	var (
		access, refresh, tokenType, scopeJSON string
		tokenExpiry, expiresAt                sql.NullInt64
		createdAt                             int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT google_access_token, google_refresh_token, token_type, token_expiry, scopes, expires_at, created_at
		FROM api_keys WHERE api_key = ?`, key,
	).Scan(&access, &refresh, &tokenType, &tokenExpiry, &scopeJSON, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading api key: %w", err)
	}

	if expiresAt.Valid && expiresAt.Int64 < s.now().Unix() {
		if _, err := s.DeleteAPIKey(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	rec := &APIKey{
		Key:       key,
		ExpiresAt: timeOrNil(expiresAt),
		CreatedAt: time.Unix(createdAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(scopeJSON), &rec.Scopes); err != nil {
		return nil, fmt.Errorf("decoding scopes: %w", err)
	}

	rec.Token = &oauth2.Token{TokenType: tokenType}
	if t := timeOrNil(tokenExpiry); t != nil {
		rec.Token.Expiry = *t
	}
	if rec.Token.AccessToken, err = s.cipher.Decrypt(access); err != nil {
		return nil, fmt.Errorf("decrypting access token: %w", err)
	}
	if rec.Token.RefreshToken, err = s.cipher.Decrypt(refresh); err != nil {
		return nil, fmt.Errorf("decrypting refresh token: %w", err)
	}
	return rec, nil
}

// UpdateToken stores a refreshed token. An empty refresh token keeps the one
// already on record.
func (s *Store) UpdateToken(ctx context.Context, key string, token *oauth2.Token) error {
	access, refresh, err := s.encryptToken(token)
	if err != nil {
		return err
	}

	var res sql.Result
	if token.RefreshToken != "" {
		res, err = s.db.ExecContext(ctx, `
			UPDATE api_keys SET google_access_token = ?, google_refresh_token = ?, token_type = ?, token_expiry = ?
			WHERE api_key = ?`, access, refresh, token.TokenType, unixOrNull(&token.Expiry), key)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE api_keys SET google_access_token = ?, token_type = ?, token_expiry = ?
			WHERE api_key = ?`, access, token.TokenType, unixOrNull(&token.Expiry), key)
	}
	if err != nil {
		return fmt.Errorf("updating token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAPIKey removes a key and its authorized files. It reports whether a
// key was removed.
func (s *Store) DeleteAPIKey(ctx context.Context, key string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM api_keys WHERE api_key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("deleting api key: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM authorized_files WHERE api_key = ?`, key); err != nil {
		return false, fmt.Errorf("deleting authorized files: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// LoadToken returns the Google token stored for key.
func (s *Store) LoadToken(ctx context.Context, key string) (*oauth2.Token, error) {
	rec, err := s.GetAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return rec.Token, nil
}

// SaveToken is UpdateToken under the name used by token persistence.
func (s *Store) SaveToken(ctx context.Context, key string, token *oauth2.Token) error {
	return s.UpdateToken(ctx, key, token)
}

func (s *Store) encryptToken(token *oauth2.Token) (string, string, error) {
	if token == nil || token.AccessToken == "" {
		return "", "", errors.New("token has no access token")
	}
	access, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", "", fmt.Errorf("encrypting access token: %w", err)
	}
	refresh, err := s.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("encrypting refresh token: %w", err)
	}
	return access, refresh, nil
}
