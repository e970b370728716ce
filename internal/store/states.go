package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StateTTL bounds how long an OAuth state may wait for its callback.
const StateTTL = 10 * time.Minute

// OAuthState is a pending authorization started from the home page.
type OAuthState struct {
	State      string
	Scopes     []string
	Expiration string
	CreatedAt  time.Time
}

// CreateOAuthState records a new state and purges states older than StateTTL.
func (s *Store) CreateOAuthState(ctx context.Context, state string, scopes []string, expiration string) error {
	scopeJSON, err := json.Marshal(scopes)
	if err != nil {
		return fmt.Errorf("encoding scopes: %w", err)
	}
	now := s.now()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO oauth_states (state, scopes, expiration, created_at) VALUES (?, ?, ?, ?)`,
		state, string(scopeJSON), expiration, now.Unix(),
	); err != nil {
		return fmt.Errorf("inserting oauth state: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM oauth_states WHERE created_at < ?`, now.Add(-StateTTL).Unix(),
	); err != nil {
		return fmt.Errorf("purging oauth states: %w", err)
	}
	return nil
}

// ConsumeOAuthState deletes and returns a state. A state is usable once;
// missing or stale states yield ErrNotFound.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string) (*OAuthState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning consume: %w", err)
	}
	defer tx.Rollback()

	var (
		scopeJSON, expiration string
		createdAt             int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT scopes, expiration, created_at FROM oauth_states WHERE state = ?`, state,
	).Scan(&scopeJSON, &expiration, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading oauth state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM oauth_states WHERE state = ?`, state); err != nil {
		return nil, fmt.Errorf("deleting oauth state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing consume: %w", err)
	}

	created := time.Unix(createdAt, 0).UTC()
	if s.now().Sub(created) > StateTTL {
		return nil, ErrNotFound
	}

	out := &OAuthState{State: state, Expiration: expiration, CreatedAt: created}
	if err := json.Unmarshal([]byte(scopeJSON), &out.Scopes); err != nil {
		return nil, fmt.Errorf("decoding scopes: %w", err)
	}
	return out, nil
}
