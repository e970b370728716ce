package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthState_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	scopes := []string{"https://www.googleapis.com/auth/drive.file"}
	require.NoError(t, s.CreateOAuthState(ctx, "state-1", scopes, "7days"))

	st, err := s.ConsumeOAuthState(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, scopes, st.Scopes)
	assert.Equal(t, "7days", st.Expiration)

	_, err = s.ConsumeOAuthState(ctx, "state-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOAuthState_Unknown(t *testing.T) {
	_, err := newTestStore(t).ConsumeOAuthState(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOAuthState_Stale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	start := time.Now()
	s.now = func() time.Time { return start }
	require.NoError(t, s.CreateOAuthState(ctx, "old", []string{"a"}, "never"))

	s.now = func() time.Time { return start.Add(StateTTL + time.Minute) }
	_, err := s.ConsumeOAuthState(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOAuthState_CreatePurgesStale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	start := time.Now()
	s.now = func() time.Time { return start }
	require.NoError(t, s.CreateOAuthState(ctx, "old", []string{"a"}, "never"))

	s.now = func() time.Time { return start.Add(StateTTL + time.Minute) }
	require.NoError(t, s.CreateOAuthState(ctx, "new", []string{"a"}, "never"))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM oauth_states`).Scan(&n))
	assert.Equal(t, 1, n)
}
