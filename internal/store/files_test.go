package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mimeSheet = "application/vnd.google-apps.spreadsheet"
	mimeDoc   = "application/vnd.google-apps.document"
)

func TestAuthorizedFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	files := []AuthorizedFile{
		{ID: "sheet-1", Name: "Budget", MimeType: mimeSheet},
		{ID: "doc-1", Name: "Notes", MimeType: mimeDoc},
	}
	require.NoError(t, s.SaveAuthorizedFiles(ctx, "key-a", files))
	// Duplicates are ignored.
	require.NoError(t, s.SaveAuthorizedFiles(ctx, "key-a", files[:1]))

	all, err := s.ListAuthorizedFiles(ctx, "key-a", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sheets, err := s.ListAuthorizedFiles(ctx, "key-a", mimeSheet)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "sheet-1", sheets[0].ID)
	assert.Equal(t, "Budget", sheets[0].Name)
	assert.False(t, sheets[0].AddedAt.IsZero())

	other, err := s.ListAuthorizedFiles(ctx, "key-b", "")
	require.NoError(t, err)
	assert.Empty(t, other)

	ok, err := s.IsFileAuthorized(ctx, "key-a", "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsFileAuthorized(ctx, "key-b", "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizedFiles_EmptySave(t *testing.T) {
	assert.NoError(t, newTestStore(t).SaveAuthorizedFiles(context.Background(), "k", nil))
}
