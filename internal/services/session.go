package services

import (
	"context"
	"slices"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/evert/google-mcp-go/internal/store"
)

// FileRegistry records which Drive files an API key may open.
type FileRegistry interface {
	SaveAuthorizedFiles(ctx context.Context, apiKey string, files []store.AuthorizedFile) error
	ListAuthorizedFiles(ctx context.Context, apiKey, mimeType string) ([]store.AuthorizedFile, error)
}

// Session binds one API key to the clients and file registry its tools use.
// It lives for a single MCP request over HTTP, or the whole process over
// stdio.
type Session struct {
	APIKey string
	Scopes []string

	factory *Factory
	files   FileRegistry
}

// NewSession creates a session for an API key with the given granted scopes.
func NewSession(factory *Factory, files FileRegistry, apiKey string, scopes []string) *Session {
	return &Session{APIKey: apiKey, Scopes: scopes, factory: factory, files: files}
}

// HasScope reports whether the key was granted scope.
func (s *Session) HasScope(scope string) bool {
	return slices.Contains(s.Scopes, scope)
}

// Sheets returns the Sheets client for the session's key.
func (s *Session) Sheets(ctx context.Context) (*sheets.Service, error) {
	return s.factory.Sheets(ctx, s.APIKey)
}

// Calendar returns the Calendar client for the session's key.
func (s *Session) Calendar(ctx context.Context) (*calendar.Service, error) {
	return s.factory.Calendar(ctx, s.APIKey)
}

// Drive returns the Drive client for the session's key.
func (s *Session) Drive(ctx context.Context) (*drive.Service, error) {
	return s.factory.Drive(ctx, s.APIKey)
}

// AuthorizedFiles lists the files recorded for the key, optionally filtered
// by MIME type.
func (s *Session) AuthorizedFiles(ctx context.Context, mimeType string) ([]store.AuthorizedFile, error) {
	return s.files.ListAuthorizedFiles(ctx, s.APIKey, mimeType)
}

// AuthorizeFiles records files as accessible to the key.
func (s *Session) AuthorizeFiles(ctx context.Context, files ...store.AuthorizedFile) error {
	if len(files) == 0 {
		return nil
	}
	return s.files.SaveAuthorizedFiles(ctx, s.APIKey, files)
}
