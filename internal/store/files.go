package store

import (
	"context"
	"fmt"
	"time"
)

// AuthorizedFile is a Drive file the key's owner has granted access to.
type AuthorizedFile struct {
	ID       string    `json:"fileId"`
	Name     string    `json:"fileName"`
	MimeType string    `json:"mimeType"`
	AddedAt  time.Time `json:"addedAt"`
}

// SaveAuthorizedFiles records files for key. Files already recorded are left
// unchanged.
func (s *Store) SaveAuthorizedFiles(ctx context.Context, key string, files []AuthorizedFile) error {
	if len(files) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO authorized_files (api_key, file_id, file_name, mime_type, added_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().Unix()
	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, key, f.ID, f.Name, f.MimeType, now); err != nil {
			return fmt.Errorf("inserting file %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// ListAuthorizedFiles returns the files recorded for key, optionally limited
// to one MIME type, oldest first.
func (s *Store) ListAuthorizedFiles(ctx context.Context, key, mimeType string) ([]AuthorizedFile, error) {
	query := `SELECT file_id, file_name, mime_type, added_at FROM authorized_files WHERE api_key = ?`
	args := []any{key}
	if mimeType != "" {
		query += ` AND mime_type = ?`
		args = append(args, mimeType)
	}
	query += ` ORDER BY added_at, file_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing authorized files: %w", err)
	}
	defer rows.Close()

	var files []AuthorizedFile
	for rows.Next() {
		var (
			f       AuthorizedFile
			addedAt int64
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.MimeType, &addedAt); err != nil {
			return nil, fmt.Errorf("scanning authorized file: %w", err)
		}
		f.AddedAt = time.Unix(addedAt, 0).UTC()
		files = append(files, f)
	}
	return files, rows.Err()
}

// IsFileAuthorized reports whether fileID was recorded for key.
func (s *Store) IsFileAuthorized(ctx context.Context, key, fileID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM authorized_files WHERE api_key = ? AND file_id = ?`, key, fileID,
	).Scan(&one)
	if err != nil {
		return false, fmt.Errorf("checking authorized file: %w", err)
	}
	return one > 0, nil
}
