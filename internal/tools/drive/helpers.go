package drive

import (
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/evert/google-mcp-go/internal/store"
)

// FileSummary is a compact representation of an authorized file.
type FileSummary struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	AddedAt  string `json:"addedAt"`
}

func fileToSummary(f store.AuthorizedFile) FileSummary {
	return FileSummary{
		FileID:   f.ID,
		FileName: f.Name,
		MimeType: f.MimeType,
		AddedAt:  f.AddedAt.UTC().Format(time.RFC3339),
	}
}

// authorizedFile converts Drive metadata into a registry entry.
func authorizedFile(f *drive.File, now time.Time) store.AuthorizedFile {
	return store.AuthorizedFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType, AddedAt: now}
}

// formatFileType returns a human-readable file type from a MIME type.
func formatFileType(mimeType string) string {
	switch mimeType {
	case "application/vnd.google-apps.document":
		return "Google Doc"
	case "application/vnd.google-apps.spreadsheet":
		return "Google Sheet"
	case "application/vnd.google-apps.presentation":
		return "Google Slides"
	case "application/vnd.google-apps.folder":
		return "Folder"
	case "application/pdf":
		return "PDF"
	case "text/csv":
		return "CSV"
	default:
		if strings.HasPrefix(mimeType, "image/") {
			return "Image"
		}
		return mimeType
	}
}
