package drive

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/middleware"
	"github.com/evert/google-mcp-go/internal/pkg/validate"
	"github.com/evert/google-mcp-go/internal/services"
	"github.com/evert/google-mcp-go/internal/store"
)

const (
	maxFileIDs     = 100
	lookupParallel = 4
)

// SessionFunc builds a Google session for an authenticated key.
type SessionFunc func(rec *store.APIKey) *services.Session

// FilesHandler serves POST /files. Each requested ID is looked up through
// the Drive API with the caller's credentials; reachable files are recorded
// as authorized for the key.
type FilesHandler struct {
	Sessions SessionFunc
	Logger   *slog.Logger
	Now      func() time.Time
}

type filesRequest struct {
	FileIDs []string `json:"fileIds"`
}

// FailedFile is a requested ID that could not be authorized.
type FailedFile struct {
	FileID string `json:"fileId"`
	Error  string `json:"error"`
}

// FilesResponse is the body returned by POST /files.
type FilesResponse struct {
	Authorized []FileSummary `json:"authorized"`
	Failed     []FailedFile  `json:"failed"`
}

func (h *FilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, ok := middleware.APIKeyFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing API key")
		return
	}

	var req filesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ids := dedupe(req.FileIDs)
	switch {
	case len(ids) == 0:
		writeError(w, http.StatusBadRequest, "fileIds is required")
		return
	case len(ids) > maxFileIDs:
		writeError(w, http.StatusBadRequest, "too many fileIds")
		return
	}

	ctx := r.Context()
	sess := h.Sessions(rec)
	srv, err := sess.Drive(ctx)
	if err != nil {
		h.logger().ErrorContext(ctx, "drive client unavailable", "api_key", auth.Redact(rec.Key), "error", err)
		writeError(w, http.StatusBadGateway, middleware.HandleGoogleAPIError(err).Error())
		return
	}

	var (
		mu      sync.Mutex
		found   = make(map[string]store.AuthorizedFile, len(ids))
		failed  = make(map[string]string)
		now     = h.now()
		lookups errgroup.Group
	)
	lookups.SetLimit(lookupParallel)
	for _, id := range ids {
		lookups.Go(func() error {
			if err := validate.DriveID(id); err != nil {
				mu.Lock()
				failed[id] = err.Error()
				mu.Unlock()
				return nil
			}
			f, err := srv.Files.Get(id).Fields("id", "name", "mimeType").Context(ctx).Do()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[id] = middleware.HandleGoogleAPIError(err).Error()
				return nil
			}
			found[id] = authorizedFile(f, now)
			return nil
		})
	}
	_ = lookups.Wait()

	resp := FilesResponse{Authorized: []FileSummary{}, Failed: []FailedFile{}}
	var files []store.AuthorizedFile
	for _, id := range ids {
		if f, ok := found[id]; ok {
			files = append(files, f)
			resp.Authorized = append(resp.Authorized, fileToSummary(f))
		} else {
			resp.Failed = append(resp.Failed, FailedFile{FileID: id, Error: failed[id]})
		}
	}

	if err := sess.AuthorizeFiles(ctx, files...); err != nil {
		h.logger().ErrorContext(ctx, "saving authorized files", "api_key", auth.Redact(rec.Key), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save authorized files")
		return
	}
	h.logger().InfoContext(ctx, "files authorized",
		"api_key", auth.Redact(rec.Key), "authorized", len(resp.Authorized), "failed", len(resp.Failed))

	writeJSON(w, http.StatusOK, resp)
}

func (h *FilesHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *FilesHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// dedupe drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
