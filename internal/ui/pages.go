// Package ui renders the HTML pages of the OAuth onboarding flow.
package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// ProductOption is one checkbox on the home page.
type ProductOption struct {
	Name  string
	Label string
}

// ExpirationOption is one entry of the key-expiration select.
type ExpirationOption struct {
	Value    string
	Label    string
	Selected bool
}

// Pages holds the parsed page templates.
type Pages struct {
	home    *template.Template
	success *template.Template
	failure *template.Template
}

// New parses the embedded templates.
func New() (*Pages, error) {
	parse := func(page string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
		return t, nil
	}

	var p Pages
	var err error
	if p.home, err = parse("home.html"); err != nil {
		return nil, err
	}
	if p.success, err = parse("success.html"); err != nil {
		return nil, err
	}
	if p.failure, err = parse("error.html"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Home renders the product selection page.
func (p *Pages) Home(w http.ResponseWriter, products []ProductOption, expirations []ExpirationOption) {
	p.render(w, http.StatusOK, p.home, map[string]any{
		"Title":       "Connect",
		"Products":    products,
		"Expirations": expirations,
	})
}

// Success renders the issued API key with a ready-to-paste client config.
func (p *Pages) Success(w http.ResponseWriter, apiKey, baseURL string) {
	p.render(w, http.StatusOK, p.success, map[string]any{
		"Title":        "Success",
		"APIKey":       apiKey,
		"ClientConfig": ClientConfig(apiKey, baseURL),
	})
}

// Error renders a failure page with the given status.
func (p *Pages) Error(w http.ResponseWriter, status int, message string) {
	p.render(w, status, p.failure, map[string]any{
		"Title":   "Error",
		"Message": message,
	})
}

func (p *Pages) render(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("rendering page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// ClientConfig returns the MCP client configuration JSON for an API key.
func ClientConfig(apiKey, baseURL string) string {
	cfg := map[string]any{
		"mcpServers": map[string]any{
			"google-mcp": map[string]any{
				"url": baseURL + "/mcp",
				"headers": map[string]string{
					"Authorization": "Bearer " + apiKey,
				},
			},
		},
	}
	out, _ := json.MarshalIndent(cfg, "", "  ")
	return string(out)
}
