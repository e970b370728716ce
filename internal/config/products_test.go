package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadProducts_ShippedConfig(t *testing.T) {
	cat, err := LoadProducts(filepath.Join("..", "..", "configs", "products.yaml"))
	if err != nil {
		t.Fatalf("LoadProducts: %v", err)
	}
	if !reflect.DeepEqual(cat.Names(), []string{"calendar", "sheets", "drive"}) {
		t.Errorf("names: %v", cat.Names())
	}
}

func TestLoadProducts(t *testing.T) {
	path := writeFile(t, `
products:
  - name: sheets
    label: Sheets
    scopes: [https://www.googleapis.com/auth/drive.file]
`)
	cat, err := LoadProducts(path)
	if err != nil {
		t.Fatalf("LoadProducts: %v", err)
	}
	p, ok := cat.Lookup("sheets")
	if !ok || p.Label != "Sheets" || len(p.Scopes) != 1 {
		t.Errorf("unexpected product: %+v", p)
	}
}

func TestLoadProducts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "products: [::"},
		{"empty", "products: []"},
		{"no scopes", "products:\n  - name: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadProducts(writeFile(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadProducts(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
