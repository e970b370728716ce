package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evert/google-mcp-go/internal/auth"
)

// ProductConfig is the layout of the product catalog YAML file.
type ProductConfig struct {
	Products []auth.Product `yaml:"products"`
}

// LoadProducts reads and validates the product catalog file.
func LoadProducts(path string) (*auth.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading product config %s: %w", path, err)
	}

	var pc ProductConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("parsing product config %s: %w", path, err)
	}
	if len(pc.Products) == 0 {
		return nil, fmt.Errorf("product config %s lists no products", path)
	}

	cat, err := auth.NewCatalog(pc.Products)
	if err != nil {
		return nil, fmt.Errorf("product config %s: %w", path, err)
	}
	return cat, nil
}
