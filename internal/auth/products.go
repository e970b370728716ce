package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Google OAuth scopes used by the supported products.
const (
	ScopeCalendar  = "https://www.googleapis.com/auth/calendar"
	ScopeDriveFile = "https://www.googleapis.com/auth/drive.file"
)

// Product names.
const (
	ProductCalendar = "calendar"
	ProductSheets   = "sheets"
	ProductDrive    = "drive"
)

// Product is a user-selectable bundle of tools and the scopes it needs.
type Product struct {
	Name   string   `yaml:"name"`
	Label  string   `yaml:"label"`
	Scopes []string `yaml:"scopes"`
}

// DefaultProducts is the built-in product table. Sheets only needs
// drive.file: the app can open spreadsheets it created or was handed.
func DefaultProducts() []Product {
	return []Product{
		{Name: ProductCalendar, Label: "Google Calendar", Scopes: []string{ScopeCalendar}},
		{Name: ProductSheets, Label: "Google Sheets", Scopes: []string{ScopeDriveFile}},
		{Name: ProductDrive, Label: "Google Drive (selected files)", Scopes: []string{ScopeDriveFile}},
	}
}

// Catalog is an immutable, ordered set of products.
type Catalog struct {
	products []Product
	byName   map[string]Product
}

// NewCatalog builds a catalog. Product names must be unique and every
// product needs at least one scope.
func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Product, len(products))}
	for _, p := range products {
		if p.Name == "" {
			return nil, fmt.Errorf("product with empty name")
		}
		if len(p.Scopes) == 0 {
			return nil, fmt.Errorf("product %q has no scopes", p.Name)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate product %q", p.Name)
		}
		if p.Label == "" {
			p.Label = p.Name
		}
		c.byName[p.Name] = p
		c.products = append(c.products, p)
	}
	return c, nil
}

// Restrict returns a catalog limited to the named products. An empty list
// keeps everything.
func (c *Catalog) Restrict(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return c, nil
	}
	var kept []Product
	for _, n := range names {
		p, ok := c.byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown product %q (valid: %s)", n, strings.Join(c.Names(), ", "))
		}
		kept = append(kept, p)
	}
	return NewCatalog(kept)
}

// Products returns the products in declaration order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Names returns the product names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.Name
	}
	return names
}

// Lookup returns a product by name.
func (c *Catalog) Lookup(name string) (Product, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Scopes expands product names into a deduplicated scope list. Unknown names
// are skipped; it is an error if nothing valid remains.
func (c *Catalog) Scopes(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var scopes []string
	valid := 0
	for _, n := range names {
		p, ok := c.byName[strings.TrimSpace(n)]
		if !ok {
			continue
		}
		valid++
		for _, s := range p.Scopes {
			if !seen[s] {
				seen[s] = true
				scopes = append(scopes, s)
			}
		}
	}
	if valid == 0 {
		return nil, fmt.Errorf("no valid products selected")
	}
	return scopes, nil
}

// Granted returns the products whose scopes are all contained in granted,
// sorted by name.
func (c *Catalog) Granted(granted []string) []string {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	var names []string
	for _, p := range c.products {
		ok := true
		for _, s := range p.Scopes {
			if !have[s] {
				ok = false
				break
			}
		}
		if ok {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}
