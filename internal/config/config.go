package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// Config holds all server configuration loaded from environment variables and CLI flags.
type Config struct {
	OAuth struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	Server struct {
		Transport string
		Port      int
		Host      string
		BaseURL   string
	}
	EnabledProducts []string
	ReadOnly        bool
	LogLevel        string
	DatabasePath    string
	EncryptionKey   string
	APIKey          string
	ProductsConfig  string
}

// RegisterFlags declares the serve flags. Their defaults are empty: a flag
// only takes effect when set on the command line.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("transport", "", "Transport mode: stdio or streamable-http (env MCP_TRANSPORT)")
	fs.Int("port", 0, "HTTP listen port (env MCP_PORT or PORT)")
	fs.String("host", "", "HTTP listen host (env MCP_HOST)")
	fs.String("base-url", "", "Public base URL used for OAuth redirects (env BASE_URL)")
	fs.String("products", "", "Products to enable, comma-separated: calendar,sheets,drive (env ENABLED_PRODUCTS)")
	fs.Bool("read-only", false, "Only register read-only tools (env GOOGLE_MCP_READ_ONLY)")
	fs.String("log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.String("database", "", "SQLite database path (env DATABASE_PATH)")
	fs.String("api-key", "", "API key whose credentials the stdio transport uses (env GOOGLE_MCP_API_KEY)")
	fs.String("products-config", "", "Product catalog YAML (env PRODUCTS_CONFIG)")
}

// Load reads configuration from environment variables, then applies any
// flags explicitly set in fs. CLI flags take precedence over environment variables.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}

	cfg.OAuth.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.OAuth.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")
	cfg.APIKey = os.Getenv("GOOGLE_MCP_API_KEY")

	cfg.DatabasePath = os.Getenv("DATABASE_PATH")
	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg.DatabasePath = filepath.Join(home, ".google_mcp", "google-mcp.db")
	}

	cfg.EnabledProducts = splitList(os.Getenv("ENABLED_PRODUCTS"))
	cfg.Server.Host = envOrDefault("MCP_HOST", "0.0.0.0")
	cfg.Server.BaseURL = os.Getenv("BASE_URL")
	cfg.Server.Transport = envOrDefault("MCP_TRANSPORT", TransportHTTP)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", "info")
	cfg.ReadOnly = envBool("GOOGLE_MCP_READ_ONLY")
	cfg.ProductsConfig = envOrDefault("PRODUCTS_CONFIG", filepath.Join("configs", "products.yaml"))

	portStr := os.Getenv("MCP_PORT")
	if portStr == "" {
		portStr = os.Getenv("PORT")
	}
	if portStr == "" {
		portStr = "8000"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	cfg.Server.Port = port

	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	cfg.OAuth.RedirectURL = cfg.Server.BaseURL + "/auth/callback"

	return cfg, nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	str("transport", &c.Server.Transport)
	str("host", &c.Server.Host)
	str("base-url", &c.Server.BaseURL)
	str("log-level", &c.LogLevel)
	str("database", &c.DatabasePath)
	str("api-key", &c.APIKey)
	str("products-config", &c.ProductsConfig)
	if err != nil {
		return err
	}

	if fs.Changed("port") {
		if c.Server.Port, err = fs.GetInt("port"); err != nil {
			return err
		}
	}
	if fs.Changed("read-only") {
		if c.ReadOnly, err = fs.GetBool("read-only"); err != nil {
			return err
		}
	}
	// --products overrides (not appends to) ENABLED_PRODUCTS.
	if fs.Changed("products") {
		v, err := fs.GetString("products")
		if err != nil {
			return err
		}
		c.EnabledProducts = splitList(v)
	}
	return nil
}

func (c *Config) validate() error {
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID environment variable is required")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET environment variable is required")
	}
	if c.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY environment variable is required (generate one with the keygen command)")
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q: use %q or %q", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.BaseURL != "" {
		if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid BASE_URL %q", c.Server.BaseURL)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}
