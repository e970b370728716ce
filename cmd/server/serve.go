package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/config"
	"github.com/evert/google-mcp-go/internal/middleware"
	"github.com/evert/google-mcp-go/internal/registry"
	"github.com/evert/google-mcp-go/internal/services"
	"github.com/evert/google-mcp-go/internal/store"
	"github.com/evert/google-mcp-go/internal/tools/calendar"
	"github.com/evert/google-mcp-go/internal/tools/drive"
	"github.com/evert/google-mcp-go/internal/tools/sheets"
	"github.com/evert/google-mcp-go/internal/ui"
)

const instructions = `Tools for Google Sheets, Google Calendar and authorized Drive files.
Call list_authorized_files to discover spreadsheets, then get_sheet_schema before search_rows.`

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return err
	}

	key, err := auth.ParseEncryptionKey(cfg.EncryptionKey)
	if err != nil {
		return err
	}
	enc, err := auth.NewTokenEncryption(key)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.DatabasePath, enc)
	if err != nil {
		return err
	}
	defer st.Close()

	oauthMgr := auth.NewOAuthManager(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)
	factory := services.NewFactory(oauthMgr, st)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	table, err := registry.NewTable(registry.Options{
		Catalog:        catalog,
		ReadOnly:       cfg.ReadOnly,
		Implementation: &mcp.Implementation{Name: "google-mcp", Version: version},
		Instructions:   instructions,
		Middleware: []mcp.Middleware{
			middleware.LoggingMiddleware(logger),
			middleware.AuthEnhancerMiddleware(cfg.Server.BaseURL),
			metrics.Middleware(),
		},
		Logger: logger,
	}, sheets.Tools(), calendar.Tools(), drive.Tools())
	if err != nil {
		return fmt.Errorf("building tool table: %w", err)
	}

	sessions := func(rec *store.APIKey) *services.Session {
		return services.NewSession(factory, st, rec.Key, rec.Scopes)
	}

	logger.Info("starting google-mcp",
		"version", version,
		"transport", cfg.Server.Transport,
		"products", catalog.Names(),
		"readOnly", cfg.ReadOnly,
	)

	if cfg.Server.Transport == config.TransportStdio {
		return serveStdio(ctx, cfg, st, table, sessions)
	}

	pages, err := ui.New()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	rt := &routes{
		Logger:   logger,
		Keys:     st,
		Sessions: sessions,
		Table:    table,
		Auth: &auth.Handlers{
			OAuth:       oauthMgr,
			Store:       st,
			Catalog:     catalog,
			Pages:       pages,
			BaseURL:     cfg.Server.BaseURL,
			Invalidator: factory,
		},
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	return serveHTTP(ctx, cfg, logger, rt.handler())
}

// loadCatalog reads the product file, falling back to the built-in products,
// and narrows it to the enabled products.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*auth.Catalog, error) {
	catalog, err := config.LoadProducts(cfg.ProductsConfig)
	if err != nil {
		logger.Warn("could not load product config, using built-in products",
			"path", cfg.ProductsConfig,
			"error", err,
		)
		if catalog, err = auth.NewCatalog(auth.DefaultProducts()); err != nil {
			return nil, err
		}
	}
	if len(cfg.EnabledProducts) > 0 {
		if catalog, err = catalog.Restrict(cfg.EnabledProducts); err != nil {
			return nil, fmt.Errorf("enabled products: %w", err)
		}
	}
	return catalog, nil
}

func serveStdio(ctx context.Context, cfg *config.Config, st *store.Store, table *registry.Table, sessions func(*store.APIKey) *services.Session) error {
	if cfg.APIKey == "" {
		return errors.New("stdio transport needs an API key: set --api-key or GOOGLE_MCP_API_KEY")
	}
	rec, err := st.GetAPIKey(ctx, cfg.APIKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("API key %s is unknown or expired", auth.Redact(cfg.APIKey))
		}
		return err
	}

	server := table.ServerFor(sessions(rec))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, logger *slog.Logger, handler http.Handler) error {
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	logger.Info("listening", "addr", addr, "baseURL", cfg.Server.BaseURL)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}
