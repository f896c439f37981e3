package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/config"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/prompts"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/server"
)

// Version is set at build time.
var version = "dev"

const banner = `
                           _
  _ __ ___ _ __ ___   ___ | |_ ___   _ __ ___   ___ _ __
 | '__/ _ \ '_ ' _ \ / _ \| __/ _ \ | '_ ' _ \ / __| '_ \
 | | |  __/ | | | | | (_) | ||  __/ | | | | | | (__| |_) |
 |_|  \___|_| |_| |_|\___/ \__\___| |_| |_| |_|\___| .__/
                                                   |_|
`

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to ./config.yaml if present)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg)

	store, policySource, err := loadStore(cfg)
	if err != nil {
		return fmt.Errorf("loading rbac policy: %w", err)
	}

	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.HTTP.Addr)
	green.Print("    ▶ ")
	fmt.Printf("Backend: %s\n", cfg.Backend.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Policy:  %s\n", policySource)
	fmt.Println()

	logger.Info("starting remote-mcp-server",
		"addr", cfg.HTTP.Addr,
		"backend", cfg.Backend.BaseURL,
		"policy", policySource,
		"roles", store.Roles(),
	)

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout(),
	}, logger)

	srv := server.New(server.Options{
		Store:  store,
		Client: client,
		Prompts: prompts.NewRegistry(prompts.Overrides{
			Dashboard: cfg.Prompts.DashboardTemplate,
			Schema:    cfg.Prompts.SchemaTemplate,
		}, logger),
		Logger:           logger,
		QueriesPerMinute: cfg.Limits.QueriesPerMinute,
		Version:          version,
	})

	srv.StartHealthMonitor()
	defer srv.StopHealthMonitor()

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadStore builds the permission store from the configured policy file
// or the compiled-in defaults.
func loadStore(cfg *config.Config) (*rbac.Store, string, error) {
	if cfg.RBAC.PolicyFile == "" {
		return rbac.Default(), "built-in", nil
	}
	store, err := rbac.FromFile(cfg.RBAC.PolicyFile)
	if err != nil {
		return nil, "", err
	}
	return store, cfg.RBAC.PolicyFile, nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
