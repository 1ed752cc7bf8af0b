// Package main provides a standalone HTTP server for E2E testing.
// It runs the dashboard's routes against in-process upstream mocks,
// making it suitable for Playwright tests without network access.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/e2e/mocks"
	"finance-dashboard/internal/api"
	"finance-dashboard/internal/app"
	"finance-dashboard/observability"
	"finance-dashboard/services"
)

func main() {
	// Initialize logger in development mode for tests
	observability.InitLogger(false)
	observability.InitMetrics()
	services.SetGlobalRegistry(services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig))

	// Get configuration from environment
	port := os.Getenv("E2E_SERVER_PORT")
	if port == "" {
		port = "9090"
	}

	upstream := mocks.NewMockServer()
	defer upstream.Close()
	seedUpstream(upstream)
	observability.Info("mock upstream started", "url", upstream.URL(), "symbols", upstream.Symbols())

	newsDir := os.Getenv("E2E_NEWS_DIR")
	if newsDir == "" {
		dir, err := os.MkdirTemp("", "finance-dashboard-e2e-news-*")
		if err != nil {
			observability.Fatal("failed to create temp news dir", "error", err)
		}
		defer os.RemoveAll(dir)
		if err := seedNews(dir); err != nil {
			observability.Fatal("failed to seed news", "error", err)
		}
		newsDir = dir
	}

	cfg := config.NewTestConfig()
	cfg.Provider.Stock = config.ProviderYahoo
	cfg.Provider.Crypto = config.ProviderAlpaca
	cfg.Yahoo.BaseURL = upstream.URL()
	cfg.Alpaca.BaseURL = upstream.URL()
	cfg.Alpaca.APIKey = "e2e-key"
	cfg.Alpaca.APISecret = "e2e-secret"
	cfg.News.Dir = newsDir
	if p, err := strconv.Atoi(port); err == nil {
		cfg.HTTP.Port = p
	}
	if err := cfg.Validate(); err != nil {
		observability.Fatal("invalid e2e configuration", "error", err)
	}

	stocks, cryptos, err := app.NewProviders(cfg)
	if err != nil {
		observability.Fatal("failed to initialize providers", "error", err)
	}
	application, err := app.New(cfg, stocks, cryptos)
	if err != nil {
		observability.Fatal("failed to initialize application", "error", err)
	}

	ctx := context.Background()
	application.Startup(ctx)

	// Create HTTP router
	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Info("starting E2E test server", "port", port, "url", fmt.Sprintf("http://localhost:%s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down E2E test server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("E2E test server stopped")
}
