package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finance-dashboard/config"
	"finance-dashboard/internal/api"
	"finance-dashboard/internal/app"
	"finance-dashboard/observability"
	"finance-dashboard/services"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger(false)
		observability.Fatal("invalid configuration", "error", err)
	}

	logCloser := observability.Setup(observability.LogOptions{
		Production: cfg.Logging.Production,
		Level:      observability.ParseLevel(cfg.Logging.Level),
		File:       cfg.Logging.File,
	})
	defer logCloser.Close()

	if envErr != nil {
		observability.Debug("no .env file found, using environment variables")
	}

	observability.InitMetrics()
	services.SetGlobalRegistry(services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig))

	stocks, cryptos, err := app.NewProviders(cfg)
	if err != nil {
		observability.Fatal("failed to initialize market data providers", "error", err)
	}

	application, err := app.New(cfg, stocks, cryptos)
	if err != nil {
		observability.Fatal("failed to initialize application", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	application.Startup(ctx)

	handler := api.NewHandler(application, cfg)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		observability.Info("starting finance dashboard",
			"addr", server.Addr,
			"stock_provider", cfg.Provider.Stock,
			"crypto_provider", cfg.Provider.Crypto)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		observability.Info("shutting down")
	case err := <-serverErr:
		observability.Error("server error", "error", err)
		exitCode = 1
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}
	application.Shutdown(shutdownCtx)

	if exitCode != 0 {
		logCloser.Close()
		os.Exit(exitCode)
	}
}
