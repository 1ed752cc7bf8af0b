// Package e2e provides end-to-end testing infrastructure for the finance dashboard.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/e2e/mocks"
	"finance-dashboard/internal/api"
	"finance-dashboard/internal/app"
	"finance-dashboard/services"
)

// SampleNews is written as MSFT_news.json for every harness.
const SampleNews = `[
	{"link":"https://example.com/msft/azure","artical_content":"Azure revenue grew 30% year over year.",
	 "sentiment":[{"label":"POSITIVE","score":0.97}],
	 "summary":{"chunks":[[{"summary_text":"Azure grew."}]],"final":[{"summary_text":"Azure revenue grew 30%."}]}},
	{"link":"https://example.com/msft/layoffs","artical_content":"Microsoft announced layoffs.",
	 "sentiment":[{"label":"NEGATIVE","score":0.91}]},
	{"link":"https://example.com/msft/copilot","artical_content":"Copilot adoption accelerates.",
	 "sentiment":[{"label":"POSITIVE","score":0.88}]},
	{"link":"https://example.com/msft/broken","sentiment":"not-a-list"}
]`

// TestHarness provides the infrastructure for running E2E tests.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	app        *app.App
	router     http.Handler
	config     *config.Config
}

// NewTestHarness creates a new test harness with all dependencies initialized.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup wires Yahoo for stocks and Alpaca for crypto against the mock server.
func (h *TestHarness) Setup() error {
	return h.SetupWith(config.ProviderYahoo, config.ProviderAlpaca)
}

// SetupWith initializes the application with the named upstream providers.
func (h *TestHarness) SetupWith(stockProvider, cryptoProvider string) error {
	// Start mock server for external APIs
	h.mockServer = mocks.NewMockServer()

	// Fresh breakers so one scenario's failures don't leak into the next
	services.SetGlobalRegistry(services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig))

	cfg, err := h.createTestConfig(stockProvider, cryptoProvider)
	if err != nil {
		return err
	}
	h.config = cfg

	stocks, cryptos, err := app.NewProviders(cfg)
	if err != nil {
		return err
	}
	h.app, err = app.New(cfg, stocks, cryptos)
	if err != nil {
		return err
	}
	h.app.Startup(h.ctx)

	handler := api.NewHandler(h.app, h.config)
	h.router = api.NewRouter(handler, h.config)
	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}

	if h.app != nil {
		h.app.Shutdown(context.Background())
	}

	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// App returns the application instance.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request and returns the response.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// DoHTMXRequest performs an HTMX request and returns the response.
func (h *TestHarness) DoHTMXRequest(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("HX-Request", "true")

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *TestHarness) createTestConfig(stockProvider, cryptoProvider string) (*config.Config, error) {
	mockURL := h.mockServer.URL()

	cfg := config.NewTestConfig()
	cfg.Provider.Stock = stockProvider
	cfg.Provider.Crypto = cryptoProvider

	// Point external services at the mock server
	cfg.Yahoo.BaseURL = mockURL
	cfg.Alpaca.BaseURL = mockURL
	cfg.Alpaca.APIKey = "e2e-key"
	cfg.Alpaca.APISecret = "e2e-secret"

	newsDir := h.t.TempDir()
	if err := os.WriteFile(filepath.Join(newsDir, "MSFT_news.json"), []byte(SampleNews), 0o644); err != nil {
		return nil, err
	}
	cfg.News.Dir = newsDir

	return cfg, cfg.Validate()
}
