package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"finance-dashboard/config"
	"finance-dashboard/internal/app"
	"finance-dashboard/internal/market"
	"finance-dashboard/services"
	"finance-dashboard/templates"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleIndex serves the dashboard page using templ
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := templates.IndexData{
		Symbol:      h.ParseSymbolParam(r, "AAPL"),
		Timeframes:  market.Timeframes(),
		Stocks:      h.app.Stocks().Search("", 1, 100).Entries,
		Cryptos:     h.app.Cryptos().Search("", 1, 100).Entries,
		NewsSymbols: h.app.NewsSymbols(),
	}
	h.htmlResponse(w, templates.Index(data), r)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"providers": map[string]string{
			"stock":  h.cfg.Provider.Stock,
			"crypto": h.cfg.Provider.Crypto,
		},
		"chart_sessions": h.app.Charts().Len(),
	}

	// Add circuit breaker status
	registry := services.GetGlobalRegistry()
	status["circuit_breakers"] = registry.Status()

	// Any open breaker means an upstream is being skipped
	if registry.Degraded() {
		status["status"] = "degraded"
	}

	h.jsonResponse(w, status)
}

// Helper functions

// templComponent matches the templ.Component interface
type templComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

// htmlResponse renders a templ component as HTML
func (h *Handler) htmlResponse(w http.ResponseWriter, component templComponent, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component.Render(r.Context(), w)
}

// htmlError renders an error state as HTML
func (h *Handler) htmlError(w http.ResponseWriter, message string, status int, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorState(message).Render(r.Context(), w)
}

// ParseIntParam parses a positive integer query parameter
func (h *Handler) ParseIntParam(r *http.Request, key string, defaultValue int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}

// ParseSymbolParam reads the symbol query parameter
func (h *Handler) ParseSymbolParam(r *http.Request, defaultSymbol string) string {
	if s := r.URL.Query().Get("symbol"); s != "" {
		return s
	}
	return defaultSymbol
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
