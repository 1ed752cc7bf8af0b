package api

import (
	"net/http"

	"finance-dashboard/config"
	"finance-dashboard/internal/chart"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout()))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// Root routes
	r.Get("/", h.HandleIndex)
	r.Get("/index.html", h.HandleIndex)
	r.Get("/partials/news", h.HandleNewsPartial)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/health", h.HandleHealth)

	// Images and HTML pages are written directly
	r.Get("/api/chart/{symbol}", h.HandleChartImage)
	r.Get("/api/chart/{symbol}/interactive", h.HandleInteractiveChart)
	r.Get("/api/chart/sessions/{id}/frame.png", h.HandleSessionFrame(chart.FormatPNG))
	r.Get("/api/chart/sessions/{id}/frame.svg", h.HandleSessionFrame(chart.FormatSVG))
	r.Get("/api/chart/sessions/{id}/tooltip", h.HandleSessionTooltip)

	// Typed JSON operations
	api := humachi.New(r, huma.DefaultConfig("Finance Dashboard API", "1.0.0"))
	registerMarketOperations(api, h)
	registerNewsOperations(api, h)
	registerSessionOperations(api, h)

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
