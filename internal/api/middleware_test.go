package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"finance-dashboard/observability"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		want  int
	}{
		{"implicit ok", func(w http.ResponseWriter) { w.Write([]byte("<svg></svg>")) }, http.StatusOK},
		{"nothing written", func(w http.ResponseWriter) {}, http.StatusOK},
		{"explicit not found", func(w http.ResponseWriter) { w.WriteHeader(http.StatusNotFound) }, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ww := middleware.NewWrapResponseWriter(httptest.NewRecorder(), 1)
			tt.write(ww)
			if got := statusOf(ww); got != tt.want {
				t.Errorf("statusOf = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/api/chart/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image"))
	})

	counter := observability.GetMetrics().HTTPRequestsTotal.WithLabelValues("GET", "/api/chart/{symbol}", "200")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/api/chart/AAPL.png", "/api/chart/MSFT.svg"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("requests recorded under route pattern = %v, want 2", got)
	}
}

func TestMetricsMiddleware_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	w := httptest.NewRecorder()
	MetricsMiddleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"implicit ok", 0, "ok"},
		{"server error", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.body))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news", nil))

			want := tt.status
			if want == 0 {
				want = http.StatusOK
			}
			if w.Code != want {
				t.Errorf("status = %d, want %d", w.Code, want)
			}
			if w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware("https://dash.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("preflight short-circuits", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/stock", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
			t.Errorf("allow origin = %q", got)
		}
	})

	t.Run("passes other methods through", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock", nil))
		if w.Code != http.StatusTeapot {
			t.Errorf("status = %d, want 418", w.Code)
		}
	})
}
