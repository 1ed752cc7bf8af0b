package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

// captureLogs points the global logger at a buffer for the duration of a test
func captureLogs(t *testing.T, production bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(newHandler(&buf, production, slog.LevelDebug))
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func TestSetup_Formats(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		want       string
	}{
		{"development text", false, `msg="chart rendered"`},
		{"production json", true, `"msg":"chart rendered"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t, tt.production)
			Info("chart rendered", "format", "png")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %s, want %s", buf.String(), tt.want)
			}
		})
	}
}

func TestLevelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"debug", Debug, "DEBUG"},
		{"info", Info, "INFO"},
		{"warn", Warn, "WARN"},
		{"error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t, false)
			tt.log("cache sweep finished", "evicted", 3)
			out := buf.String()
			if !strings.Contains(out, "level="+tt.level) || !strings.Contains(out, "evicted=3") {
				t.Errorf("output = %s", out)
			}
		})
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	defer func() { Logger = prev }()
	Logger = slog.New(newHandler(&buf, false, slog.LevelWarn))

	Info("dropped")
	Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestScopedLoggers(t *testing.T) {
	tests := []struct {
		name   string
		logger func() *slog.Logger
		want   string
	}{
		{"symbol", func() *slog.Logger { return WithSymbol("BTC-USD") }, "symbol=BTC-USD"},
		{"session", func() *slog.Logger { return WithSession("0b6f") }, "session_id=0b6f"},
		{"error", func() *slog.Logger { return WithError(errors.New("status 502")) }, `error="status 502"`},
		{"context without request id", func() *slog.Logger { return WithContext(context.Background()) }, "msg=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t, false)
			tt.logger().Info("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %s, want %s", buf.String(), tt.want)
			}
		})
	}
}

func TestWithContext_RequestID(t *testing.T) {
	buf := captureLogs(t, false)

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WithContext(r.Context()).Info("news page served")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/news?symbol=MSFT", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestHelpers_InstallLoggerLazily(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	Logger = nil
	Debug("first use")
	if Logger == nil {
		t.Fatal("logger should be installed on first use")
	}

	Logger = nil
	if WithSymbol("AAPL") == nil || Logger == nil {
		t.Error("scoped helpers should install the logger too")
	}
}

func TestSetup_FileSink(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	path := filepath.Join(t.TempDir(), "logs", "dashboard.log")
	closer := Setup(LogOptions{Production: true, Level: slog.LevelInfo, File: path})

	Info("written to file", "symbol", "MSFT")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written to file"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestSetup_NoFileSink(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	closer := Setup(LogOptions{Level: slog.LevelDebug})
	if err := closer.Close(); err != nil {
		t.Errorf("Close without a file sink = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
