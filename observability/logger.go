package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger instance
var Logger *slog.Logger

// LogOptions selects the handler format, level and optional rotating file sink
type LogOptions struct {
	Production bool
	Level      slog.Level
	File       string
}

// InitLogger initializes the global logger with the appropriate handler
// For production, use JSON format; for development, use text format
func InitLogger(production bool) {
	Setup(LogOptions{Production: production, Level: slog.LevelInfo})
}

// Setup installs the global logger. When File is set, output is teed to a
// size-rotated log file. The returned closer releases that file.
func Setup(opts LogOptions) io.Closer {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			slog.Debug("log directory creation failed", "error", err)
		}
		logWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, logWriter)
		closer = logWriter
	}

	Logger = slog.New(newHandler(out, opts.Production, opts.Level))
	slog.SetDefault(Logger)
	return closer
}

func newHandler(w io.Writer, production bool, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if production {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// current returns the global logger, installing a development one on first use
func current() *slog.Logger {
	if Logger == nil {
		InitLogger(false)
	}
	return Logger
}

// WithContext returns a logger carrying the request id chi stored in ctx
func WithContext(ctx context.Context) *slog.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return current().With("request_id", id)
	}
	return current()
}

// Info logs an info message
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs a warning message
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs an error message
func Error(msg string, args ...any) { current().Error(msg, args...) }

// Debug logs a debug message
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Fatal logs an error message and exits
func Fatal(msg string, args ...any) {
	current().Error(msg, args...)
	os.Exit(1)
}

// WithSymbol returns a logger tagged with a ticker symbol
func WithSymbol(symbol string) *slog.Logger {
	return current().With("symbol", symbol)
}

// WithSession returns a logger tagged with a chart session id
func WithSession(id string) *slog.Logger {
	return current().With("session_id", id)
}

// WithError returns a logger with error field
func WithError(err error) *slog.Logger {
	return current().With("error", err)
}
