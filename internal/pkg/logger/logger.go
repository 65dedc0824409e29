// Package logger provides structured logging with request correlation.
//
// Features:
// - Context-aware logging with automatic request ID extraction
// - Trace/span IDs taken from the active OpenTelemetry span
// - JSON and text output formats
// - Log level configuration
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for correlation data
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

// Config holds logger configuration
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     "info",
		Format:    "text",
		Output:    os.Stdout,
		AddSource: false,
	}
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a new slog.Logger with the given configuration
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	// Wrap with context handler
	return slog.New(&ContextHandler{handler: handler})
}

// ContextHandler wraps a slog.Handler to extract correlation data from context
type ContextHandler struct {
	handler slog.Handler
}

// Enabled returns whether the handler is enabled for the given level
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds correlation data from context to the log record
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if requestID := GetRequestID(ctx); requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new handler with the given group
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// Context helpers

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// Setup initializes the global logger and returns it
func Setup(cfg *Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}
