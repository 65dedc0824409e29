package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.NotNil(t, cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	logger := New(cfg)
	require.NotNil(t, logger)

	logger.Info("test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key")
	assert.Contains(t, output, "value")

	// Verify it's valid JSON
	var logEntry map[string]interface{}
	err := json.Unmarshal([]byte(output), &logEntry)
	assert.NoError(t, err)
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{
		Level:  "debug",
		Format: "text",
		Output: &buf,
	}

	logger := New(cfg)
	require.NotNil(t, logger)

	logger.Debug("debug message")

	output := buf.String()
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "level=DEBUG")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	logger := New(nil)
	require.NotNil(t, logger)
}

func TestNew_NilOutput(t *testing.T) {
	logger := New(&Config{Level: "info", Format: "json"})
	require.NotNil(t, logger)
}

func TestContextHandler_WithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-456")
	logger.InfoContext(ctx, "test with context")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-456", entry["request_id"])
}

func TestContextHandler_WithSpanContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: "json", Output: &buf})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "test with trace")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestContextHandler_NoCorrelationData(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: "json", Output: &buf})

	logger.InfoContext(context.Background(), "plain")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "request_id")
	assert.NotContains(t, entry, "trace_id")
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(&Config{Level: "info", Format: "json", Output: &buf})
	require.NotNil(t, logger)

	slog.Info("test after setup")

	assert.Contains(t, buf.String(), "test after setup")
}

func TestContextHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: "json", Output: &buf})

	logger.With("service", "devserver").Info("test with attr")

	assert.Contains(t, buf.String(), "devserver")
}

func TestContextHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: "json", Output: &buf})

	logger.WithGroup("request").Info("test with group", "method", "GET")

	output := buf.String()
	assert.Contains(t, output, "request")
	assert.Contains(t, output, "method")
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: "json", Output: &buf})

	// Debug and Info should be filtered out
	logger.Debug("debug message")
	logger.Info("info message")

	// Warn and Error should appear
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestContextHandler_Enabled(t *testing.T) {
	handler := &ContextHandler{
		handler: slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}),
	}

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}
