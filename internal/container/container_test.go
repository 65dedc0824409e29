package container

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Haleralex/ticketing-devserver/internal/config"
	"github.com/Haleralex/ticketing-devserver/internal/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const sitePage = `<html><head><script src="js/config.js"></script></head><body></body></html>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(sitePage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "login.html"), []byte(sitePage), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "js", "config.js"), []byte("var x;"), 0o644))

	cfg := config.Test()
	cfg.Static.Root = root
	cfg.Token.APIToken = "container-secret"
	return cfg
}

func TestNew(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	require.NotNil(t, c)
	assert.Equal(t, cfg, c.config)
	assert.Equal(t, os.Stdout, c.output)
}

func TestContainer_Config(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Equal(t, cfg, c.Config())
}

func TestContainer_Getters_BeforeInit(t *testing.T) {
	c := New(config.Development())

	assert.Nil(t, c.Logger())
	assert.Nil(t, c.Tracing())
	assert.Nil(t, c.Pages())
	assert.Nil(t, c.Injector())
	assert.Nil(t, c.Router())
	assert.Nil(t, c.HTTPServer())
}

// ============================================
// Logger
// ============================================

func TestContainer_AllLogLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown", ""}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := config.Development()
			cfg.Log.Level = level

			c := New(cfg)
			c.output = &bytes.Buffer{}
			logger := c.initLogger()

			require.NotNil(t, logger)
		})
	}
}

func TestContainer_AllLogFormats(t *testing.T) {
	formats := []string{"json", "text", "unknown", ""}

	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			cfg := config.Development()
			cfg.Log.Format = format

			c := New(cfg)
			c.output = &bytes.Buffer{}
			logger := c.initLogger()

			require.NotNil(t, logger)
			assert.NotNil(t, logger.Handler())
		})
	}
}

func TestContainer_initLogger_WritesToOutput(t *testing.T) {
	cfg := config.Test()
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	c := New(cfg)
	c.output = &buf

	c.initLogger().Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

// ============================================
// Initialize
// ============================================

func TestContainer_Initialize(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "info"

	var buf bytes.Buffer
	c := New(cfg)
	c.output = &buf

	require.NoError(t, c.Initialize(t.Context()))

	assert.NotNil(t, c.Logger())
	assert.NotNil(t, c.Tracing())
	assert.False(t, c.Tracing().Enabled())
	assert.NotNil(t, c.Pages())
	assert.NotNil(t, c.Injector())
	assert.NotNil(t, c.Router())
	assert.NotNil(t, c.HTTPServer())

	assert.Contains(t, buf.String(), "Container initialization complete")
	assert.NotContains(t, buf.String(), "container-secret")
	assert.NotContains(t, buf.String(), "default API token")
}

func TestContainer_Initialize_ServesInjectedPage(t *testing.T) {
	cfg := testConfig(t)

	c := New(cfg)
	c.output = &bytes.Buffer{}
	require.NoError(t, c.Initialize(t.Context()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	c.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(),
		`<script>window.BASEROW_API_TOKEN = "container-secret";</script><script src="js/config.js"></script>`)
}

func TestContainer_Initialize_MissingRoot(t *testing.T) {
	cfg := config.Test()
	cfg.Static.Root = filepath.Join(t.TempDir(), "missing")

	c := New(cfg)
	c.output = &bytes.Buffer{}

	err := c.Initialize(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize static root")
	assert.Nil(t, c.HTTPServer())
}

func TestContainer_AccessLogSurvivesErrorLevel(t *testing.T) {
	cfg := testConfig(t)
	require.Equal(t, "error", cfg.Log.Level)

	var buf bytes.Buffer
	c, err := NewBuilder(cfg).WithOutput(&buf).Build(t.Context())
	require.NoError(t, err)

	for _, target := range []string{"/login.html", "/js/config.js"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c.Router().ServeHTTP(httptest.NewRecorder(), req)
	}

	logged := buf.String()
	assert.Contains(t, logged, "/login.html")
	assert.NotContains(t, logged, "config.js")
	assert.NotContains(t, logged, "Container initialization complete")
	assert.NotContains(t, logged, "container-secret")
}

func TestContainer_initConsole_Level(t *testing.T) {
	tests := []struct {
		configured string
		debug      bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
	}

	for _, tt := range tests {
		t.Run(tt.configured, func(t *testing.T) {
			cfg := config.Test()
			cfg.Log.Level = tt.configured

			c := New(cfg)
			c.output = &bytes.Buffer{}
			console := c.initConsole()

			assert.True(t, console.Enabled(t.Context(), slog.LevelInfo))
			assert.Equal(t, tt.debug, console.Enabled(t.Context(), slog.LevelDebug))
		})
	}
}

func TestContainer_Initialize_DefaultTokenWarning(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.APIToken = config.DefaultToken
	cfg.Log.Level = "error"

	var buf bytes.Buffer
	c := New(cfg)
	c.output = &buf

	require.NoError(t, c.Initialize(t.Context()))

	assert.Contains(t, buf.String(), "default API token")
	assert.Contains(t, buf.String(), config.TokenEnvVar)
}

// ============================================
// ContainerBuilder
// ============================================

func TestNewBuilder(t *testing.T) {
	cfg := config.Development()
	builder := NewBuilder(cfg)

	require.NotNil(t, builder)
	assert.Equal(t, cfg, builder.cfg)
}

func TestContainerBuilder_Chain(t *testing.T) {
	cfg := config.Development()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	var out bytes.Buffer
	p := tracing.NewWithExporter(tracing.Config{ServiceName: "test", SampleRatio: 1}, tracetest.NewInMemoryExporter())

	builder := NewBuilder(cfg).
		WithLogger(logger).
		WithOutput(&out).
		WithTracing(p)

	assert.Equal(t, cfg, builder.cfg)
	assert.Equal(t, logger, builder.logger)
	assert.Equal(t, &out, builder.output)
	assert.Equal(t, p, builder.tracing)
}

func TestContainerBuilder_Build(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	c, err := NewBuilder(cfg).WithLogger(logger).Build(t.Context())

	require.NoError(t, err)
	assert.Equal(t, logger, c.Logger())
	assert.NotNil(t, c.Router())
	assert.NotNil(t, c.HTTPServer())
}

func TestContainerBuilder_Build_WithTracing(t *testing.T) {
	cfg := testConfig(t)
	exporter := tracetest.NewInMemoryExporter()
	p := tracing.NewWithExporter(tracing.Config{ServiceName: "test", SampleRatio: 1}, exporter)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	c, err := NewBuilder(cfg).
		WithOutput(&bytes.Buffer{}).
		WithTracing(p).
		Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, p, c.Tracing())

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	w := httptest.NewRecorder()
	c.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}
	assert.Contains(t, names, "devserver.ReadPage")
}

func TestContainerBuilder_Build_MissingRoot(t *testing.T) {
	cfg := config.Test()
	cfg.Static.Root = filepath.Join(t.TempDir(), "missing")

	_, err := NewBuilder(cfg).WithOutput(&bytes.Buffer{}).Build(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize static root")
}

// ============================================
// Shutdown and Run
// ============================================

func TestContainer_Shutdown_NilComponents(t *testing.T) {
	c := New(config.Development())
	c.logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, c.Shutdown(ctx))
}

func TestContainer_Shutdown_WithoutLogger(t *testing.T) {
	c := New(config.Development())

	assert.NoError(t, c.Shutdown(t.Context()))
}

func TestContainer_Shutdown_FlushesTracing(t *testing.T) {
	cfg := testConfig(t)
	exporter := tracetest.NewInMemoryExporter()
	p := tracing.NewWithExporter(tracing.Config{ServiceName: "test", SampleRatio: 1}, exporter)

	c, err := NewBuilder(cfg).WithOutput(&bytes.Buffer{}).WithTracing(p).Build(t.Context())
	require.NoError(t, err)

	require.NoError(t, c.Shutdown(t.Context()))

	// После shutdown provider больше не создаёт span'ы
	_, span := p.Tracer().Start(t.Context(), "after")
	span.End()
	assert.Empty(t, exporter.GetSpans())
}

func TestContainer_Run(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Log.Level = "info"

	var buf bytes.Buffer
	c, err := NewBuilder(cfg).WithOutput(&buf).Build(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, c.Run(ctx))

	logged := buf.String()
	assert.Contains(t, logged, "Starting dev server")
	// Ссылки указывают на фактический порт, а не на :0
	assert.Regexp(t, `http://127\.0\.0\.1:[1-9][0-9]*/login\.html`, logged)
	assert.Contains(t, logged, "/test-api.html")
	assert.Contains(t, logged, "/login.html")
	assert.NotContains(t, logged, "container-secret")
}

func TestContainer_Run_BusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	var buf bytes.Buffer
	c, err := NewBuilder(cfg).WithOutput(&buf).Build(t.Context())
	require.NoError(t, err)

	err = c.Run(t.Context())

	require.Error(t, err)
	assert.NotContains(t, buf.String(), "Starting dev server")
}

func TestDisplayHost(t *testing.T) {
	tests := map[string]string{
		"":          "localhost",
		"0.0.0.0":   "localhost",
		"::":        "localhost",
		"127.0.0.1": "127.0.0.1",
		"devbox":    "devbox",
	}

	for host, want := range tests {
		assert.Equal(t, want, displayHost(host), host)
	}
}
