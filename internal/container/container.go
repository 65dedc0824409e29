// Package container - Dependency Injection container for the dev server.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/Haleralex/ticketing-devserver/internal/adapters/http"
	"github.com/Haleralex/ticketing-devserver/internal/config"
	"github.com/Haleralex/ticketing-devserver/internal/domain/injection"
	"github.com/Haleralex/ticketing-devserver/internal/infrastructure/filesystem"
	"github.com/Haleralex/ticketing-devserver/internal/pkg/logger"
	"github.com/Haleralex/ticketing-devserver/internal/pkg/tracing"
	"github.com/gin-gonic/gin"
)

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config  *config.Config
	logger  *slog.Logger
	console *slog.Logger
	output  io.Writer

	// Infrastructure
	tracing *tracing.Provider
	pages   *filesystem.PageStore

	// Domain
	injector *injection.Injector

	// HTTP
	router     *gin.Engine
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
		output: os.Stdout,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	if c.logger == nil {
		c.logger = c.initLogger()
	}
	if c.console == nil {
		c.console = c.initConsole()
	}
	c.logger.Info("Initializing application container...")

	// 1. Tracing
	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 2. Static root
	if err := c.initPages(ctx); err != nil {
		return fmt.Errorf("failed to initialize static root: %w", err)
	}
	c.logger.Info("Static root ready", slog.String("root", c.pages.AbsRoot()))

	// 3. Token injection
	c.initInjector()

	// 4. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер и делает его логгером по умолчанию.
func (c *Container) initLogger() *slog.Logger {
	return logger.Setup(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    c.output,
		AddSource: c.config.App.Debug && c.config.Log.Format == "json",
	})
}

// initConsole создаёт логгер для access log и стартовых сообщений.
// Его уровень не выше info: log.level: error приглушает остальное,
// но не строки запросов и не предупреждение о токене.
func (c *Container) initConsole() *slog.Logger {
	level := c.config.Log.Level
	if logger.ParseLevel(level) > slog.LevelInfo {
		level = "info"
	}
	return logger.New(&logger.Config{
		Level:  level,
		Format: c.config.Log.Format,
		Output: c.output,
	})
}

// initTracing создаёт tracer provider. Выключенный tracing даёт noop provider.
func (c *Container) initTracing(ctx context.Context) error {
	if c.tracing != nil {
		return nil
	}

	p, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        c.config.Tracing.Enabled,
		Endpoint:       c.config.Tracing.Endpoint,
		Insecure:       c.config.Tracing.Insecure,
		ServiceName:    c.config.Tracing.ServiceName,
		ServiceVersion: c.config.App.Version,
		SampleRatio:    c.config.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	c.tracing = p

	if p.Enabled() {
		c.logger.Info("Tracing enabled", slog.String("endpoint", c.config.Tracing.Endpoint))
	}
	return nil
}

// initPages открывает корневой каталог и проверяет, что он читается.
func (c *Container) initPages(ctx context.Context) error {
	pages := filesystem.NewPageStore(c.config.Static.Root)
	if err := pages.Check(ctx); err != nil {
		return err
	}
	c.pages = pages
	return nil
}

// initInjector создаёт injector и предупреждает о токене по умолчанию.
func (c *Container) initInjector() {
	c.injector = injection.New(c.config.Token.APIToken,
		injection.WithConfigScriptTag(c.config.Static.ConfigScriptTag),
		injection.WithGlobalName(c.config.Token.GlobalName),
	)

	if c.config.Token.IsDefault() {
		c.console.Warn("Using the default API token, set "+config.TokenEnvVar+" to a real token",
			slog.String("env", config.TokenEnvVar),
		)
	}
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	var quietMarkers []string
	if c.config.Static.QuietMarker != "" {
		quietMarkers = []string{c.config.Static.QuietMarker}
	}

	routerConfig := &http.RouterConfig{
		Logger:         c.logger,
		AccessLogger:   c.console,
		Index:          c.config.Static.Index,
		DefaultToken:   c.config.Token.IsDefault(),
		Version:        c.config.App.Version,
		BuildTime:      c.config.App.BuildTime,
		Environment:    c.config.App.Environment,
		AllowedOrigins: c.config.CORS.AllowedOrigins,
		AllowedMethods: c.config.CORS.AllowedMethods,
		AllowedHeaders: c.config.CORS.AllowedHeaders,
		CORSMaxAge:     int(c.config.CORS.MaxAge / time.Second),
		QuietMarkers:   quietMarkers,
		ServiceName:    c.config.Tracing.ServiceName,
	}

	builder := http.NewRouterBuilder(routerConfig).
		WithPages(c.pages).
		WithInjector(c.injector)
	if c.tracing != nil && c.tracing.Enabled() {
		builder = builder.WithTracerProvider(c.tracing.TracerProvider())
	}
	c.router = builder.Build()

	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            strconv.Itoa(c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, c.router)
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Tracing возвращает tracer provider.
func (c *Container) Tracing() *tracing.Provider {
	return c.tracing
}

// Pages возвращает хранилище страниц.
func (c *Container) Pages() *filesystem.PageStore {
	return c.pages
}

// Injector возвращает injector токена.
func (c *Container) Injector() *injection.Injector {
	return c.injector
}

// Router возвращает gin router.
func (c *Container) Router() *gin.Engine {
	return c.router
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// ============================================
// Shutdown
// ============================================

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	log := c.logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("Shutting down container...")

	var errs []error

	// 1. HTTP Server
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 2. Tracing (сбрасываем накопленные span'ы)
	if c.tracing != nil {
		if err := c.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	log.Info("Container shutdown complete")
	return nil
}

// ============================================
// Run
// ============================================

// Run открывает порт, печатает ссылки и обслуживает запросы
// до отмены ctx или SIGINT/SIGTERM.
func (c *Container) Run(ctx context.Context) error {
	if err := c.httpServer.Listen(); err != nil {
		return err
	}
	c.logStartup()
	return c.httpServer.Run(ctx)
}

// logStartup печатает фактический адрес и ссылки на основные страницы.
func (c *Container) logStartup() {
	addr := c.httpServer.Addr()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = c.config.Server.Host, strconv.Itoa(c.config.Server.Port)
	}
	base := "http://" + net.JoinHostPort(displayHost(host), port)

	c.console.Info("Starting dev server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", addr),
		slog.String("root", c.pages.AbsRoot()),
		slog.Bool("default_token", c.config.Token.IsDefault()),
	)
	c.console.Info("Test API: " + base + "/test-api.html")
	c.console.Info("Login: " + base + "/login.html")
}

// displayHost - хост для ссылок в логах; адреса всех интерфейсов показываются как localhost.
func displayHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::":
		return "localhost"
	default:
		return host
	}
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg     *config.Config
	logger  *slog.Logger
	output  io.Writer
	tracing *tracing.Provider
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithOutput направляет логи в w.
func (b *ContainerBuilder) WithOutput(w io.Writer) *ContainerBuilder {
	b.output = w
	return b
}

// WithTracing устанавливает готовый tracer provider.
func (b *ContainerBuilder) WithTracing(p *tracing.Provider) *ContainerBuilder {
	b.tracing = p
	return b
}

// Build создаёт и инициализирует контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)
	if b.output != nil {
		c.output = b.output
	}

	// Кастомный логгер пишет и access log: его уровень задаёт вызывающий
	if b.logger != nil {
		c.logger = b.logger
		c.console = b.logger
	}
	c.tracing = b.tracing

	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
