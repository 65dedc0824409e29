// Package http - Router configuration for the dev server.
//
// Router собирает handlers и middleware в единую точку входа.
// Файлы раздаются через NoRoute: любой путь, не совпавший со служебными
// маршрутами /__devserver/*, уходит в StaticHandler.
package http

import (
	"log/slog"

	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/handlers"
	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/middleware"
	"github.com/Haleralex/ticketing-devserver/internal/domain/injection"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// ============================================
// Router Configuration
// ============================================

// PageStore - корневой каталог: чтение страниц, делегирование, health check.
type PageStore interface {
	handlers.PageSource
	handlers.RootChecker
}

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// AccessLogger для access log; nil - Logger
	AccessLogger *slog.Logger
	// Pages - раздаваемый каталог
	Pages PageStore
	// Injector вставляет скрипт с токеном в HTML
	Injector *injection.Injector
	// Index - документ для "/"
	Index string
	// DefaultToken - сервер работает с токеном по умолчанию
	DefaultToken bool
	// Version приложения
	Version string
	// BuildTime время сборки
	BuildTime string
	// Environment (development, test, staging, production)
	Environment string
	// AllowedOrigins для CORS
	AllowedOrigins []string
	// AllowedMethods и AllowedHeaders для preflight
	AllowedMethods []string
	AllowedHeaders []string
	// CORSMaxAge - кеширование preflight (секунды)
	CORSMaxAge int
	// QuietMarkers - подстроки строки запроса, которые не логируются
	QuietMarkers []string
	// ServiceName для otelgin span'ов
	ServiceName string
	// TracerProvider; nil отключает otelgin middleware
	TracerProvider trace.TracerProvider
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
// Pages и Injector нужно задать отдельно.
func DefaultRouterConfig() *RouterConfig {
	cors := middleware.DefaultCORSConfig()
	return &RouterConfig{
		Logger:         slog.Default(),
		Index:          "index.html",
		Version:        "dev",
		BuildTime:      "unknown",
		Environment:    "development",
		AllowedOrigins: cors.AllowOrigins,
		AllowedMethods: cors.AllowMethods,
		AllowedHeaders: cors.AllowHeaders,
		CORSMaxAge:     cors.MaxAge,
		QuietMarkers:   []string{"config.js"},
		ServiceName:    "devserver",
	}
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
type RouterBuilder struct {
	config *RouterConfig
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithPages задаёт раздаваемый каталог.
func (b *RouterBuilder) WithPages(pages PageStore) *RouterBuilder {
	b.config.Pages = pages
	return b
}

// WithInjector задаёт injector токена.
func (b *RouterBuilder) WithInjector(injector *injection.Injector) *RouterBuilder {
	b.config.Injector = injector
	return b
}

// WithTracerProvider включает otelgin middleware.
func (b *RouterBuilder) WithTracerProvider(tp trace.TracerProvider) *RouterBuilder {
	b.config.TracerProvider = tp
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. CORS - до любых handlers, заголовок попадает в каждый ответ
	router.Use(middleware.CORS(&middleware.CORSConfig{
		AllowOrigins: b.config.AllowedOrigins,
		AllowMethods: b.config.AllowedMethods,
		AllowHeaders: b.config.AllowedHeaders,
		MaxAge:       b.config.CORSMaxAge,
	}))

	// 3. Request ID
	router.Use(middleware.RequestID())

	// 4. Tracing
	if b.config.TracerProvider != nil {
		router.Use(otelgin.Middleware(b.config.ServiceName,
			otelgin.WithTracerProvider(b.config.TracerProvider),
		))
	}

	// 5. Logging
	accessLogger := b.config.AccessLogger
	if accessLogger == nil {
		accessLogger = b.config.Logger
	}
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger: accessLogger,
		SkipPaths: []string{
			middleware.OpsPrefix + "/health",
			middleware.OpsPrefix + "/live",
			middleware.OpsPrefix + "/ready",
			middleware.OpsPrefix + "/metrics",
		},
		SkipSubstrings: b.config.QuietMarkers,
	}))

	// 6. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Operational Routes
	// ============================================

	ops := router.Group(middleware.OpsPrefix)
	ops.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var root handlers.RootChecker
	if b.config.Pages != nil {
		root = b.config.Pages
	}
	healthHandler := handlers.NewHealthHandler(
		root,
		b.config.Version,
		b.config.BuildTime,
		b.config.DefaultToken,
	)
	healthHandler.RegisterRoutes(ops)

	// ============================================
	// Static Files
	// ============================================

	if b.config.Pages != nil && b.config.Injector != nil {
		opts := []handlers.StaticOption{
			handlers.WithIndex(b.config.Index),
			handlers.WithLogger(b.config.Logger),
		}
		if b.config.TracerProvider != nil {
			opts = append(opts, handlers.WithTracer(b.config.TracerProvider.Tracer(b.config.ServiceName)))
		}
		staticHandler := handlers.NewStaticHandler(b.config.Pages, b.config.Injector, opts...)
		router.NoRoute(staticHandler.Serve)
	} else {
		router.NoRoute(NotFoundResponse)
	}

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter создаёт роутер с базовой конфигурацией.
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}

// NewDevelopmentRouter создаёт роутер для каталога pages с токеном token.
func NewDevelopmentRouter(pages PageStore, token string) *gin.Engine {
	config := DefaultRouterConfig()
	config.Pages = pages
	config.Injector = injection.New(token)
	config.DefaultToken = token == injection.DefaultToken
	return NewRouter(config)
}
