// Package middleware - Logging middleware для структурированного логирования.
package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingConfig - конфигурация для logging middleware.
type LoggingConfig struct {
	Logger *slog.Logger
	// SkipPaths - точные пути без логирования (e.g., /__devserver/health)
	SkipPaths []string
	// SkipSubstrings - запрос не логируется, если строка запроса
	// "METHOD URI PROTO" содержит любую из подстрок
	SkipSubstrings []string
}

// DefaultLoggingConfig - конфигурация по умолчанию.
//
// Запросы к js/config.js не попадают в access log.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger: slog.Default(),
		SkipPaths: []string{
			"/__devserver/health",
			"/__devserver/ready",
			"/__devserver/live",
			"/__devserver/metrics",
		},
		SkipSubstrings: []string{"config.js"},
	}
}

// Logging middleware для структурированного логирования HTTP запросов.
//
// Логируемые данные:
// - HTTP метод и путь
// - Статус код ответа
// - Время обработки
// - Request ID
// - IP клиента
// - User-Agent
// - Размер ответа
//
// Тела запроса и ответа не логируются: HTML ответы содержат API токен.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	// Создаём map для быстрой проверки skip paths
	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}
	skipSubstrings := make([]string, 0, len(config.SkipSubstrings))
	for _, s := range config.SkipSubstrings {
		if s != "" {
			skipSubstrings = append(skipSubstrings, s)
		}
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] || containsAny(RequestLine(c), skipSubstrings) {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.String("proto", c.Request.Proto),
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("request_id", GetRequestID(c)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("response_size", c.Writer.Size()),
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		// Определяем уровень логирования по статусу
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		log.LogAttrs(c.Request.Context(), level, "HTTP Request", attrs...)
	}
}

// RequestLine восстанавливает первую строку HTTP запроса: "GET /path?q HTTP/1.1".
func RequestLine(c *gin.Context) string {
	uri := c.Request.RequestURI
	if uri == "" {
		uri = c.Request.URL.RequestURI()
	}
	return c.Request.Method + " " + uri + " " + c.Request.Proto
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
