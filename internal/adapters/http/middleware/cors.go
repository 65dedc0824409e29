// Package middleware - CORS middleware.
//
// Фронтенд открывается с других origin (file://, другой порт, ngrok),
// поэтому dev сервер по умолчанию разрешает всё: каждый ответ, включая
// ошибки и файлы, получает Access-Control-Allow-Origin: *.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig - конфигурация CORS.
type CORSConfig struct {
	// AllowOrigins - разрешённые origins (домены)
	// "*" - разрешить все
	AllowOrigins []string
	// AllowMethods - разрешённые HTTP методы
	AllowMethods []string
	// AllowHeaders - разрешённые заголовки запроса
	AllowHeaders []string
	// MaxAge - время кеширования preflight запроса (секунды)
	MaxAge int
}

// DefaultCORSConfig - открытая политика dev сервера.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
		},
		MaxAge: 86400, // 24 часа
	}
}

// CORS middleware для обработки Cross-Origin запросов.
//
// Заголовок Access-Control-Allow-Origin выставляется до вызова следующих
// handlers, поэтому он присутствует в любом ответе: HTML, статике, 404,
// 500 и ответе recovery после паники.
//
// OPTIONS preflight отвечается 204 без вызова handlers.
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}

	// Предварительно формируем строки для заголовков
	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	allowAllOrigins := false
	originsMap := make(map[string]bool)
	for _, origin := range config.AllowOrigins {
		if origin == "*" {
			allowAllOrigins = true
		}
		originsMap[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Определяем, разрешён ли origin
		var allowedOrigin string
		if allowAllOrigins {
			allowedOrigin = "*"
		} else if originsMap[origin] {
			allowedOrigin = origin
			c.Header("Vary", "Origin")
		}

		if allowedOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowedOrigin)
		}

		// Обрабатываем preflight запрос
		if c.Request.Method == http.MethodOptions {
			if allowedOrigin != "" {
				c.Header("Access-Control-Allow-Methods", allowMethods)
				c.Header("Access-Control-Allow-Headers", allowHeaders)
				c.Header("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
