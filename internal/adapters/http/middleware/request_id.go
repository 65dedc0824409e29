// Package middleware содержит HTTP middleware dev сервера.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Они используются для cross-cutting concerns: request id, CORS,
// access log, recovery, метрики.
//
// Pattern: Chain of Responsibility
package middleware

import (
	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/common"
	"github.com/Haleralex/ticketing-devserver/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader - имя заголовка для Request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey - ключ для хранения Request ID в контексте
	RequestIDContextKey = common.RequestIDKey
)

// maxRequestIDLength ограничивает ID, пришедший от клиента.
const maxRequestIDLength = 128

// RequestID middleware добавляет уникальный ID к каждому запросу.
//
// Если клиент передаёт X-Request-ID - используем его,
// иначе генерируем новый UUID. ID кладётся в gin.Context и в
// context.Context запроса, откуда его забирает logger.ContextHandler.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	return common.GetRequestID(c)
}
