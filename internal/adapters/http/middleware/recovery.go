// Package middleware - Recovery middleware для обработки паник.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/common"
	"github.com/gin-gonic/gin"
)

// RecoveryConfig - конфигурация для recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool // Включать stack trace в логи
	PrintStack       bool // Выводить stack trace в консоль
}

// DefaultRecoveryConfig - конфигурация по умолчанию.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
		PrintStack:       false,
	}
}

// Recovery middleware перехватывает панику и возвращает 500 страницу.
//
// Ставится первым в цепочке, после него CORS: заголовок
// Access-Control-Allow-Origin уже выставлен, когда handler паникует.
// http.ErrAbortHandler пробрасывается дальше, его обрабатывает net/http.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			stack := debug.Stack()

			attrs := []slog.Attr{
				slog.String("error", fmt.Sprintf("%v", err)),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("request_id", GetRequestID(c)),
				slog.String("client_ip", c.ClientIP()),
			}

			if config.EnableStackTrace {
				attrs = append(attrs, slog.String("stack", string(stack)))
			}

			log.LogAttrs(c.Request.Context(), slog.LevelError, "Panic recovered", attrs...)

			if config.PrintStack {
				fmt.Printf("[Recovery] panic recovered:\n%v\n%s\n", err, stack)
			}

			// Ответ уже начал отправляться, заменить его нельзя
			if c.Writer.Written() {
				c.Abort()
				return
			}

			common.AbortWithError(c, http.StatusInternalServerError, common.ErrCodeInternal,
				"An unexpected error occurred")
		}()

		c.Next()
	}
}
