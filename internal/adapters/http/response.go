// Package http содержит HTTP адаптер dev сервера.
//
// Структура пакета:
// - common/: Страница ошибки и общие helpers (вынесены для избежания циклических импортов)
// - middleware/: HTTP middleware (request id, CORS, logging, recovery, metrics)
// - handlers/: раздача статики с инъекцией токена и служебные endpoints
// - router.go: Конфигурация маршрутов
// - server.go: HTTP server lifecycle
package http

import (
	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/common"
)

// Re-export types from common package for convenience
type (
	// ErrorPage - данные HTML страницы ошибки.
	ErrorPage = common.ErrorPage
)

// Re-export error codes
const (
	ErrCodeNotFound       = common.ErrCodeNotFound
	ErrCodeBadRequest     = common.ErrCodeBadRequest
	ErrCodeInternal       = common.ErrCodeInternal
	ErrCodeNotImplemented = common.ErrCodeNotImplemented
)

// Re-export functions
var (
	// GetRequestID возвращает Request ID из контекста.
	GetRequestID = common.GetRequestID
	// Error отправляет HTML страницу ошибки.
	Error = common.Error
	// NotFoundResponse создаёт ответ для 404.
	NotFoundResponse = common.NotFoundResponse
	// InternalErrorResponse создаёт ответ для внутренней ошибки.
	InternalErrorResponse = common.InternalErrorResponse
	// HandlePageError преобразует ошибку загрузки страницы в HTTP response.
	HandlePageError = common.HandlePageError
)
