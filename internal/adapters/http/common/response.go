// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers, middleware и основным http пакетом.
package common

import (
	"html/template"
	"net/http"

	domainerrors "github.com/Haleralex/ticketing-devserver/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeNotImplemented = "NOT_IMPLEMENTED"
)

// ============================================
// Request ID
// ============================================

// RequestIDKey - ключ Request ID в gin.Context.
const RequestIDKey = "request_id"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// ============================================
// Error Page
// ============================================

// ErrorPage - данные HTML страницы ошибки.
type ErrorPage struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Error response</title>
</head>
<body>
<h1>Error response</h1>
<p>Error code: {{.Status}}</p>
<p>Message: {{.Message}}</p>
<p>Error code explanation: {{.Code}}</p>
{{- if .RequestID}}
<p>Request ID: {{.RequestID}}</p>
{{- end}}
</body>
</html>
`))

// Error отправляет HTML страницу ошибки. Message экранируется шаблоном.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.Render(statusCode, render.HTML{
		Template: errorPageTemplate,
		Name:     "error",
		Data: ErrorPage{
			Status:    statusCode,
			Code:      code,
			Message:   message,
			RequestID: GetRequestID(c),
		},
	})
}

// AbortWithError отправляет страницу ошибки и прерывает цепочку handlers.
func AbortWithError(c *gin.Context, statusCode int, code, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

// ============================================
// Error Response Helpers
// ============================================

// NotFoundResponse - 404 с общим сообщением.
func NotFoundResponse(c *gin.Context) {
	Error(c, http.StatusNotFound, ErrCodeNotFound, "File not found")
}

// BadRequestResponse - 400.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// InternalErrorResponse - 500 с описанием причины.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, ErrCodeInternal, message)
}

// NotImplementedResponse - 501 для неподдерживаемых методов.
func NotImplementedResponse(c *gin.Context, method string) {
	Error(c, http.StatusNotImplemented, ErrCodeNotImplemented, "Unsupported method ("+method+")")
}

// ============================================
// Domain Error to HTTP Error Mapper
// ============================================

// HandlePageError преобразует ошибку загрузки страницы в HTTP response.
//
//   - ErrInvalidPath  -> 400
//   - ErrPageNotFound -> 404, общее сообщение
//   - всё остальное   -> 500, сообщение содержит текст ошибки
func HandlePageError(c *gin.Context, err error) {
	switch {
	case domainerrors.IsInvalidPath(err):
		BadRequestResponse(c, "Invalid URL path")
	case domainerrors.IsNotFound(err):
		NotFoundResponse(c)
	default:
		InternalErrorResponse(c, "Server error: "+err.Error())
	}
}
