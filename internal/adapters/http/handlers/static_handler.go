// Package handlers - раздача статики с инъекцией API токена.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/common"
	"github.com/Haleralex/ticketing-devserver/internal/adapters/http/middleware"
	domainerrors "github.com/Haleralex/ticketing-devserver/internal/domain/errors"
	"github.com/Haleralex/ticketing-devserver/internal/domain/injection"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ============================================
// Static Handler
// ============================================

// PageSource - источник HTML страниц и файлов для делегирования.
type PageSource interface {
	ReadPage(ctx context.Context, name string) (string, error)
	FileSystem() http.FileSystem
}

// StaticHandler раздаёт файлы корневого каталога.
//
// HTML страницы читаются как текст, в них вставляется скрипт с токеном
// перед тегом config.js. Остальные файлы отдаёт http.FileServer.
type StaticHandler struct {
	pages    PageSource
	injector *injection.Injector
	index    string
	files    http.Handler
	tracer   trace.Tracer
	logger   *slog.Logger
}

// StaticOption настраивает StaticHandler.
type StaticOption func(*StaticHandler)

// WithIndex задаёт документ, который отдаётся на "/".
func WithIndex(index string) StaticOption {
	return func(h *StaticHandler) {
		if index != "" {
			h.index = strings.TrimPrefix(index, "/")
		}
	}
}

// WithTracer задаёт tracer для span'ов чтения страниц.
func WithTracer(tracer trace.Tracer) StaticOption {
	return func(h *StaticHandler) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

// WithLogger задаёт logger для ошибок чтения.
func WithLogger(logger *slog.Logger) StaticOption {
	return func(h *StaticHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewStaticHandler создаёт StaticHandler.
func NewStaticHandler(pages PageSource, injector *injection.Injector, opts ...StaticOption) *StaticHandler {
	h := &StaticHandler{
		pages:    pages,
		injector: injector,
		index:    "index.html",
		files:    http.FileServer(pages.FileSystem()),
		tracer:   noop.NewTracerProvider().Tracer(""),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ============================================
// HTTP Handlers
// ============================================

// Serve обрабатывает любой запрос, не совпавший с маршрутами.
// Монтируется как NoRoute handler.
//
//   - "/" эквивалентен "/<index>"
//   - GET и HEAD для *.html: чтение страницы и инъекция токена
//   - остальные GET и HEAD: http.FileServer
//   - OPTIONS: 204 (preflight обычно завершает CORS middleware)
//   - другие методы: 501
func (h *StaticHandler) Serve(c *gin.Context) {
	method := c.Request.Method
	switch method {
	case http.MethodGet, http.MethodHead:
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	default:
		common.NotImplementedResponse(c, method)
		return
	}

	name := c.Request.URL.Path
	if name == "/" {
		name = "/" + h.index
	}

	if strings.HasSuffix(name, ".html") {
		h.servePage(c, name)
		return
	}

	h.files.ServeHTTP(c.Writer, c.Request)
}

// servePage отдаёт HTML страницу с инъекцией токена.
// Для HEAD заголовки совпадают с GET, тело не пишется.
func (h *StaticHandler) servePage(c *gin.Context, name string) {
	ctx, span := h.tracer.Start(c.Request.Context(), "devserver.ReadPage",
		trace.WithAttributes(attribute.String("devserver.page", name)))
	defer span.End()

	start := time.Now()
	page, err := h.pages.ReadPage(ctx, name)
	middleware.RecordPageRead(readResult(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read page")
		if !domainerrors.IsNotFound(err) && !domainerrors.IsInvalidPath(err) {
			h.logger.ErrorContext(ctx, "Failed to read page",
				slog.String("path", name),
				slog.String("error", err.Error()),
			)
		}
		_ = c.Error(err)
		common.HandlePageError(c, err)
		return
	}

	result := h.injector.Inject(page)
	span.SetAttributes(attribute.Bool("devserver.token_injected", result.Injected))
	middleware.RecordInjection(result.Injected)

	body := []byte(result.Body)
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Header("Content-Length", strconv.Itoa(len(body)))
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// readResult - значение label "result" метрики чтения страниц.
func readResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domainerrors.IsNotFound(err):
		return "not_found"
	case domainerrors.IsInvalidPath(err):
		return "invalid_path"
	default:
		return "error"
	}
}
