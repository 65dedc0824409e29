// Package handlers - Health check handlers.
//
// Служебные endpoints живут под префиксом /__devserver и не
// пересекаются с файлами раздаваемого каталога.
//
// Два типа health checks:
// - Liveness: Процесс работает?
// - Readiness: Каталог со статикой доступен для чтения?
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ============================================
// Health Check Handler
// ============================================

// RootChecker проверяет доступность корневого каталога.
type RootChecker interface {
	Check(ctx context.Context) error
	Root() string
}

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	root         RootChecker
	version      string
	buildTime    string
	defaultToken bool
	startTime    time.Time
}

// NewHealthHandler создаёт новый HealthHandler.
//
// defaultToken сообщает, работает ли сервер с токеном по умолчанию.
// Сам токен в ответы не попадает.
func NewHealthHandler(root RootChecker, version, buildTime string, defaultToken bool) *HealthHandler {
	return &HealthHandler{
		root:         root,
		version:      version,
		buildTime:    buildTime,
		defaultToken: defaultToken,
		startTime:    time.Now(),
	}
}

// ============================================
// Response Types
// ============================================

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status    string            `json:"status"`           // "healthy", "unhealthy"
	Version   string            `json:"version"`          // Версия приложения
	BuildTime string            `json:"build_time"`       // Время сборки
	Uptime    string            `json:"uptime"`           // Время работы
	Root      string            `json:"root,omitempty"`   // Раздаваемый каталог
	Timestamp time.Time         `json:"timestamp"`        // Текущее время
	Checks    map[string]string `json:"checks,omitempty"` // Детали проверок
}

// ReadinessResponse - ответ readiness check.
type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// ============================================
// HTTP Handlers
// ============================================

// Health возвращает health статус вместе с результатами проверок.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]string{
		"token": "configured",
	}
	if h.defaultToken {
		checks["token"] = "default"
	}

	status := "healthy"
	rootDir := ""
	if h.root != nil {
		rootDir = h.root.Root()
		if err := h.checkRoot(c.Request.Context()); err != nil {
			status = "unhealthy"
			checks["static_root"] = "unhealthy: " + err.Error()
		} else {
			checks["static_root"] = "healthy"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Root:      rootDir,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// Ready проверяет, что корневой каталог доступен. 503 если нет.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := make(map[string]string)
	allReady := true

	if h.root != nil {
		if err := h.checkRoot(c.Request.Context()); err != nil {
			checks["static_root"] = "unhealthy: " + err.Error()
			allReady = false
		} else {
			checks["static_root"] = "healthy"
		}
	} else {
		checks["static_root"] = "not configured"
	}

	statusCode := http.StatusOK
	if !allReady {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Ready:     allReady,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// Live возвращает статус "живости" приложения.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *HealthHandler) checkRoot(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.root.Check(ctx)
}

// RegisterRoutes регистрирует health check маршруты.
//
// Routes (относительно группы):
// - GET /health - Health check
// - GET /ready  - готовность (readiness)
// - GET /live   - жив ли процесс (liveness)
func (h *HealthHandler) RegisterRoutes(group gin.IRoutes) {
	group.GET("/health", h.Health)
	group.GET("/ready", h.Ready)
	group.GET("/live", h.Live)
}
