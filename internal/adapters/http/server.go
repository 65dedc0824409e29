// Package http - HTTP Server lifecycle for the dev server.
//
// Порт открывается отдельно от обслуживания (Listen, затем Serve):
// занятый порт обнаруживается до вывода ссылок, а порт 0 превращается
// в реальный адрес, который видно через Addr.
//
// Каждое соединение обслуживается в своей горутине net/http.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	// Host; пустой - все интерфейсы
	Host string
	// Port; "0" - любой свободный
	Port string
	// Таймауты соединения
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ShutdownTimeout - сколько ждать активные запросы при остановке
	ShutdownTimeout time.Duration
	// Logger для сообщений жизненного цикла и ошибок net/http
	Logger *slog.Logger
}

// DefaultServerConfig - все интерфейсы, порт 8000.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            "8000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Logger:          slog.Default(),
	}
}

// Address возвращает адрес из конфигурации в форме host:port.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ============================================
// Server
// ============================================

// Server раздаёт handler по HTTP до сигнала или отмены контекста.
type Server struct {
	config     *ServerConfig
	httpServer *http.Server
	handler    http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// NewServer создаёт сервер; порт не открывается до Listen или Run.
func NewServer(config *ServerConfig, handler http.Handler) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultServerConfig().ShutdownTimeout
	}

	return &Server{
		config:  config,
		handler: handler,
		httpServer: &http.Server{
			Addr:         config.Address(),
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
			ErrorLog:     slog.NewLogLogger(config.Logger.Handler(), slog.LevelWarn),
		},
	}
}

// Listen открывает порт. Повторный вызов ничего не делает.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Address(), err)
	}
	s.listener = ln
	return nil
}

// Addr возвращает фактический адрес после Listen, до него - адрес из конфигурации.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return s.config.Address()
	}
	return s.listener.Addr().String()
}

// Serve обслуживает запросы до Shutdown. Если порт ещё не открыт, открывает его.
func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.config.Logger.Info("Serving HTTP", slog.String("address", ln.Addr().String()))

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown перестаёт принимать соединения и ждёт активные запросы
// не дольше ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.config.Logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		return err
	}

	// Порт, открытый через Listen, но ещё не переданный в Serve
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Unlock()

	s.config.Logger.Info("HTTP server stopped gracefully")
	return nil
}

// ============================================
// Run with Graceful Shutdown
// ============================================

// Run обслуживает запросы, пока не отменён ctx и не пришёл SIGINT/SIGTERM,
// затем выполняет graceful shutdown. Ошибка Listen или Serve возвращается сразу.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Listen(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.config.Logger.Info("Shutdown requested")
	}

	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errChan
}
