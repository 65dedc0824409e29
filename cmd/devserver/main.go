// Command devserver раздаёт фронтенд ticketing-системы локально
// и вставляет API токен из окружения в HTML страницы.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Haleralex/ticketing-devserver/internal/config"
	"github.com/Haleralex/ticketing-devserver/internal/container"
	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath string
		root       string
		port       int
		envFile    string
	)

	flag.StringVar(&configPath, "config", "configs", "Directory with devserver.yaml")
	flag.StringVar(&root, "root", "", "Directory to serve (overrides static.root)")
	flag.IntVar(&port, "port", 0, "Port to listen on (overrides server.port)")
	flag.StringVar(&envFile, "env-file", ".env", "File with environment variables, e.g. "+config.TokenEnvVar)
	flag.Parse()

	// 1. .env (отсутствие файла не ошибка, существующие переменные не перезаписываются)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envFile, err)
		os.Exit(1)
	}

	// 2. Configuration
	cfg, err := config.Load(configPath, "devserver")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if root != "" {
		cfg.Static.Root = root
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// 3. Container
	ctx := context.Background()
	c, err := container.NewBuilder(cfg).Build(ctx)
	if err != nil {
		slog.Error("Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Run (до SIGINT/SIGTERM)
	logger := c.Logger()
	logger.Info("Press Ctrl+C to stop")

	if err := c.Run(ctx); err != nil {
		logger.Error("Server error", slog.String("error", err.Error()))
		_ = c.Shutdown(ctx)
		os.Exit(1)
	}

	if err := c.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
