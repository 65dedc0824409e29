// Package config - Dev server configuration management.
//
// Использует Viper для:
// - Загрузки из YAML файлов
// - Переменных окружения
// - Значений по умолчанию
//
// Порядок приоритета (от высшего к низшему):
// 1. Environment variables
// 2. Config file
// 3. Default values
//
// Конфигурация читается один раз при старте и дальше не меняется.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultToken - небезопасный токен, используемый если BASEROW_API_TOKEN не задан.
	DefaultToken = "YOUR_SECURE_TOKEN_HERE"
	// TokenEnvVar - переменная окружения с API токеном.
	TokenEnvVar = "BASEROW_API_TOKEN"
	// EnvPrefix - префикс остальных переменных окружения.
	EnvPrefix = "DEVSERVER"
)

// ============================================
// Main Configuration
// ============================================

// Config - главная структура конфигурации dev сервера.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Static  StaticConfig  `mapstructure:"static"`
	Token   TokenConfig   `mapstructure:"token"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`
}

// ============================================
// App Configuration
// ============================================

// AppConfig - конфигурация приложения.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development test staging production"`
	Debug       bool   `mapstructure:"debug"`
	BuildTime   string `mapstructure:"build_time"`
}

// IsDevelopment возвращает true если окружение development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction возвращает true если окружение production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address возвращает полный адрес сервера.
// Пустой Host означает все интерфейсы.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ============================================
// Static Files Configuration
// ============================================

// StaticConfig - где лежит фронтенд и как в него встраивается токен.
type StaticConfig struct {
	// Root - корневая директория с HTML/JS файлами
	Root string `mapstructure:"root" validate:"required"`
	// Index - документ, отдаваемый на "/"
	Index string `mapstructure:"index" validate:"required,endswith=.html"`
	// ConfigScriptTag - точный тег, перед которым вставляется токен
	ConfigScriptTag string `mapstructure:"config_script_tag" validate:"required"`
	// QuietMarker - запросы, чья строка запроса содержит маркер, не логируются
	QuietMarker string `mapstructure:"quiet_marker"`
}

// ============================================
// Token Configuration
// ============================================

// TokenConfig - API токен и имя глобальной переменной в браузере.
type TokenConfig struct {
	APIToken   string `mapstructure:"api_token" validate:"required"`
	GlobalName string `mapstructure:"global_name" validate:"required,js_identifier"`
}

// IsDefault возвращает true если используется небезопасный токен по умолчанию.
func (c *TokenConfig) IsDefault() bool {
	return c.APIToken == DefaultToken
}

// String никогда не раскрывает токен.
func (c TokenConfig) String() string {
	return fmt.Sprintf("TokenConfig{GlobalName: %s, APIToken: [REDACTED]}", c.GlobalName)
}

// ============================================
// CORS Configuration
// ============================================

// CORSConfig - конфигурация CORS.
//
// AllowedOrigins обязан содержать "*": страницы открываются с любого
// origin, и Access-Control-Allow-Origin: * есть в каждом ответе.
// Дополнительные origin'ы допустимы, но ответ от них не меняется.
type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins" validate:"min=1,wildcard_origin"`
	AllowedMethods []string      `mapstructure:"allowed_methods"`
	AllowedHeaders []string      `mapstructure:"allowed_headers"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

// ============================================
// Tracing Configuration
// ============================================

// TracingConfig - конфигурация OpenTelemetry.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"min=0,max=1"`
	Insecure    bool    `mapstructure:"insecure"`
}

// ============================================
// Log Configuration
// ============================================

// LogConfig - конфигурация логирования.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"` // debug, info, warn, error
	Format string `mapstructure:"format" validate:"oneof=json text"`                    // json, text
}

// ============================================
// Configuration Loading
// ============================================

// Load загружает конфигурацию из файла и переменных окружения.
//
// configPath - путь к директории с конфигурацией (например, "configs")
// configName - имя файла конфигурации без расширения (например, "devserver")
//
// Отсутствие файла не является ошибкой.
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Файл не найден - используем defaults и env vars
	}

	return decode(v)
}

// LoadFromEnv загружает конфигурацию только из переменных окружения.
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults устанавливает значения по умолчанию.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "ticketing-devserver")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.build_time", "unknown")

	// Server defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Static defaults
	v.SetDefault("static.root", ".")
	v.SetDefault("static.index", "index.html")
	v.SetDefault("static.config_script_tag", `<script src="js/config.js"></script>`)
	v.SetDefault("static.quiet_marker", "config.js")

	// Token defaults
	v.SetDefault("token.api_token", DefaultToken)
	v.SetDefault("token.global_name", "BASEROW_API_TOKEN")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.max_age", "24h")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "ticketing-devserver")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.insecure", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// bindEnv настраивает переменные окружения.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Токен читается из своей собственной переменной, без префикса.
	// Пустое значение viper считает незаданным: BASEROW_API_TOKEN="" даёт токен по умолчанию.
	_ = v.BindEnv("token.api_token", EnvPrefix+"_TOKEN_API_TOKEN", TokenEnvVar)

	// Server
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	// App
	_ = v.BindEnv("app.environment", EnvPrefix+"_APP_ENVIRONMENT", "ENVIRONMENT")
}

// ============================================
// Configuration Validation
// ============================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("js_identifier", validateJSIdentifier)
	_ = v.RegisterValidation("wildcard_origin", validateWildcardOrigin)
	return v
}

// Validate валидирует конфигурацию.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	// Небезопасный токен в production - ошибка, в остальных окружениях - warning при старте
	if c.App.IsProduction() && c.Token.IsDefault() {
		return fmt.Errorf("%s must be set in production", TokenEnvVar)
	}

	return nil
}

// validateJSIdentifier проверяет, что строка - допустимый идентификатор JavaScript
// (ASCII подмножество: буква, '_' или '$', затем буквы, цифры, '_' или '$').
func validateJSIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ============================================
// Development Helpers
// ============================================

// Development возвращает конфигурацию для разработки.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "ticketing-devserver",
			Version:     "dev",
			Environment: "development",
			Debug:       true,
			BuildTime:   "unknown",
		},
		Server: ServerConfig{
			Host:            "",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Static: StaticConfig{
			Root:            ".",
			Index:           "index.html",
			ConfigScriptTag: `<script src="js/config.js"></script>`,
			QuietMarker:     "config.js",
		},
		Token: TokenConfig{
			APIToken:   DefaultToken,
			GlobalName: "BASEROW_API_TOKEN",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			MaxAge:         24 * time.Hour,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			ServiceName: "ticketing-devserver",
			SampleRatio: 1.0,
			Insecure:    true,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
		},
	}
}

// Test возвращает конфигурацию для тестов.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Log.Level = "error" // Меньше шума в тестах
	return cfg
}

// validateWildcardOrigin проверяет, что список origin'ов содержит "*".
func validateWildcardOrigin(fl validator.FieldLevel) bool {
	origins, ok := fl.Field().Interface().([]string)
	return ok && slices.Contains(origins, "*")
}
