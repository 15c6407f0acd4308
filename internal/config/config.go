package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Bot      BotConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// AES-256 ключ для шифрования API ключей бирж
	EncryptionKey string

	// Токен админских операций (создание ботов, отправка ордеров)
	AdminToken string

	// bcrypt-хеш токена; альтернатива AdminToken для окружений,
	// где plaintext-токен в конфигурации недопустим
	AdminTokenHash string
}

// BotConfig - настройки жизненного цикла ордеров
type BotConfig struct {
	// Цикл сверки с биржей
	ReconcileInterval time.Duration // период прохода сверки
	MaxConcurrentBots int           // сколько ботов сверяются параллельно

	// Таймауты операций шлюза
	SubmitTimeout time.Duration // отправка ордера на биржу
	StatusTimeout time.Duration // запрос статуса ордера

	// Retry на границе планирования сверки
	MaxRetries   int
	RetryBackoff time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "gridbot"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),

			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			AdminToken:     getEnv("ADMIN_TOKEN", ""),
			AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
		},
		Bot: BotConfig{
			ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", 30*time.Second),
			MaxConcurrentBots: getEnvAsInt("MAX_CONCURRENT_BOTS", 4),

			SubmitTimeout: getEnvAsDuration("SUBMIT_TIMEOUT", 10*time.Second),
			StatusTimeout: getEnvAsDuration("STATUS_TIMEOUT", 5*time.Second),

			MaxRetries:   getEnvAsInt("MAX_RETRIES", 3),
			RetryBackoff: getEnvAsDuration("RETRY_BACKOFF", 500*time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация критичных параметров безопасности
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен для шифрования API ключей бирж
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting API keys")
	}

	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	// Токен задаётся либо открытым текстом, либо bcrypt-хешем
	if c.Security.AdminToken == "" && c.Security.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN or ADMIN_TOKEN_HASH is required for admin endpoints")
	}

	if c.Security.AdminToken != "" && len(c.Security.AdminToken) < 16 {
		return fmt.Errorf("ADMIN_TOKEN must be at least 16 characters")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Валидация retry параметров
	if c.Bot.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES cannot be negative, got %d", c.Bot.MaxRetries)
	}

	if c.Bot.MaxRetries > 10 {
		return fmt.Errorf("MAX_RETRIES should not exceed 10, got %d", c.Bot.MaxRetries)
	}

	// Валидация таймаутов (должны быть положительными)
	if c.Bot.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive, got %v", c.Bot.ReconcileInterval)
	}

	if c.Bot.SubmitTimeout <= 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT must be positive, got %v", c.Bot.SubmitTimeout)
	}

	if c.Bot.StatusTimeout <= 0 {
		return fmt.Errorf("STATUS_TIMEOUT must be positive, got %v", c.Bot.StatusTimeout)
	}

	if c.Bot.MaxConcurrentBots < 1 {
		return fmt.Errorf("MAX_CONCURRENT_BOTS must be at least 1, got %d", c.Bot.MaxConcurrentBots)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.Database.MaxOpenConns)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
