package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppPort string `mapstructure:"APP_PORT"`
	// postgres | memory; memory — без Postgres/Redis/S3, для локального запуска
	AppStorage string `mapstructure:"APP_STORAGE"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	// --- Redis ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Auth ---
	AuthJWTSecret  string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAccessTTL  time.Duration `mapstructure:"AUTH_ACCESS_TTL"`
	AuthRefreshTTL time.Duration `mapstructure:"AUTH_REFRESH_TTL"`
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppEnv: %s\n", c.AppEnv))
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  AppStorage: %s\n", c.AppStorage))
	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	sb.WriteString(masked("DBPassword", c.DBPassword))

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString(masked("RedisPassword", c.RedisPassword))

	// S3
	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	sb.WriteString(masked("S3AccessKey", c.S3AccessKey))
	sb.WriteString(masked("S3SecretKey", c.S3SecretKey))
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))

	// Auth
	sb.WriteString(masked("AuthJWTSecret", c.AuthJWTSecret))
	sb.WriteString(fmt.Sprintf("  AuthIssuer: %s\n", c.AuthIssuer))
	sb.WriteString(fmt.Sprintf("  AuthAccessTTL: %s\n", c.AuthAccessTTL))
	sb.WriteString(fmt.Sprintf("  AuthRefreshTTL: %s\n", c.AuthRefreshTTL))

	return sb.String()
}

// секреты маскируем
func masked(name, val string) string {
	if val != "" {
		return "  " + name + ": ********\n"
	}
	return "  " + name + ": (empty)\n"
}

// loadDotEnv — .env только для локальной разработки
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return errors.New("failed to load .env")
		}
	}
	return nil
}

// LoadFromEnv загружает конфигурацию сервера из переменных окружения
func LoadFromEnv() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", ":3001")
	v.SetDefault("APP_STORAGE", StoragePostgres)
	v.SetDefault("DB_SCHEME", "public")
	v.SetDefault("AUTH_ISSUER", "eng-community")
	v.SetDefault("AUTH_ACCESS_TTL", "15m")
	v.SetDefault("AUTH_REFRESH_TTL", "168h")

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"APP_ENV", "APP_PORT", "APP_STORAGE",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_ACCESS_TTL", "AUTH_REFRESH_TTL",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.AppStorage != StoragePostgres && cfg.AppStorage != StorageMemory {
		return nil, fmt.Errorf("APP_STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.AppStorage)
	}
	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	return &cfg, nil
}

// GetDSN — search_path указывает на DB_SCHEME, туда же идут миграции
func (c *Config) GetDSN() string {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
	if c.DBScheme != "" {
		dsn += "&search_path=" + url.QueryEscape(c.DBScheme)
	}
	return dsn
}
