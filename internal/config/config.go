package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tourdesk/internal/cache"
	"tourdesk/internal/database"
	"tourdesk/internal/messaging"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port               string
	GinMode            string
	LogLevel           string
	LogFormat          string
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string

	MetricsEnabled bool

	JWTSecret      string
	JWTExpireHours int

	// Сверка мест
	ReconcileInterval time.Duration
	ReconcileFix      bool

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch ElasticsearchConfig
}

// Load загружает конфигурацию из переменных окружения.
// Локальный .env учитывается, если он есть.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		ReconcileInterval: time.Duration(getEnvInt("RECONCILE_INTERVAL_SEC", 300)) * time.Second,
		ReconcileFix:      getEnvBool("RECONCILE_FIX", false),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "tourdesk"),
			Password:           getEnv("DB_PASSWORD", "tourdesk"),
			DBName:             getEnv("DB_NAME", "tourdesk"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
			Retry: database.RetryPolicy{
				Attempts: getEnvInt("DB_RETRY_ATTEMPTS", 3),
				Backoff:  time.Duration(getEnvInt("DB_RETRY_BACKOFF_MS", 100)) * time.Millisecond,
			},
		},

		NATS: messaging.Config{
			Enabled:   getEnvBool("NATS_ENABLED", false),
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "tourdesk"),
			ClientID:  getEnv("NATS_CLIENT_ID", "tourdesk-api"),
		},

		Valkey: cache.Config{
			Enabled:      getEnvBool("VALKEY_ENABLED", false),
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     getEnv("VALKEY_PASSWORD", ""),
			DB:           getEnvInt("VALKEY_DB", 0),
			PrincipalTTL: time.Duration(getEnvInt("VALKEY_PRINCIPAL_TTL_SEC", 60)) * time.Second,
			ActivityTTL:  time.Duration(getEnvInt("VALKEY_ACTIVITY_TTL_SEC", 300)) * time.Second,
		},

		Elasticsearch: LoadElasticsearchConfig(),
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
