package config

import (
	"os"
	"time"
)

// ElasticsearchConfig настройки индекса экскурсий.
// Без ELASTICSEARCH_ENABLED поиск идет через SQL (ILIKE по name).
type ElasticsearchConfig struct {
	Enabled    bool
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration

	// Параметры создания индекса
	Shards   int
	Replicas int
	// Refresh передается в index/delete запросы: "wait_for", "true" или "false"
	Refresh string
}

func LoadElasticsearchConfig() ElasticsearchConfig {
	return ElasticsearchConfig{
		Enabled:    getEnvBool("ELASTICSEARCH_ENABLED", false),
		URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		Index:      getEnv("ELASTICSEARCH_INDEX", "activities"),
		Username:   os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:   os.Getenv("ELASTICSEARCH_PASSWORD"),
		MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		Timeout:    getEnvDuration("ELASTICSEARCH_TIMEOUT", 10*time.Second),
		Shards:     getEnvInt("ELASTICSEARCH_SHARDS", 1),
		Replicas:   getEnvInt("ELASTICSEARCH_REPLICAS", 0),
		Refresh:    getEnv("ELASTICSEARCH_REFRESH", "wait_for"),
	}
}

// getEnvDuration принимает формат time.ParseDuration ("10s", "1m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
