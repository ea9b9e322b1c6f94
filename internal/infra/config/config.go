package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Slack struct {
		Token          string `envconfig:"SLACK_BOT_TOKEN"`
		BaseURL        string `envconfig:"SLACK_API_BASE_URL" default:"https://slack.com/api"`
		DefaultChannel string `envconfig:"SLACK_DEFAULT_CHANNEL" default:"C01B2PZQX1Z"`
		TimeoutSeconds int    `envconfig:"SLACK_HTTP_TIMEOUT_SECONDS" default:"15"`
	} `envconfig:""`

	API struct {
		AuthToken string `envconfig:"API_AUTH_TOKEN"`
	} `envconfig:""`

	Cache struct {
		TTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"30"`
		RedisAddr  string `envconfig:"REDIS_ADDR"`
	} `envconfig:""`

	Search struct {
		TimeoutSeconds int `envconfig:"SEARCH_TIMEOUT_SECONDS" default:"5"`
		MaxRetries     int `envconfig:"SEARCH_MAX_RETRIES" default:"2"`
		BackoffMS      int `envconfig:"SEARCH_BACKOFF_MS" default:"500"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
