package config

import (
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Application struct {
		Name        string        `envconfig:"APPLICATION_NAME" default:"alfio"`
		Environment string        `envconfig:"APPLICATION_ENVIRONMENT" default:"development"`
		Port        int           `envconfig:"APPLICATION_PORT" default:"8080"`
		Debug       bool          `envconfig:"APPLICATION_DEBUG" default:"false"`
		Timeout     time.Duration `envconfig:"APPLICATION_TIMEOUT" default:"10s"`
		BaseURL     string        `envconfig:"APPLICATION_BASE_URL" default:"http://localhost:8080"`
	}

	Postgres struct {
		Host            string        `envconfig:"POSTGRES_HOST" default:"localhost"`
		Port            int           `envconfig:"POSTGRES_PORT" default:"5432"`
		User            string        `envconfig:"POSTGRES_USER" default:"alfio"`
		Password        string        `envconfig:"POSTGRES_PASSWORD" default:""`
		Name            string        `envconfig:"POSTGRES_NAME" default:"alfio"`
		SSLMode         string        `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
		MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
	}

	Redis struct {
		Address  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD" default:""`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Kafka struct {
		BootstrapServers string `envconfig:"KAFKA_BOOTSTRAP_SERVERS" default:"localhost:9092"`
		InventoryTopic   string `envconfig:"KAFKA_INVENTORY_TOPIC" default:"event-inventory"`
	}

	GCP struct {
		ProjectID      string `envconfig:"GCP_PROJECT_ID"`
		ServiceAccount []byte `envconfig:"GCP_SERVICE_ACCOUNT"`
	}

	JWT struct {
		PrivateKey []byte `envconfig:"JWT_PRIVATE_KEY"`
		PublicKey  []byte `envconfig:"JWT_PUBLIC_KEY"`
	}

	Geocoding struct {
		BaseURL string `envconfig:"GEOCODING_BASE_URL" default:"https://maps.googleapis.com/maps/api"`
		APIKey  string `envconfig:"GEOCODING_API_KEY"`
	}

	CORS struct {
		AllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
		AllowedMethods   []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
		AllowedHeaders   []string `envconfig:"CORS_ALLOWED_HEADERS" default:"*"`
		ExposedHeaders   []string `envconfig:"CORS_EXPOSED_HEADERS"`
		MaxAge           int      `envconfig:"CORS_MAX_AGE" default:"300"`
		AllowCredentials bool     `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	}
}

var (
	c    *Config
	once sync.Once
)

func Get() *Config {
	once.Do(func() {
		c = &Config{}
		envconfig.MustProcess("", c)
	})

	return c
}
