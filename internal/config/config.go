package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/7azemaamer/salla-adv-bundler-sub000/pkg/config"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/database"
)

// Config holds all configuration for the bundler service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"bundler"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"BUNDLER_HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"bundler"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"bundler_secret"`
	PostgresDB   string `env:"BUNDLER_DB_NAME" envDefault:"bundler_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Platform OAuth and API
	SallaClientID     string  `env:"SALLA_CLIENT_ID"`
	SallaClientSecret string  `env:"SALLA_CLIENT_SECRET"`
	SallaTokenURL     string  `env:"SALLA_TOKEN_URL" envDefault:"https://accounts.salla.sa/oauth2/token"`
	SallaAPIBaseURL   string  `env:"SALLA_API_BASE_URL" envDefault:"https://api.salla.dev/admin/v2"`
	SallaRatePerSec   float64 `env:"SALLA_RATE_PER_SEC" envDefault:"2"`
	SallaRateBurst    int     `env:"SALLA_RATE_BURST" envDefault:"2"`

	// Offer generation
	TimezoneOffsetHours int           `env:"OFFER_TZ_OFFSET_HOURS" envDefault:"3"`
	StartBufferMinutes  int           `env:"OFFER_START_BUFFER_MINUTES" envDefault:"5"`
	SweepInterval       time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"5m"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSample   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load bundler config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SallaRatePerSec <= 0 {
		return fmt.Errorf("invalid platform rate limit: %f", c.SallaRatePerSec)
	}
	if c.SweepInterval < time.Minute {
		return fmt.Errorf("sweep interval must be at least 1m, got %s", c.SweepInterval)
	}
	return nil
}

// Postgres returns the connection pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// TimezoneOffset returns the platform timezone shift as a duration.
func (c *Config) TimezoneOffset() time.Duration {
	return time.Duration(c.TimezoneOffsetHours) * time.Hour
}

// StartBuffer returns the offer start safety buffer as a duration.
func (c *Config) StartBuffer() time.Duration {
	return time.Duration(c.StartBufferMinutes) * time.Minute
}
