package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Auth modes
const (
	AuthModeAuth0 = "auth0"
	AuthModeLocal = "local"
)

const minJWTSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string   `envconfig:"PORT" default:"8080"`
	Env         string   `envconfig:"ENV" default:"development"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	PublicURL   string   `envconfig:"PUBLIC_URL"`

	// Store
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"casa.db"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	// Auth
	AuthMode      string        `envconfig:"AUTH_MODE" default:"auth0"`
	Auth0Domain   string        `envconfig:"AUTH0_DOMAIN"`
	Auth0Audience string        `envconfig:"AUTH0_AUDIENCE"`
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Rate limiting
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	RateLimitBurst     int `envconfig:"RATE_LIMIT_BURST" default:"20"`

	// S3 Storage for receipts. Disabled when the bucket is empty.
	S3 S3Config

	// AMQP event bus. Disabled when the URL is empty.
	AMQP AMQPConfig
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"S3_BUCKET"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `envconfig:"S3_ENDPOINT"` // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether receipt storage is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// AMQPConfig holds the message bus configuration
type AMQPConfig struct {
	URL      string `envconfig:"AMQP_URL"`
	Exchange string `envconfig:"AMQP_EXCHANGE" default:"casa.events"`
}

// Enabled reports whether event publishing to the bus is configured
func (c AMQPConfig) Enabled() bool {
	return c.URL != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: %s, %s", DriverPostgres, DriverSQLite)
	}

	switch c.AuthMode {
	case AuthModeAuth0:
		if c.Auth0Domain == "" {
			return fmt.Errorf("AUTH0_DOMAIN is required")
		}
		if c.Auth0Audience == "" {
			return fmt.Errorf("AUTH0_AUDIENCE is required")
		}
	case AuthModeLocal:
		if len(c.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: %s, %s", AuthModeAuth0, AuthModeLocal)
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
