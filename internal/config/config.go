// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Fetch    FetchConfig
	Analyzer AnalyzerConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// MongoConfig holds document store settings.
type MongoConfig struct {
	URI            string        `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"MONGODB_DATABASE" default:"weather_history_db"`
	ConnectTimeout time.Duration `envconfig:"MONGODB_CONNECT_TIMEOUT" default:"5s"`
}

// FetchConfig holds upstream provider settings.
type FetchConfig struct {
	Provider       string        `envconfig:"FETCH_PROVIDER" default:"open-meteo"`
	RequestTimeout time.Duration `envconfig:"FETCH_REQUEST_TIMEOUT" default:"10s"`
}

// AnalyzerConfig holds analyzer tuning.
type AnalyzerConfig struct {
	StableThreshold float64 `envconfig:"ANALYZER_STABLE_THRESHOLD" default:"0.5"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `envconfig:"LOG_LEVEL" default:"info"`
	Service string `envconfig:"SERVICE_NAME" default:"weather-history"`
	Version string `envconfig:"SERVICE_VERSION" default:"dev"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; missing files are
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongodb uri must not be empty")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongodb database must not be empty")
	}
	if c.Fetch.Provider != "open-meteo" && c.Fetch.Provider != "wttr.in" {
		return fmt.Errorf("unknown fetch provider: %q", c.Fetch.Provider)
	}
	if c.Analyzer.StableThreshold < 0 {
		return fmt.Errorf("stable threshold must not be negative: %f", c.Analyzer.StableThreshold)
	}
	return nil
}

// Addr returns the host:port the server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
