package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"grocery-api"`

	DatabaseUser     string `envconfig:"DATABASE_USER" default:"root"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:"pass"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     string `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"grocery_db"`

	MigrationsURL string `envconfig:"MIGRATIONS_URL" default:"file://migrations"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4318"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	TokenTTL  int    `envconfig:"TOKEN_TTL_HOURS" default:"24"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// PoolDSN is the pgx connection string used by the application pool.
func (c *Config) PoolDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&pool_max_conns=25&pool_min_conns=5",
		c.DatabaseUser, c.DatabasePassword, c.DatabaseHost, c.DatabasePort, c.DatabaseName,
	)
}

// MigrateDSN is the database/sql connection string used by the migrations
// runner (lib/pq driver).
func (c *Config) MigrateDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DatabaseUser, c.DatabasePassword, c.DatabaseHost, c.DatabasePort, c.DatabaseName,
	)
}

// IsProduction reports whether the service runs in production mode. Error
// responses only carry stack detail outside production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
