// Package config loads host configuration from environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the settings a host needs to wire the team services.
type Config struct {
	DatabaseURL  string        `envconfig:"DATABASE_URL" required:"true"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	InviteTTL    time.Duration `envconfig:"INVITE_TTL" default:"24h"`
	SlugAttempts int           `envconfig:"SLUG_ATTEMPTS" default:"5"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
