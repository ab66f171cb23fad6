package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Simulation timing
	ProcessingDelay time.Duration `envconfig:"PROCESSING_DELAY" default:"500ms"`
	DeletionWindow  time.Duration `envconfig:"DELETION_WINDOW" default:"3s"`

	// Credentials of the initial database. Empty values are replaced with
	// random keys at startup.
	DatabaseName    string `envconfig:"DATABASE_NAME"`
	ServerAccessKey string `envconfig:"SERVER_ACCESS_KEY"`
	ServerSecretKey string `envconfig:"SERVER_SECRET_KEY"`
	ClientAccessKey string `envconfig:"CLIENT_ACCESS_KEY"`
	ClientSecretKey string `envconfig:"CLIENT_SECRET_KEY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
