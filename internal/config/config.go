// Package config defines the stackit process configuration, loaded from
// STACKIT_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/stackit/internal/env"
)

// Config holds all configuration for the stackit binary.
type Config struct {
	Storage         StorageConfig
	Sync            SyncConfig
	Schedule        ScheduleConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"STACKIT_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load loads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
