package config

import "log/slog"

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled  bool       `env:"STACKIT_OTEL_ENABLED"`
	OTelEndpoint string     `env:"STACKIT_OTEL_ENDPOINT"`
	OTelInsecure bool       `env:"STACKIT_OTEL_INSECURE"`
	ServiceName  string     `env:"OTEL_SERVICE_NAME"`
	LogLevel     slog.Level `env:"STACKIT_LOG_LEVEL" default:"warn"`
}
