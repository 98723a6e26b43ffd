// Package config loads and validates the library's configuration from
// defaults, an optional config file, environment variables, and flags, in
// ascending order of precedence.
package config

import "time"

// Config is the root configuration consumed by the schema layer.
type Config struct {
	Pagination    PaginationConfig    `mapstructure:"pagination"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// PaginationConfig holds the global pagination defaults. Directive-level
// settings override these per field.
type PaginationConfig struct {
	// DefaultCount is the page size when the client omits the count argument.
	DefaultCount int `mapstructure:"default_count"`
	// MaxCount clamps requested counts. Zero means unbounded.
	MaxCount int `mapstructure:"max_count"`
	// HardCeiling rejects counts above it outright. Zero disables it.
	HardCeiling int `mapstructure:"hard_ceiling"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// DatabaseConfig holds backing-store connection settings.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// Instrument wraps the driver with OpenTelemetry spans and stats.
	Instrument bool `mapstructure:"instrument"`
	// SQLCommenter injects trace context comments into outgoing SQL.
	SQLCommenter bool `mapstructure:"sqlcommenter"`
}

// ObservabilityConfig holds OpenTelemetry settings.
type ObservabilityConfig struct {
	Enabled           bool       `mapstructure:"enabled"`
	ServiceName       string     `mapstructure:"service_name"`
	ServiceVersion    string     `mapstructure:"service_version"`
	Environment       string     `mapstructure:"environment"`
	TraceSampleRatio  float64    `mapstructure:"trace_sample_ratio"`
	PrometheusEnabled bool       `mapstructure:"prometheus_enabled"`
	OTLP              OTLPConfig `mapstructure:"otlp"`
}

// OTLPConfig holds OTLP exporter settings.
type OTLPConfig struct {
	Endpoint          string            `mapstructure:"endpoint"`
	Protocol          string            `mapstructure:"protocol"` // grpc, http/protobuf
	Insecure          bool              `mapstructure:"insecure"`
	TLSCertFile       string            `mapstructure:"tls_cert_file"`
	TLSClientCertFile string            `mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile  string            `mapstructure:"tls_client_key_file"`
	Headers           map[string]string `mapstructure:"headers"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	Compression       string            `mapstructure:"compression"`
	RetryEnabled      bool              `mapstructure:"retry_enabled"`
	RetryMaxAttempts  int               `mapstructure:"retry_max_attempts"`
}
