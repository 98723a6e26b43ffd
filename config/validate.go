package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for contradictions before anything is
// built from it.
func (c *Config) Validate() error {
	if err := c.Pagination.validate(); err != nil {
		return err
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	return c.Observability.validate()
}

func (p PaginationConfig) validate() error {
	if p.DefaultCount < 0 {
		return fmt.Errorf("pagination.default_count must not be negative, got %d", p.DefaultCount)
	}
	if p.MaxCount < 0 {
		return fmt.Errorf("pagination.max_count must not be negative, got %d", p.MaxCount)
	}
	if p.HardCeiling < 0 {
		return fmt.Errorf("pagination.hard_ceiling must not be negative, got %d", p.HardCeiling)
	}
	if p.MaxCount > 0 && p.DefaultCount > p.MaxCount {
		return fmt.Errorf(
			"pagination.default_count (%d) must not exceed pagination.max_count (%d)",
			p.DefaultCount, p.MaxCount,
		)
	}
	if p.HardCeiling > 0 && p.MaxCount > p.HardCeiling {
		return fmt.Errorf(
			"pagination.max_count (%d) must not exceed pagination.hard_ceiling (%d)",
			p.MaxCount, p.HardCeiling,
		)
	}
	return nil
}

func (l LoggingConfig) validate() error {
	switch l.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", l.Level)
	}
	switch l.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", l.Format)
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	if d.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative, got %d", d.MaxOpenConns)
	}
	if d.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must not be negative, got %d", d.MaxIdleConns)
	}
	if d.ConnMaxLifetime < 0 {
		return fmt.Errorf("database.conn_max_lifetime must not be negative, got %s", d.ConnMaxLifetime)
	}
	if d.SQLCommenter && !d.Instrument {
		return fmt.Errorf("database.sqlcommenter requires database.instrument")
	}
	return nil
}

func (o ObservabilityConfig) validate() error {
	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		return fmt.Errorf(
			"observability.trace_sample_ratio must be within [0, 1], got %g",
			o.TraceSampleRatio,
		)
	}
	if !o.Enabled {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(o.OTLP.Protocol)) {
	case "", "grpc", "http", "http/protobuf":
	default:
		return fmt.Errorf(
			"observability.otlp.protocol must be grpc or http/protobuf, got %q",
			o.OTLP.Protocol,
		)
	}
	if o.OTLP.Endpoint == "" {
		return fmt.Errorf("observability.otlp.endpoint is required when observability is enabled")
	}
	if o.OTLP.Timeout < 0 {
		return fmt.Errorf("observability.otlp.timeout must not be negative, got %s", o.OTLP.Timeout)
	}
	if o.OTLP.RetryMaxAttempts < 0 {
		return fmt.Errorf("observability.otlp.retry_max_attempts must not be negative, got %d", o.OTLP.RetryMaxAttempts)
	}
	return nil
}
