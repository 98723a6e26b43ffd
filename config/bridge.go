package config

import (
	"github.com/graphbind/graphbind/logging"
	"github.com/graphbind/graphbind/observability"
	"github.com/graphbind/graphbind/paginate"
	"github.com/graphbind/graphbind/sqlstore"
)

// Paginate converts the pagination section into the compiler's pagination
// defaults.
func (c PaginationConfig) Paginate() paginate.Config {
	return paginate.Config{
		DefaultCount: c.DefaultCount,
		MaxCount:     c.MaxCount,
		HardCeiling:  c.HardCeiling,
	}
}

// Logging converts the logging section into a logger configuration.
func (c LoggingConfig) Logging() logging.Config {
	return logging.Config{
		Level:  c.Level,
		Format: c.Format,
	}
}

// OpenOptions converts the database section into store open options. The
// DSN stays separate because hosts often source it from a secret store.
func (c DatabaseConfig) OpenOptions() sqlstore.OpenOptions {
	return sqlstore.OpenOptions{
		Instrument:      c.Instrument,
		SQLCommenter:    c.SQLCommenter,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// Observability converts the observability section into provider
// initialization settings.
func (c ObservabilityConfig) Observability() observability.Config {
	return observability.Config{
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.ServiceVersion,
		Environment:      c.Environment,
		TraceSampleRatio: c.TraceSampleRatio,
		OTLPConfig: observability.OTLPExporterConfig{
			Endpoint:          c.OTLP.Endpoint,
			Protocol:          c.OTLP.Protocol,
			Insecure:          c.OTLP.Insecure,
			TLSCertFile:       c.OTLP.TLSCertFile,
			TLSClientCertFile: c.OTLP.TLSClientCertFile,
			TLSClientKeyFile:  c.OTLP.TLSClientKeyFile,
			Headers:           c.OTLP.Headers,
			Timeout:           c.OTLP.Timeout,
			Compression:       c.OTLP.Compression,
			RetryEnabled:      c.OTLP.RetryEnabled,
			RetryMaxAttempts:  c.OTLP.RetryMaxAttempts,
		},
	}
}
