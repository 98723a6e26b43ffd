package sqlstore

import (
	"database/sql"
	"time"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenOptions controls connection pooling and instrumentation for Open.
type OpenOptions struct {
	// Instrument wraps the driver with OpenTelemetry spans and registers
	// DB stats metrics.
	Instrument bool
	// SQLCommenter injects trace context comments into outgoing SQL.
	// Requires Instrument.
	SQLCommenter bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a MySQL-protocol database handle, instrumented when requested.
// The connection is established lazily on first use.
func Open(dsn string, opts OpenOptions) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if opts.Instrument {
		otelOpts := []otelsql.Option{
			otelsql.WithAttributes(semconv.DBSystemMySQL),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		}
		if opts.SQLCommenter {
			otelOpts = append(otelOpts, otelsql.WithSQLCommenter(true))
		}

		db, err = otelsql.Open("mysql", dsn, otelOpts...)
		if err != nil {
			return nil, err
		}
		if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemMySQL)); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}
