package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SchemaMetrics holds custom metrics for schema compilation and directive
// resolution. A nil *SchemaMetrics is safe to record against, so callers
// built without observability wiring skip instrumentation silently.
type SchemaMetrics struct {
	compileDuration    metric.Float64Histogram
	wrapperTypes       metric.Int64Counter
	abstractResolution metric.Int64Counter
	paginationDuration metric.Float64Histogram
}

// InitSchemaMetrics initializes the schema-layer metrics
func InitSchemaMetrics() (*SchemaMetrics, error) {
	meter := otel.Meter("graphbind")

	compileDuration, err := meter.Float64Histogram(
		"graphql.schema.compile.duration",
		metric.WithDescription("Duration of schema compilation in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compile duration histogram: %w", err)
	}

	wrapperTypes, err := meter.Int64Counter(
		"graphql.schema.wrapper_types.generated",
		metric.WithDescription("Total number of pagination wrapper types generated"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wrapper type counter: %w", err)
	}

	abstractResolution, err := meter.Int64Counter(
		"graphql.resolve_type.total",
		metric.WithDescription("Total number of abstract type resolutions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create abstract resolution counter: %w", err)
	}

	paginationDuration, err := meter.Float64Histogram(
		"graphql.pagination.query.duration",
		metric.WithDescription("Duration of paginated backing-store queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pagination duration histogram: %w", err)
	}

	return &SchemaMetrics{
		compileDuration:    compileDuration,
		wrapperTypes:       wrapperTypes,
		abstractResolution: abstractResolution,
		paginationDuration: paginationDuration,
	}, nil
}

// RecordCompile records one schema compilation with its duration and outcome
func (m *SchemaMetrics) RecordCompile(ctx context.Context, duration time.Duration, succeeded bool) {
	if m == nil {
		return
	}
	m.compileDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.Bool("succeeded", succeeded),
	))
}

// RecordWrapperType records the generation of one pagination wrapper type
func (m *SchemaMetrics) RecordWrapperType(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.wrapperTypes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordAbstractResolution records one interface or union type resolution
func (m *SchemaMetrics) RecordAbstractResolution(ctx context.Context, abstractType string, resolved bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !resolved {
		outcome = "failure"
	}
	m.abstractResolution.Add(ctx, 1, metric.WithAttributes(
		attribute.String("abstract_type", abstractType),
		attribute.String("outcome", outcome),
	))
}

// RecordPaginationQuery records one paginated fetch with its mode and duration
func (m *SchemaMetrics) RecordPaginationQuery(ctx context.Context, duration time.Duration, mode string, hasError bool) {
	if m == nil {
		return
	}
	m.paginationDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("has_error", hasError),
	))
}
