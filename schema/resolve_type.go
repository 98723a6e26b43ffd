package schema

import (
	"log/slog"

	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphbind/graphbind/logging"
	"github.com/graphbind/graphbind/model"
)

// makeResolveType builds the ResolveType function for an abstract type. An
// explicit resolver registered via the directive is authoritative and
// bypasses the registry; otherwise the runtime record's backing model is
// matched against the bindings of the abstract type's possible types.
//
// graphql's ResolveType cannot return an error, so failures are logged,
// recorded on the active span and the resolution counter, and surface to the
// client as the library's own "could not determine type" error for the field.
func (cp *compilation) makeResolveType(abstractName string, explicit TypeResolverFunc, possible func() []string) graphql.ResolveTypeFn {
	return func(p graphql.ResolveTypeParams) *graphql.Object {
		ctx := p.Context

		if explicit != nil {
			result, err := explicit(ctx, p.Value)
			if err != nil {
				cp.resolveTypeFailed(p, abstractName, err)
				return nil
			}
			switch typed := result.(type) {
			case *graphql.Object:
				cp.c.metrics.RecordAbstractResolution(ctx, abstractName, true)
				return typed
			case string:
				obj, ok := cp.objects[typed]
				if !ok {
					cp.resolveTypeFailed(p, abstractName, &DefinitionError{
						Subject: abstractName,
						Reason:  "resolver returned unknown type " + typed,
					})
					return nil
				}
				cp.c.metrics.RecordAbstractResolution(ctx, abstractName, true)
				return obj
			default:
				cp.resolveTypeFailed(p, abstractName, &DefinitionError{
					Subject: abstractName,
					Reason:  "resolver returned neither a type name nor an object type",
				})
				return nil
			}
		}

		modelName, _ := model.RecordModel(p.Value)
		typeName, err := cp.registry.ResolveConcrete(abstractName, possible(), modelName)
		if err != nil {
			cp.resolveTypeFailed(p, abstractName, err)
			return nil
		}

		obj, ok := cp.objects[typeName]
		if !ok {
			cp.resolveTypeFailed(p, abstractName, &DefinitionError{
				Subject: abstractName,
				Reason:  "resolved to unknown type " + typeName,
			})
			return nil
		}

		cp.c.metrics.RecordAbstractResolution(ctx, abstractName, true)
		return obj
	}
}

func (cp *compilation) resolveTypeFailed(p graphql.ResolveTypeParams, abstractName string, err error) {
	ctx := p.Context

	logging.FromContext(ctx).Error("abstract type resolution failed",
		slog.String("abstract_type", abstractName),
		slog.Any("error", err),
	)
	if span := trace.SpanFromContext(ctx); span != nil {
		span.RecordError(err)
	}
	cp.c.metrics.RecordAbstractResolution(ctx, abstractName, false)
}
