package schema

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"github.com/graphbind/graphbind/internal/naming"
	"github.com/graphbind/graphbind/logging"
	"github.com/graphbind/graphbind/model"
	"github.com/graphbind/graphbind/paginate"
	"github.com/graphbind/graphbind/sqlstore"
)

// makeCollectionResolver builds the resolver for a root collection field
// (@paginate or @all): a scoped select over the model, windowed by the
// field's pagination mode.
func (cp *compilation) makeCollectionResolver(m *model.Model, scopes []string, mode paginate.Mode, bounds paginate.CountBounds, typeName, fieldName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		ctx, span := startResolverSpan(p.Context, "resolve "+fieldName,
			attribute.String("graphql.field", fieldName),
			attribute.String("model.name", m.Name),
			attribute.String("pagination.mode", mode.String()),
		)
		start := time.Now()

		result, err := func() (interface{}, error) {
			q, err := cp.c.store.Query(m).Scoped(scopes...)
			if err != nil {
				return nil, err
			}
			return paginate.Execute(ctx, mode, q, bounds, typeName, p.Args)
		}()

		cp.c.metrics.RecordPaginationQuery(ctx, time.Since(start), mode.String(), err != nil)
		finishResolverSpan(span, err)
		if err != nil {
			logging.FromContext(ctx).Error("collection resolution failed",
				slog.String("field", fieldName),
				slog.String("model", m.Name),
				slog.Any("error", err),
			)
		}
		return result, err
	}
}

// makeRelationResolver builds the resolver for a list-shaped relation field
// (@belongsToMany or @hasMany). The parent record supplies the key the
// relation query filters on.
func (cp *compilation) makeRelationResolver(parent *model.Model, rel model.Relation, target *model.Model, scopes []string, mode paginate.Mode, bounds paginate.CountBounds, typeName, fieldName string) graphql.FieldResolveFn {
	parentField := naming.ToFieldName(parentKeyColumn(parent, rel))

	return func(p graphql.ResolveParams) (interface{}, error) {
		ctx, span := startResolverSpan(p.Context, "resolve "+fieldName,
			attribute.String("graphql.field", fieldName),
			attribute.String("model.name", target.Name),
			attribute.String("relation.kind", rel.Kind.String()),
			attribute.String("pagination.mode", mode.String()),
		)
		start := time.Now()

		result, err := func() (interface{}, error) {
			rec, ok := p.Source.(model.Record)
			if !ok {
				return nil, fmt.Errorf("field %s: parent value is not a record", fieldName)
			}
			parentKey, ok := rec[parentField]
			if !ok {
				return nil, fmt.Errorf("field %s: parent record has no %q value", fieldName, parentField)
			}

			var q *sqlstore.Query
			if rel.Kind == model.BelongsToMany {
				q = cp.c.store.ManyToMany(parentKey, target, rel)
			} else {
				q = cp.c.store.OneToMany(parentKey, target, rel)
			}
			q, err := q.Scoped(scopes...)
			if err != nil {
				return nil, err
			}
			return paginate.Execute(ctx, mode, q, bounds, typeName, p.Args)
		}()

		cp.c.metrics.RecordPaginationQuery(ctx, time.Since(start), mode.String(), err != nil)
		finishResolverSpan(span, err)
		if err != nil {
			logging.FromContext(ctx).Error("relation resolution failed",
				slog.String("field", fieldName),
				slog.String("relation", rel.Kind.String()),
				slog.String("target", target.Name),
				slog.Any("error", err),
			)
		}
		return result, err
	}
}

// makeBelongsToResolver builds the resolver for a many-to-one field: a
// single-row lookup by the parent record's foreign key. A NULL foreign key
// resolves to null without touching the store.
func (cp *compilation) makeBelongsToResolver(parent *model.Model, rel model.Relation, target *model.Model, fieldName string) graphql.FieldResolveFn {
	fkField := naming.ToFieldName(rel.ForeignKey)

	return func(p graphql.ResolveParams) (interface{}, error) {
		rec, ok := p.Source.(model.Record)
		if !ok {
			return nil, fmt.Errorf("field %s: parent value is not a record", fieldName)
		}
		fk, ok := rec[fkField]
		if !ok {
			return nil, fmt.Errorf("field %s: parent record has no %q value", fieldName, fkField)
		}
		if fk == nil {
			return nil, nil
		}

		ctx, span := startResolverSpan(p.Context, "resolve "+fieldName,
			attribute.String("graphql.field", fieldName),
			attribute.String("model.name", target.Name),
			attribute.String("relation.kind", rel.Kind.String()),
		)
		result, err := cp.c.store.ManyToOne(fk, target, rel).First(ctx)
		finishResolverSpan(span, err)
		if err != nil {
			logging.FromContext(ctx).Error("lookup resolution failed",
				slog.String("field", fieldName),
				slog.String("target", target.Name),
				slog.Any("error", err),
			)
			return nil, err
		}
		if result == nil {
			return nil, nil
		}
		return result, nil
	}
}

// makeFindResolver builds the resolver for a @find field: a single-record
// lookup filtering on every supplied argument, AND-combined.
func (cp *compilation) makeFindResolver(m *model.Model, fieldName string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		ctx, span := startResolverSpan(p.Context, "resolve "+fieldName,
			attribute.String("graphql.field", fieldName),
			attribute.String("model.name", m.Name),
		)

		result, err := func() (interface{}, error) {
			if len(p.Args) == 0 {
				return nil, &paginate.ValidationError{
					Message: fmt.Sprintf("field %s requires at least one argument", fieldName),
				}
			}

			names := make([]string, 0, len(p.Args))
			for name := range p.Args {
				names = append(names, name)
			}
			sort.Strings(names)

			q := cp.c.store.Query(m)
			for _, name := range names {
				q = q.Where(naming.ToSnakeCase(name), p.Args[name])
			}

			rec, err := q.First(ctx)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, nil
			}
			return rec, nil
		}()

		finishResolverSpan(span, err)
		if err != nil {
			logging.FromContext(ctx).Error("find resolution failed",
				slog.String("field", fieldName),
				slog.String("model", m.Name),
				slog.Any("error", err),
			)
		}
		return result, err
	}
}

// parentKeyColumn is the parent-side column a list relation joins from. An
// OwnerKey override on the relation wins over the parent's primary key.
func parentKeyColumn(parent *model.Model, rel model.Relation) string {
	if rel.Kind != model.BelongsTo && rel.OwnerKey != "" {
		return rel.OwnerKey
	}
	return parent.Key()
}
