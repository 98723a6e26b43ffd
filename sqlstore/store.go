package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/graphbind/graphbind/model"
)

// Store builds and executes backing-store queries for a set of models.
type Store struct {
	exec QueryExecutor
}

// New creates a store over an executor.
func New(exec QueryExecutor) *Store {
	return &Store{exec: exec}
}

// NewDB creates a store over a database handle.
func NewDB(db *sql.DB) *Store {
	return New(NewStandardExecutor(db))
}

// Query is one select statement under construction. Scopes and filters
// accumulate on the builder; ordering and windowing are applied at fetch time
// so Count can reuse the same filtered base.
type Query struct {
	store   *Store
	model   *model.Model
	builder sq.SelectBuilder
	orderBy []string
}

// Query starts a select over every row of m, ordered by primary key for
// stable pagination windows.
func (s *Store) Query(m *model.Model) *Query {
	return &Query{
		store:   s,
		model:   m,
		builder: sq.Select(projection(m, "")...).From(quoteIdentifier(m.Table)),
		orderBy: []string{quoteIdentifier(m.Table) + "." + quoteIdentifier(m.Key()) + " ASC"},
	}
}

// ManyToMany starts a select over rel's target rows joined through the
// junction table and filtered to the parent key.
func (s *Store) ManyToMany(parentKey interface{}, target *model.Model, rel model.Relation) *Query {
	quotedTarget := quoteIdentifier(target.Table)
	quotedJunction := quoteIdentifier(rel.JunctionTable)

	joinPredicate := fmt.Sprintf(
		"%s.%s = %s.%s",
		quotedJunction, quoteIdentifier(rel.JunctionTargetKey),
		quotedTarget, quoteIdentifier(target.Key()),
	)

	builder := sq.Select(projection(target, target.Table)...).
		From(quotedTarget).
		Join(fmt.Sprintf("%s ON %s", quotedJunction, joinPredicate)).
		Where(sq.Eq{quotedJunction + "." + quoteIdentifier(rel.JunctionParentKey): parentKey})

	return &Query{
		store:   s,
		model:   target,
		builder: builder,
		orderBy: []string{quotedTarget + "." + quoteIdentifier(target.Key()) + " ASC"},
	}
}

// OneToMany starts a select over rel's target rows holding a foreign key to
// the parent.
func (s *Store) OneToMany(parentKey interface{}, target *model.Model, rel model.Relation) *Query {
	q := s.Query(target)
	q.builder = q.builder.Where(sq.Eq{quoteIdentifier(rel.ForeignKey): parentKey})
	return q
}

// ManyToOne starts a select for the single target row a foreign key value
// points at.
func (s *Store) ManyToOne(fkValue interface{}, target *model.Model, rel model.Relation) *Query {
	ownerKey := rel.OwnerKey
	if ownerKey == "" {
		ownerKey = target.Key()
	}
	q := s.Query(target)
	q.builder = q.builder.Where(sq.Eq{quoteIdentifier(ownerKey): fkValue})
	return q
}

// Scoped applies named scopes in declaration order.
func (q *Query) Scoped(names ...string) (*Query, error) {
	for _, name := range names {
		scope, ok := q.model.Scope(name)
		if !ok {
			return nil, fmt.Errorf("model %q has no scope %q", q.model.Name, name)
		}
		q.builder = scope(q.builder)
	}
	return q, nil
}

// Where adds a column equality filter.
func (q *Query) Where(column string, value interface{}) *Query {
	q.builder = q.builder.Where(sq.Eq{quoteIdentifier(column): value})
	return q
}

// OrderBy replaces the default primary-key ordering.
func (q *Query) OrderBy(clauses ...string) *Query {
	q.orderBy = clauses
	return q
}

// Fetch executes the query with a limit/offset window.
func (q *Query) Fetch(ctx context.Context, limit, offset int) ([]model.Record, error) {
	builder := q.builder.OrderBy(q.orderBy...)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	return q.run(ctx, builder)
}

// All executes the query without windowing.
func (q *Query) All(ctx context.Context) ([]model.Record, error) {
	return q.run(ctx, q.builder.OrderBy(q.orderBy...))
}

// First executes the query with limit 1 and returns the row, or nil when no
// row matches.
func (q *Query) First(ctx context.Context) (model.Record, error) {
	results, err := q.Fetch(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Count executes SELECT COUNT(*) over the filtered base, without ordering or
// windowing.
func (q *Query) Count(ctx context.Context) (int, error) {
	baseSQL, args, err := q.builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return 0, err
	}
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS __count", baseSQL)

	rows, err := q.store.exec.QueryContext(ctx, countSQL, args...)
	if err != nil {
		return 0, NormalizeError(err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

func (q *Query) run(ctx context.Context, builder sq.SelectBuilder) ([]model.Record, error) {
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.store.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NormalizeError(err)
	}
	defer rows.Close()

	return scanRecords(rows, q.model)
}

// projection returns the select list for m, optionally qualified with a
// table name for joined queries.
func projection(m *model.Model, qualifier string) []string {
	prefix := ""
	if qualifier != "" {
		prefix = quoteIdentifier(qualifier) + "."
	}
	if len(m.Columns) == 0 {
		return []string{prefix + "*"}
	}
	cols := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		cols[i] = prefix + quoteIdentifier(c)
	}
	return cols
}

// quoteIdentifier quotes a SQL identifier with backticks and escapes any
// backticks within it.
func quoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}
