// Package model describes the backing relational models a compiled schema
// resolves against: table metadata, named scopes, and declared relations.
// A Source is assembled by the host before schema compilation and read-only
// afterwards.
package model

import (
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

// Scope is a named, reusable filter transformation applied to a select
// statement before pagination windowing.
type Scope func(sq.SelectBuilder) sq.SelectBuilder

// RelationKind discriminates the traversal strategies a relation can compile to.
type RelationKind int

const (
	// BelongsTo is a many-to-one traversal: the FK lives on the owning model.
	BelongsTo RelationKind = iota
	// HasMany is a one-to-many traversal: the FK lives on the target model.
	HasMany
	// BelongsToMany is a many-to-many traversal through a junction table.
	BelongsToMany
)

func (k RelationKind) String() string {
	switch k {
	case BelongsTo:
		return "belongsTo"
	case HasMany:
		return "hasMany"
	case BelongsToMany:
		return "belongsToMany"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

// Relation declares a traversal from one model to another.
type Relation struct {
	Kind   RelationKind
	Target string // target model name, e.g. "Role"

	// ForeignKey is the FK column: on the owning table for BelongsTo
	// ("team_id"), on the target table for HasMany ("user_id").
	ForeignKey string
	// OwnerKey is the referenced column the FK points at. Empty means the
	// relevant model's primary key.
	OwnerKey string

	// Junction fields, BelongsToMany only.
	JunctionTable     string // e.g. "role_user"
	JunctionParentKey string // junction column joining back to the parent, e.g. "user_id"
	JunctionTargetKey string // junction column joining to the target, e.g. "role_id"
}

// Model is the backing descriptor for one schema type.
type Model struct {
	Name       string // e.g. "User"
	Table      string // e.g. "users"
	PrimaryKey string // e.g. "id"

	// Columns narrows the select projection. Empty selects every column.
	Columns []string

	// UUIDColumns lists columns stored as binary(16), surfaced as canonical
	// lower-case UUID strings.
	UUIDColumns []string

	Scopes    map[string]Scope
	Relations map[string]Relation
}

// Key returns the primary key column, defaulting to "id".
func (m *Model) Key() string {
	if m.PrimaryKey == "" {
		return "id"
	}
	return m.PrimaryKey
}

// Scope looks up a named scope.
func (m *Model) Scope(name string) (Scope, bool) {
	s, ok := m.Scopes[name]
	return s, ok
}

// Relation looks up a declared relation.
func (m *Model) Relation(name string) (Relation, bool) {
	rel, ok := m.Relations[name]
	return rel, ok
}

// IsUUIDColumn reports whether column holds binary-encoded UUID values.
func (m *Model) IsUUIDColumn(column string) bool {
	for _, c := range m.UUIDColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Source is the collection of models available to one schema compilation.
type Source struct {
	models map[string]*Model
}

func NewSource(models ...*Model) (*Source, error) {
	s := &Source{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if err := s.Add(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a model. Model names are unique within a source.
func (s *Source) Add(m *Model) error {
	if m == nil {
		return fmt.Errorf("model source: nil model")
	}
	if m.Name == "" {
		return fmt.Errorf("model source: model with empty name")
	}
	if m.Table == "" {
		return fmt.Errorf("model source: model %q has no table", m.Name)
	}
	if existing, ok := s.models[m.Name]; ok && existing != m {
		return fmt.Errorf("model source: model %q already registered", m.Name)
	}
	s.models[m.Name] = m
	return nil
}

// Get returns the model registered under name.
func (s *Source) Get(name string) (*Model, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Names returns the registered model names in sorted order.
func (s *Source) Names() []string {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
