// Package directives parses schema-directive uses into typed configurations.
// The set of directives is closed: the compiler dispatches on the concrete
// variant, never on an open-ended name lookup.
package directives

import (
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/mitchellh/mapstructure"
)

// Directive names recognized by the compiler.
const (
	NameModel         = "model"
	NameInterface     = "interface"
	NameUnion         = "union"
	NamePaginate      = "paginate"
	NameAll           = "all"
	NameFind          = "find"
	NameBelongsToMany = "belongsToMany"
	NameHasMany       = "hasMany"
	NameBelongsTo     = "belongsTo"
)

// ConfigurationError reports malformed directive arguments. It is fatal to
// the schema build.
type ConfigurationError struct {
	Directive string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("@%s: %s", e.Directive, e.Reason)
}

// Directive is one parsed directive use. The interface is sealed; the
// variants below are the complete set.
type Directive interface {
	directiveName() string
}

// Model binds an object type to a backing model. An empty Name defaults to
// the type name.
type Model struct {
	Name string `mapstructure:"name"`
}

// Interface supplies an explicit type resolver for an interface type,
// referenced by the name it was registered with before compilation.
type Interface struct {
	ResolveType string `mapstructure:"resolveType"`
}

// Union supplies an explicit type resolver for a union type.
type Union struct {
	ResolveType string `mapstructure:"resolveType"`
}

// Paginate turns a root query field into a paginated collection over a
// model. An empty Model is inferred from the field name; an empty Type
// selects PAGINATOR.
type Paginate struct {
	Model        string   `mapstructure:"model"`
	Type         string   `mapstructure:"type"`
	Scopes       []string `mapstructure:"scopes"`
	DefaultCount *int     `mapstructure:"defaultCount"`
	MaxCount     *int     `mapstructure:"maxCount"`
}

// All turns a root query field into an unpaginated full list over a model.
type All struct {
	Model  string   `mapstructure:"model"`
	Scopes []string `mapstructure:"scopes"`
}

// Find turns a root query field into a single-record lookup by the field's
// unique-column arguments.
type Find struct {
	Model string `mapstructure:"model"`
}

// BelongsToMany compiles a many-to-many relation field. An empty Relation
// defaults to the field name; an empty Type returns the raw list.
type BelongsToMany struct {
	Relation     string   `mapstructure:"relation"`
	Type         string   `mapstructure:"type"`
	Scopes       []string `mapstructure:"scopes"`
	DefaultCount *int     `mapstructure:"defaultCount"`
	MaxCount     *int     `mapstructure:"maxCount"`
	EdgeType     string   `mapstructure:"edgeType"`
}

// HasMany compiles a one-to-many relation field.
type HasMany struct {
	Relation     string   `mapstructure:"relation"`
	Type         string   `mapstructure:"type"`
	Scopes       []string `mapstructure:"scopes"`
	DefaultCount *int     `mapstructure:"defaultCount"`
	MaxCount     *int     `mapstructure:"maxCount"`
}

// BelongsTo compiles a many-to-one single-row lookup field.
type BelongsTo struct {
	Relation string `mapstructure:"relation"`
}

func (*Model) directiveName() string         { return NameModel }
func (*Interface) directiveName() string     { return NameInterface }
func (*Union) directiveName() string         { return NameUnion }
func (*Paginate) directiveName() string      { return NamePaginate }
func (*All) directiveName() string           { return NameAll }
func (*Find) directiveName() string          { return NameFind }
func (*BelongsToMany) directiveName() string { return NameBelongsToMany }
func (*HasMany) directiveName() string       { return NameHasMany }
func (*BelongsTo) directiveName() string     { return NameBelongsTo }

// Decode parses one directive use. Directives outside the closed set (such
// as @deprecated) decode to nil so the compiler passes them through.
func Decode(d *ast.Directive) (Directive, error) {
	var target Directive
	switch d.Name.Value {
	case NameModel:
		target = &Model{}
	case NameInterface:
		target = &Interface{}
	case NameUnion:
		target = &Union{}
	case NamePaginate:
		target = &Paginate{}
	case NameAll:
		target = &All{}
	case NameFind:
		target = &Find{}
	case NameBelongsToMany:
		target = &BelongsToMany{}
	case NameHasMany:
		target = &HasMany{}
	case NameBelongsTo:
		target = &BelongsTo{}
	default:
		return nil, nil
	}

	if err := decodeArguments(d, target); err != nil {
		return nil, err
	}
	return target, nil
}

func decodeArguments(d *ast.Directive, target Directive) error {
	args := make(map[string]interface{}, len(d.Arguments))
	for _, arg := range d.Arguments {
		value, err := Value(arg.Value)
		if err != nil {
			return &ConfigurationError{
				Directive: d.Name.Value,
				Reason:    fmt.Sprintf("argument %q: %v", arg.Name.Value, err),
			}
		}
		args[arg.Name.Value] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(args); err != nil {
		return &ConfigurationError{Directive: d.Name.Value, Reason: err.Error()}
	}
	return nil
}

// Value converts a schema-document literal into its Go representation.
func Value(v ast.Value) (interface{}, error) {
	switch value := v.(type) {
	case *ast.StringValue:
		return value.Value, nil
	case *ast.BooleanValue:
		return value.Value, nil
	case *ast.EnumValue:
		return value.Value, nil
	case *ast.IntValue:
		n, err := strconv.Atoi(value.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", value.Value)
		}
		return n, nil
	case *ast.FloatValue:
		f, err := strconv.ParseFloat(value.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", value.Value)
		}
		return f, nil
	case *ast.ListValue:
		items := make([]interface{}, len(value.Values))
		for i, item := range value.Values {
			converted, err := Value(item)
			if err != nil {
				return nil, err
			}
			items[i] = converted
		}
		return items, nil
	case *ast.ObjectValue:
		fields := make(map[string]interface{}, len(value.Fields))
		for _, field := range value.Fields {
			converted, err := Value(field.Value)
			if err != nil {
				return nil, err
			}
			fields[field.Name.Value] = converted
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %q", v.GetKind())
	}
}
