package schema

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/graphbind/graphbind/directives"
)

var builtinScalars = map[string]*graphql.Scalar{
	"Int":     graphql.Int,
	"Float":   graphql.Float,
	"String":  graphql.String,
	"Boolean": graphql.Boolean,
	"ID":      graphql.ID,
}

// outputTypeRef resolves a field's declared type to a compiled output type.
func (cp *compilation) outputTypeRef(t ast.Type) (graphql.Output, error) {
	switch ref := t.(type) {
	case *ast.NonNull:
		inner, err := cp.outputTypeRef(ref.Type)
		if err != nil {
			return nil, err
		}
		return graphql.NewNonNull(inner), nil
	case *ast.List:
		inner, err := cp.outputTypeRef(ref.Type)
		if err != nil {
			return nil, err
		}
		return graphql.NewList(inner), nil
	case *ast.Named:
		return cp.namedOutput(ref.Name.Value)
	default:
		return nil, fmt.Errorf("unsupported type reference kind %q", t.GetKind())
	}
}

func (cp *compilation) namedOutput(name string) (graphql.Output, error) {
	if scalar, ok := builtinScalars[name]; ok {
		return scalar, nil
	}
	if obj, ok := cp.objects[name]; ok {
		return obj, nil
	}
	if iface, ok := cp.interfaces[name]; ok {
		return iface, nil
	}
	if union, ok := cp.unions[name]; ok {
		return union, nil
	}
	if enum, ok := cp.enums[name]; ok {
		return enum, nil
	}
	if scalar, ok := cp.scalars[name]; ok {
		return scalar, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

// inputTypeRef resolves an argument or input-field type reference.
func (cp *compilation) inputTypeRef(t ast.Type) (graphql.Input, error) {
	switch ref := t.(type) {
	case *ast.NonNull:
		inner, err := cp.inputTypeRef(ref.Type)
		if err != nil {
			return nil, err
		}
		return graphql.NewNonNull(inner), nil
	case *ast.List:
		inner, err := cp.inputTypeRef(ref.Type)
		if err != nil {
			return nil, err
		}
		return graphql.NewList(inner), nil
	case *ast.Named:
		name := ref.Name.Value
		if scalar, ok := builtinScalars[name]; ok {
			return scalar, nil
		}
		if input, ok := cp.inputs[name]; ok {
			return input, nil
		}
		if enum, ok := cp.enums[name]; ok {
			return enum, nil
		}
		if scalar, ok := cp.scalars[name]; ok {
			return scalar, nil
		}
		return nil, fmt.Errorf("unknown input type %q", name)
	default:
		return nil, fmt.Errorf("unsupported type reference kind %q", t.GetKind())
	}
}

// baseTypeName unwraps list and non-null wrappers to the innermost named
// type of a field declaration.
func baseTypeName(t ast.Type) string {
	for {
		switch ref := t.(type) {
		case *ast.NonNull:
			t = ref.Type
		case *ast.List:
			t = ref.Type
		case *ast.Named:
			return ref.Name.Value
		default:
			return ""
		}
	}
}

// declaredArgs compiles a field's SDL-declared arguments.
func (cp *compilation) declaredArgs(subject string, defs []*ast.InputValueDefinition) graphql.FieldConfigArgument {
	if len(defs) == 0 {
		return nil
	}
	args := graphql.FieldConfigArgument{}
	for _, def := range defs {
		inputType, err := cp.inputTypeRef(def.Type)
		if err != nil {
			cp.addError(&DefinitionError{
				Subject: subject,
				Reason:  fmt.Sprintf("argument %q: %v", def.Name.Value, err),
			})
			continue
		}
		arg := &graphql.ArgumentConfig{Type: inputType}
		if def.DefaultValue != nil {
			v, err := directives.Value(def.DefaultValue)
			if err != nil {
				cp.addError(&DefinitionError{
					Subject: subject,
					Reason:  fmt.Sprintf("argument %q: %v", def.Name.Value, err),
				})
				continue
			}
			arg.DefaultValue = v
		}
		args[def.Name.Value] = arg
	}
	return args
}
