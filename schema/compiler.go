// Package schema compiles a directive-annotated schema document into an
// executable GraphQL schema whose fields resolve against relational models.
// Compilation reads the directive surface (@model, @interface, @union,
// @paginate, @all, @find, @belongsToMany, @hasMany, @belongsTo), registers
// type-to-model bindings, generates pagination wrapper types, and wires
// resolver closures over the backing store.
package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/hashicorp/go-multierror"

	"github.com/graphbind/graphbind/directives"
	"github.com/graphbind/graphbind/logging"
	"github.com/graphbind/graphbind/model"
	"github.com/graphbind/graphbind/observability"
	"github.com/graphbind/graphbind/paginate"
	"github.com/graphbind/graphbind/registry"
	"github.com/graphbind/graphbind/sqlstore"
)

// TypeResolverFunc is an explicit abstract-type resolver registered with the
// compiler and referenced from @interface/@union directives by name. It
// returns either a type-name string or a *graphql.Object.
type TypeResolverFunc func(ctx context.Context, value interface{}) (interface{}, error)

// Compiler holds the collaborators shared by every compilation: the model
// source, the backing store, pagination defaults, and the named explicit
// type resolvers.
type Compiler struct {
	source     *model.Source
	store      *sqlstore.Store
	pagination paginate.Config
	logger     *logging.Logger
	metrics    *observability.SchemaMetrics
	resolvers  map[string]TypeResolverFunc
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPagination sets the global pagination defaults directives can
// override per field.
func WithPagination(cfg paginate.Config) Option {
	return func(c *Compiler) { c.pagination = cfg }
}

// WithLogger sets the logger used outside of request contexts.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// WithMetrics enables schema-layer metrics.
func WithMetrics(metrics *observability.SchemaMetrics) Option {
	return func(c *Compiler) { c.metrics = metrics }
}

// NewCompiler creates a compiler over a model source and a backing store.
func NewCompiler(src *model.Source, store *sqlstore.Store, opts ...Option) *Compiler {
	c := &Compiler{
		source:    src,
		store:     store,
		resolvers: make(map[string]TypeResolverFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.FromContext(context.Background())
	}
	return c
}

// RegisterTypeResolver registers fn under name for @interface/@union
// resolveType references. Registration must happen before Compile.
func (c *Compiler) RegisterTypeResolver(name string, fn TypeResolverFunc) {
	c.resolvers[name] = fn
}

// Schema is one compiled schema plus the per-compilation state its resolver
// closures read. Recompiling builds a fresh registry and wrapper cache.
type Schema struct {
	Schema   graphql.Schema
	Registry *registry.Registry
	Wrappers *paginate.Types
}

// Compile parses the schema document and builds the executable schema.
// Every compile-time violation across the document is collected and
// returned in one aggregate error; no partial schema is produced.
func (c *Compiler) Compile(sdl string) (*Schema, error) {
	start := time.Now()
	compiled, err := c.compile(sdl)
	c.metrics.RecordCompile(context.Background(), time.Since(start), err == nil)
	return compiled, err
}

func (c *Compiler) compile(sdl string) (*Schema, error) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(sdl), Name: "schema"}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	cp := &compilation{
		c:            c,
		registry:     registry.New(),
		wrappers:     paginate.NewTypes(),
		objectDefs:   make(map[string]*ast.ObjectDefinition),
		ifaceDefs:    make(map[string]*ast.InterfaceDefinition),
		unionDefs:    make(map[string]*ast.UnionDefinition),
		objects:      make(map[string]*graphql.Object),
		interfaces:   make(map[string]*graphql.Interface),
		unions:       make(map[string]*graphql.Union),
		enums:        make(map[string]*graphql.Enum),
		scalars:      make(map[string]*graphql.Scalar),
		inputs:       make(map[string]*graphql.InputObject),
		implementers: make(map[string][]string),
		boundModels:  make(map[string]string),
		fieldPlans:   make(map[string]map[string]*fieldPlan),
	}

	cp.indexDefinitions(doc)
	cp.buildScalarsAndEnums()
	cp.buildInputs()
	cp.bindModels()
	cp.buildInterfaces()
	cp.buildObjects()
	cp.buildUnions()
	cp.planFields()

	if err := cp.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	queryType, ok := cp.objects["Query"]
	if !ok {
		return nil, &DefinitionError{Subject: "Query", Reason: "schema document defines no Query type"}
	}

	gqlSchema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
		Types: cp.allTypes(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	return &Schema{Schema: gqlSchema, Registry: cp.registry, Wrappers: cp.wrappers}, nil
}

// compilation is the state of one Compile call. Resolver closures capture
// it, so it lives as long as the compiled schema.
type compilation struct {
	c *Compiler

	registry *registry.Registry
	wrappers *paginate.Types

	objectDefs map[string]*ast.ObjectDefinition
	ifaceDefs  map[string]*ast.InterfaceDefinition
	unionDefs  map[string]*ast.UnionDefinition
	enumDefs   []*ast.EnumDefinition
	scalarDefs []*ast.ScalarDefinition
	inputDefs  []*ast.InputObjectDefinition

	objects    map[string]*graphql.Object
	interfaces map[string]*graphql.Interface
	unions     map[string]*graphql.Union
	enums      map[string]*graphql.Enum
	scalars    map[string]*graphql.Scalar
	inputs     map[string]*graphql.InputObject

	implementers map[string][]string // interface name -> implementing object names
	boundModels  map[string]string   // object name -> model name
	fieldPlans   map[string]map[string]*fieldPlan

	errs *multierror.Error
}

func (cp *compilation) addError(err error) {
	cp.errs = multierror.Append(cp.errs, err)
}

func (cp *compilation) indexDefinitions(doc *ast.Document) {
	for _, def := range doc.Definitions {
		switch node := def.(type) {
		case *ast.ObjectDefinition:
			name := node.Name.Value
			if _, dup := cp.objectDefs[name]; dup {
				cp.addError(&DefinitionError{Subject: name, Reason: "type defined more than once"})
				continue
			}
			cp.objectDefs[name] = node
			for _, iface := range node.Interfaces {
				cp.implementers[iface.Name.Value] = append(cp.implementers[iface.Name.Value], name)
			}
		case *ast.InterfaceDefinition:
			cp.ifaceDefs[node.Name.Value] = node
		case *ast.UnionDefinition:
			cp.unionDefs[node.Name.Value] = node
		case *ast.EnumDefinition:
			cp.enumDefs = append(cp.enumDefs, node)
		case *ast.ScalarDefinition:
			cp.scalarDefs = append(cp.scalarDefs, node)
		case *ast.InputObjectDefinition:
			cp.inputDefs = append(cp.inputDefs, node)
		case *ast.DirectiveDefinition, *ast.SchemaDefinition:
			// Authors may declare the directive set for editor tooling; the
			// declarations carry no compile-time information.
		default:
			cp.addError(&DefinitionError{
				Subject: "schema",
				Reason:  fmt.Sprintf("unsupported definition kind %q", def.GetKind()),
			})
		}
	}
}

// buildScalarsAndEnums compiles SDL scalar definitions to string-serialized
// passthrough scalars and enum definitions to value-preserving enums.
func (cp *compilation) buildScalarsAndEnums() {
	for _, def := range cp.scalarDefs {
		cp.scalars[def.Name.Value] = graphql.NewScalar(graphql.ScalarConfig{
			Name:       def.Name.Value,
			Serialize:  func(value interface{}) interface{} { return value },
			ParseValue: func(value interface{}) interface{} { return value },
			ParseLiteral: func(valueAST ast.Value) interface{} {
				v, err := directives.Value(valueAST)
				if err != nil {
					return nil
				}
				return v
			},
		})
	}

	for _, def := range cp.enumDefs {
		values := graphql.EnumValueConfigMap{}
		for _, v := range def.Values {
			values[v.Name.Value] = &graphql.EnumValueConfig{Value: v.Name.Value}
		}
		cp.enums[def.Name.Value] = graphql.NewEnum(graphql.EnumConfig{
			Name:   def.Name.Value,
			Values: values,
		})
	}
}

func (cp *compilation) buildInputs() {
	for _, def := range cp.inputDefs {
		def := def
		cp.inputs[def.Name.Value] = graphql.NewInputObject(graphql.InputObjectConfig{
			Name: def.Name.Value,
			Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
				fields := graphql.InputObjectConfigFieldMap{}
				for _, f := range def.Fields {
					inputType, err := cp.inputTypeRef(f.Type)
					if err != nil {
						continue
					}
					field := &graphql.InputObjectFieldConfig{Type: inputType}
					if f.DefaultValue != nil {
						if v, err := directives.Value(f.DefaultValue); err == nil {
							field.DefaultValue = v
						}
					}
					fields[f.Name.Value] = field
				}
				return fields
			}),
		})
	}
}

// bindModels processes @model directives, registering type-to-model
// bindings before any field is planned. An omitted name binds to the model
// matching the type name.
func (cp *compilation) bindModels() {
	for name, def := range cp.objectDefs {
		for _, d := range def.Directives {
			decoded, err := directives.Decode(d)
			if err != nil {
				cp.addError(err)
				continue
			}
			cfg, ok := decoded.(*directives.Model)
			if !ok {
				continue
			}

			modelName := cfg.Name
			if modelName == "" {
				modelName = name
			}
			if _, ok := cp.c.source.Get(modelName); !ok {
				cp.addError(&DefinitionError{
					Subject: name,
					Reason:  fmt.Sprintf("@model references unknown model %q", modelName),
				})
				continue
			}
			if err := cp.registry.Register(name, modelName); err != nil {
				cp.addError(err)
				continue
			}
			cp.boundModels[name] = modelName
		}
	}
}

func (cp *compilation) buildInterfaces() {
	for name, def := range cp.ifaceDefs {
		name, def := name, def

		var explicit TypeResolverFunc
		for _, d := range def.Directives {
			decoded, err := directives.Decode(d)
			if err != nil {
				cp.addError(err)
				continue
			}
			cfg, ok := decoded.(*directives.Interface)
			if !ok {
				continue
			}
			fn, ok := cp.c.resolvers[cfg.ResolveType]
			if !ok {
				cp.addError(&DefinitionError{
					Subject: name,
					Reason:  fmt.Sprintf("@interface references unregistered resolver %q", cfg.ResolveType),
				})
				continue
			}
			explicit = fn
		}

		cp.interfaces[name] = graphql.NewInterface(graphql.InterfaceConfig{
			Name: name,
			Fields: graphql.FieldsThunk(func() graphql.Fields {
				return cp.fieldsFor(name, def.Fields)
			}),
			ResolveType: cp.makeResolveType(name, explicit, func() []string {
				return cp.implementers[name]
			}),
		})
	}
}

func (cp *compilation) buildObjects() {
	for name, def := range cp.objectDefs {
		name, def := name, def

		var ifaces []*graphql.Interface
		for _, named := range def.Interfaces {
			iface, ok := cp.interfaces[named.Name.Value]
			if !ok {
				cp.addError(&DefinitionError{
					Subject: name,
					Reason:  fmt.Sprintf("implements unknown interface %q", named.Name.Value),
				})
				continue
			}
			ifaces = append(ifaces, iface)
		}

		cp.objects[name] = graphql.NewObject(graphql.ObjectConfig{
			Name:       name,
			Interfaces: ifaces,
			Fields: graphql.FieldsThunk(func() graphql.Fields {
				return cp.fieldsFor(name, def.Fields)
			}),
		})
	}
}

func (cp *compilation) buildUnions() {
	for name, def := range cp.unionDefs {
		name := name

		var explicit TypeResolverFunc
		for _, d := range def.Directives {
			decoded, err := directives.Decode(d)
			if err != nil {
				cp.addError(err)
				continue
			}
			cfg, ok := decoded.(*directives.Union)
			if !ok {
				continue
			}
			fn, ok := cp.c.resolvers[cfg.ResolveType]
			if !ok {
				cp.addError(&DefinitionError{
					Subject: name,
					Reason:  fmt.Sprintf("@union references unregistered resolver %q", cfg.ResolveType),
				})
				continue
			}
			explicit = fn
		}

		var members []*graphql.Object
		var memberNames []string
		for _, named := range def.Types {
			member, ok := cp.objects[named.Name.Value]
			if !ok {
				cp.addError(&DefinitionError{
					Subject: name,
					Reason:  fmt.Sprintf("union member %q is not an object type", named.Name.Value),
				})
				continue
			}
			members = append(members, member)
			memberNames = append(memberNames, named.Name.Value)
		}

		cp.unions[name] = graphql.NewUnion(graphql.UnionConfig{
			Name:  name,
			Types: members,
			ResolveType: cp.makeResolveType(name, explicit, func() []string {
				return memberNames
			}),
		})
	}
}

// fieldsFor assembles the graphql fields for one type from the plans the
// eager pass produced. It runs inside the type's FieldsThunk, after
// planFields finished without errors.
func (cp *compilation) fieldsFor(typeName string, defs []*ast.FieldDefinition) graphql.Fields {
	fields := graphql.Fields{}
	plans := cp.fieldPlans[typeName]
	for _, f := range defs {
		plan, ok := plans[f.Name.Value]
		if !ok {
			continue
		}
		fields[f.Name.Value] = &graphql.Field{
			Type:    plan.fieldType,
			Args:    plan.args,
			Resolve: plan.resolve,
		}
	}
	return fields
}

func (cp *compilation) allTypes() []graphql.Type {
	var types []graphql.Type
	for _, obj := range cp.objects {
		types = append(types, obj)
	}
	for _, iface := range cp.interfaces {
		types = append(types, iface)
	}
	for _, union := range cp.unions {
		types = append(types, union)
	}
	for _, enum := range cp.enums {
		types = append(types, enum)
	}
	for _, scalar := range cp.scalars {
		types = append(types, scalar)
	}
	for _, input := range cp.inputs {
		types = append(types, input)
	}
	types = append(types, cp.wrappers.Generated()...)
	return types
}
