package schema

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/graphbind/graphbind/directives"
	"github.com/graphbind/graphbind/internal/naming"
	"github.com/graphbind/graphbind/model"
	"github.com/graphbind/graphbind/paginate"
)

// fieldPlan is the compiled form of one schema field: its (possibly
// wrapper-replaced) output type, merged arguments, and resolver closure.
// Plans are produced eagerly so every directive violation is collected
// before any graphql type thunk runs.
type fieldPlan struct {
	fieldType graphql.Output
	args      graphql.FieldConfigArgument
	resolve   graphql.FieldResolveFn
}

func (cp *compilation) planFields() {
	for name, def := range cp.objectDefs {
		plans := make(map[string]*fieldPlan, len(def.Fields))
		for _, f := range def.Fields {
			plans[f.Name.Value] = cp.planField(name, f, true)
		}
		cp.fieldPlans[name] = plans
	}
	// Interface fields are planned for their declared shape only: wrapper
	// replacement and injected arguments apply, resolver closures belong to
	// the implementing objects.
	for name, def := range cp.ifaceDefs {
		plans := make(map[string]*fieldPlan, len(def.Fields))
		for _, f := range def.Fields {
			plans[f.Name.Value] = cp.planField(name, f, false)
		}
		cp.fieldPlans[name] = plans
	}
}

func (cp *compilation) planField(owner string, f *ast.FieldDefinition, withResolvers bool) *fieldPlan {
	subject := owner + "." + f.Name.Value

	fieldType, err := cp.outputTypeRef(f.Type)
	if err != nil {
		cp.addError(&DefinitionError{Subject: subject, Reason: err.Error()})
		fieldType = graphql.String
	}
	plan := &fieldPlan{
		fieldType: fieldType,
		args:      cp.declaredArgs(subject, f.Arguments),
	}

	var use directives.Directive
	for _, d := range f.Directives {
		decoded, err := directives.Decode(d)
		if err != nil {
			cp.addError(fmt.Errorf("%s: %w", subject, err))
			continue
		}
		if decoded == nil {
			continue
		}
		if use != nil {
			cp.addError(&directives.ConfigurationError{
				Directive: d.Name.Value,
				Reason:    fmt.Sprintf("conflicts with another directive on %s", subject),
			})
			continue
		}
		use = decoded
	}
	if use == nil {
		return plan
	}

	switch cfg := use.(type) {
	case *directives.Paginate:
		cp.planPaginate(subject, f, cfg, plan, withResolvers)
	case *directives.All:
		cp.planAll(subject, f, cfg, plan, withResolvers)
	case *directives.Find:
		cp.planFind(subject, f, cfg, plan, withResolvers)
	case *directives.BelongsToMany:
		cp.planRelation(subject, owner, f, relationInput{
			directive:    directives.NameBelongsToMany,
			kind:         model.BelongsToMany,
			relation:     cfg.Relation,
			typeArg:      cfg.Type,
			scopes:       cfg.Scopes,
			defaultCount: cfg.DefaultCount,
			maxCount:     cfg.MaxCount,
			edgeType:     cfg.EdgeType,
		}, plan, withResolvers)
	case *directives.HasMany:
		cp.planRelation(subject, owner, f, relationInput{
			directive:    directives.NameHasMany,
			kind:         model.HasMany,
			relation:     cfg.Relation,
			typeArg:      cfg.Type,
			scopes:       cfg.Scopes,
			defaultCount: cfg.DefaultCount,
			maxCount:     cfg.MaxCount,
		}, plan, withResolvers)
	case *directives.BelongsTo:
		cp.planBelongsTo(subject, owner, f, cfg, plan, withResolvers)
	case *directives.Model, *directives.Interface, *directives.Union:
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  "type-level directive is not valid on a field",
		})
	}
	return plan
}

func (cp *compilation) planPaginate(subject string, f *ast.FieldDefinition, cfg *directives.Paginate, plan *fieldPlan, withResolvers bool) {
	mode, err := paginate.ParseMode(cfg.Type)
	if err != nil {
		cp.addError(&directives.ConfigurationError{Directive: directives.NamePaginate, Reason: fmt.Sprintf("%s: %v", subject, err)})
		return
	}

	m := cp.modelForRootField(subject, directives.NamePaginate, cfg.Model, f.Name.Value)
	if m == nil {
		return
	}
	if !cp.validateScopes(subject, m, cfg.Scopes) {
		return
	}
	bounds := cp.c.pagination.BoundsFor(cfg.DefaultCount, cfg.MaxCount)

	baseName := baseTypeName(f.Type)
	base, ok := cp.objects[baseName]
	if !ok {
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  fmt.Sprintf("pagination requires an object base type, %q is not one", baseName),
		})
		return
	}
	cp.applyWrapper(plan, mode, base, nil, bounds)

	if withResolvers {
		plan.resolve = cp.makeCollectionResolver(m, cfg.Scopes, mode, bounds, baseName, f.Name.Value)
	}
}

func (cp *compilation) planAll(subject string, f *ast.FieldDefinition, cfg *directives.All, plan *fieldPlan, withResolvers bool) {
	m := cp.modelForRootField(subject, directives.NameAll, cfg.Model, f.Name.Value)
	if m == nil {
		return
	}
	if !cp.validateScopes(subject, m, cfg.Scopes) {
		return
	}
	if withResolvers {
		plan.resolve = cp.makeCollectionResolver(m, cfg.Scopes, paginate.ModeNone, paginate.CountBounds{}, baseTypeName(f.Type), f.Name.Value)
	}
}

func (cp *compilation) planFind(subject string, f *ast.FieldDefinition, cfg *directives.Find, plan *fieldPlan, withResolvers bool) {
	m := cp.modelForRootField(subject, directives.NameFind, cfg.Model, f.Name.Value)
	if m == nil {
		return
	}
	if len(f.Arguments) == 0 {
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  "@find requires at least one unique-column argument",
		})
		return
	}
	if withResolvers {
		plan.resolve = cp.makeFindResolver(m, f.Name.Value)
	}
}

// relationInput carries the shared arguments of the list-shaped relation
// directives.
type relationInput struct {
	directive    string
	kind         model.RelationKind
	relation     string
	typeArg      string
	scopes       []string
	defaultCount *int
	maxCount     *int
	edgeType     string
}

func (cp *compilation) planRelation(subject, owner string, f *ast.FieldDefinition, in relationInput, plan *fieldPlan, withResolvers bool) {
	relName := in.relation
	if relName == "" {
		relName = f.Name.Value
	}

	mode := paginate.ModeNone
	if in.typeArg != "" {
		var err error
		mode, err = paginate.ParseMode(in.typeArg)
		if err != nil {
			cp.addError(&directives.ConfigurationError{Directive: in.directive, Reason: fmt.Sprintf("%s: %v", subject, err)})
			return
		}
	}
	if in.edgeType != "" && mode != paginate.ModeConnection {
		cp.addError(&directives.ConfigurationError{
			Directive: in.directive,
			Reason:    fmt.Sprintf("%s: edgeType requires type: CONNECTION", subject),
		})
		return
	}
	bounds := cp.c.pagination.BoundsFor(in.defaultCount, in.maxCount)

	var parent, target *model.Model
	var rel model.Relation
	if withResolvers {
		parent, rel = cp.relationOn(subject, owner, in.directive, relName, in.kind)
		if parent == nil {
			return
		}
		var ok bool
		target, ok = cp.c.source.Get(rel.Target)
		if !ok {
			cp.addError(&DefinitionError{
				Subject: subject,
				Reason:  fmt.Sprintf("relation %q targets unknown model %q", relName, rel.Target),
			})
			return
		}
		if !cp.validateScopes(subject, target, in.scopes) {
			return
		}
	}

	baseName := baseTypeName(f.Type)
	if mode != paginate.ModeNone {
		base, ok := cp.objects[baseName]
		if !ok {
			cp.addError(&DefinitionError{
				Subject: subject,
				Reason:  fmt.Sprintf("pagination requires an object base type, %q is not one", baseName),
			})
			return
		}
		var edge *graphql.Object
		if in.edgeType != "" {
			edge, ok = cp.objects[in.edgeType]
			if !ok {
				cp.addError(&DefinitionError{
					Subject: subject,
					Reason:  fmt.Sprintf("edgeType references unknown object type %q", in.edgeType),
				})
				return
			}
		}
		cp.applyWrapper(plan, mode, base, edge, bounds)
	}

	if withResolvers {
		plan.resolve = cp.makeRelationResolver(parent, rel, target, in.scopes, mode, bounds, baseName, f.Name.Value)
	}
}

func (cp *compilation) planBelongsTo(subject, owner string, f *ast.FieldDefinition, cfg *directives.BelongsTo, plan *fieldPlan, withResolvers bool) {
	if !withResolvers {
		return
	}
	relName := cfg.Relation
	if relName == "" {
		relName = f.Name.Value
	}
	parent, rel := cp.relationOn(subject, owner, directives.NameBelongsTo, relName, model.BelongsTo)
	if parent == nil {
		return
	}
	target, ok := cp.c.source.Get(rel.Target)
	if !ok {
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  fmt.Sprintf("relation %q targets unknown model %q", relName, rel.Target),
		})
		return
	}
	plan.resolve = cp.makeBelongsToResolver(parent, rel, target, f.Name.Value)
}

// relationOn resolves and checks the declared relation for a relation
// directive on owner's field.
func (cp *compilation) relationOn(subject, owner, directive, relName string, kind model.RelationKind) (*model.Model, model.Relation) {
	parentModelName, ok := cp.boundModels[owner]
	if !ok {
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  fmt.Sprintf("@%s requires %s to be bound to a model with @model", directive, owner),
		})
		return nil, model.Relation{}
	}
	parent, _ := cp.c.source.Get(parentModelName)

	rel, ok := parent.Relation(relName)
	if !ok {
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  fmt.Sprintf("model %q declares no relation %q", parent.Name, relName),
		})
		return nil, model.Relation{}
	}
	if rel.Kind != kind {
		cp.addError(&directives.ConfigurationError{
			Directive: directive,
			Reason:    fmt.Sprintf("%s: relation %q is declared %s", subject, relName, rel.Kind),
		})
		return nil, model.Relation{}
	}
	return parent, rel
}

func (cp *compilation) modelForRootField(subject, directive, explicit, fieldName string) *model.Model {
	modelName := explicit
	if modelName == "" {
		modelName = naming.ModelNameFromField(fieldName)
	}
	m, ok := cp.c.source.Get(modelName)
	if !ok {
		cp.addError(&DefinitionError{
			Subject: subject,
			Reason:  fmt.Sprintf("@%s references unknown model %q", directive, modelName),
		})
		return nil
	}
	return m
}

func (cp *compilation) validateScopes(subject string, m *model.Model, scopes []string) bool {
	valid := true
	for _, name := range scopes {
		if _, ok := m.Scope(name); !ok {
			cp.addError(&DefinitionError{
				Subject: subject,
				Reason:  fmt.Sprintf("model %q has no scope %q", m.Name, name),
			})
			valid = false
		}
	}
	return valid
}

// applyWrapper replaces the field's declared type with the generated
// wrapper for mode and injects the pagination arguments. SDL-declared
// arguments of the same name win over injected ones.
func (cp *compilation) applyWrapper(plan *fieldPlan, mode paginate.Mode, base, edge *graphql.Object, bounds paginate.CountBounds) {
	before := len(cp.wrappers.Generated())
	wrapper := cp.wrappers.Wrapper(mode, base, edge)
	if len(cp.wrappers.Generated()) > before {
		cp.c.metrics.RecordWrapperType(context.Background(), mode.String())
	}

	args := graphql.FieldConfigArgument{}
	for name, arg := range paginate.InjectedArgs(mode, bounds) {
		args[name] = arg
	}
	for name, arg := range plan.args {
		args[name] = arg
	}

	plan.fieldType = graphql.NewNonNull(wrapper)
	plan.args = args
}
