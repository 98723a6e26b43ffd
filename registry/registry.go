// Package registry maintains the bindings between schema type names and
// backing model names for one compilation, and resolves runtime records of
// abstract (interface or union) types to their concrete object type.
package registry

import (
	"fmt"
	"strings"
	"sync"
)

// ConfigurationError reports contradictory bindings supplied to a
// compilation. It is fatal to the schema build.
type ConfigurationError struct {
	TypeName  string
	Bound     string // model the type is already bound to
	Requested string // model the new registration asked for
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf(
		"type %q is already bound to model %q, cannot rebind to %q",
		e.TypeName, e.Bound, e.Requested,
	)
}

// UnresolvableAbstractTypeError reports that a runtime value's backing model
// maps to zero or to multiple concrete types within an abstract type's
// possible-types set. It is scoped to the failing field at execution time.
type UnresolvableAbstractTypeError struct {
	Abstract   string   // interface or union name
	Model      string   // backing model of the runtime value
	Candidates []string // conflicting type names; empty when no type matched
}

func (e *UnresolvableAbstractTypeError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf(
			"no possible type of %q is bound to model %q",
			e.Abstract, e.Model,
		)
	}
	return fmt.Sprintf(
		"model %q maps ambiguously to [%s] within possible types of %q",
		e.Model, strings.Join(e.Candidates, ", "), e.Abstract,
	)
}

// Registry holds type-to-model bindings. One instance belongs to one
// compiled schema; resolvers read it concurrently after compilation, so
// writes take the exclusive lock and stay short.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]string // type name -> model name
}

func New() *Registry {
	return &Registry{bindings: make(map[string]string)}
}

// Register binds typeName to modelName. Identical re-registration is a
// no-op; a conflicting registration fails without altering the existing
// binding.
func (r *Registry) Register(typeName, modelName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bindings[typeName]; ok {
		if existing == modelName {
			return nil
		}
		return &ConfigurationError{TypeName: typeName, Bound: existing, Requested: modelName}
	}
	r.bindings[typeName] = modelName
	return nil
}

// ModelFor returns the model bound to typeName.
func (r *Registry) ModelFor(typeName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modelName, ok := r.bindings[typeName]
	return modelName, ok
}

// ResolveConcrete finds the one type among possibleTypes whose binding
// matches modelName. The search is scoped to possibleTypes, so the same
// model may be bound under unrelated abstract types without conflict.
// Ambiguity is detected here, at first resolution, because bindings arrive
// incrementally while the schema is built.
func (r *Registry) ResolveConcrete(abstractName string, possibleTypes []string, modelName string) (string, error) {
	if modelName == "" {
		return "", &UnresolvableAbstractTypeError{Abstract: abstractName}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []string
	for _, typeName := range possibleTypes {
		if r.bindings[typeName] == modelName {
			candidates = append(candidates, typeName)
		}
	}

	if len(candidates) != 1 {
		return "", &UnresolvableAbstractTypeError{
			Abstract:   abstractName,
			Model:      modelName,
			Candidates: candidates,
		}
	}
	return candidates[0], nil
}
