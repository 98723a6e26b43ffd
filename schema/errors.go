package schema

import "fmt"

// DefinitionError reports a directive referencing something the schema or
// model world does not define: an unknown scope, relation, model, type, or
// resolver name. It is fatal to the schema build.
type DefinitionError struct {
	Subject string // the defective type or field, e.g. "User.roles"
	Reason  string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
}
