// Package naming converts between SQL naming (snake_case tables and
// columns) and GraphQL naming (PascalCase types, camelCase fields), and
// derives the conventional defaults for relation keys and junction tables.
package naming

import (
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
)

// ToTypeName converts a snake_case name to PascalCase.
// Example: "user_profiles" -> "UserProfiles"
func ToTypeName(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, "")
}

// ToFieldName converts a snake_case column name to camelCase.
// Example: "user_name" -> "userName"
func ToFieldName(column string) string {
	parts := strings.Split(column, "_")
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// ToSnakeCase converts a PascalCase or camelCase name to snake_case.
// Example: "createdAt" -> "created_at", "UserProfile" -> "user_profile"
func ToSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TableName derives the conventional table for a model name.
// Example: "UserProfile" -> "user_profiles"
func TableName(modelName string) string {
	return inflection.Plural(ToSnakeCase(modelName))
}

// ForeignKeyColumn derives the conventional FK column for a model name.
// Example: "Team" -> "team_id"
func ForeignKeyColumn(modelName string) string {
	return ToSnakeCase(modelName) + "_id"
}

// JunctionTable derives the conventional junction table for two model names:
// the singular snake_case names joined in alphabetical order.
// Example: ("User", "Role") -> "role_user"
func JunctionTable(a, b string) string {
	names := []string{
		inflection.Singular(ToSnakeCase(a)),
		inflection.Singular(ToSnakeCase(b)),
	}
	sort.Strings(names)
	return strings.Join(names, "_")
}

// ModelNameFromField infers a model name from a root field name by
// singularizing and pascal-casing.
// Example: "posts" -> "Post", "people" -> "Person"
func ModelNameFromField(fieldName string) string {
	singular := inflection.Singular(ToSnakeCase(fieldName))
	return ToTypeName(singular)
}
