// Package cursor encodes and decodes connection cursors. Cursors are opaque
// base64-encoded JSON carrying the base type name and the absolute offset of
// the row they point at, so a cursor minted for one connection cannot window
// another type's results.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type payload struct {
	Version  int    `json:"v"`
	TypeName string `json:"t"`
	Offset   int    `json:"o"`
}

// Encode builds an opaque cursor for the row at offset within typeName's
// result ordering.
func Encode(typeName string, offset int) string {
	data, err := json.Marshal(payload{Version: 1, TypeName: typeName, Offset: offset})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Decode parses a cursor into its type name and offset.
func Decode(raw string) (typeName string, offset int, err error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid cursor: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", 0, fmt.Errorf("invalid cursor format")
	}
	if p.Version != 1 {
		return "", 0, fmt.Errorf("invalid cursor format: unsupported version %d", p.Version)
	}
	if p.TypeName == "" {
		return "", 0, fmt.Errorf("invalid cursor: missing type")
	}
	if p.Offset < 0 {
		return "", 0, fmt.Errorf("invalid cursor: negative offset")
	}
	return p.TypeName, p.Offset, nil
}

// Validate confirms the cursor was minted for the expected base type.
func Validate(expectedType, actualType string) error {
	if actualType != expectedType {
		return fmt.Errorf("cursor type mismatch: expected %s, got %s", expectedType, actualType)
	}
	return nil
}
