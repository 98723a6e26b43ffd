package cursor

import (
	"encoding/base64"
	"testing"
)

func TestEncodeDecode_Roundtrip(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		offset   int
	}{
		{"first row", "User", 0},
		{"deep offset", "Post", 1234},
		{"compound type name", "UserProfile", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.typeName, tt.offset)
			if encoded == "" {
				t.Fatal("Encode returned empty string")
			}

			gotType, gotOffset, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if gotType != tt.typeName {
				t.Errorf("typeName: got %q, want %q", gotType, tt.typeName)
			}
			if gotOffset != tt.offset {
				t.Errorf("offset: got %d, want %d", gotOffset, tt.offset)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid base64", "not-valid-base64!!!"},
		{"invalid json", base64.StdEncoding.EncodeToString([]byte("not-json"))},
		{"wrong version", base64.StdEncoding.EncodeToString([]byte(`{"v":9,"t":"User","o":1}`))},
		{"missing type", base64.StdEncoding.EncodeToString([]byte(`{"v":1,"t":"","o":1}`))},
		{"negative offset", base64.StdEncoding.EncodeToString([]byte(`{"v":1,"t":"User","o":-3}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("User", "User"); err != nil {
		t.Errorf("matching types: unexpected error %v", err)
	}
	if err := Validate("User", "Post"); err == nil {
		t.Error("mismatched types: expected error, got nil")
	}
}

func TestCursorOpacity(t *testing.T) {
	// Cursors for different offsets of the same type must differ.
	if Encode("User", 1) == Encode("User", 2) {
		t.Error("cursors for different offsets collide")
	}
	// Same inputs produce a stable token.
	if Encode("User", 5) != Encode("User", 5) {
		t.Error("cursor encoding is not deterministic")
	}
}
