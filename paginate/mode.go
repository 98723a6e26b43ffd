// Package paginate compiles pagination modes into generated wrapper types
// and a runtime executor that windows backing-store queries. Wrapper
// generation is idempotent per generated type name, so the same field shape
// compiled from many schema fields shares one type.
package paginate

import "fmt"

// Mode selects the pagination output contract for a field.
type Mode int

const (
	// ModeNone returns the raw list without windowing.
	ModeNone Mode = iota
	// ModePaginator returns an offset window with full metadata, including a
	// counted total.
	ModePaginator
	// ModeSimple returns an offset window without the count query.
	ModeSimple
	// ModeConnection returns a cursor window with Relay-style edges.
	ModeConnection
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModePaginator:
		return "PAGINATOR"
	case ModeSimple:
		return "SIMPLE"
	case ModeConnection:
		return "CONNECTION"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a directive-level mode name. The empty string selects
// ModePaginator, the default for paginated fields.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "PAGINATOR":
		return ModePaginator, nil
	case "SIMPLE":
		return ModeSimple, nil
	case "CONNECTION":
		return ModeConnection, nil
	default:
		return ModeNone, fmt.Errorf("unknown pagination type %q, expected PAGINATOR, SIMPLE, or CONNECTION", s)
	}
}
