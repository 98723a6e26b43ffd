package paginate

import "fmt"

// ValidationError reports invalid client-supplied pagination arguments. It
// is surfaced on the failing field and does not abort sibling resolution.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Config is the global pagination configuration read at compile time.
type Config struct {
	// DefaultCount is the page size used when a field omits defaultCount
	// and the client omits the count argument. Zero means no default: the
	// count argument becomes required.
	DefaultCount int
	// MaxCount clamps requested counts. Zero means unbounded.
	MaxCount int
	// HardCeiling rejects requests above it outright instead of clamping.
	// Zero disables the ceiling.
	HardCeiling int
}

// BoundsFor resolves directive-level overrides against the global
// configuration. A directive setting wins over the global value; an explicit
// zero maxCount means unbounded.
func (c Config) BoundsFor(defaultCount, maxCount *int) CountBounds {
	b := CountBounds{Default: c.DefaultCount, Max: c.MaxCount, Ceiling: c.HardCeiling}
	if defaultCount != nil {
		b.Default = *defaultCount
	}
	if maxCount != nil {
		b.Max = *maxCount
	}
	return b
}

// CountBounds are the resolved page-size rules for one field.
type CountBounds struct {
	Default int
	Max     int
	Ceiling int
}

// Resolve turns the client's requested count into the effective page size:
// a missing count takes the default, an oversized count clamps to Max, and
// a non-positive or ceiling-breaking count fails validation.
func (b CountBounds) Resolve(requested *int) (int, error) {
	if requested == nil && b.Default <= 0 {
		return 0, &ValidationError{Message: "a count argument is required"}
	}

	count := b.Default
	if requested != nil {
		count = *requested
	}

	if count <= 0 {
		return 0, &ValidationError{
			Message: fmt.Sprintf("count must be a positive integer, got %d", count),
		}
	}
	if b.Ceiling > 0 && count > b.Ceiling {
		return 0, &ValidationError{
			Message: fmt.Sprintf("count %d exceeds the maximum of %d", count, b.Ceiling),
		}
	}
	if b.Max > 0 && count > b.Max {
		count = b.Max
	}
	return count, nil
}
