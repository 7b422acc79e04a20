package version

import (
	"fmt"
	"strings"
)

// Range represents a version interval in NuGet bracket notation:
//
//	[1.0,2.0]   1.0 <= v <= 2.0
//	(1.0,2.0)   1.0 <  v <  2.0
//	[1.0,)      v >= 1.0
//	(,2.0]      v <= 2.0
//	[1.0]       exactly 1.0
//
// A nil bound is unbounded on that side.
type Range struct {
	Min          *Version
	Max          *Version
	MinInclusive bool
	MaxInclusive bool
}

// IsRangeSyntax reports whether a version expression uses interval notation
// rather than an exact version.
func IsRangeSyntax(expr string) bool {
	return strings.HasPrefix(expr, "[") || strings.HasPrefix(expr, "(")
}

// ParseRange parses a bracketed interval expression into a Range
func ParseRange(expr string) (*Range, error) {
	if len(expr) < 2 {
		return nil, fmt.Errorf("invalid version range: %q", expr)
	}

	open, close := expr[0], expr[len(expr)-1]
	if (open != '[' && open != '(') || (close != ']' && close != ')') {
		return nil, fmt.Errorf("invalid version range delimiters: %q", expr)
	}

	r := &Range{
		MinInclusive: open == '[',
		MaxInclusive: close == ']',
	}

	inner := expr[1 : len(expr)-1]
	if !strings.Contains(inner, ",") {
		// Single-version pin: [1.0] means exactly 1.0
		if open != '[' || close != ']' {
			return nil, fmt.Errorf("exact range must use square brackets: %q", expr)
		}
		v, err := Parse(strings.TrimSpace(inner))
		if err != nil {
			return nil, fmt.Errorf("invalid version range bound: %w", err)
		}
		r.Min = v
		r.Max = v
		return r, nil
	}

	bounds := strings.SplitN(inner, ",", 2)
	if lo := strings.TrimSpace(bounds[0]); lo != "" {
		v, err := Parse(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound: %w", err)
		}
		r.Min = v
	}
	if hi := strings.TrimSpace(bounds[1]); hi != "" {
		v, err := Parse(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound: %w", err)
		}
		r.Max = v
	}

	return r, nil
}

// Contains reports whether v lies inside the interval
func (r *Range) Contains(v *Version) bool {
	if r.Min != nil {
		cmp := v.Compare(r.Min)
		if cmp < 0 || (cmp == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.Max != nil {
		cmp := v.Compare(r.Max)
		if cmp > 0 || (cmp == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}

// String renders the range back in bracket notation
func (r *Range) String() string {
	open, close := "(", ")"
	if r.MinInclusive {
		open = "["
	}
	if r.MaxInclusive {
		close = "]"
	}

	lo, hi := "", ""
	if r.Min != nil {
		lo = r.Min.String()
	}
	if r.Max != nil {
		hi = r.Max.String()
	}

	if r.Min != nil && r.Min == r.Max {
		return "[" + lo + "]"
	}
	return open + lo + "," + hi + close
}
