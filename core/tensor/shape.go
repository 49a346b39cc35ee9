package tensor

import (
	"fmt"
	"strings"
)

// Unknown marks a dimension whose size is not known yet.
const Unknown = -1

// Shape is a list of dimension sizes. A nil Shape means unresolved.
type Shape []int

// Clone returns a copy that does not alias s.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// NumElements is the product of all dimensions.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// IsFullyDefined reports whether no dimension is Unknown.
func (s Shape) IsFullyDefined() bool {
	for _, d := range s {
		if d < 0 {
			return false
		}
	}
	return true
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int { return len(s) }

func (s Shape) String() string {
	if s == nil {
		return "None"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		if d == Unknown {
			parts[i] = "None"
		} else {
			parts[i] = fmt.Sprint(d)
		}
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
