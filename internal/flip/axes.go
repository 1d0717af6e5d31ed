package flip

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxRank is the largest rank an AxisSet can describe.
const MaxRank = 64

// AxisSet is a set of axis indices stored as a bitmask.
// Duplicate axes collapse; the zero value is the empty set.
type AxisSet uint64

// NewAxisSet builds a set from axis indices in [0, MaxRank).
func NewAxisSet(axes ...int) (AxisSet, error) {
	var s AxisSet
	for _, a := range axes {
		if a < 0 || a >= MaxRank {
			return 0, fmt.Errorf("%w: axis %d outside [0, %d)", ErrInvalidAxis, a, MaxRank)
		}
		s |= 1 << uint(a)
	}
	return s, nil
}

// MustAxisSet is like NewAxisSet but panics on error.
func MustAxisSet(axes ...int) AxisSet {
	s, err := NewAxisSet(axes...)
	if err != nil {
		panic(err)
	}
	return s
}

// Has reports whether axis d is in the set.
func (s AxisSet) Has(d int) bool {
	if d < 0 || d >= MaxRank {
		return false
	}
	return s&(1<<uint(d)) != 0
}

// Len returns the number of axes in the set.
func (s AxisSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Axes returns the axes in ascending order.
func (s AxisSet) Axes() []int {
	axes := make([]int, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		axes = append(axes, bits.TrailingZeros64(v))
	}
	return axes
}

// Validate checks that every axis is below rank.
func (s AxisSet) Validate(rank int) error {
	if s == 0 {
		return nil
	}
	if top := bits.Len64(uint64(s)) - 1; top >= rank {
		return fmt.Errorf("%w: axis %d out of range for rank %d", ErrInvalidAxis, top, rank)
	}
	return nil
}

// String returns the set as "{a,b,...}".
func (s AxisSet) String() string {
	parts := make([]string, 0, s.Len())
	for _, a := range s.Axes() {
		parts = append(parts, fmt.Sprint(a))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
