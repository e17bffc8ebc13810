// Package buf holds overflow-checked arithmetic for buffer and block sizes.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would
// overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative sizes, returning ok = false
// when either is negative or the product would overflow int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	return a * b, true
}

// AlignUp rounds n up to a multiple of align, a power of two.
func AlignUp(n, align int) (int, bool) {
	sum, ok := AddOverflowSafe(n, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}

// Sizes adds every size in ns, failing on a negative size or on overflow.
func Sizes(ns ...int) (int, bool) {
	total := 0
	for _, n := range ns {
		if n < 0 {
			return 0, false
		}
		var ok bool
		if total, ok = AddOverflowSafe(total, n); !ok {
			return 0, false
		}
	}
	return total, true
}
