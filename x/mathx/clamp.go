// Package mathx holds the small numeric helpers the firmware needs without
// pulling in package math on the hot path.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs for signed integers and floats.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// RoundDiv returns v/step rounded half away from zero. step must be non-zero.
func RoundDiv[T constraints.Float](v, step T) int {
	q := v / step
	if q < 0 {
		return int(q - 0.5)
	}
	return int(q + 0.5)
}
