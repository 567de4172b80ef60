package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// PopStdDev returns the population standard deviation of xs (divides by n).
// Fewer than two samples yield 0.
func PopStdDev[T constraints.Float](xs []T) T {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sum T
	for _, x := range xs {
		sum += x
	}
	mean := sum / T(n)
	var sq T
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return T(math.Sqrt(float64(sq / T(n))))
}
