package number

import (
	"math"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

func Abs[T Number](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// NearlyEqual reports whether x and y differ by less than eps.
func NearlyEqual[T constraints.Float](x, y, eps T) bool {
	return Abs(x-y) < eps
}

// Finite reports whether every value in xs is neither NaN nor infinite.
func Finite[T constraints.Float](xs []T) bool {
	for _, x := range xs {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
