package ica

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Func is the non-quadratic contrast used to approximate negentropy.
type Func int

const (
	LogCosh Func = iota
	Exp
	Cube
)

func (f Func) String() string {
	switch f {
	case LogCosh:
		return "logcosh"
	case Exp:
		return "exp"
	case Cube:
		return "cube"
	default:
		return "unknown"
	}
}

func ParseFunc(s string) (Func, error) {
	switch s {
	case "logcosh":
		return LogCosh, nil
	case "exp":
		return Exp, nil
	case "cube":
		return Cube, nil
	default:
		return 0, errors.Newf("unknown contrast function: %s", s)
	}
}

// apply replaces x with g(x) in place and returns the mean of g'(x).
func (f Func) apply(x []float64) float64 {
	var sum float64
	switch f {
	case Exp:
		for i, v := range x {
			e := math.Exp(-v * v / 2)
			x[i] = v * e
			sum += (1 - v*v) * e
		}
	case Cube:
		for i, v := range x {
			x[i] = v * v * v
			sum += 3 * v * v
		}
	default:
		for i, v := range x {
			g := math.Tanh(v)
			x[i] = g
			sum += 1 - g*g
		}
	}
	return sum / float64(len(x))
}
