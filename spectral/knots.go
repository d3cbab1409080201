package spectral

import (
	"math"
	"slices"

	"github.com/gogpu/chromatic/integ"
)

// MergeKnots returns the sorted, deduplicated union of lists.
func MergeKnots(lists ...[]float64) []float64 {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	if n == 0 {
		return nil
	}
	out := make([]float64, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ClipKnots restricts knots to [blue, red]. When any knots remain, the limits
// themselves are added so that a quadrature over the result spans the whole
// range.
func ClipKnots(knots []float64, blue, red float64) []float64 {
	var out []float64
	for _, w := range knots {
		if w > blue && w < red {
			out = append(out, w)
		}
	}
	if len(knots) == 0 {
		return nil
	}
	out = append(out, blue, red)
	slices.Sort(out)
	return slices.Compact(out)
}

// Integrate computes the integral of f over [blue, red]: with the trapezoidal
// rule on knots when there are any, otherwise adaptively.
func Integrate(f func(float64) float64, knots []float64, blue, red float64) (float64, error) {
	if len(knots) > 0 {
		vals := make([]float64, len(knots))
		for i, w := range knots {
			vals[i] = f(w)
		}
		return integ.Trapezoid(knots, vals), nil
	}
	if math.IsInf(blue, 0) || math.IsInf(red, 0) {
		return 0, integ.ErrNoSamples
	}
	return integ.Int1D(f, blue, red)
}
