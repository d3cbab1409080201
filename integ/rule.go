// Package integ provides the quadrature primitives used to integrate chromatic
// profiles over wavelength: sample-weight rules, adaptive 1D integration and
// image integrators that accumulate weighted monochromatic renderings.
package integ

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/integrate"
)

// ErrUnknownRule is returned for an unrecognized integration rule identifier.
var ErrUnknownRule = errors.New("integ: unknown integration rule")

// Rule selects how sample weights are assigned along the wavelength axis.
type Rule uint8

const (
	// Trapezoidal treats samples as the edges of trapezoids: interior
	// samples get the mean of their neighbouring gaps, endpoints half a gap.
	Trapezoidal Rule = iota

	// Midpoint treats every sample as the midpoint of a bin. Interior bins
	// span half the distance to each neighbour; the end bins are one full
	// gap wide.
	Midpoint
)

// String returns the rule identifier accepted by ParseRule.
func (r Rule) String() string {
	switch r {
	case Trapezoidal:
		return "trapezoidal"
	case Midpoint:
		return "midpoint"
	default:
		return fmt.Sprintf("Rule(%d)", uint8(r))
	}
}

// Valid reports whether r is a known rule.
func (r Rule) Valid() bool {
	return r == Trapezoidal || r == Midpoint
}

// ParseRule maps "trapezoidal" or "midpoint" to a Rule.
func ParseRule(name string) (Rule, error) {
	switch name {
	case "trapezoidal", "trapz":
		return Trapezoidal, nil
	case "midpoint", "midpt":
		return Midpoint, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
}

// Weights returns the per-sample quadrature weights for sorted abscissae x.
// Fewer than two samples yield zero weights.
func (r Rule) Weights(x []float64) []float64 {
	n := len(x)
	w := make([]float64, n)
	if n < 2 {
		return w
	}
	for i := 1; i < n-1; i++ {
		w[i] = 0.5 * (x[i+1] - x[i-1])
	}
	w[0] = x[1] - x[0]
	w[n-1] = x[n-1] - x[n-2]
	if r == Trapezoidal {
		w[0] *= 0.5
		w[n-1] *= 0.5
	}
	return w
}

// Integrate applies the rule to samples f taken at sorted abscissae x.
func (r Rule) Integrate(x, f []float64) float64 {
	if r == Trapezoidal {
		return Trapezoid(x, f)
	}
	var sum float64
	for i, w := range r.Weights(x) {
		sum += w * f[i]
	}
	return sum
}

// Trapezoid integrates samples f at sorted abscissae x with the trapezoidal
// rule. It returns 0 for fewer than two samples.
func Trapezoid(x, f []float64) float64 {
	if len(x) < 2 || len(x) != len(f) {
		return 0
	}
	return integrate.Trapezoidal(x, f)
}
