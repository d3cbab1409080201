package integ

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// ErrNoConvergence is returned when adaptive integration exhausts its
// subdivision budget without meeting the requested tolerance.
var ErrNoConvergence = errors.New("integ: adaptive integration did not converge")

// Default adaptive integration settings.
const (
	DefaultRelTol   = 1e-7
	DefaultAbsTol   = 1e-12
	DefaultMaxDepth = 50

	// panelPoints is the Gauss-Legendre order used on every panel.
	panelPoints = 16
)

// Int1DOption configures Int1D.
type Int1DOption func(*int1dOptions)

type int1dOptions struct {
	relTol   float64
	absTol   float64
	maxDepth int
}

// WithTolerance sets the relative and absolute error targets.
func WithTolerance(rel, abs float64) Int1DOption {
	return func(o *int1dOptions) {
		o.relTol = rel
		o.absTol = abs
	}
}

// WithMaxDepth bounds the bisection depth.
func WithMaxDepth(depth int) Int1DOption {
	return func(o *int1dOptions) {
		o.maxDepth = depth
	}
}

// Int1D integrates f over [a, b] by recursive bisection of Gauss-Legendre
// panels until each panel agrees with the sum of its halves.
func Int1D(f func(float64) float64, a, b float64, opts ...Int1DOption) (float64, error) {
	o := int1dOptions{relTol: DefaultRelTol, absTol: DefaultAbsTol, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if a == b {
		return 0, nil
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsNaN(a) || math.IsNaN(b) {
		return 0, fmt.Errorf("integ: invalid interval [%v, %v]", a, b)
	}
	sign := 1.0
	if a > b {
		a, b = b, a
		sign = -1
	}

	whole := panel(f, a, b)
	tol := math.Max(o.absTol, o.relTol*math.Abs(whole))
	v, err := adapt(f, a, b, whole, tol, o.maxDepth)
	if err != nil {
		return 0, err
	}
	return sign * v, nil
}

func panel(f func(float64) float64, a, b float64) float64 {
	return quad.Fixed(f, a, b, panelPoints, quad.Legendre{}, 0)
}

// adapt refines [a, b] until the panel estimate and the sum of its halves
// agree to tol. tol is absolute and shared by every level.
func adapt(f func(float64) float64, a, b, whole, tol float64, depth int) (float64, error) {
	mid := 0.5 * (a + b)
	left := panel(f, a, mid)
	right := panel(f, mid, b)
	sum := left + right
	if math.Abs(sum-whole) <= tol {
		return sum, nil
	}
	if depth <= 0 {
		return 0, fmt.Errorf("%w on [%v, %v]", ErrNoConvergence, a, b)
	}
	l, err := adapt(f, a, mid, left, tol, depth-1)
	if err != nil {
		return 0, err
	}
	r, err := adapt(f, mid, b, right, tol, depth-1)
	if err != nil {
		return 0, err
	}
	return l + r, nil
}
