package spectral

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/interp"

	"github.com/gogpu/chromatic/integ"
)

// ErrInvalidTable is returned for lookup tables that are too short, unsorted
// or have mismatched columns.
var ErrInvalidTable = errors.New("spectral: invalid lookup table")

// LookupTable is a piecewise-linear function defined by sorted samples.
// Outside [X[0], X[n-1]] it evaluates to zero.
type LookupTable struct {
	x  []float64
	f  []float64
	pl interp.PiecewiseLinear
}

// NewLookupTable copies x and f. x must be strictly increasing.
func NewLookupTable(x, f []float64) (*LookupTable, error) {
	if len(x) < 2 || len(x) != len(f) {
		return nil, fmt.Errorf("%w: %d abscissae, %d values", ErrInvalidTable, len(x), len(f))
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return nil, fmt.Errorf("%w: abscissae not increasing at index %d", ErrInvalidTable, i)
		}
	}
	t := &LookupTable{x: slices.Clone(x), f: slices.Clone(f)}
	if err := t.pl.Fit(t.x, t.f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return t, nil
}

// At interpolates the table at x.
func (t *LookupTable) At(x float64) float64 {
	if x < t.x[0] || x > t.x[len(t.x)-1] {
		return 0
	}
	return t.pl.Predict(x)
}

// X returns the table abscissae.
func (t *LookupTable) X() []float64 { return t.x }

// Min returns the smallest abscissa.
func (t *LookupTable) Min() float64 { return t.x[0] }

// Max returns the largest abscissa.
func (t *LookupTable) Max() float64 { return t.x[len(t.x)-1] }

// Integral returns the exact integral of the piecewise-linear function.
func (t *LookupTable) Integral() float64 {
	return integ.Trapezoid(t.x, t.f)
}
