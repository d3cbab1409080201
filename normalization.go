package chromatic

import (
	"strconv"

	"github.com/gogpu/chromatic/spectral"
)

// Normalization is the wavelength-dependent factor N of a node: either a
// spectral energy distribution, which fixes the absolute photon flux, or a
// dimensionless scalar function of wavelength.
//
// A separable node satisfies EvaluateAtWavelength(w) = S * N(w) for a fixed
// spatial profile S. For inseparable nodes the normalization only records
// whether an SED is attached and which knots it forces.
type Normalization struct {
	sed    *spectral.SED
	scalar spectral.WaveFunc[float64]
}

// Spectral returns a normalization backed by sed.
func Spectral(sed *spectral.SED) Normalization {
	return Normalization{sed: sed}
}

// Scalar returns a dimensionless normalization.
func Scalar(f spectral.WaveFunc[float64]) Normalization {
	return Normalization{scalar: f}
}

// SED returns the attached SED, or nil for a scalar normalization.
func (n Normalization) SED() *spectral.SED { return n.sed }

// HasSED reports whether the normalization is spectral.
func (n Normalization) HasSED() bool { return n.sed != nil }

// ScalarFunc returns the scalar function. It is meaningless when HasSED is true.
func (n Normalization) ScalarFunc() spectral.WaveFunc[float64] { return n.scalar }

// At evaluates the normalization at wave.
func (n Normalization) At(wave float64) float64 {
	if n.sed != nil {
		return n.sed.Evaluate(wave)
	}
	return n.scalar.At(wave)
}

// Chromatic reports whether the normalization depends on wavelength.
func (n Normalization) Chromatic() bool {
	if n.sed != nil {
		return n.sed.Chromatic()
	}
	return n.scalar.Chromatic()
}

// WaveList returns the knots forced by the normalization.
func (n Normalization) WaveList() []float64 {
	if n.sed != nil {
		return n.sed.WaveList()
	}
	return nil
}

// Key identifies the normalization object. Two normalizations share a key
// only if they are the same SED, the same varying function, or equal
// constants.
func (n Normalization) Key() string {
	if n.sed != nil {
		return "sed#" + strconv.FormatUint(n.sed.ID(), 10)
	}
	return "norm:" + n.scalar.Key()
}

func (n Normalization) String() string {
	if n.sed != nil {
		return n.sed.String()
	}
	return n.scalar.Key()
}

// scaled returns n multiplied by f. Only a unit constant keeps the identity
// of n; any other factor yields a new SED or scalar.
func (n Normalization) scaled(f spectral.WaveFunc[float64]) Normalization {
	if !f.Chromatic() && f.Value() == 1 {
		return n
	}
	if n.sed != nil {
		return Spectral(n.sed.Mul(f))
	}
	return Scalar(spectral.Product(n.scalar, f))
}

// times returns the product of two normalizations, at most one of which may
// be spectral.
func (n Normalization) times(o Normalization) Normalization {
	switch {
	case n.sed != nil:
		return n.scaled(o.scalar)
	case o.sed != nil:
		return o.scaled(n.scalar)
	}
	if !n.scalar.Chromatic() && !o.scalar.Chromatic() {
		return Scalar(spectral.Constant(n.scalar.Value() * o.scalar.Value()))
	}
	return Scalar(spectral.Product(n.scalar, o.scalar))
}

// mapScalar applies g to a scalar normalization.
func (n Normalization) mapScalar(g func(spectral.WaveFunc[float64]) spectral.WaveFunc[float64]) Normalization {
	return Scalar(g(n.scalar))
}
