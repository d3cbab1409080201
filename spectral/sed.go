package spectral

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroFlux is returned when an SED cannot be rescaled because its flux
// through a bandpass is zero.
var ErrZeroFlux = errors.New("spectral: zero flux through bandpass")

// SED is a spectral energy distribution: relative photon flux per nanometer.
//
// SEDs are compared by identity. Two SEDs built from the same data are
// distinct objects with distinct IDs; every derived SED (Mul, Add, WithFlux)
// gets a fresh ID.
type SED struct {
	id    uint64
	name  string
	fn    WaveFunc[float64]
	waves []float64
	blue  float64
	red   float64
}

// ConstantSED returns a flat SED with no knots and unbounded support.
func ConstantSED(v float64) *SED {
	return &SED{
		id:   nextID(),
		name: fmt.Sprintf("SED(%g)", v),
		fn:   Constant(v),
		blue: 0,
		red:  math.Inf(1),
	}
}

// NewSED wraps an analytic density on [blue, red].
func NewSED(fn func(float64) float64, blue, red float64) *SED {
	s := &SED{id: nextID(), fn: Varying(fn), blue: blue, red: red}
	s.name = fmt.Sprintf("SED#%d", s.id)
	return s
}

// PowerLawSED returns (wave/wave0)^index on [blue, red].
func PowerLawSED(wave0, index, blue, red float64) *SED {
	s := NewSED(func(w float64) float64 { return math.Pow(w/wave0, index) }, blue, red)
	s.name = fmt.Sprintf("PowerLaw(%g, %g)", wave0, index)
	return s
}

// TabulatedSED interpolates linearly between samples. The sample wavelengths
// become the SED knots.
func TabulatedSED(waves, values []float64) (*SED, error) {
	t, err := NewLookupTable(waves, values)
	if err != nil {
		return nil, err
	}
	s := &SED{id: nextID(), fn: Varying(t.At), waves: t.X(), blue: t.Min(), red: t.Max()}
	s.name = fmt.Sprintf("TabulatedSED(%g..%g, %d knots)", s.blue, s.red, len(s.waves))
	return s, nil
}

// ID returns the interned identity used in cache keys.
func (s *SED) ID() uint64 { return s.id }

// Evaluate returns the density at wave, 0 outside the support.
func (s *SED) Evaluate(wave float64) float64 {
	if wave < s.blue || wave > s.red {
		return 0
	}
	return s.fn.At(wave)
}

// Chromatic reports whether the density varies with wavelength.
func (s *SED) Chromatic() bool { return s.fn.Chromatic() }

// WaveList returns the knots of a tabulated SED.
func (s *SED) WaveList() []float64 { return s.waves }

// BlueLimit returns the short-wavelength end of the support.
func (s *SED) BlueLimit() float64 { return s.blue }

// RedLimit returns the long-wavelength end of the support.
func (s *SED) RedLimit() float64 { return s.red }

// String implements fmt.Stringer.
func (s *SED) String() string { return s.name }

// Mul returns s scaled by f. The knots and support are kept.
func (s *SED) Mul(f WaveFunc[float64]) *SED {
	return &SED{
		id:    nextID(),
		name:  fmt.Sprintf("%s*%s", s.name, f.Key()),
		fn:    Product(s.fn, f),
		waves: s.waves,
		blue:  s.blue,
		red:   s.red,
	}
}

// Add returns s+o. The support is the union of both, knots are merged.
func (s *SED) Add(o *SED) *SED {
	return &SED{
		id:    nextID(),
		name:  fmt.Sprintf("(%s+%s)", s.name, o.name),
		fn:    Varying(func(w float64) float64 { return s.Evaluate(w) + o.Evaluate(w) }),
		waves: MergeKnots(s.waves, o.waves),
		blue:  math.Min(s.blue, o.blue),
		red:   math.Max(s.red, o.red),
	}
}

// Throughput is the bandpass view needed for flux integrals.
type Throughput interface {
	Evaluate(wave float64) float64
	BlueLimit() float64
	RedLimit() float64
	WaveList() []float64
}

// CalculateFlux returns the photon flux of s through bp.
func (s *SED) CalculateFlux(bp Throughput) (float64, error) {
	blue := math.Max(s.blue, bp.BlueLimit())
	red := math.Min(s.red, bp.RedLimit())
	if !(red > blue) {
		return 0, nil
	}
	knots := ClipKnots(MergeKnots(s.waves, bp.WaveList()), blue, red)
	return Integrate(func(w float64) float64 { return s.Evaluate(w) * bp.Evaluate(w) }, knots, blue, red)
}

// WithFlux returns s rescaled so that its flux through bp is flux.
func (s *SED) WithFlux(flux float64, bp Throughput) (*SED, error) {
	cur, err := s.CalculateFlux(bp)
	if err != nil {
		return nil, err
	}
	if cur == 0 {
		return nil, ErrZeroFlux
	}
	return s.Mul(Constant(flux / cur)), nil
}
