package spectral

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBandpass is returned for empty or reversed wavelength ranges.
var ErrInvalidBandpass = errors.New("spectral: invalid bandpass")

// Bandpass is a filter transmission curve with finite support.
type Bandpass struct {
	id      uint64
	name    string
	fn      func(float64) float64
	waves   []float64
	blue    float64
	red     float64
	effWave float64
}

// TopHat returns a bandpass with constant throughput on [blue, red]. It has
// no wavelength knots.
func TopHat(blue, red, throughput float64) (*Bandpass, error) {
	if !(red > blue) || blue < 0 {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidBandpass, blue, red)
	}
	return &Bandpass{
		id:      nextID(),
		name:    fmt.Sprintf("TopHat(%g, %g)", blue, red),
		fn:      func(float64) float64 { return throughput },
		blue:    blue,
		red:     red,
		effWave: 0.5 * (blue + red),
	}, nil
}

// NewBandpass wraps an analytic throughput on [blue, red].
func NewBandpass(fn func(float64) float64, blue, red float64) (*Bandpass, error) {
	if !(red > blue) || blue < 0 || fn == nil {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidBandpass, blue, red)
	}
	b := &Bandpass{id: nextID(), fn: fn, blue: blue, red: red}
	b.name = fmt.Sprintf("Bandpass#%d", b.id)
	if err := b.computeEffective(); err != nil {
		return nil, err
	}
	return b, nil
}

// TabulatedBandpass interpolates throughput linearly between waves. The
// sample wavelengths become the bandpass knots.
func TabulatedBandpass(waves, throughput []float64) (*Bandpass, error) {
	t, err := NewLookupTable(waves, throughput)
	if err != nil {
		return nil, err
	}
	b := &Bandpass{
		id:    nextID(),
		fn:    t.At,
		waves: t.X(),
		blue:  t.Min(),
		red:   t.Max(),
	}
	b.name = fmt.Sprintf("Tabulated(%g..%g, %d knots)", b.blue, b.red, len(b.waves))
	if err := b.computeEffective(); err != nil {
		return nil, err
	}
	return b, nil
}

// effective wavelength = int(w*T) / int(T).
func (b *Bandpass) computeEffective() error {
	weighted := func(w float64) float64 { return w * b.fn(w) }
	var num float64
	if len(b.waves) > 0 {
		// w*T is quadratic between knots; Simpson is exact there.
		for i := 1; i < len(b.waves); i++ {
			lo, hi := b.waves[i-1], b.waves[i]
			num += (hi - lo) / 6 * (weighted(lo) + 4*weighted(0.5*(lo+hi)) + weighted(hi))
		}
	} else {
		var err error
		num, err = Integrate(weighted, nil, b.blue, b.red)
		if err != nil {
			return fmt.Errorf("spectral: effective wavelength: %w", err)
		}
	}
	den, err := Integrate(b.fn, b.waves, b.blue, b.red)
	if err != nil {
		return fmt.Errorf("spectral: effective wavelength: %w", err)
	}
	if den == 0 || math.IsNaN(num/den) {
		return fmt.Errorf("%w: zero total throughput", ErrInvalidBandpass)
	}
	b.effWave = num / den
	return nil
}

// ID returns the interned identity used in cache keys.
func (b *Bandpass) ID() uint64 { return b.id }

// Evaluate returns the throughput at wave, 0 outside the support.
func (b *Bandpass) Evaluate(wave float64) float64 {
	if wave < b.blue || wave > b.red {
		return 0
	}
	return b.fn(wave)
}

// BlueLimit returns the short-wavelength end of the support.
func (b *Bandpass) BlueLimit() float64 { return b.blue }

// RedLimit returns the long-wavelength end of the support.
func (b *Bandpass) RedLimit() float64 { return b.red }

// WaveList returns the knots of a tabulated bandpass, nil otherwise.
func (b *Bandpass) WaveList() []float64 { return b.waves }

// EffectiveWavelength returns the throughput-weighted mean wavelength.
func (b *Bandpass) EffectiveWavelength() float64 { return b.effWave }

// String implements fmt.Stringer.
func (b *Bandpass) String() string { return b.name }
