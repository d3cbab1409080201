package chromatic

import (
	"fmt"
	"math"

	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

const arcsecPerRadian = 180 * 3600 / math.Pi

// AtmosphereParams describes the observing conditions of Atmosphere.
type AtmosphereParams struct {
	// Alpha is the power-law index of seeing size with wavelength.
	Alpha float64

	// ZenithAngle and ParallacticAngle are in radians.
	ZenithAngle      float64
	ParallacticAngle float64

	// Pressure and H2OPressure are in kPa, Temperature in kelvin.
	Pressure    float64
	Temperature float64
	H2OPressure float64
}

// DefaultAtmosphereParams returns Kolmogorov seeing at zenith under
// typical mountain-top conditions.
func DefaultAtmosphereParams() AtmosphereParams {
	return AtmosphereParams{
		Alpha:       -0.2,
		Pressure:    69.328,
		Temperature: 293.15,
		H2OPressure: 1.067,
	}
}

// Atmosphere returns a chromatic PSF built from the monochromatic profile
// base observed at baseWavelength. Its size scales as (w/w0)^alpha, keeping
// the flux, and it is shifted by differential chromatic refraction along the
// parallactic angle, relative to the position at baseWavelength. Profile
// coordinates are taken to be arcseconds.
func Atmosphere(base profile.Profile, baseWavelength float64, params AtmosphereParams) (*Node, error) {
	if !(baseWavelength > 0) {
		return nil, fmt.Errorf("%w: base wavelength %g", profile.ErrInvalidParameter, baseWavelength)
	}
	r0 := refraction(baseWavelength, params)
	sinp, cosp := math.Sincos(params.ParallacticAngle)
	alpha := params.Alpha

	jac := spectral.Varying(func(w float64) profile.Jacobian {
		return profile.Scaling(math.Pow(w/baseWavelength, alpha))
	})
	offset := spectral.Varying(func(w float64) profile.Offset {
		dr := (refraction(w, params) - r0) * arcsecPerRadian
		return profile.Offset{X: -dr * sinp, Y: dr * cosp}
	})
	ratio := spectral.Varying(func(w float64) float64 {
		return math.Pow(w/baseWavelength, -2*alpha)
	})
	return Transform(Achromatic(base), jac, offset, ratio)
}

// refraction returns the angular displacement toward the zenith, in radians,
// of light of the given wavelength in nm.
func refraction(wave float64, p AtmosphereParams) float64 {
	nm1 := airIndexMinusOne(wave, p)
	r0 := nm1 * (nm1 + 2) / 2 / (nm1*nm1 + 2*nm1 + 1)
	return r0 * math.Tan(p.ZenithAngle)
}

// airIndexMinusOne is the refractive index of moist air minus one.
func airIndexMinusOne(wave float64, p AtmosphereParams) float64 {
	const kPaToMmHg = 7.50061683
	pr := p.Pressure * kPaToMmHg
	t := p.Temperature - 273.15
	w := p.H2OPressure * kPaToMmHg
	sigma2 := 1 / ((wave * 1e-3) * (wave * 1e-3))

	n := (64.328 + 29498.1/(146-sigma2) + 255.4/(41-sigma2)) * 1e-6
	n *= pr * (1 + (1.049-0.0157*t)*1e-6*pr) / (720.883 * (1 + 0.003661*t))
	n -= (0.0624 - 0.000680*sigma2) / (1 + 0.003661*t) * w * 1e-6
	return n
}

// Airy returns the diffraction-limited PSF of a circular aperture whose
// first-zero scale is lamOverDiam at wavelength lam and grows linearly with
// wavelength.
func Airy(lamOverDiam, lam float64) (*Node, error) {
	if !(lam > 0) {
		return nil, fmt.Errorf("%w: wavelength %g", profile.ErrInvalidParameter, lam)
	}
	a, err := profile.NewAiry(lamOverDiam, 1)
	if err != nil {
		return nil, err
	}
	return Achromatic(a).Dilate(spectral.Varying(func(w float64) float64 { return w / lam }))
}
