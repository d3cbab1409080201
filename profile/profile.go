// Package profile implements monochromatic surface-brightness profiles: a few
// analytic shapes, pixel-interpolated images, and the algebra that combines
// them (sums, convolutions, deconvolutions, affine transformations and
// Fourier-domain powers). Profiles render onto image.Image grids either by
// direct sampling or through an FFT of their Fourier transform.
//
// Conventions: the Fourier transform is F(k) = int f(x) exp(-i k.x) d^2x, so
// F(0) is the total flux.
package profile

import (
	"errors"
	"math"
)

// Common errors for profile construction.
var (
	// ErrInvalidParameter is returned when a size or flux parameter is out of range.
	ErrInvalidParameter = errors.New("profile: invalid parameter")

	// ErrSingularTransform is returned for a Jacobian with zero determinant.
	ErrSingularTransform = errors.New("profile: singular jacobian")
)

// Accuracy thresholds shared by the analytic profiles.
const (
	// maxKThreshold is the relative Fourier amplitude below which a profile
	// is treated as band-limited.
	maxKThreshold = 1e-3

	// foldingThreshold is the flux fraction allowed to alias across the
	// image boundary.
	foldingThreshold = 5e-3

	// stepKMinHLR is the minimum image half-size in half-light radii.
	stepKMinHLR = 5
)

// Profile is an achromatic surface-brightness distribution.
//
// Implementations are immutable and safe for concurrent use.
type Profile interface {
	// Flux returns the integrated flux.
	Flux() float64

	// XValue returns the surface brightness at (x, y).
	XValue(x, y float64) float64

	// KValue returns the Fourier transform at (kx, ky).
	KValue(kx, ky float64) complex128

	// MaxK returns the wavenumber beyond which KValue is negligible.
	MaxK() float64

	// StepK returns the k-space sampling interval needed to avoid folding,
	// pi over the radius that encloses nearly all the flux.
	StepK() float64

	// Centroid returns the flux-weighted center.
	Centroid() (float64, float64)

	// HasAnalyticX reports whether XValue is exact and cheap. Profiles
	// without it are rendered through k space.
	HasAnalyticX() bool

	String() string
}

// NyquistScale returns the largest pixel scale that samples p without
// aliasing.
func NyquistScale(p Profile) float64 {
	return math.Pi / p.MaxK()
}

// GoodImageSize returns an even image size that holds p at the given pixel
// scale without folding.
func GoodImageSize(p Profile, scale float64) int {
	n := int(math.Ceil(2 * math.Pi / (p.StepK() * scale)))
	if n < 2 {
		n = 2
	}
	if n%2 == 1 {
		n++
	}
	return n
}

// WithFlux returns p rescaled to the given total flux.
func WithFlux(p Profile, flux float64) Profile {
	f := p.Flux()
	if f == flux {
		return p
	}
	if f == 0 {
		return p
	}
	return ScaleFlux(p, flux/f)
}

// ScaleFlux multiplies the surface brightness of p by r.
func ScaleFlux(p Profile, r float64) Profile {
	if r == 1 {
		return p
	}
	t, _ := Transform(p, IdentityJacobian(), Offset{}, r)
	return t
}
