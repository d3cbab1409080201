package profile

import (
	"fmt"
	"math"
)

// Gaussian is a circular Gaussian with standard deviation Sigma.
type Gaussian struct {
	sigma float64
	flux  float64
}

// NewGaussian returns a Gaussian profile.
func NewGaussian(sigma, flux float64) (*Gaussian, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: gaussian sigma %v", ErrInvalidParameter, sigma)
	}
	return &Gaussian{sigma: sigma, flux: flux}, nil
}

// Sigma returns the standard deviation.
func (g *Gaussian) Sigma() float64 { return g.sigma }

func (g *Gaussian) Flux() float64 { return g.flux }

func (g *Gaussian) XValue(x, y float64) float64 {
	s2 := g.sigma * g.sigma
	return g.flux / (2 * math.Pi * s2) * math.Exp(-(x*x+y*y)/(2*s2))
}

func (g *Gaussian) KValue(kx, ky float64) complex128 {
	return complex(g.flux*math.Exp(-(kx*kx+ky*ky)*g.sigma*g.sigma/2), 0)
}

func (g *Gaussian) MaxK() float64 {
	return math.Sqrt(-2*math.Log(maxKThreshold)) / g.sigma
}

func (g *Gaussian) StepK() float64 {
	const hlr = 1.1774100225154747 // sqrt(2 ln 2)
	r := math.Max(math.Sqrt(-2*math.Log(foldingThreshold)), stepKMinHLR*hlr)
	return math.Pi / (r * g.sigma)
}

func (g *Gaussian) Centroid() (float64, float64) { return 0, 0 }
func (g *Gaussian) HasAnalyticX() bool           { return true }

func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian(sigma=%g, flux=%g)", g.sigma, g.flux)
}

// Exponential is a circular exponential disk with scale radius R0.
type Exponential struct {
	r0   float64
	flux float64
}

// NewExponential returns an exponential disk profile.
func NewExponential(scaleRadius, flux float64) (*Exponential, error) {
	if !(scaleRadius > 0) || math.IsInf(scaleRadius, 0) {
		return nil, fmt.Errorf("%w: exponential scale radius %v", ErrInvalidParameter, scaleRadius)
	}
	return &Exponential{r0: scaleRadius, flux: flux}, nil
}

// ScaleRadius returns the scale radius.
func (e *Exponential) ScaleRadius() float64 { return e.r0 }

func (e *Exponential) Flux() float64 { return e.flux }

func (e *Exponential) XValue(x, y float64) float64 {
	return e.flux / (2 * math.Pi * e.r0 * e.r0) * math.Exp(-math.Hypot(x, y)/e.r0)
}

func (e *Exponential) KValue(kx, ky float64) complex128 {
	t := 1 + (kx*kx+ky*ky)*e.r0*e.r0
	return complex(e.flux/(t*math.Sqrt(t)), 0)
}

func (e *Exponential) MaxK() float64 {
	return math.Sqrt(math.Pow(maxKThreshold, -2.0/3)-1) / e.r0
}

func (e *Exponential) StepK() float64 {
	const hlr = 1.6783469900166605
	// Solve (1+R) exp(-R) = foldingThreshold.
	r := -math.Log(foldingThreshold)
	for range 20 {
		f := (1+r)*math.Exp(-r) - foldingThreshold
		r += f / (r * math.Exp(-r))
	}
	return math.Pi / (math.Max(r, stepKMinHLR*hlr) * e.r0)
}

func (e *Exponential) Centroid() (float64, float64) { return 0, 0 }
func (e *Exponential) HasAnalyticX() bool           { return true }

func (e *Exponential) String() string {
	return fmt.Sprintf("Exponential(r0=%g, flux=%g)", e.r0, e.flux)
}

// Airy is the diffraction pattern of an unobstructed circular aperture.
// LamOverDiam is lambda/D in the same units as image coordinates.
type Airy struct {
	lod  float64
	flux float64
}

// NewAiry returns an Airy profile.
func NewAiry(lamOverDiam, flux float64) (*Airy, error) {
	if !(lamOverDiam > 0) || math.IsInf(lamOverDiam, 0) {
		return nil, fmt.Errorf("%w: airy lambda/D %v", ErrInvalidParameter, lamOverDiam)
	}
	return &Airy{lod: lamOverDiam, flux: flux}, nil
}

// LamOverDiam returns lambda/D.
func (a *Airy) LamOverDiam() float64 { return a.lod }

func (a *Airy) Flux() float64 { return a.flux }

func (a *Airy) XValue(x, y float64) float64 {
	i0 := a.flux * math.Pi / (4 * a.lod * a.lod)
	u := math.Pi * math.Hypot(x, y) / a.lod
	if u < 1e-8 {
		return i0
	}
	j := 2 * math.J1(u) / u
	return i0 * j * j
}

// KValue is the optical transfer function of a filled circular pupil.
func (a *Airy) KValue(kx, ky float64) complex128 {
	rho := math.Hypot(kx, ky) / a.MaxK()
	if rho >= 1 {
		return 0
	}
	otf := 2 / math.Pi * (math.Acos(rho) - rho*math.Sqrt(1-rho*rho))
	return complex(a.flux*otf, 0)
}

func (a *Airy) MaxK() float64 {
	return 2 * math.Pi / a.lod
}

func (a *Airy) StepK() float64 {
	const hlr = 0.5145
	// The enclosed flux outside r approaches 2 lambda/D / (pi^2 r).
	r := math.Max(2/(math.Pi*math.Pi*foldingThreshold), stepKMinHLR*hlr)
	return math.Pi / (r * a.lod)
}

func (a *Airy) Centroid() (float64, float64) { return 0, 0 }
func (a *Airy) HasAnalyticX() bool           { return true }

func (a *Airy) String() string {
	return fmt.Sprintf("Airy(lam/D=%g, flux=%g)", a.lod, a.flux)
}
