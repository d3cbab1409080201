package profile

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Sum is the pointwise sum of its terms.
type Sum struct {
	terms []Profile
}

// Add returns the sum of the given profiles. A single profile is returned
// unchanged.
func Add(first Profile, rest ...Profile) Profile {
	if len(rest) == 0 {
		return first
	}
	terms := make([]Profile, 0, 1+len(rest))
	for _, p := range append([]Profile{first}, rest...) {
		if s, ok := p.(*Sum); ok {
			terms = append(terms, s.terms...)
			continue
		}
		terms = append(terms, p)
	}
	return &Sum{terms: terms}
}

// Terms returns the summands.
func (s *Sum) Terms() []Profile { return s.terms }

func (s *Sum) Flux() float64 {
	var f float64
	for _, p := range s.terms {
		f += p.Flux()
	}
	return f
}

func (s *Sum) XValue(x, y float64) float64 {
	var v float64
	for _, p := range s.terms {
		v += p.XValue(x, y)
	}
	return v
}

func (s *Sum) KValue(kx, ky float64) complex128 {
	var v complex128
	for _, p := range s.terms {
		v += p.KValue(kx, ky)
	}
	return v
}

func (s *Sum) MaxK() float64 {
	m := 0.0
	for _, p := range s.terms {
		m = math.Max(m, p.MaxK())
	}
	return m
}

func (s *Sum) StepK() float64 {
	m := math.Inf(1)
	for _, p := range s.terms {
		m = math.Min(m, p.StepK())
	}
	return m
}

func (s *Sum) Centroid() (float64, float64) {
	var f, cx, cy float64
	for _, p := range s.terms {
		pf := p.Flux()
		x, y := p.Centroid()
		f += pf
		cx += pf * x
		cy += pf * y
	}
	if f == 0 {
		return 0, 0
	}
	return cx / f, cy / f
}

func (s *Sum) HasAnalyticX() bool {
	for _, p := range s.terms {
		if !p.HasAnalyticX() {
			return false
		}
	}
	return true
}

func (s *Sum) String() string { return joinProfiles("Sum", s.terms) }

// Convolution is the convolution of its factors.
type Convolution struct {
	factors []Profile
}

// Convolve returns the convolution of the given profiles. Nested convolutions
// are flattened.
func Convolve(first Profile, rest ...Profile) Profile {
	if len(rest) == 0 {
		return first
	}
	factors := make([]Profile, 0, 1+len(rest))
	for _, p := range append([]Profile{first}, rest...) {
		if c, ok := p.(*Convolution); ok {
			factors = append(factors, c.factors...)
			continue
		}
		factors = append(factors, p)
	}
	return &Convolution{factors: factors}
}

// Factors returns the convolved profiles.
func (c *Convolution) Factors() []Profile { return c.factors }

func (c *Convolution) Flux() float64 {
	f := 1.0
	for _, p := range c.factors {
		f *= p.Flux()
	}
	return f
}

// XValue integrates the convolution numerically through k space and is
// expensive; prefer rendering.
func (c *Convolution) XValue(x, y float64) float64 {
	return xValueFromK(c, x, y)
}

func (c *Convolution) KValue(kx, ky float64) complex128 {
	v := complex(1, 0)
	for _, p := range c.factors {
		v *= p.KValue(kx, ky)
	}
	return v
}

func (c *Convolution) MaxK() float64 {
	m := math.Inf(1)
	for _, p := range c.factors {
		m = math.Min(m, p.MaxK())
	}
	return m
}

// StepK adds the factor sizes in quadrature.
func (c *Convolution) StepK() float64 {
	var inv float64
	for _, p := range c.factors {
		s := p.StepK()
		inv += 1 / (s * s)
	}
	return 1 / math.Sqrt(inv)
}

func (c *Convolution) Centroid() (float64, float64) {
	var cx, cy float64
	for _, p := range c.factors {
		x, y := p.Centroid()
		cx += x
		cy += y
	}
	return cx, cy
}

func (c *Convolution) HasAnalyticX() bool { return false }

func (c *Convolution) String() string { return joinProfiles("Convolution", c.factors) }

// kOp identifies a pointwise operation in Fourier space.
type kOp uint8

const (
	opDeconvolve kOp = iota
	opAutoConvolve
	opAutoCorrelate
	opSqrt
)

var kOpNames = [...]string{"Deconvolution", "AutoConvolution", "AutoCorrelation", "FourierSqrt"}

// KOperation applies a pointwise operation to the Fourier transform of a
// single profile.
type KOperation struct {
	op  kOp
	src Profile
}

// Deconvolve returns the profile whose convolution with p is a delta
// function. The result is cut off beyond p.MaxK().
func Deconvolve(p Profile) *KOperation { return &KOperation{op: opDeconvolve, src: p} }

// AutoConvolve returns p convolved with itself.
func AutoConvolve(p Profile) *KOperation { return &KOperation{op: opAutoConvolve, src: p} }

// AutoCorrelate returns p convolved with its reflection through the origin.
func AutoCorrelate(p Profile) *KOperation { return &KOperation{op: opAutoCorrelate, src: p} }

// FourierSqrt returns the profile whose auto-convolution is p.
func FourierSqrt(p Profile) *KOperation { return &KOperation{op: opSqrt, src: p} }

// Source returns the operand.
func (o *KOperation) Source() Profile { return o.src }

func (o *KOperation) Flux() float64 {
	f := o.src.Flux()
	switch o.op {
	case opDeconvolve:
		return 1 / f
	case opSqrt:
		return math.Sqrt(f)
	default:
		return f * f
	}
}

func (o *KOperation) XValue(x, y float64) float64 { return xValueFromK(o, x, y) }

func (o *KOperation) KValue(kx, ky float64) complex128 {
	v := o.src.KValue(kx, ky)
	switch o.op {
	case opDeconvolve:
		m := o.src.MaxK()
		if v == 0 || kx*kx+ky*ky > m*m {
			return 0
		}
		return 1 / v
	case opAutoConvolve:
		return v * v
	case opAutoCorrelate:
		a := cmplx.Abs(v)
		return complex(a*a, 0)
	default:
		return cmplx.Sqrt(v)
	}
}

func (o *KOperation) MaxK() float64 { return o.src.MaxK() }

func (o *KOperation) StepK() float64 {
	switch o.op {
	case opAutoConvolve, opAutoCorrelate:
		return o.src.StepK() / math.Sqrt2
	default:
		return o.src.StepK()
	}
}

func (o *KOperation) Centroid() (float64, float64) {
	x, y := o.src.Centroid()
	switch o.op {
	case opDeconvolve:
		return -x, -y
	case opAutoConvolve:
		return 2 * x, 2 * y
	case opAutoCorrelate:
		return 0, 0
	default:
		return x / 2, y / 2
	}
}

func (o *KOperation) HasAnalyticX() bool { return false }

func (o *KOperation) String() string {
	return fmt.Sprintf("%s(%s)", kOpNames[o.op], o.src)
}

// Transformation applies an affine map and a surface-brightness ratio:
//
//	f'(x) = ratio * f(J^-1 (x - offset))
//
// so the total flux becomes ratio * |det J| * flux.
type Transformation struct {
	src    Profile
	jac    Jacobian
	inv    Jacobian
	det    float64
	offset Offset
	ratio  float64
}

// Transform applies (jac, offset, ratio) to p. A transformation of a
// transformation is collapsed into one.
func Transform(p Profile, jac Jacobian, offset Offset, ratio float64) (*Transformation, error) {
	if t, ok := p.(*Transformation); ok {
		// x -> J2 (J1 x + o1) + o2
		jac, offset, ratio = jac.Multiply(t.jac), jac.ApplyOffset(t.offset).Add(offset), ratio*t.ratio
		p = t.src
	}
	inv, ok := jac.Invert()
	if !ok {
		return nil, fmt.Errorf("%w: %+v", ErrSingularTransform, jac)
	}
	return &Transformation{
		src:    p,
		jac:    jac,
		inv:    inv,
		det:    math.Abs(jac.Det()),
		offset: offset,
		ratio:  ratio,
	}, nil
}

// Source returns the untransformed profile.
func (t *Transformation) Source() Profile { return t.src }

// Jacobian returns the linear part of the map.
func (t *Transformation) Jacobian() Jacobian { return t.jac }

// Offset returns the translation.
func (t *Transformation) Offset() Offset { return t.offset }

// FluxRatio returns the surface-brightness ratio.
func (t *Transformation) FluxRatio() float64 { return t.ratio }

func (t *Transformation) Flux() float64 { return t.ratio * t.det * t.src.Flux() }

func (t *Transformation) XValue(x, y float64) float64 {
	u, v := t.inv.Apply(x-t.offset.X, y-t.offset.Y)
	return t.ratio * t.src.XValue(u, v)
}

func (t *Transformation) KValue(kx, ky float64) complex128 {
	u, v := t.jac.ApplyTranspose(kx, ky)
	val := complex(t.ratio*t.det, 0) * t.src.KValue(u, v)
	if t.offset.IsZero() {
		return val
	}
	return val * cmplx.Exp(complex(0, -(kx*t.offset.X + ky*t.offset.Y)))
}

func (t *Transformation) MaxK() float64 {
	_, lo := t.jac.SingularValues()
	return t.src.MaxK() / lo
}

func (t *Transformation) StepK() float64 {
	hi, _ := t.jac.SingularValues()
	r := math.Pi/t.src.StepK()*hi + t.offset.Norm()
	return math.Pi / r
}

func (t *Transformation) Centroid() (float64, float64) {
	x, y := t.src.Centroid()
	x, y = t.jac.Apply(x, y)
	return x + t.offset.X, y + t.offset.Y
}

func (t *Transformation) HasAnalyticX() bool { return t.src.HasAnalyticX() }

func (t *Transformation) String() string {
	return fmt.Sprintf("Transformation(%s, jac=%+v, offset=%+v, ratio=%g)", t.src, t.jac, t.offset, t.ratio)
}

func joinProfiles(name string, ps []Profile) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// xValueFromK evaluates one real-space sample by summing the Fourier
// transform on a grid fine enough for the profile's extent.
func xValueFromK(p Profile, x, y float64) float64 {
	maxK, stepK := p.MaxK(), p.StepK()
	n := int(math.Ceil(maxK / stepK))
	var sum float64
	for iy := -n; iy <= n; iy++ {
		ky := float64(iy) * stepK
		for ix := -n; ix <= n; ix++ {
			kx := float64(ix) * stepK
			sum += real(p.KValue(kx, ky) * cmplx.Exp(complex(0, kx*x+ky*y)))
		}
	}
	return sum * stepK * stepK / (4 * math.Pi * math.Pi)
}
