package scene

import (
	"fmt"
	"math"

	"github.com/gogpu/chromatic"
	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

// Built is a scene ready to draw.
type Built struct {
	Node     *chromatic.Node
	Bandpass *spectral.Bandpass
	SEDs     map[string]*spectral.SED
}

// Build constructs the bandpass, SEDs, objects and draw expression.
func (s *Scene) Build() (*Built, error) {
	bp, err := s.Bandpass.build()
	if err != nil {
		return nil, err
	}
	b := &builder{scene: s, bp: bp, seds: make(map[string]*spectral.SED, len(s.SEDs))}
	for name, spec := range s.SEDs {
		sed, err := spec.build(bp)
		if err != nil {
			return nil, fmt.Errorf("sed %q: %w", name, err)
		}
		b.seds[name] = sed
	}
	n, err := b.expr(s.Draw)
	if err != nil {
		return nil, err
	}
	return &Built{Node: n, Bandpass: bp, SEDs: b.seds}, nil
}

func (b BandpassSpec) build() (*spectral.Bandpass, error) {
	switch b.Type {
	case "tophat", "":
		t := b.Throughput
		if t == 0 {
			t = 1
		}
		return spectral.TopHat(b.Blue, b.Red, t)
	case "tabulated":
		return spectral.TabulatedBandpass(b.Waves, b.Values)
	default:
		return nil, fmt.Errorf("%w: unknown bandpass type %q", ErrInvalidScene, b.Type)
	}
}

func (s SEDSpec) build(bp *spectral.Bandpass) (*spectral.SED, error) {
	var (
		sed *spectral.SED
		err error
	)
	switch s.Type {
	case "constant":
		sed = spectral.ConstantSED(s.Value)
	case "powerlaw":
		if !(s.Wave0 > 0) {
			return nil, fmt.Errorf("%w: powerlaw wave0 %g", ErrInvalidScene, s.Wave0)
		}
		blue, red := s.Blue, s.Red
		if red == 0 {
			red = math.Inf(1)
		}
		sed = spectral.PowerLawSED(s.Wave0, s.Index, blue, red)
	case "tabulated":
		sed, err = spectral.TabulatedSED(s.Waves, s.Values)
	default:
		return nil, fmt.Errorf("%w: unknown sed type %q", ErrInvalidScene, s.Type)
	}
	if err != nil {
		return nil, err
	}
	if s.Flux != nil {
		return sed.WithFlux(*s.Flux, bp)
	}
	return sed, nil
}

func (c *Chromatic) waveFunc() spectral.WaveFunc[float64] {
	v := 1.0
	if c.Value != nil {
		v = *c.Value
	}
	if c.Reference <= 0 || c.Index == 0 {
		return spectral.Constant(v)
	}
	ref, idx := c.Reference, c.Index
	return spectral.Varying(func(w float64) float64 { return v * math.Pow(w/ref, idx) })
}

type builder struct {
	scene *Scene
	bp    *spectral.Bandpass
	seds  map[string]*spectral.SED
}

func (b *builder) object(name string) (*chromatic.Node, error) {
	o := b.scene.Objects[name]
	flux := 1.0
	if o.Flux != nil {
		flux = *o.Flux
	}
	var sed *spectral.SED
	if o.SED != "" {
		sed = b.seds[o.SED]
	}

	var (
		n   *chromatic.Node
		err error
	)
	switch o.Type {
	case "gaussian", "exponential":
		var p profile.Profile
		if o.Type == "gaussian" {
			p, err = profile.NewGaussian(o.Sigma, flux)
		} else {
			p, err = profile.NewExponential(o.ScaleRadius, flux)
		}
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}
		n = chromatic.New(p, sed)
		sed = nil
	case "airy":
		n, err = chromatic.Airy(o.LamOverDiam, o.Lam)
	case "atmosphere":
		n, err = b.atmosphere(o)
	default:
		return nil, fmt.Errorf("%w: object %q: unknown type %q", ErrInvalidScene, name, o.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", name, err)
	}
	if sed != nil {
		if n, err = n.WithSED(sed); err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}
	}
	if o.Transform != nil {
		if n, err = o.Transform.apply(n); err != nil {
			return nil, fmt.Errorf("object %q: %w", name, err)
		}
	}
	return n, nil
}

func (b *builder) atmosphere(o ObjectSpec) (*chromatic.Node, error) {
	base, err := profile.NewGaussian(o.Sigma, 1)
	if err != nil {
		return nil, err
	}
	params := chromatic.DefaultAtmosphereParams()
	if o.Alpha != nil {
		params.Alpha = *o.Alpha
	}
	params.ZenithAngle = o.ZenithAngle * math.Pi / 180
	params.ParallacticAngle = o.ParallacticAngle * math.Pi / 180
	w0 := o.BaseWavelength
	if w0 == 0 {
		w0 = b.bp.EffectiveWavelength()
	}
	return chromatic.Atmosphere(base, w0, params)
}

func (t *TransformSpec) apply(n *chromatic.Node) (*chromatic.Node, error) {
	var err error
	if t.Dilate != nil {
		if n, err = n.Dilate(t.Dilate.waveFunc()); err != nil {
			return nil, err
		}
	}
	if t.Expand != nil {
		if n, err = n.Expand(t.Expand.waveFunc()); err != nil {
			return nil, err
		}
	}
	if t.Shear != nil {
		if len(t.Shear) != 2 {
			return nil, fmt.Errorf("%w: shear wants [g1, g2], got %v", ErrInvalidScene, t.Shear)
		}
		if n, err = n.Shear(t.Shear[0], t.Shear[1]); err != nil {
			return nil, err
		}
	}
	if t.Rotate != 0 {
		if n, err = n.Rotate(spectral.Constant(t.Rotate * math.Pi / 180)); err != nil {
			return nil, err
		}
	}
	if t.Shift != nil {
		if len(t.Shift) != 2 {
			return nil, fmt.Errorf("%w: shift wants [x, y], got %v", ErrInvalidScene, t.Shift)
		}
		off := profile.Offset{X: t.Shift[0], Y: t.Shift[1]}
		if n, err = n.Shift(spectral.Constant(off)); err != nil {
			return nil, err
		}
	}
	if t.ScaleFlux != nil {
		if n, err = n.WithScaledFlux(t.ScaleFlux.waveFunc()); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *builder) exprs(es []*Expr) ([]*chromatic.Node, error) {
	out := make([]*chromatic.Node, len(es))
	for i, e := range es {
		n, err := b.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (b *builder) expr(e *Expr) (*chromatic.Node, error) {
	var (
		n   *chromatic.Node
		err error
	)
	unary := func(c *Expr, op func(*chromatic.Node) (*chromatic.Node, error)) (*chromatic.Node, error) {
		in, err := b.expr(c)
		if err != nil {
			return nil, err
		}
		return op(in)
	}
	switch {
	case e.Ref != "":
		n, err = b.object(e.Ref)
	case e.Add != nil:
		var terms []*chromatic.Node
		if terms, err = b.exprs(e.Add); err == nil {
			n, err = chromatic.Add(terms...)
		}
	case e.Convolve != nil:
		var factors []*chromatic.Node
		if factors, err = b.exprs(e.Convolve); err == nil {
			n, err = chromatic.Convolve(factors...)
		}
	case e.Deconvolve != nil:
		n, err = unary(e.Deconvolve, chromatic.Deconvolve)
	case e.AutoConvolve != nil:
		n, err = unary(e.AutoConvolve, chromatic.AutoConvolve)
	case e.AutoCorrelate != nil:
		n, err = unary(e.AutoCorrelate, chromatic.AutoCorrelate)
	case e.Sqrt != nil:
		n, err = unary(e.Sqrt, chromatic.FourierSqrt)
	default:
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidScene)
	}
	if err != nil {
		return nil, err
	}

	if e.Transform != nil {
		if n, err = e.Transform.apply(n); err != nil {
			return nil, err
		}
	}
	if e.SED != "" {
		if n, err = n.WithSED(b.seds[e.SED]); err != nil {
			return nil, err
		}
	}
	if in := e.Interpolate; in != nil {
		var opts []chromatic.InterpolateOption
		if in.Oversample > 0 {
			opts = append(opts, chromatic.WithOversample(in.Oversample))
		}
		if n, err = chromatic.Interpolate(n, in.Waves, opts...); err != nil {
			return nil, err
		}
	}
	return n, nil
}
