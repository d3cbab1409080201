package chromatic

import (
	"math"

	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

// drawConvolution draws an inseparable convolution. Sum factors are
// distributed first: (A+B)*C is drawn as A*C + B*C. A convolution without
// sums integrates its inseparable factors into one effective profile and
// convolves that with the separable factors, so the expensive convolution
// happens once rather than once per wavelength.
func (d *drawer) drawConvolution(n *Node, img *image.Image, add bool) error {
	for i, c := range n.children {
		if c.kind != KindSum {
			continue
		}
		d.debug("distribute", n)
		factors := make([]*Node, len(n.children))
		for j, term := range c.children {
			copy(factors, n.children)
			factors[i] = term
			conv, err := Convolve(factors...)
			if err != nil {
				return err
			}
			if err := d.draw(conv, img, add || j > 0); err != nil {
				return err
			}
		}
		return nil
	}

	d.debug("effective", n)
	var (
		spatial []profile.Profile
		insep   []*Node
	)
	sepNorm := Scalar(spectral.Constant(1.0))
	for _, c := range n.children {
		if !c.separable {
			insep = append(insep, c)
			continue
		}
		fid, w0, err := fiducial(c, d.bp)
		if err != nil {
			return err
		}
		spatial = append(spatial, profile.ScaleFlux(fid, 1/c.norm.At(w0)))
		sepNorm = sepNorm.times(c.norm)
	}

	eff, err := Convolve(insep...)
	if err != nil {
		return err
	}
	if sepNorm.HasSED() {
		eff, err = eff.WithSED(sepNorm.sed)
	} else {
		eff, err = eff.WithScaledFlux(sepNorm.scalar)
	}
	if err != nil {
		return err
	}

	prof, err := d.effectiveProfile(eff)
	if err != nil {
		return err
	}
	if s := d.opts.stats; s != nil {
		s.Path = "effective"
	}
	return renderInto(profile.Convolve(prof, spatial...), img, d.opts.method, add)
}

// effectiveProfile integrates n over the bandpass onto an oversampled grid
// and wraps the result as an achromatic profile. Results are cached unless
// the caller supplied its own integrator.
func (d *drawer) effectiveProfile(n *Node) (profile.Profile, error) {
	if d.opts.integrator != nil {
		return d.buildEffective(n)
	}
	key := effectiveKey{
		node:     n.key,
		bandpass: d.bp.ID(),
		iimult:   d.opts.iimult,
		wmult:    d.opts.wmult,
		rule:     d.rule,
	}
	p, hit, err := d.eng.effective.GetOrCreate(key, func() (profile.Profile, error) {
		return d.buildEffective(n)
	})
	if err != nil {
		return nil, err
	}
	Logger().Debug("chromatic: effective profile", "node", n.key, "hit", hit)
	if hit {
		d.record("effective", 0, false)
	}
	return p, nil
}

func (d *drawer) buildEffective(n *Node) (profile.Profile, error) {
	fid, _, err := fiducial(n, d.bp)
	if err != nil {
		return nil, err
	}
	scale := profile.NyquistScale(fid) / d.opts.iimult
	size := int(math.Ceil(float64(profile.GoodImageSize(fid, scale)) * d.opts.wmult))
	size += size % 2
	img, err := image.New(size, size, scale)
	if err != nil {
		return nil, err
	}

	sub := *d
	sub.opts.method = profile.MethodNoPixel
	if n.kind == KindConvolution {
		err = sub.drawGeneric(n, img, false)
	} else {
		err = sub.draw(n, img, false)
	}
	if err != nil {
		return nil, err
	}
	return profile.NewInterpolatedImage(img, 0, 0)
}
