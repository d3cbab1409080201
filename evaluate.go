package chromatic

import (
	"fmt"
	"sort"

	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/profile"
)

// EvaluateAtWavelength returns the monochromatic profile of n at wave,
// normalization included. It fails with ErrOutOfRange when wave lies outside
// the grid of an interpolated node in the tree.
func (n *Node) EvaluateAtWavelength(wave float64) (profile.Profile, error) {
	switch n.kind {
	case KindLeaf:
		return profile.ScaleFlux(n.prof, n.norm.At(wave)), nil

	case KindSum, KindConvolution:
		ps := make([]profile.Profile, len(n.children))
		for i, c := range n.children {
			p, err := c.EvaluateAtWavelength(wave)
			if err != nil {
				return nil, err
			}
			ps[i] = p
		}
		if n.kind == KindSum {
			return profile.Add(ps[0], ps[1:]...), nil
		}
		return profile.Convolve(ps[0], ps[1:]...), nil

	case KindTransform:
		p, err := n.children[0].EvaluateAtWavelength(wave)
		if err != nil {
			return nil, err
		}
		return n.xf.apply(p, wave)

	case KindDeconvolution, KindAutoConvolution, KindAutoCorrelation, KindFourierSqrt:
		p, err := n.children[0].EvaluateAtWavelength(wave)
		if err != nil {
			return nil, err
		}
		switch n.kind {
		case KindDeconvolution:
			return profile.Deconvolve(p), nil
		case KindAutoConvolution:
			return profile.AutoConvolve(p), nil
		case KindAutoCorrelation:
			return profile.AutoCorrelate(p), nil
		default:
			return profile.FourierSqrt(p), nil
		}

	case KindInterpolated:
		return n.grid.evaluate(wave)
	}
	return nil, fmt.Errorf("chromatic: unknown node kind %s", n.kind)
}

// bracket returns the grid interval [k, k+1] holding wave and the fractional
// position of wave inside it.
func (g *interpGrid) bracket(wave float64) (int, float64, error) {
	lo, hi := g.waves[0], g.waves[len(g.waves)-1]
	if !(wave >= lo && wave <= hi) {
		return 0, 0, fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfRange, wave, lo, hi)
	}
	k := sort.SearchFloat64s(g.waves, wave) - 1
	k = max(0, min(k, len(g.waves)-2))
	frac := (wave - g.waves[k]) / (g.waves[k+1] - g.waves[k])
	return k, frac, nil
}

// evaluate interpolates linearly between the two stored images around wave.
func (g *interpGrid) evaluate(wave float64) (profile.Profile, error) {
	k, frac, err := g.bracket(wave)
	if err != nil {
		return nil, err
	}
	img, err := image.Lerp(g.images[k], g.images[k+1], frac)
	if err != nil {
		return nil, err
	}
	stepK := frac*g.stepK[k+1] + (1-frac)*g.stepK[k]
	maxK := frac*g.maxK[k+1] + (1-frac)*g.maxK[k]
	return profile.NewInterpolatedImage(img, stepK, maxK)
}
