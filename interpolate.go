package chromatic

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/integ"
	"github.com/gogpu/chromatic/profile"
)

// Interpolate precomputes n on a grid of wavelengths. The returned node
// answers evaluations and integrations by linear interpolation between the
// stored images and never extrapolates beyond the grid.
//
// All images share one pixel scale, the smallest Nyquist scale over the grid
// divided by the oversample factor (default 1), and one size, the largest
// suggested size at that scale. Images are rendered without pixel response.
// Existing interpolation in n is undone first.
func Interpolate(n *Node, waves []float64, opts ...InterpolateOption) (*Node, error) {
	o := interpolateOptions{oversample: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrInvalidComposition)
	}
	if !(o.oversample > 0) {
		return nil, fmt.Errorf("%w: oversample factor %g", profile.ErrInvalidParameter, o.oversample)
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	n = n.Deinterpolated()

	ws := slices.Clone(waves)
	slices.Sort(ws)
	ws = slices.Compact(ws)
	if len(ws) < 2 {
		return nil, fmt.Errorf("%w: interpolation needs at least two wavelengths, got %d", profile.ErrInvalidParameter, len(ws))
	}

	profs := make([]profile.Profile, len(ws))
	var eg errgroup.Group
	eg.SetLimit(o.workers)
	for i, w := range ws {
		eg.Go(func() error {
			p, err := n.EvaluateAtWavelength(w)
			profs[i] = p
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	scale := math.Inf(1)
	for _, p := range profs {
		scale = math.Min(scale, profile.NyquistScale(p))
	}
	scale /= o.oversample
	size := 0
	for _, p := range profs {
		size = max(size, profile.GoodImageSize(p, scale))
	}

	grid := &interpGrid{
		original: n,
		waves:    ws,
		images:   make([]*image.Image, len(ws)),
		stepK:    make([]float64, len(ws)),
		maxK:     make([]float64, len(ws)),
	}
	var rg errgroup.Group
	rg.SetLimit(o.workers)
	for i, p := range profs {
		rg.Go(func() error {
			img, err := profile.DrawImage(p,
				profile.WithScale(scale),
				profile.WithSize(size, size),
				profile.WithMethod(profile.MethodNoPixel))
			if err != nil {
				return fmt.Errorf("rendering at %g nm: %w", ws[i], err)
			}
			grid.images[i] = img
			grid.stepK[i] = p.StepK()
			grid.maxK[i] = p.MaxK()
			return nil
		})
	}
	if err := rg.Wait(); err != nil {
		return nil, err
	}
	Logger().Debug("chromatic: interpolation grid ready",
		"waves", len(ws), "scale", scale, "size", size)

	return &Node{
		kind:         KindInterpolated,
		separable:    n.separable,
		interpolated: true,
		waves:        n.waves,
		norm:         n.norm,
		key:          "interp#" + strconv.FormatUint(lastNodeID.Add(1), 10),
		grid:         grid,
	}, nil
}

// Grid returns the wavelengths of an interpolated node, or nil.
func (n *Node) Grid() []float64 {
	if n.grid == nil {
		return nil
	}
	return n.grid.waves
}

// drawInterpolated integrates the stored images of n over the bandpass.
func (d *drawer) drawInterpolated(n *Node, img *image.Image, add bool) error {
	d.debug("interpolated", n)
	p, err := d.interpIntegral(n.grid, n.waves, nil)
	if err != nil {
		return err
	}
	return renderInto(p, img, d.opts.method, add)
}

// drawTransformedInterpolated handles a transform whose geometry does not
// depend on wavelength over an interpolated node. Any wavelength-dependent
// flux ratio or SED weights the integral; the geometry is applied to the
// integrated profile.
func (d *drawer) drawTransformedInterpolated(n *Node, img *image.Image, add bool) error {
	d.debug("interpolated", n)
	t := n.xf
	p, err := d.interpIntegral(n.children[0].grid, n.waves, t.fluxAt)
	if err != nil {
		return err
	}
	red := d.bp.RedLimit()
	tp, err := profile.Transform(p, t.jac.At(red), t.offset.At(red), 1)
	if err != nil {
		return err
	}
	return renderInto(tp, img, d.opts.method, add)
}

// interpIntegral computes sum_i w_i T(l_i) f(l_i) I(l_i) where I is the
// linear interpolant of the stored images. Each sample spreads its weight
// over the two grid images around it. The frequency bounds are the most
// conservative ones over the images that received weight.
func (d *drawer) interpIntegral(g *interpGrid, nodeWaves []float64, factor func(float64) float64) (profile.Profile, error) {
	if d.opts.integrator != nil {
		return nil, fmt.Errorf("%w: interpolated nodes take a rule name, not an integrator", ErrUnknownQuadratureRule)
	}
	blue, red := d.bp.BlueLimit(), d.bp.RedLimit()
	var waves, weights []float64
	if knots := d.knots(nodeWaves); len(knots) > 0 {
		waves, weights = knots, d.rule.Weights(knots)
	} else {
		ci := integ.NewContinuousIntegrator(d.rule, integ.DefaultContinuousSamples)
		waves, weights = ci.Waves(blue, red), ci.Weights(blue, red)
	}

	gw := make([]float64, len(g.images))
	samples := 0
	for i, w := range waves {
		wt := weights[i] * d.bp.Evaluate(w)
		if factor != nil {
			wt *= factor(w)
		}
		if wt == 0 {
			continue
		}
		k, frac, err := g.bracket(w)
		if err != nil {
			return nil, err
		}
		gw[k] += wt * (1 - frac)
		gw[k+1] += wt * frac
		samples++
	}
	img, err := image.WeightedSum(gw, g.images)
	if err != nil {
		return nil, err
	}

	stepK, maxK := math.Inf(1), 0.0
	for i, wt := range gw {
		if wt != 0 {
			stepK = math.Min(stepK, g.stepK[i])
			maxK = math.Max(maxK, g.maxK[i])
		}
	}
	if math.IsInf(stepK, 1) {
		stepK = 0
	}
	d.record("interpolated", samples, false)
	return profile.NewInterpolatedImage(img, stepK, maxK)
}
