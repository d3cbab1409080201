package chromatic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/integ"
	"github.com/gogpu/chromatic/internal/cache"
	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

// CacheStats reports the occupancy and hit counts of an engine cache.
type CacheStats = cache.Stats

type multiplierKey struct {
	norm     string
	bandpass uint64
	knots    string
}

type effectiveKey struct {
	node     string
	bandpass uint64
	iimult   float64
	wmult    float64
	rule     integ.Rule
}

// Engine draws chromatic nodes through a bandpass. It owns two bounded LRU
// caches: spectral integrals for separable nodes and wavelength-integrated
// effective profiles for convolutions. Cached values are pure functions of
// their keys, so eviction never changes results.
//
// An Engine is safe for concurrent use.
type Engine struct {
	multipliers *cache.Cache[multiplierKey, float64]
	effective   *cache.Cache[effectiveKey, profile.Profile]
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m, err := cache.New[multiplierKey, float64](o.multiplierSize)
	if err != nil {
		return nil, fmt.Errorf("%w: multiplier cache: %d", ErrInvalidCacheSize, o.multiplierSize)
	}
	e, err := cache.New[effectiveKey, profile.Profile](o.effectiveSize)
	if err != nil {
		return nil, fmt.Errorf("%w: effective profile cache: %d", ErrInvalidCacheSize, o.effectiveSize)
	}
	return &Engine{multipliers: m, effective: e}, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, _ := NewEngine()
	return e
})

// Default returns the process-wide engine used by Node.DrawImage.
func Default() *Engine { return defaultEngine() }

// ResizeMultiplierCache changes the capacity of the spectral integral cache.
func (e *Engine) ResizeMultiplierCache(n int) error {
	if err := e.multipliers.Resize(n); err != nil {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, n)
	}
	return nil
}

// ResizeEffectiveProfileCache changes the capacity of the effective profile
// cache.
func (e *Engine) ResizeEffectiveProfileCache(n int) error {
	if err := e.effective.Resize(n); err != nil {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, n)
	}
	return nil
}

// MultiplierCacheStats returns statistics of the spectral integral cache.
func (e *Engine) MultiplierCacheStats() CacheStats { return e.multipliers.Stats() }

// EffectiveProfileCacheStats returns statistics of the effective profile
// cache.
func (e *Engine) EffectiveProfileCacheStats() CacheStats { return e.effective.Stats() }

// DrawImage draws n through the default engine.
func (n *Node) DrawImage(bp *spectral.Bandpass, opts ...DrawOption) (*image.Image, error) {
	return Default().DrawImage(n, bp, opts...)
}

// DrawImage integrates n times the bandpass throughput over wavelength and
// renders the result. Pixel values are photons per pixel.
//
// Separable nodes are rendered once, scaled by a cached spectral integral.
// Sums are drawn term by term and convolutions containing sums are
// distributed over them. Other convolutions integrate only their inseparable
// factors over wavelength and convolve the result with the separable ones.
// Everything else is sampled at the quadrature wavelengths.
func (e *Engine) DrawImage(n *Node, bp *spectral.Bandpass, opts ...DrawOption) (*image.Image, error) {
	if n == nil || bp == nil {
		return nil, fmt.Errorf("%w: nil node or bandpass", ErrInvalidComposition)
	}
	if !n.norm.HasSED() {
		return nil, ErrMissingSED
	}
	o := defaultDrawOptions()
	for _, opt := range opts {
		opt(&o)
	}
	rule, err := integ.ParseRule(o.rule)
	if err != nil {
		return nil, err
	}
	if !(o.iimult > 0) || !(o.wmult > 0) {
		return nil, fmt.Errorf("%w: oversample %g, size multiplier %g", profile.ErrInvalidParameter, o.iimult, o.wmult)
	}

	img := o.image
	add := o.add && img != nil
	if img == nil {
		fid, _, err := fiducial(n, bp)
		if err != nil {
			return nil, err
		}
		scale := o.scale
		if scale <= 0 {
			scale = profile.NyquistScale(fid)
		}
		w, h := o.width, o.height
		if w <= 0 || h <= 0 {
			w = profile.GoodImageSize(fid, scale)
			h = w
		}
		if img, err = image.New(w, h, scale); err != nil {
			return nil, err
		}
	}

	d := &drawer{eng: e, bp: bp, opts: o, rule: rule}
	if err := d.draw(n, img, add); err != nil {
		return nil, err
	}
	return img, nil
}

// drawer carries the state of one DrawImage call through the recursion.
type drawer struct {
	eng  *Engine
	bp   *spectral.Bandpass
	opts drawOptions
	rule integ.Rule
}

func (d *drawer) draw(n *Node, img *image.Image, add bool) error {
	switch {
	case n.kind == KindSum && !n.separable:
		d.debug("sum", n)
		for i, c := range n.children {
			if err := d.draw(c, img, add || i > 0); err != nil {
				return err
			}
		}
		return nil
	case n.kind == KindConvolution && !n.separable:
		return d.drawConvolution(n, img, add)
	case n.kind == KindTransform && n.children[0].kind == KindInterpolated:
		return d.drawTransformedInterpolated(n, img, add)
	case n.kind == KindInterpolated:
		return d.drawInterpolated(n, img, add)
	}
	return d.drawGeneric(n, img, add)
}

func (d *drawer) debug(path string, n *Node) {
	Logger().Debug("chromatic: draw", "path", path, "kind", n.kind, "separable", n.separable)
}

func (d *drawer) record(path string, evaluations int, separable bool) {
	if s := d.opts.stats; s != nil {
		s.Path = path
		s.Evaluations = evaluations
		s.Separable = separable
	}
}

// knots returns the quadrature knots of n in the bandpass: the union of node
// and bandpass knots inside the bandpass, plus its limits.
func (d *drawer) knots(waves []float64) []float64 {
	return spectral.ClipKnots(spectral.MergeKnots(waves, d.bp.WaveList()), d.bp.BlueLimit(), d.bp.RedLimit())
}

// drawGeneric renders n directly: once for separable nodes, once per
// quadrature wavelength otherwise.
func (d *drawer) drawGeneric(n *Node, img *image.Image, add bool) error {
	knots := d.knots(n.waves)
	if n.separable {
		d.debug("separable", n)
		fid, w0, err := fiducial(n, d.bp)
		if err != nil {
			return err
		}
		mult, err := d.eng.multiplier(n.norm, d.bp, knots)
		if err != nil {
			return err
		}
		d.record("separable", 1, true)
		return renderInto(profile.ScaleFlux(fid, mult/n.norm.At(w0)), img, d.opts.method, add)
	}

	d.debug("quadrature", n)
	it := d.integrator(knots)
	f := func(w float64) (*image.Image, error) {
		p, err := n.EvaluateAtWavelength(w)
		if err != nil {
			return nil, err
		}
		out := image.NewLike(img)
		if err := profile.Render(p, out, d.opts.method); err != nil {
			return nil, err
		}
		return out, nil
	}
	res, count, err := it.Integrate(f, d.bp, img)
	if err != nil {
		return err
	}
	Logger().Debug("chromatic: integrated", "samples", count, "rule", it.Rule())
	d.record("quadrature", count, false)
	if add {
		return img.Add(res)
	}
	return img.CopyFrom(res)
}

// integrator picks sample-based quadrature on knots when there are any and
// equally spaced sampling otherwise. An explicit integrator wins; a sample
// integrator without waves samples the knots.
func (d *drawer) integrator(knots []float64) integ.ImageIntegrator {
	if it := d.opts.integrator; it != nil {
		s, ok := it.(*integ.SampleIntegrator)
		if !ok || len(s.Waves()) > 0 {
			return it
		}
		if len(knots) > 0 {
			return s.WithWaves(knots)
		}
		return integ.NewContinuousIntegrator(s.Rule(), 0)
	}
	if len(knots) > 0 {
		return integ.NewSampleIntegrator(d.rule, knots)
	}
	return integ.NewContinuousIntegrator(d.rule, integ.DefaultContinuousSamples)
}

// multiplier returns the integral of norm times the bandpass, memoized.
func (e *Engine) multiplier(norm Normalization, bp *spectral.Bandpass, knots []float64) (float64, error) {
	key := multiplierKey{norm: norm.Key(), bandpass: bp.ID(), knots: knotsKey(knots)}
	v, hit, err := e.multipliers.GetOrCreate(key, func() (float64, error) {
		return spectral.Integrate(func(w float64) float64 {
			return norm.At(w) * bp.Evaluate(w)
		}, knots, bp.BlueLimit(), bp.RedLimit())
	})
	if err != nil {
		return 0, err
	}
	Logger().Debug("chromatic: multiplier", "norm", key.norm, "bandpass", bp, "hit", hit)
	return v, nil
}

func knotsKey(knots []float64) string {
	var b strings.Builder
	for i, k := range knots {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(k, 'g', -1, 64))
	}
	return b.String()
}

// fiducial finds a wavelength at which n has nonzero flux, trying the
// effective wavelength of bp first and then the bandpass midpoint and the
// bandpass and node knots, nearest first. A node that is dark inside bp but
// bright at one of its own knots gets that profile and draws as zero.
func fiducial(n *Node, bp *spectral.Bandpass) (profile.Profile, float64, error) {
	eff := bp.EffectiveWavelength()
	p, err := n.EvaluateAtWavelength(eff)
	switch {
	case err == nil && p.Flux() != 0:
		return p, eff, nil
	case err != nil && !errors.Is(err, ErrOutOfRange):
		return nil, 0, err
	}

	// Knots outside the bandpass are candidates too.
	cands := []float64{0.5 * (bp.BlueLimit() + bp.RedLimit())}
	cands = append(cands, bp.WaveList()...)
	cands = append(cands, n.waves...)
	dist := make([]float64, len(cands))
	for i, w := range cands {
		dist[i] = math.Abs(w - eff)
	}
	order := make([]int, len(cands))
	floats.Argsort(dist, order)
	for _, i := range order {
		w := cands[i]
		p, err := n.EvaluateAtWavelength(w)
		if errors.Is(err, ErrOutOfRange) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		if p.Flux() != 0 {
			return p, w, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %s through %s", ErrNoFiducialWavelength, n.kind, bp)
}

// renderInto renders p onto img, adding to the existing pixels if add is set.
func renderInto(p profile.Profile, img *image.Image, method profile.Method, add bool) error {
	if !add {
		return profile.Render(p, img, method)
	}
	tmp := image.NewLike(img)
	if err := profile.Render(p, tmp, method); err != nil {
		return err
	}
	return img.Add(tmp)
}
