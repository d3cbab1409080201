package chromatic

import (
	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/integ"
	"github.com/gogpu/chromatic/profile"
)

// Default engine settings.
const (
	// DefaultCacheSize is the capacity of each engine cache.
	DefaultCacheSize = 10

	// DefaultRule is the integration rule used when none is given.
	DefaultRule = "trapezoidal"
)

// EngineOption configures an Engine during creation.
//
// Example:
//
//	eng, err := chromatic.NewEngine(
//		chromatic.WithMultiplierCacheSize(100),
//		chromatic.WithEffectiveProfileCacheSize(20),
//	)
type EngineOption func(*engineOptions)

type engineOptions struct {
	multiplierSize int
	effectiveSize  int
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		multiplierSize: DefaultCacheSize,
		effectiveSize:  DefaultCacheSize,
	}
}

// WithMultiplierCacheSize sets the capacity of the cache of spectral
// integrals used for separable nodes.
func WithMultiplierCacheSize(n int) EngineOption {
	return func(o *engineOptions) {
		o.multiplierSize = n
	}
}

// WithEffectiveProfileCacheSize sets the capacity of the cache of
// wavelength-integrated effective profiles used by convolutions.
func WithEffectiveProfileCacheSize(n int) EngineOption {
	return func(o *engineOptions) {
		o.effectiveSize = n
	}
}

// DrawOption configures a single DrawImage call.
//
// Example:
//
//	img, err := eng.DrawImage(node, bp,
//		chromatic.WithScale(0.2),
//		chromatic.WithIntegrationRule("midpoint"),
//	)
type DrawOption func(*drawOptions)

type drawOptions struct {
	image      *image.Image
	scale      float64
	width      int
	height     int
	method     profile.Method
	add        bool
	rule       string
	integrator integ.ImageIntegrator
	iimult     float64
	wmult      float64
	stats      *DrawStats
}

func defaultDrawOptions() drawOptions {
	return drawOptions{
		rule:   DefaultRule,
		iimult: 1,
		wmult:  1,
	}
}

// DrawStats receives diagnostics from a DrawImage call.
type DrawStats struct {
	// Evaluations is the number of monochromatic evaluations made by the
	// last wavelength integration. For sums this describes the final
	// summand only.
	Evaluations int

	// Separable reports whether the last integration took the separable
	// path.
	Separable bool

	// Path names the strategy that produced the image.
	Path string
}

// WithImage draws onto img instead of allocating a new image. Its scale and
// size take precedence over WithScale and WithSize.
func WithImage(img *image.Image) DrawOption {
	return func(o *drawOptions) {
		o.image = img
	}
}

// WithScale sets the pixel scale of a newly allocated image. The default is
// the Nyquist scale of the fiducial profile.
func WithScale(scale float64) DrawOption {
	return func(o *drawOptions) {
		o.scale = scale
	}
}

// WithSize sets the dimensions of a newly allocated image.
func WithSize(width, height int) DrawOption {
	return func(o *drawOptions) {
		o.width = width
		o.height = height
	}
}

// WithMethod selects pixel-integrated or point-sampled rendering.
func WithMethod(m profile.Method) DrawOption {
	return func(o *drawOptions) {
		o.method = m
	}
}

// WithAddToImage adds the result to the image given by WithImage instead of
// overwriting it.
func WithAddToImage(add bool) DrawOption {
	return func(o *drawOptions) {
		o.add = add
	}
}

// WithIntegrationRule selects "trapezoidal" or "midpoint" weights for
// wavelength integration.
func WithIntegrationRule(name string) DrawOption {
	return func(o *drawOptions) {
		o.rule = name
	}
}

// WithIntegrator supplies an explicit wavelength integrator, overriding the
// rule-based choice. Interpolated nodes accept only rule names.
func WithIntegrator(it integ.ImageIntegrator) DrawOption {
	return func(o *drawOptions) {
		o.integrator = it
	}
}

// WithOversampleMultiplier oversamples the effective profiles built for
// convolutions by m.
func WithOversampleMultiplier(m float64) DrawOption {
	return func(o *drawOptions) {
		o.iimult = m
	}
}

// WithImageSizeMultiplier enlarges the effective profiles built for
// convolutions by m.
func WithImageSizeMultiplier(m float64) DrawOption {
	return func(o *drawOptions) {
		o.wmult = m
	}
}

// WithStats records diagnostics into s.
func WithStats(s *DrawStats) DrawOption {
	return func(o *drawOptions) {
		o.stats = s
	}
}

// InterpolateOption configures Interpolate.
type InterpolateOption func(*interpolateOptions)

type interpolateOptions struct {
	oversample float64
	workers    int
}

// WithOversample renders the stored images at the Nyquist scale divided by f.
func WithOversample(f float64) InterpolateOption {
	return func(o *interpolateOptions) {
		o.oversample = f
	}
}

// WithWorkers bounds the number of images rendered concurrently. Zero or
// less uses GOMAXPROCS.
func WithWorkers(n int) InterpolateOption {
	return func(o *interpolateOptions) {
		o.workers = n
	}
}
