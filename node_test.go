package chromatic

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

func mustGaussian(t testing.TB, sigma, flux float64) *profile.Gaussian {
	t.Helper()
	g, err := profile.NewGaussian(sigma, flux)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// mustNode returns a helper that fails the test on construction errors.
func mustNode(t testing.TB) func(*Node, error) *Node {
	return func(n *Node, err error) *Node {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return n
	}
}

func chromaticDilation(ref float64) spectral.WaveFunc[float64] {
	return spectral.Varying(func(w float64) float64 { return w / ref })
}

func TestSeparability(t *testing.T) {
	must := mustNode(t)
	sed := spectral.ConstantSED(1)
	twin := spectral.ConstantSED(1)
	a := New(mustGaussian(t, 1, 1), sed)
	b := New(mustGaussian(t, 2, 1), sed)
	c := New(mustGaussian(t, 3, 1), twin)
	psf := Achromatic(mustGaussian(t, 0.5, 1))

	tests := []struct {
		name      string
		node      *Node
		separable bool
	}{
		{"leaf", a, true},
		{"sum with shared SED", must(Add(a, b)), true},
		{"sum with equal but distinct SEDs", must(Add(a, c)), false},
		{"constant rescaling makes a new SED", must(Add(must(a.WithScaledFlux(spectral.Constant(2.0))), b)), false},
		{"unit rescaling keeps the SED", must(Add(must(a.WithScaledFlux(spectral.Constant(1.0))), b)), true},
		{"rescaled separable sum", must(must(Add(a, b)).WithScaledFlux(spectral.Constant(2.0))), true},
		{"convolution with achromatic PSF", must(Convolve(a, psf)), true},
		{"constant shear", must(a.Shear(0.1, 0.2)), true},
		{"chromatic dilation", must(a.Dilate(chromaticDilation(500))), false},
		{"chromatic flux ratio", must(a.WithScaledFlux(chromaticDilation(500))), false},
		{"convolution with chromatic PSF", must(Convolve(a, must(psf.Dilate(chromaticDilation(500))))), false},
		{"deconvolution", must(Deconvolve(psf)), true},
		{"SED flux ratio", must(psf.WithSED(sed)), true},
		{"SED flux ratio on chromatic PSF", must(must(psf.Dilate(chromaticDilation(500))).WithSED(sed)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Separable(); got != tt.separable {
				t.Errorf("Separable() = %v, want %v for %s", got, tt.separable, tt.node)
			}
		})
	}
}

func TestScaledFluxSED(t *testing.T) {
	must := mustNode(t)
	sed := spectral.ConstantSED(1)
	bp, err := spectral.TopHat(500, 600, 1)
	if err != nil {
		t.Fatal(err)
	}
	d := must(New(mustGaussian(t, 1, 1), sed).WithScaledFlux(spectral.Constant(2.0)))
	if d.SED() == sed {
		t.Fatal("rescaled node shares the original SED")
	}
	nodeFlux, err := d.CalculateFlux(bp)
	if err != nil {
		t.Fatal(err)
	}
	sedFlux, err := d.SED().CalculateFlux(bp)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(nodeFlux-200) > 1e-9 || math.Abs(sedFlux-nodeFlux) > 1e-9 {
		t.Errorf("node flux %v, SED flux %v, want 200 for both", nodeFlux, sedFlux)
	}
}

func TestSumGrouping(t *testing.T) {
	must := mustNode(t)
	sed := spectral.ConstantSED(1)
	other := spectral.ConstantSED(1)
	a := New(mustGaussian(t, 1, 1), sed)
	b := New(mustGaussian(t, 2, 1), other)
	c := New(mustGaussian(t, 3, 1), sed)

	sum := must(Add(a, b, c))
	kids := sum.Children()
	if len(kids) != 2 {
		t.Fatalf("got %d terms, want 2: %s", len(kids), sum)
	}
	if kids[0].Kind() != KindSum || !kids[0].Separable() || kids[0].SED() != sed {
		t.Errorf("first term = %s, want separable sum over the shared SED", kids[0])
	}
	if kids[1] != b {
		t.Errorf("second term = %s, want %s", kids[1], b)
	}

	// Nested sums flatten before grouping.
	again := must(Add(must(Add(a, b)), c))
	if got := len(again.Children()); got != 2 {
		t.Errorf("nested sum has %d terms, want 2", got)
	}
}

func TestCompositionErrors(t *testing.T) {
	sed := spectral.ConstantSED(1)
	a := New(mustGaussian(t, 1, 1), sed)
	b := New(mustGaussian(t, 2, 1), spectral.ConstantSED(2))
	psf := Achromatic(mustGaussian(t, 0.5, 1))

	tests := []struct {
		name string
		fn   func() (*Node, error)
		want error
	}{
		{"convolve two SEDs", func() (*Node, error) { return Convolve(a, b) }, ErrInvalidComposition},
		{"deconvolve SED", func() (*Node, error) { return Deconvolve(a) }, ErrInvalidComposition},
		{"autoconvolve SED", func() (*Node, error) { return AutoConvolve(a) }, ErrInvalidComposition},
		{"autocorrelate SED", func() (*Node, error) { return AutoCorrelate(a) }, ErrInvalidComposition},
		{"sqrt SED", func() (*Node, error) { return FourierSqrt(a) }, ErrInvalidComposition},
		{"mixed sum", func() (*Node, error) { return Add(a, psf) }, ErrInvalidComposition},
		{"empty sum", func() (*Node, error) { return Add() }, ErrInvalidComposition},
		{"empty convolution", func() (*Node, error) { return Convolve() }, ErrInvalidComposition},
		{"second SED", func() (*Node, error) { return a.WithSED(sed) }, ErrInvalidComposition},
		{"singular jacobian", func() (*Node, error) {
			return a.TransformJacobian(spectral.Constant(profile.Jacobian{A: 1, B: 2, C: 2, D: 4}))
		}, profile.ErrSingularTransform},
		{"bad shear", func() (*Node, error) { return a.Shear(0.8, 0.8) }, profile.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNormalization(t *testing.T) {
	must := mustNode(t)
	sed := spectral.PowerLawSED(500, 1, 300, 1100)
	a := New(mustGaussian(t, 1, 1), sed)
	psf := Achromatic(mustGaussian(t, 0.5, 1))

	if got := must(Convolve(a, psf)).SED(); got != sed {
		t.Errorf("convolution SED = %v, want the leaf SED", got)
	}
	if got := must(psf.WithSED(sed)).SED(); got != sed {
		t.Errorf("WithSED SED = %v, want %v", got, sed)
	}
	if got := must(a.WithScaledFlux(chromaticDilation(500))).SED(); got == sed || got == nil {
		t.Errorf("chromatic rescaling SED = %v, want a new SED", got)
	}

	// Achromatic profiles with non-unit flux carry their flux in an SED.
	bright := Achromatic(mustGaussian(t, 1, 4))
	if !bright.Normalization().HasSED() {
		t.Fatal("Achromatic(flux 4) has no SED")
	}
	p, err := bright.EvaluateAtWavelength(700)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Flux()-4) > 1e-12 {
		t.Errorf("flux = %v, want 4", p.Flux())
	}
	if psf.Normalization().HasSED() {
		t.Error("unit-flux Achromatic has an SED")
	}

	d := must(Deconvolve(must(psf.WithScaledFlux(spectral.Constant(2.0)))))
	if got := d.Normalization().ScalarFunc().Value(); got != 0.5 {
		t.Errorf("deconvolution normalization = %v, want 0.5", got)
	}
}

func TestEvaluateCommutesWithSum(t *testing.T) {
	must := mustNode(t)
	a := New(mustGaussian(t, 1, 2), spectral.PowerLawSED(500, 1, 300, 1100))
	b := must(New(mustGaussian(t, 0.7, 1), spectral.PowerLawSED(500, -2, 300, 1100)).Dilate(chromaticDilation(500)))
	shifted := must(b.Shift(spectral.Constant(profile.Offset{X: 0.5, Y: -1})))
	sum := must(Add(a, shifted))

	points := [][2]float64{{0, 0}, {0.3, -0.4}, {1.5, 1}, {-2, 0.1}}
	for _, w := range []float64{420, 500, 650, 900} {
		pa, err := a.EvaluateAtWavelength(w)
		if err != nil {
			t.Fatal(err)
		}
		pb, err := shifted.EvaluateAtWavelength(w)
		if err != nil {
			t.Fatal(err)
		}
		ps, err := sum.EvaluateAtWavelength(w)
		if err != nil {
			t.Fatal(err)
		}
		if d := ps.Flux() - (pa.Flux() + pb.Flux()); math.Abs(d) > 1e-12 {
			t.Errorf("w=%v: flux differs by %g", w, d)
		}
		for _, pt := range points {
			want := pa.XValue(pt[0], pt[1]) + pb.XValue(pt[0], pt[1])
			if d := ps.XValue(pt[0], pt[1]) - want; math.Abs(d) > 1e-12 {
				t.Errorf("w=%v: XValue%v differs by %g", w, pt, d)
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	must := mustNode(t)
	g := mustGaussian(t, 1, 3)
	a := New(g, spectral.PowerLawSED(500, 1, 300, 1100))

	p, err := a.EvaluateAtWavelength(600)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Flux()-3.6) > 1e-12 {
		t.Errorf("leaf flux at 600 = %v, want 3.6", p.Flux())
	}

	// Expansion after a shift scales the shift.
	tr := must(must(a.Shift(spectral.Constant(profile.Offset{X: 1}))).Expand(spectral.Constant(2.0)))
	if tr.Kind() != KindTransform || tr.Children()[0] != a {
		t.Fatalf("nested transforms not composed: %s", tr)
	}
	p, err = tr.EvaluateAtWavelength(500)
	if err != nil {
		t.Fatal(err)
	}
	if x, y := p.Centroid(); math.Abs(x-2) > 1e-12 || y != 0 {
		t.Errorf("centroid = (%v, %v), want (2, 0)", x, y)
	}
	if math.Abs(p.Flux()-12) > 1e-12 {
		t.Errorf("expanded flux = %v, want 12", p.Flux())
	}

	psf := Achromatic(mustGaussian(t, 1, 1))
	for _, tt := range []struct {
		name string
		node *Node
		flux float64
	}{
		{"autoconvolve", must(AutoConvolve(must(psf.WithScaledFlux(spectral.Constant(2.0))))), 4},
		{"autocorrelate", must(AutoCorrelate(psf)), 1},
		{"sqrt", must(FourierSqrt(must(psf.WithScaledFlux(spectral.Constant(4.0))))), 2},
		{"deconvolve", must(Deconvolve(must(psf.WithScaledFlux(spectral.Constant(4.0))))), 0.25},
	} {
		p, err := tt.node.EvaluateAtWavelength(550)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(p.Flux()-tt.flux) > 1e-12 {
			t.Errorf("%s flux = %v, want %v", tt.name, p.Flux(), tt.flux)
		}
	}
}

func TestInterpolateRoundTrip(t *testing.T) {
	// The SED is linear in wavelength, so the profile is too.
	n := New(mustGaussian(t, 1, 2), spectral.PowerLawSED(500, 1, 300, 1100))
	in, err := Interpolate(n, []float64{600, 400, 500, 500})
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind() != KindInterpolated || !in.Interpolated() || in.Separable() != n.Separable() {
		t.Fatalf("Interpolate returned %s", in)
	}
	if got := in.Grid(); len(got) != 3 || got[0] != 400 || got[2] != 600 {
		t.Errorf("Grid() = %v, want sorted unique wavelengths", got)
	}

	stored := in.grid.images[0]
	for _, w := range []float64{400, 437.5, 500, 561, 600} {
		got, err := in.EvaluateAtWavelength(w)
		if err != nil {
			t.Fatal(err)
		}
		exact, err := n.EvaluateAtWavelength(w)
		if err != nil {
			t.Fatal(err)
		}
		gi := image.NewLike(stored)
		ei := image.NewLike(stored)
		if err := profile.Render(got, gi, profile.MethodNoPixel); err != nil {
			t.Fatal(err)
		}
		if err := profile.Render(exact, ei, profile.MethodNoPixel); err != nil {
			t.Fatal(err)
		}
		d, err := gi.MaxAbsDiff(ei)
		if err != nil {
			t.Fatal(err)
		}
		if d > 1e-10 {
			t.Errorf("w=%v: interpolated image differs by %g", w, d)
		}
	}

	for _, w := range []float64{601, 399} {
		if _, err := in.EvaluateAtWavelength(w); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("EvaluateAtWavelength(%v) error = %v, want ErrOutOfRange", w, err)
		}
	}
	if _, err := Interpolate(n, []float64{500}); !errors.Is(err, profile.ErrInvalidParameter) {
		t.Errorf("single-wavelength grid error = %v", err)
	}
}

func TestDeinterpolated(t *testing.T) {
	must := mustNode(t)
	n := New(mustGaussian(t, 1, 1), spectral.ConstantSED(1))
	in := must(Interpolate(n, []float64{500, 600}, WithOversample(2), WithWorkers(1)))
	psf := Achromatic(mustGaussian(t, 0.5, 1))

	conv := must(Convolve(in, psf))
	if !conv.Interpolated() {
		t.Fatal("convolution of interpolated node is not interpolated")
	}
	plain := conv.Deinterpolated()
	if plain.Interpolated() || plain.Children()[0] != n {
		t.Errorf("Deinterpolated() = %s", plain)
	}
	if plain.Key() == conv.Key() {
		t.Error("deinterpolated node kept the interpolated key")
	}

	// Re-interpolating starts from the original node.
	again := must(Interpolate(in, []float64{450, 650}))
	if again.grid.original != n {
		t.Error("nested interpolation was not undone")
	}

	// Chromatic geometry deinterpolates; an achromatic one keeps the grid.
	if d := must(in.Dilate(chromaticDilation(550))); d.Interpolated() {
		t.Error("chromatic dilation kept the interpolation")
	}
	if d := must(in.Dilate(spectral.Constant(2.0))); !d.Interpolated() {
		t.Error("constant dilation dropped the interpolation")
	}
}

func TestKindAndString(t *testing.T) {
	must := mustNode(t)
	a := New(mustGaussian(t, 1, 1), spectral.ConstantSED(1))
	psf := Achromatic(mustGaussian(t, 1, 1))
	n := must(Convolve(a, must(Deconvolve(psf))))
	s := n.String()
	for _, want := range []string{"Convolution(", "Deconvolution(", "Gaussian(sigma=1"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if KindFourierSqrt.String() != "FourierSqrt" || Kind(99).String() != "Kind(99)" {
		t.Error("Kind.String() mismatch")
	}
	if a.Key() == New(mustGaussian(t, 1, 1), spectral.ConstantSED(1)).Key() {
		t.Error("distinct leaves share a key")
	}
	if must(Convolve(a, psf)).Key() != must(Convolve(a, psf)).Key() {
		t.Error("structurally equal nodes have different keys")
	}
}

func TestSub(t *testing.T) {
	must := mustNode(t)
	sed := spectral.ConstantSED(1)
	a := New(mustGaussian(t, 1, 3), sed)
	b := New(mustGaussian(t, 2, 1), sed)
	d := must(Sub(a, b))
	// Negating b gives it a new SED.
	if d.Separable() {
		t.Error("difference of nodes sharing an SED is separable")
	}
	p, err := d.EvaluateAtWavelength(500)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Flux()-2) > 1e-12 {
		t.Errorf("flux = %v, want 2", p.Flux())
	}
}
