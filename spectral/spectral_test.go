package spectral

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestWaveFunc(t *testing.T) {
	c := Constant(2.0)
	if c.Chromatic() || c.At(500) != 2 {
		t.Errorf("Constant(2) = %v chromatic=%v", c.At(500), c.Chromatic())
	}
	v := Varying(func(w float64) float64 { return w / 100 })
	if !v.Chromatic() || v.At(500) != 5 {
		t.Errorf("Varying(w/100).At(500) = %v", v.At(500))
	}

	p := Product(c, Constant(3.0))
	if p.Chromatic() || p.Value() != 6 {
		t.Errorf("Product of constants = %v, chromatic=%v", p.Value(), p.Chromatic())
	}
	if got := Product(c, v).At(300); got != 6 {
		t.Errorf("Product(2, w/100).At(300) = %v, want 6", got)
	}
	if got := Reciprocal(v).At(400); got != 0.25 {
		t.Errorf("Reciprocal.At(400) = %v, want 0.25", got)
	}
	if got := Sqrt(Square(v)).At(700); math.Abs(got-7) > 1e-15 {
		t.Errorf("Sqrt(Square).At(700) = %v, want 7", got)
	}
	if !IsOne(Constant(1.0)) || IsOne(v) {
		t.Error("IsOne misclassified")
	}
}

func TestWaveFuncKey(t *testing.T) {
	fn := func(w float64) float64 { return w }
	a, b := Varying(fn), Varying(fn)
	if a.Key() == b.Key() {
		t.Errorf("distinct Varying values share key %q", a.Key())
	}
	if Constant(1.5).Key() != Constant(1.5).Key() {
		t.Error("equal constants have different keys")
	}
	var zero WaveFunc[float64]
	if zero.Chromatic() || zero.At(1) != 0 {
		t.Error("zero WaveFunc is not the constant 0")
	}
}

func TestLookupTable(t *testing.T) {
	tab, err := NewLookupTable([]float64{400, 500, 600}, []float64{0, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		x, want float64
	}{
		{400, 0}, {450, 0.5}, {500, 1}, {575, 0.25}, {399, 0}, {601, 0},
	}
	for _, tt := range tests {
		if got := tab.At(tt.x); math.Abs(got-tt.want) > 1e-15 {
			t.Errorf("At(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if got := tab.Integral(); got != 100 {
		t.Errorf("Integral() = %v, want 100", got)
	}

	if _, err := NewLookupTable([]float64{1, 1}, []float64{0, 0}); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("non-increasing table error = %v, want ErrInvalidTable", err)
	}
	if _, err := NewLookupTable([]float64{1}, []float64{0}); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("short table error = %v, want ErrInvalidTable", err)
	}
}

func TestKnots(t *testing.T) {
	got := MergeKnots([]float64{500, 400}, nil, []float64{450, 500})
	if diff := cmp.Diff([]float64{400, 450, 500}, got); diff != "" {
		t.Errorf("MergeKnots mismatch (-want +got):\n%s", diff)
	}
	if MergeKnots(nil, nil) != nil {
		t.Error("MergeKnots of empty lists is not nil")
	}

	clipped := ClipKnots([]float64{300, 450, 500, 800}, 400, 600)
	if diff := cmp.Diff([]float64{400, 450, 500, 600}, clipped); diff != "" {
		t.Errorf("ClipKnots mismatch (-want +got):\n%s", diff)
	}
	if ClipKnots(nil, 400, 600) != nil {
		t.Error("ClipKnots(nil) is not nil")
	}
}

func TestBandpass(t *testing.T) {
	th, err := TopHat(500, 600, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if th.EffectiveWavelength() != 550 {
		t.Errorf("TopHat effective wavelength = %v, want 550", th.EffectiveWavelength())
	}
	if th.Evaluate(499) != 0 || th.Evaluate(550) != 0.8 {
		t.Error("TopHat throughput wrong")
	}
	if th.WaveList() != nil {
		t.Error("TopHat has knots")
	}

	tab, err := TabulatedBandpass([]float64{500, 600}, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	// int w*(w-500)/100 / int (w-500)/100 over [500,600] = 500 + 200/3.
	if got, want := tab.EffectiveWavelength(), 500+200.0/3; math.Abs(got-want) > 1e-9 {
		t.Errorf("tabulated effective wavelength = %v, want %v", got, want)
	}

	ramp, err := NewBandpass(func(w float64) float64 { return (w - 500) / 100 }, 500, 600)
	if err != nil {
		t.Fatal(err)
	}
	if got := ramp.EffectiveWavelength(); math.Abs(got-tab.EffectiveWavelength()) > 1e-6 {
		t.Errorf("analytic ramp effective wavelength = %v, want %v", got, tab.EffectiveWavelength())
	}
	if ramp.ID() == tab.ID() {
		t.Error("distinct bandpasses share an ID")
	}

	if _, err := TopHat(600, 500, 1); !errors.Is(err, ErrInvalidBandpass) {
		t.Errorf("reversed TopHat error = %v, want ErrInvalidBandpass", err)
	}
}

func TestSEDFlux(t *testing.T) {
	bp, _ := TopHat(500, 600, 0.5)
	s := ConstantSED(2)

	flux, err := s.CalculateFlux(bp)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(flux-100) > 1e-9 {
		t.Errorf("CalculateFlux = %v, want 100", flux)
	}

	scaled, err := s.WithFlux(10, bp)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := scaled.CalculateFlux(bp); math.Abs(got-10) > 1e-9 {
		t.Errorf("WithFlux(10) flux = %v", got)
	}
	if scaled.ID() == s.ID() {
		t.Error("WithFlux kept the original identity")
	}
}

func TestSEDTabulated(t *testing.T) {
	s, err := TabulatedSED([]float64{400, 500, 700}, []float64{1, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	bp, _ := TopHat(450, 650, 1)
	// knots 450,500,650: (1.5+2)/2*50 + 2*150
	got, err := s.CalculateFlux(bp)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-387.5) > 1e-9 {
		t.Errorf("CalculateFlux = %v, want 387.5", got)
	}
}

func TestSEDArithmetic(t *testing.T) {
	a, _ := TabulatedSED([]float64{400, 600}, []float64{1, 3})
	b := ConstantSED(1)
	sum := a.Add(b)
	if got := sum.Evaluate(500); got != 3 {
		t.Errorf("(a+b)(500) = %v, want 3", got)
	}
	if diff := cmp.Diff([]float64{400, 600}, sum.WaveList()); diff != "" {
		t.Errorf("sum knots mismatch (-want +got):\n%s", diff)
	}

	prod := a.Mul(Varying(func(w float64) float64 { return w / 500 }))
	opt := cmpopts.EquateApprox(0, 1e-12)
	got := []float64{prod.Evaluate(400), prod.Evaluate(500)}
	if diff := cmp.Diff([]float64{0.8, 2}, got, opt); diff != "" {
		t.Errorf("product mismatch (-want +got):\n%s", diff)
	}
}
