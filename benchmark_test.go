package chromatic

import (
	"testing"

	"github.com/gogpu/chromatic/spectral"
)

func BenchmarkDrawImage(b *testing.B) {
	must := mustNode(b)
	bp := mustTopHat(b, 500, 600, 1)
	gal := New(mustGaussian(b, 1, 1), spectral.PowerLawSED(500, 1, 300, 1100))
	psf := must(Achromatic(mustGaussian(b, 0.5, 1)).Dilate(chromaticDilation(550)))
	conv := must(Convolve(gal, psf))
	interp := must(Interpolate(psf, []float64{500, 525, 550, 575, 600}))
	convInterp := must(Convolve(gal, interp))

	cases := []struct {
		name string
		node *Node
	}{
		{"separable", gal},
		{"quadrature", withFlatSED(b, psf)},
		{"effective", conv},
		{"interpolated", convInterp},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			e := mustEngine(b)
			b.ReportAllocs()
			for b.Loop() {
				if _, err := e.DrawImage(c.node, bp, WithScale(0.2), WithSize(32, 32)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func withFlatSED(tb testing.TB, n *Node) *Node {
	tb.Helper()
	out, err := n.WithSED(spectral.ConstantSED(1))
	if err != nil {
		tb.Fatal(err)
	}
	return out
}
