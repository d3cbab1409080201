package profile

import (
	"fmt"
	"math"

	"github.com/gogpu/chromatic/image"
)

// InterpolatedImage is a profile defined by a pixel grid. Pixel values are
// flux per pixel. The grid is interpolated with a band-limited (sinc)
// kernel, so the Fourier transform is the discrete transform of the pixels
// inside the pixel Nyquist band and zero outside it. A grid rendered without
// pixel response at or above the Nyquist rate is reproduced exactly.
type InterpolatedImage struct {
	img    *image.Image
	flux   float64
	cx, cy float64
	stepK  float64
	maxK   float64
	kBand  float64
}

// NewInterpolatedImage wraps img. Non-positive stepK or maxK are derived from
// the image: stepK from its extent and maxK from its pixel scale. The image is
// retained, not copied, and must not be modified afterwards.
func NewInterpolatedImage(img *image.Image, stepK, maxK float64) (*InterpolatedImage, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidParameter)
	}
	s := img.Scale()
	band := math.Pi / s
	if stepK <= 0 {
		n := max(img.Width(), img.Height())
		stepK = 2 * math.Pi / (float64(n) * s)
	}
	if maxK <= 0 || maxK > band {
		maxK = band
	}
	flux, cx, cy := img.Moments()
	return &InterpolatedImage{
		img:   img,
		flux:  flux,
		cx:    cx,
		cy:    cy,
		stepK: stepK,
		maxK:  maxK,
		kBand: band * (1 + 1e-12),
	}, nil
}

// Image returns the underlying grid.
func (p *InterpolatedImage) Image() *image.Image { return p.img }

func (p *InterpolatedImage) Flux() float64 { return p.flux }

// XValue sums the sinc kernel over every pixel and is O(width*height).
func (p *InterpolatedImage) XValue(x, y float64) float64 {
	w, h := p.img.Bounds()
	s := p.img.Scale()
	cx, cy := p.img.Center()
	kx := make([]float64, w)
	for i := range kx {
		kx[i] = sinc(math.Pi * (x/s - (float64(i) - cx)))
	}
	pix := p.img.Pix()
	var sum float64
	for j := range h {
		ky := sinc(math.Pi * (y/s - (float64(j) - cy)))
		if ky == 0 {
			continue
		}
		var row float64
		for i, v := range pix[j*w : (j+1)*w] {
			row += v * kx[i]
		}
		sum += row * ky
	}
	return sum / (s * s)
}

// KValue is the discrete Fourier transform of the pixel values inside
// |kx|, |ky| <= pi/scale.
func (p *InterpolatedImage) KValue(kx, ky float64) complex128 {
	if math.Abs(kx) > p.kBand || math.Abs(ky) > p.kBand {
		return 0
	}
	w, h := p.img.Bounds()
	s := p.img.Scale()
	px := phases(kx, w, s)
	py := phases(ky, h, s)
	pix := p.img.Pix()
	var sum complex128
	for y := range h {
		var row complex128
		for x, v := range pix[y*w : (y+1)*w] {
			if v != 0 {
				row += complex(v, 0) * px[x]
			}
		}
		sum += row * py[y]
	}
	return sum
}

// phases returns exp(-i k x_j) for the n pixel centers along one axis.
func phases(k float64, n int, s float64) []complex128 {
	out := make([]complex128, n)
	c := float64(n-1) / 2
	for j := range out {
		sin, cos := math.Sincos(-k * (float64(j) - c) * s)
		out[j] = complex(cos, sin)
	}
	return out
}

func (p *InterpolatedImage) MaxK() float64                { return p.maxK }
func (p *InterpolatedImage) StepK() float64               { return p.stepK }
func (p *InterpolatedImage) Centroid() (float64, float64) { return p.cx, p.cy }
func (p *InterpolatedImage) HasAnalyticX() bool           { return false }

func (p *InterpolatedImage) String() string {
	w, h := p.img.Bounds()
	return fmt.Sprintf("InterpolatedImage(%dx%d, scale=%g, flux=%g)", w, h, p.img.Scale(), p.flux)
}
