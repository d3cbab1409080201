package profile

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/gogpu/chromatic/image"
	"gonum.org/v1/gonum/dsp/fourier"
)

// maxFFTSize bounds the k-space grid used for rendering.
const maxFFTSize = 4096

// Method selects how a profile is sampled onto pixels.
type Method uint8

const (
	// MethodAuto integrates the profile over each pixel (convolution with
	// the pixel response).
	MethodAuto Method = iota

	// MethodNoPixel samples the surface brightness at pixel centers.
	MethodNoPixel
)

// String returns the name accepted by ParseMethod.
func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodNoPixel:
		return "no_pixel"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// ParseMethod maps "auto" or "no_pixel" to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "auto", "":
		return MethodAuto, nil
	case "no_pixel", "nopixel":
		return MethodNoPixel, nil
	default:
		return 0, fmt.Errorf("%w: draw method %q", ErrInvalidParameter, s)
	}
}

// ImageOption configures DrawImage.
type ImageOption func(*imageOptions)

type imageOptions struct {
	scale  float64
	width  int
	height int
	method Method
}

// WithScale sets the pixel scale. The default is the Nyquist scale.
func WithScale(scale float64) ImageOption {
	return func(o *imageOptions) {
		o.scale = scale
	}
}

// WithSize sets the image dimensions. The default is GoodImageSize.
func WithSize(width, height int) ImageOption {
	return func(o *imageOptions) {
		o.width = width
		o.height = height
	}
}

// WithMethod sets the sampling method.
func WithMethod(m Method) ImageOption {
	return func(o *imageOptions) {
		o.method = m
	}
}

// DrawImage renders p onto a newly allocated image.
func DrawImage(p Profile, opts ...ImageOption) (*image.Image, error) {
	var o imageOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = NyquistScale(p)
	}
	if o.width <= 0 || o.height <= 0 {
		n := GoodImageSize(p, o.scale)
		o.width, o.height = n, n
	}
	img, err := image.New(o.width, o.height, o.scale)
	if err != nil {
		return nil, err
	}
	if err := Render(p, img, o.method); err != nil {
		return nil, err
	}
	return img, nil
}

// Render overwrites dst with p. Pixel values are flux per pixel.
func Render(p Profile, dst *image.Image, method Method) error {
	if method == MethodNoPixel && p.HasAnalyticX() {
		renderX(p, dst)
		return nil
	}
	return renderK(p, dst, method)
}

func renderX(p Profile, dst *image.Image) {
	w, h := dst.Bounds()
	s := dst.Scale()
	area := s * s
	pix := dst.Pix()
	for y := range h {
		for x := range w {
			wx, wy := dst.PixelCenter(x, y)
			pix[y*w+x] = p.XValue(wx, wy) * area
		}
	}
}

// renderK samples the Fourier transform on an n x n grid with spacing
// 2 pi / (n s) and inverse transforms it. The pixel values are
//
//	I(x) = 1/n^2 sum_k F(k) exp(i k.x)
//
// which sums to F(0) over the full grid.
func renderK(p Profile, dst *image.Image, method Method) error {
	w, h := dst.Bounds()
	s := dst.Scale()

	n := max(w, h)
	if nk := math.Ceil(2 * math.Pi / (p.StepK() * s)); nk > float64(n) {
		n = int(math.Min(nk, maxFFTSize))
		n = max(n, w, h)
	}
	if n%2 == 1 {
		n++
	}
	dk := 2 * math.Pi / (float64(n) * s)

	// Even-sized images have their center between pixels.
	var shiftX, shiftY float64
	if w%2 == 0 {
		shiftX = 0.5 * s
	}
	if h%2 == 0 {
		shiftY = 0.5 * s
	}

	grid := make([][]complex128, n)
	for iy := range n {
		row := make([]complex128, n)
		my := wrapIndex(iy, n)
		ky := float64(my) * dk
		for ix := range n {
			mx := wrapIndex(ix, n)
			kx := float64(mx) * dk
			v := p.KValue(kx, ky)
			if v == 0 {
				continue
			}
			if method == MethodAuto {
				v *= complex(sinc(kx*s/2)*sinc(ky*s/2), 0)
			}
			// exp(i k.shift) and the (-1)^(mx+my) that moves the origin to
			// grid index n/2.
			phase := kx*shiftX + ky*shiftY + math.Pi*float64((mx+my)&1)
			row[ix] = v * cmplx.Exp(complex(0, phase))
		}
		grid[iy] = row
	}
	inverse2D(grid)

	norm := 1 / float64(n*n)
	offX, offY := n/2-w/2, n/2-h/2
	pix := dst.Pix()
	for y := range h {
		src := grid[y+offY]
		for x := range w {
			pix[y*w+x] = real(src[x+offX]) * norm
		}
	}
	return nil
}

func wrapIndex(i, n int) int {
	if i >= n/2 {
		return i - n
	}
	return i
}

func sinc(t float64) float64 {
	if math.Abs(t) < 1e-8 {
		return 1
	}
	return math.Sin(t) / t
}

// inverse2D applies the unnormalized inverse DFT to rows, then columns.
func inverse2D(a [][]complex128) {
	n := len(a)
	fft := fourier.NewCmplxFFT(n)
	for _, row := range a {
		fft.Sequence(row, row)
	}
	col := make([]complex128, n)
	for x := range n {
		for y := range n {
			col[y] = a[y][x]
		}
		fft.Sequence(col, col)
		for y := range n {
			a[y][x] = col[y]
		}
	}
}
