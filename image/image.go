// Package image provides the float64 pixel grids that chromatic profiles are
// rendered onto.
//
// An Image is a row-major array of surface-brightness samples with a uniform
// pixel scale. Pixel (x, y) is centered at world coordinates
//
//	((x - (width-1)/2) * scale, (y - (height-1)/2) * scale)
//
// so the origin always sits at the true center of the grid.
package image

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidScale is returned when the pixel scale is not positive.
	ErrInvalidScale = errors.New("image: invalid pixel scale")

	// ErrShapeMismatch is returned when two images combined pixel-wise differ in shape.
	ErrShapeMismatch = errors.New("image: shape mismatch")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")
)

// Image is a grid of float64 samples with a pixel scale.
//
// Thread safety: Image is safe for concurrent read access. Write operations
// require external synchronization. Images handed out by caches are shared and
// must be treated as read-only; Clone before modifying.
type Image struct {
	pix    []float64
	width  int
	height int
	scale  float64
}

// New creates a zeroed image with the given dimensions and pixel scale.
func New(width, height int, scale float64) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !(scale > 0) {
		return nil, ErrInvalidScale
	}
	return &Image{
		pix:    make([]float64, width*height),
		width:  width,
		height: height,
		scale:  scale,
	}, nil
}

// FromData creates an Image around existing row-major data without copying.
func FromData(data []float64, width, height int, scale float64) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !(scale > 0) {
		return nil, ErrInvalidScale
	}
	if len(data) < width*height {
		return nil, ErrDataTooSmall
	}
	return &Image{
		pix:    data[:width*height],
		width:  width,
		height: height,
		scale:  scale,
	}, nil
}

// NewLike returns a zeroed image with the same shape and scale as img.
func NewLike(img *Image) *Image {
	return &Image{
		pix:    make([]float64, len(img.pix)),
		width:  img.width,
		height: img.height,
		scale:  img.scale,
	}
}

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	c := NewLike(m)
	copy(c.pix, m.pix)
	return c
}

// Width returns the number of columns.
func (m *Image) Width() int { return m.width }

// Height returns the number of rows.
func (m *Image) Height() int { return m.height }

// Bounds returns width and height.
func (m *Image) Bounds() (int, int) { return m.width, m.height }

// Scale returns the pixel scale.
func (m *Image) Scale() float64 { return m.scale }

// Pix returns the underlying row-major samples.
func (m *Image) Pix() []float64 { return m.pix }

// At returns the sample at (x, y), or 0 outside the grid.
func (m *Image) At(x, y int) float64 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.pix[y*m.width+x]
}

// Set stores v at (x, y). Out-of-range coordinates are ignored.
func (m *Image) Set(x, y int, v float64) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.pix[y*m.width+x] = v
}

// Center returns the pixel-space coordinates of the true center.
func (m *Image) Center() (float64, float64) {
	return float64(m.width-1) / 2, float64(m.height-1) / 2
}

// PixelCenter returns the world coordinates of the center of pixel (x, y).
func (m *Image) PixelCenter(x, y int) (float64, float64) {
	cx, cy := m.Center()
	return (float64(x) - cx) * m.scale, (float64(y) - cy) * m.scale
}

// SameShape reports whether o has the same dimensions and scale as m.
func (m *Image) SameShape(o *Image) bool {
	return o != nil && m.width == o.width && m.height == o.height && m.scale == o.scale
}

// SetZero clears every sample.
func (m *Image) SetZero() {
	clear(m.pix)
}

// Sum returns the sum of all samples.
func (m *Image) Sum() float64 {
	return floats.Sum(m.pix)
}

// ScaleBy multiplies every sample by c.
func (m *Image) ScaleBy(c float64) {
	floats.Scale(c, m.pix)
}

// Add adds o to m pixel-wise.
func (m *Image) Add(o *Image) error {
	if !m.SameShape(o) {
		return ErrShapeMismatch
	}
	floats.Add(m.pix, o.pix)
	return nil
}

// AddScaled adds alpha*o to m pixel-wise.
func (m *Image) AddScaled(alpha float64, o *Image) error {
	if !m.SameShape(o) {
		return ErrShapeMismatch
	}
	floats.AddScaled(m.pix, alpha, o.pix)
	return nil
}

// CopyFrom overwrites m with the samples of o.
func (m *Image) CopyFrom(o *Image) error {
	if !m.SameShape(o) {
		return ErrShapeMismatch
	}
	copy(m.pix, o.pix)
	return nil
}

// MaxAbsDiff returns the largest absolute pixel difference between m and o.
func (m *Image) MaxAbsDiff(o *Image) (float64, error) {
	if !m.SameShape(o) {
		return 0, ErrShapeMismatch
	}
	return floats.Distance(m.pix, o.pix, inf), nil
}

// Moments returns the sum and the flux-weighted centroid in world coordinates.
func (m *Image) Moments() (flux, cx, cy float64) {
	var sx, sy float64
	for y := 0; y < m.height; y++ {
		row := m.pix[y*m.width : (y+1)*m.width]
		for x, v := range row {
			wx, wy := m.PixelCenter(x, y)
			flux += v
			sx += v * wx
			sy += v * wy
		}
	}
	if flux == 0 {
		return 0, 0, 0
	}
	return flux, sx / flux, sy / flux
}
