package image

import "math"

var inf = math.Inf(1)

// SampleBilinear interpolates the image at world coordinates (wx, wy).
// Samples beyond the outermost pixel centers fall off linearly to zero over
// one pixel; further out the result is 0.
func (m *Image) SampleBilinear(wx, wy float64) float64 {
	cx, cy := m.Center()
	fx := wx/m.scale + cx
	fy := wy/m.scale + cy

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	if x0 < -1 || y0 < -1 || x0 >= m.width || y0 >= m.height {
		return 0
	}
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	return lerp2D(m.At(x0, y0), m.At(x0+1, y0), m.At(x0, y0+1), m.At(x0+1, y0+1), tx, ty)
}

// lerp2D performs bilinear interpolation between 4 values.
func lerp2D(v00, v10, v01, v11, tx, ty float64) float64 {
	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

// Lerp returns frac*b + (1-frac)*a as a new image.
func Lerp(a, b *Image, frac float64) (*Image, error) {
	if !a.SameShape(b) {
		return nil, ErrShapeMismatch
	}
	out := NewLike(a)
	for i := range out.pix {
		out.pix[i] = frac*b.pix[i] + (1-frac)*a.pix[i]
	}
	return out, nil
}

// WeightedSum returns sum_i weights[i]*imgs[i]. Images with zero weight are
// skipped. All images must share one shape.
func WeightedSum(weights []float64, imgs []*Image) (*Image, error) {
	if len(imgs) == 0 || len(weights) != len(imgs) {
		return nil, ErrShapeMismatch
	}
	out := NewLike(imgs[0])
	for i, im := range imgs {
		if weights[i] == 0 {
			continue
		}
		if err := out.AddScaled(weights[i], im); err != nil {
			return nil, err
		}
	}
	return out, nil
}
