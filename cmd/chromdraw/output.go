package main

import (
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/gogpu/chromatic/image"
)

// writeImage encodes img by the extension of path. Row 0 of the output is
// the top of the image, so +y points up as in profile coordinates.
func writeImage(path string, img *image.Image) error {
	var encode func(io.Writer, stdimage.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".tif", ".tiff":
		encode = func(w io.Writer, m stdimage.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	case ".png":
		encode = png.Encode
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	err = encode(f, toGray16(img))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// toGray16 maps pixel values linearly onto [0, 65535], the brightest pixel
// to white. Negative values, which deconvolution can produce, clip to black.
func toGray16(img *image.Image) *stdimage.Gray16 {
	w, h := img.Bounds()
	peak := 0.0
	for _, v := range img.Pix() {
		peak = math.Max(peak, v)
	}
	out := stdimage.NewGray16(stdimage.Rect(0, 0, w, h))
	if peak == 0 {
		return out
	}
	for y := range h {
		for x := range w {
			v := math.Max(img.At(x, y), 0) / peak
			out.SetGray16(x, h-1-y, color.Gray16{Y: uint16(math.Round(v * math.MaxUint16))})
		}
	}
	return out
}
