package image

import (
	"errors"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		scale   float64
		wantErr error
	}{
		{"valid", 16, 8, 0.2, nil},
		{"1x1 minimum", 1, 1, 1, nil},
		{"zero width", 0, 8, 1, ErrInvalidDimensions},
		{"negative height", 8, -1, 1, ErrInvalidDimensions},
		{"zero scale", 8, 8, 0, ErrInvalidScale},
		{"NaN scale", 8, 8, math.NaN(), ErrInvalidScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := New(tt.width, tt.height, tt.scale)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if img.Width() != tt.width || img.Height() != tt.height {
				t.Errorf("Bounds() = %dx%d, want %dx%d", img.Width(), img.Height(), tt.width, tt.height)
			}
			if len(img.Pix()) != tt.width*tt.height {
				t.Errorf("len(Pix()) = %d, want %d", len(img.Pix()), tt.width*tt.height)
			}
		})
	}
}

func TestPixelCenter(t *testing.T) {
	odd, _ := New(5, 5, 0.5)
	if x, y := odd.PixelCenter(2, 2); x != 0 || y != 0 {
		t.Errorf("odd center = (%v, %v), want (0, 0)", x, y)
	}
	even, _ := New(4, 4, 1)
	if x, y := even.PixelCenter(2, 1); x != 0.5 || y != -0.5 {
		t.Errorf("even PixelCenter(2,1) = (%v, %v), want (0.5, -0.5)", x, y)
	}
}

func TestArithmetic(t *testing.T) {
	a, _ := New(3, 2, 1)
	b, _ := New(3, 2, 1)
	for i := range a.Pix() {
		a.Pix()[i] = float64(i)
		b.Pix()[i] = 1
	}

	if err := a.AddScaled(2, b); err != nil {
		t.Fatal(err)
	}
	if got := a.Sum(); got != 15+12 {
		t.Errorf("Sum() = %v, want 27", got)
	}

	a.ScaleBy(0.5)
	if got := a.At(2, 1); got != (5+2)*0.5 {
		t.Errorf("At(2,1) = %v, want 3.5", got)
	}

	other, _ := New(2, 3, 1)
	if err := a.Add(other); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Add() with mismatched shape error = %v, want ErrShapeMismatch", err)
	}

	a.SetZero()
	if a.Sum() != 0 {
		t.Error("SetZero() left nonzero samples")
	}
}

func TestLerp(t *testing.T) {
	a, _ := New(2, 2, 1)
	b, _ := New(2, 2, 1)
	for i := range b.Pix() {
		a.Pix()[i] = 1
		b.Pix()[i] = 3
	}

	tests := []struct {
		frac float64
		want float64
	}{
		{0, 1},
		{0.25, 1.5},
		{1, 3},
	}
	for _, tt := range tests {
		got, err := Lerp(a, b, tt.frac)
		if err != nil {
			t.Fatal(err)
		}
		if got.At(1, 1) != tt.want {
			t.Errorf("Lerp(frac=%v) = %v, want %v", tt.frac, got.At(1, 1), tt.want)
		}
	}
}

func TestWeightedSum(t *testing.T) {
	a, _ := New(2, 1, 1)
	b, _ := New(2, 1, 1)
	a.Set(0, 0, 1)
	b.Set(1, 0, 1)

	got, err := WeightedSum([]float64{2, 0.5}, []*Image{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if got.At(0, 0) != 2 || got.At(1, 0) != 0.5 {
		t.Errorf("WeightedSum = %v, want [2 0.5]", got.Pix())
	}

	if _, err := WeightedSum([]float64{1}, []*Image{a, b}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("WeightedSum with short weights error = %v, want ErrShapeMismatch", err)
	}
}

func TestSampleBilinear(t *testing.T) {
	img, _ := New(3, 3, 2)
	img.Set(1, 1, 4)

	tests := []struct {
		name   string
		wx, wy float64
		want   float64
	}{
		{"center", 0, 0, 4},
		{"half pixel right", 1, 0, 2},
		{"quarter diagonal", 1, 1, 1},
		{"far outside", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.SampleBilinear(tt.wx, tt.wy); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("SampleBilinear(%v, %v) = %v, want %v", tt.wx, tt.wy, got, tt.want)
			}
		})
	}
}

func TestMoments(t *testing.T) {
	img, _ := New(4, 4, 1)
	img.Set(3, 0, 2)
	img.Set(0, 0, 2)

	flux, cx, cy := img.Moments()
	if flux != 4 {
		t.Errorf("flux = %v, want 4", flux)
	}
	if cx != 0 || cy != -1.5 {
		t.Errorf("centroid = (%v, %v), want (0, -1.5)", cx, cy)
	}
}
