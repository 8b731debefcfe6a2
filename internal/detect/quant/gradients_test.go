package quant

import (
	"testing"

	"github.com/cadmatch/detect/internal/detect/raster"
)

func TestGradientsVerticalEdgeDetected(t *testing.T) {
	gray := raster.NewGrayMap(6, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if x < 3 {
				gray.Set(x, y, 0)
			} else {
				gray.Set(x, y, 255)
			}
		}
	}

	out := Gradients(gray, GradientParams{MinMagnitude: 10})

	if code := out.At(3, 3); code == 0 {
		t.Error("expected a defined gradient bin across a strong vertical edge")
	}
}

func TestGradientsFlatRegionUndefined(t *testing.T) {
	gray := raster.NewGrayMap(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			gray.Set(x, y, 128)
		}
	}

	out := Gradients(gray, GradientParams{MinMagnitude: 1})
	if code := out.At(2, 2); code != 0 {
		t.Errorf("expected undefined gradient on a flat region, got %08b", code)
	}
}

func TestGradientsExactlyOneBinBitSet(t *testing.T) {
	gray := raster.NewGrayMap(8, 8)
	v := uint8(0)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			gray.Set(x, y, v)
			v += 3
		}
	}
	out := Gradients(gray, GradientParams{MinMagnitude: 5})
	for y := 1; y < 7; y++ {
		for x := 1; x < 7; x++ {
			code := out.At(x, y)
			if code == 0 {
				continue
			}
			if Popcount(code) != 1 {
				t.Fatalf("pixel (%d,%d): expected exactly one gradient bin bit, got %08b", x, y, code)
			}
		}
	}
}
