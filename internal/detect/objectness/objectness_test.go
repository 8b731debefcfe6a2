package objectness

import (
	"image"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

func TestSlideAdmitsDenseRegionOnly(t *testing.T) {
	mask := raster.NewFeatureMap(20, 20)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			mask.Set(x, y, 255)
		}
	}

	c := model.DefaultCriteria()
	c.WindowStep = 2
	c.ObjectnessFactor = 1.0
	c.MinEdgelCount = 50

	windows := Slide(mask, 0, model.Size{Width: 8, Height: 8}, c)
	if len(windows) == 0 {
		t.Fatal("expected at least one admitted window over the dense region")
	}
	for _, w := range windows {
		if w.Rect.Min.X >= 10 || w.Rect.Min.Y >= 10 {
			t.Errorf("unexpected admitted window entirely outside the dense region: %v", w.Rect)
		}
	}
}

func TestSlideAdmitsNothingBelowThreshold(t *testing.T) {
	mask := raster.NewFeatureMap(20, 20)
	c := model.DefaultCriteria()
	c.MinEdgelCount = 1
	c.ObjectnessFactor = 1.0

	windows := Slide(mask, 0, model.Size{Width: 8, Height: 8}, c)
	if len(windows) != 0 {
		t.Errorf("expected no admitted windows over an empty mask, got %d", len(windows))
	}
}

func TestIntegralImageCountMatchesBruteForce(t *testing.T) {
	mask := raster.NewFeatureMap(15, 11)
	for y := 0; y < 11; y++ {
		for x := 0; x < 15; x++ {
			if (x*7+y*3)%5 == 0 {
				mask.Set(x, y, 255)
			}
		}
	}

	ii := buildIntegral(mask)
	rect := image.Rect(3, 2, 12, 9)

	want := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if mask.At(x, y) != 0 {
				want++
			}
		}
	}
	if got := ii.count(rect); got != want {
		t.Errorf("integral count mismatch: got %d, want %d", got, want)
	}
}
