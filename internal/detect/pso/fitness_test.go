package pso

import (
	"testing"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/raster"
	"github.com/cadmatch/detect/internal/detect/render"
)

func TestFitnessIsZeroWhenPoseRendersNothing(t *testing.T) {
	gt := GroundTruth{
		Depth:   raster.NewDepthMap(10, 10),
		Normals: make([]r3.Vector, 100),
		Width:   10,
		Height:  10,
		Edgels:  raster.NewFeatureMap(10, 10),
	}
	pose := render.NewDepthImage(10, 10)
	normals := render.NewNormalsImage(10, 10)

	got := Fitness(gt, pose, normals, 20)
	if got != 0 {
		t.Errorf("expected zero fitness when nothing overlaps ground truth, got %f", got)
	}
}

func TestFitnessRewardsMatchingDepthAndNormals(t *testing.T) {
	gtDepth := raster.NewDepthMap(10, 10)
	gtEdgels := raster.NewFeatureMap(10, 10)
	gtNormals := make([]r3.Vector, 100)
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			gtDepth.Set(x, y, 500)
			gtNormals[y*10+x] = r3.Vector{Z: -1}
		}
	}
	gtEdgels.Set(2, 2, 255)
	gt := GroundTruth{Depth: gtDepth, Normals: gtNormals, Width: 10, Height: 10, Edgels: gtEdgels}

	pose := render.NewDepthImage(10, 10)
	normals := render.NewNormalsImage(10, 10)
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			pose.Pix[y*10+x] = 500
			normals.Pix[y*10+x] = r3.Vector{Z: -1}
		}
	}

	got := Fitness(gt, pose, normals, 20)
	if got >= 0 {
		t.Errorf("expected a negative fitness (sumD*sumU*sumE > 0) for a well-aligned pose, got %f", got)
	}
}

func TestFitnessPenalizesLargeDepthDisagreement(t *testing.T) {
	gtDepth := raster.NewDepthMap(5, 5)
	gtEdgels := raster.NewFeatureMap(5, 5)
	gtNormals := make([]r3.Vector, 25)
	for i := range gtDepth.Pix {
		gtDepth.Pix[i] = 500
		gtEdgels.Pix[i] = 255
	}
	gt := GroundTruth{Depth: gtDepth, Normals: gtNormals, Width: 5, Height: 5, Edgels: gtEdgels}

	close := render.NewDepthImage(5, 5)
	far := render.NewDepthImage(5, 5)
	for i := range close.Pix {
		close.Pix[i] = 505
		far.Pix[i] = 900
	}
	normals := render.NewNormalsImage(5, 5)

	closeFit := Fitness(gt, close, normals, 20)
	farFit := Fitness(gt, far, normals, 20)
	if closeFit == 0 || farFit != 0 {
		t.Fatalf("expected a close pose to score below zero and a far pose to score zero (all depth diffs beyond tolerance), got close=%f far=%f", closeFit, farFit)
	}
}
