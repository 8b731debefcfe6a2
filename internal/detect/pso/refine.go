package pso

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/obslog"
	"github.com/cadmatch/detect/internal/detect/posealgebra"
	"github.com/cadmatch/detect/internal/detect/raster"
	"github.com/cadmatch/detect/internal/detect/render"
)

// Refine runs a full particle-swarm search to adjust match's pose so its
// rendered silhouette agrees with the scene. It renders every particle at
// every iteration against the given mesh with renderer, which must be the
// single renderer context the caller serializes all refinement through.
//
// The match's bounding box is inflated by c.PSOBoundingBoxMargin pixels
// before refinement, and camera intrinsics are cropped to that sub-image,
// matching the original classifier's focus on the local neighbourhood
// around a coarse match rather than the whole scene.
func Refine(renderer render.Renderer, mesh render.Mesh, gt GroundTruth, match model.Match, c *model.Criteria, rng *rand.Rand) (model.Match, error) {
	bb := inflate(match.BB, c.PSOBoundingBoxMargin, gt.Width, gt.Height)
	crop := cropGroundTruth(gt, bb)
	camera := match.Template.Camera.CropTo(bb)

	width, height := bb.Dx(), bb.Dy()
	const near, far = 1.0, 10000.0
	proj := posealgebra.PerspectiveFromIntrinsics(camera.K[0], camera.K[4], camera.K[2], camera.K[5], width, height, near, far)

	particles := InitPopulation(c.PSOParticleCount, rng)
	gBest := particles[0].Pose
	gBestFitness := math.Inf(1)

	for iter := 0; iter < c.PSOIterations; iter++ {
		failures := 0
		for i := range particles {
			p := &particles[i]
			mv := posealgebra.ModelView(camera, p.Pose)
			mvp := posealgebra.ModelViewProjection(mv, proj)

			depth, normals, err := renderer.Render(mesh, mv, mvp, width, height, near, far)
			var fitness float64
			if err != nil {
				obslog.Logf("pso: render failed for particle %d at iteration %d: %v", i, iter, err)
				failures++
				fitness = math.Inf(1)
			} else {
				fitness = Fitness(crop, depth, normals, c.PSODepthTolerance)
			}

			Step(p, fitness, gBest, c.PSOInertia, c.PSOCognitive, c.PSOSocial, rng)
			if fitness < gBestFitness {
				gBestFitness = fitness
				gBest = p.BestPose
			}
		}
		if failures == len(particles) {
			return match, fmt.Errorf("pso: renderer failed for every particle at iteration %d: %w", iter, detecterr.ErrRendererFailure)
		}
	}

	refined := match
	refined.Pose = gBest
	return refined, nil
}

// inflate grows bb by margin on every side, clamped to the scene bounds.
func inflate(bb image.Rectangle, margin, maxW, maxH int) image.Rectangle {
	out := image.Rect(bb.Min.X-margin, bb.Min.Y-margin, bb.Max.X+margin, bb.Max.Y+margin)
	return out.Intersect(image.Rect(0, 0, maxW, maxH))
}

// cropGroundTruth extracts the sub-image of the scene's depth/normals/
// edgels within bb, re-addressed to start at (0, 0).
func cropGroundTruth(gt GroundTruth, bb image.Rectangle) GroundTruth {
	w, h := bb.Dx(), bb.Dy()
	depth := raster.NewDepthMap(w, h)
	edgels := raster.NewFeatureMap(w, h)
	normals := make([]r3.Vector, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := bb.Min.X+x, bb.Min.Y+y
			depth.Set(x, y, gt.Depth.At(sx, sy))
			if gt.Edgels != nil {
				edgels.Set(x, y, gt.Edgels.At(sx, sy))
			}
			normals[y*w+x] = gt.normalAt(sx, sy)
		}
	}
	return GroundTruth{Depth: depth, Normals: normals, Width: w, Height: h, Edgels: edgels}
}
